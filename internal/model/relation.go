package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DisposerWaste states that a disposer handles a waste, under which unit of
// measure and currency, and on what commercial terms. At most one relation
// exists per (disposer, waste) pair; it anchors the price ledger and is
// deactivated rather than deleted so history stays intact.
type DisposerWaste struct {
	ID           uuid.UUID        `json:"id"`
	DisposerID   uuid.UUID        `json:"disposer_id"`
	WasteID      uuid.UUID        `json:"waste_id"`
	UomID        uuid.UUID        `json:"uom_id"`
	CurrencyID   uuid.UUID        `json:"currency_id"`
	MinLot       *decimal.Decimal `json:"min_lot,omitempty"`
	LeadTimeDays *int             `json:"lead_time_days,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	IsActive     bool             `json:"is_active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
