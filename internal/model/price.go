package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvariantViolation means the ledger holds more than one open period for
// a relation. That can only happen through a bug or an unguarded write path;
// readers and the transition engine refuse to proceed instead of picking one.
var ErrInvariantViolation = errors.New("price ledger invariant violated")

// PriceRecord is one entry of the append-only price ledger. Once written, the
// only mutation it ever sees is the transition engine closing its period.
type PriceRecord struct {
	ID           uuid.UUID       `json:"id"`
	RelationID   uuid.UUID       `json:"relation_id"`
	Price        decimal.Decimal `json:"price"`
	Period       Period          `json:"period"`
	Source       *string         `json:"source,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// DisposerPrice is a current-price projection row for one relation of a
// disposer, joined with waste, uom and currency.
type DisposerPrice struct {
	RecordID     uuid.UUID        `json:"record_id"`
	RelationID   uuid.UUID        `json:"relation_id"`
	Price        decimal.Decimal  `json:"price"`
	Period       Period           `json:"period"`
	Source       *string          `json:"source,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	RecordedAt   time.Time        `json:"recorded_at"`
	WasteID      uuid.UUID        `json:"waste_id"`
	WasteCode    string           `json:"waste_code"`
	WasteName    string           `json:"waste_name"`
	UomCode      string           `json:"uom_code"`
	CurrencyCode string           `json:"currency_code"`
	Symbol       string           `json:"currency_symbol"`
	MinLot       *decimal.Decimal `json:"min_lot,omitempty"`
	LeadTimeDays *int             `json:"lead_time_days,omitempty"`
}

// ComparisonEntry is one disposer's current price for a waste, ordered
// highest first so the best offer for a seller tops the list.
type ComparisonEntry struct {
	RecordID     uuid.UUID        `json:"record_id"`
	RelationID   uuid.UUID        `json:"relation_id"`
	Price        decimal.Decimal  `json:"price"`
	Period       Period           `json:"period"`
	Source       *string          `json:"source,omitempty"`
	RecordedAt   time.Time        `json:"recorded_at"`
	DisposerID   uuid.UUID        `json:"disposer_id"`
	LegalName    string           `json:"legal_name"`
	TradeName    *string          `json:"trade_name,omitempty"`
	UomCode      string           `json:"uom_code"`
	CurrencyCode string           `json:"currency_code"`
	Symbol       string           `json:"currency_symbol"`
	MinLot       *decimal.Decimal `json:"min_lot,omitempty"`
	LeadTimeDays *int             `json:"lead_time_days,omitempty"`
}

// OverviewRow is the consolidated view of every current price across all
// active relations.
type OverviewRow struct {
	RecordID     uuid.UUID        `json:"record_id"`
	Price        decimal.Decimal  `json:"price"`
	Period       Period           `json:"period"`
	Source       *string          `json:"source,omitempty"`
	RecordedAt   time.Time        `json:"recorded_at"`
	DisposerID   uuid.UUID        `json:"disposer_id"`
	LegalName    string           `json:"legal_name"`
	TradeName    *string          `json:"trade_name,omitempty"`
	WasteID      uuid.UUID        `json:"waste_id"`
	WasteCode    string           `json:"waste_code"`
	WasteName    string           `json:"waste_name"`
	UomCode      string           `json:"uom_code"`
	CurrencyCode string           `json:"currency_code"`
	Symbol       string           `json:"currency_symbol"`
	MinLot       *decimal.Decimal `json:"min_lot,omitempty"`
	LeadTimeDays *int             `json:"lead_time_days,omitempty"`
}

// PriceStats aggregates the current prices offered for a waste. An empty
// market is a normal state: Count is zero and the extremes stay nil.
type PriceStats struct {
	WasteID       uuid.UUID         `json:"waste_id"`
	DisposerCount int               `json:"disposer_count"`
	MinPrice      *decimal.Decimal  `json:"min_price"`
	MaxPrice      *decimal.Decimal  `json:"max_price"`
	AvgPrice      *decimal.Decimal  `json:"avg_price"`
	Prices        []ComparisonEntry `json:"prices"`
}
