package model

import (
	"time"

	"github.com/google/uuid"
)

// Disposer is a company that receives and processes waste from others.
type Disposer struct {
	ID        uuid.UUID          `json:"id"`
	LegalName string             `json:"legal_name"`
	TradeName *string            `json:"trade_name,omitempty"`
	TaxID     string             `json:"tax_id"`
	Website   *string            `json:"website,omitempty"`
	IsActive  bool               `json:"is_active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Contacts  []DisposerContact  `json:"contacts,omitempty" gorm:"-"`
}

type DisposerContact struct {
	ID          uuid.UUID `json:"id"`
	DisposerID  uuid.UUID `json:"disposer_id"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	Role        *string   `json:"role,omitempty"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`
}
