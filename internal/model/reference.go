package model

import "github.com/google/uuid"

// Uom is a unit of measure wastes are traded in (kg, ton, m3).
type Uom struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
}

// Currency carries the decimal precision prices are displayed with.
type Currency struct {
	ID       uuid.UUID `json:"id"`
	Code     string    `json:"code"`
	Symbol   string    `json:"symbol"`
	Decimals int       `json:"decimals"`
}
