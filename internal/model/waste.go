package model

import (
	"time"

	"github.com/google/uuid"
)

// The waste taxonomy is a three-level hierarchy: type > category > waste
// (product). Categories and wastes reference their parent and are never
// hard-deleted while priced relations point at them.

type WasteType struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       *string   `json:"color,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WasteCategory struct {
	ID             uuid.UUID `json:"id"`
	WasteTypeID    uuid.UUID `json:"waste_type_id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	TechnicalSpecs *string   `json:"technical_specs,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Waste struct {
	ID              uuid.UUID  `json:"id"`
	WasteCategoryID *uuid.UUID `json:"waste_category_id,omitempty"`
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	SubproductName  *string    `json:"subproduct_name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	HazardClass     *string    `json:"hazard_class,omitempty"`
	Specifications  *string    `json:"specifications,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HierarchyRow is one flattened row of the type > category > waste tree, the
// shape the dashboard consumes.
type HierarchyRow struct {
	TypeID        uuid.UUID  `json:"type_id"`
	TypeCode      string     `json:"type_code"`
	TypeName      string     `json:"type_name"`
	TypeColor     *string    `json:"type_color,omitempty"`
	TypeIcon      *string    `json:"type_icon,omitempty"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	CategoryCode  *string    `json:"category_code,omitempty"`
	CategoryName  *string    `json:"category_name,omitempty"`
	CategorySpecs *string    `json:"category_specs,omitempty"`
	WasteID       *uuid.UUID `json:"waste_id,omitempty"`
	WasteCode     *string    `json:"waste_code,omitempty"`
	WasteName     *string    `json:"waste_name,omitempty"`
	Subproduct    *string    `json:"subproduct_name,omitempty"`
	HazardClass   *string    `json:"hazard_class,omitempty"`
	FullHierarchy string     `json:"full_hierarchy"`
}
