package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// Store interfaces the services depend on; the gorm repositories satisfy
// them, and the tests substitute in-memory fakes.

type PriceStore interface {
	Transition(ctx context.Context, relationID uuid.UUID, price decimal.Decimal, effectiveAt time.Time, source, notes *string) (*model.PriceRecord, error)
	CurrentPrice(ctx context.Context, relationID uuid.UUID, asOf time.Time) (*model.PriceRecord, error)
	TimeSeries(ctx context.Context, relationID uuid.UUID) ([]model.PriceRecord, error)
	PricesForDisposer(ctx context.Context, disposerID uuid.UUID, asOf time.Time) ([]model.DisposerPrice, error)
	Compare(ctx context.Context, wasteID uuid.UUID, asOf time.Time) ([]model.ComparisonEntry, error)
	Overview(ctx context.Context, asOf time.Time) ([]model.OverviewRow, error)
}

type RelationStore interface {
	Create(ctx context.Context, rel model.DisposerWaste) (*model.DisposerWaste, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.DisposerWaste, error)
	GetByPair(ctx context.Context, disposerID, wasteID uuid.UUID) (*model.DisposerWaste, error)
	GetActiveByPair(ctx context.Context, disposerID, wasteID uuid.UUID) (*model.DisposerWaste, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	CountActiveByDisposer(ctx context.Context, disposerID uuid.UUID) (int64, error)
	CountActiveByWaste(ctx context.Context, wasteID uuid.UUID) (int64, error)
}

type CatalogStore interface {
	ListDisposers(ctx context.Context) ([]model.Disposer, error)
	ListActiveDisposers(ctx context.Context) ([]model.Disposer, error)
	GetDisposer(ctx context.Context, id uuid.UUID) (*model.Disposer, error)
	CreateDisposer(ctx context.Context, disposer model.Disposer) (*model.Disposer, error)
	UpdateDisposer(ctx context.Context, disposer model.Disposer) (*model.Disposer, error)
	DeactivateDisposer(ctx context.Context, id uuid.UUID) error

	ListWastes(ctx context.Context) ([]model.Waste, error)
	GetWaste(ctx context.Context, id uuid.UUID) (*model.Waste, error)
	FindWasteByCode(ctx context.Context, code string) (*model.Waste, error)
	CreateWaste(ctx context.Context, waste model.Waste) (*model.Waste, error)
	UpdateWaste(ctx context.Context, waste model.Waste) (*model.Waste, error)
	DeactivateWaste(ctx context.Context, id uuid.UUID) error

	ListWasteTypes(ctx context.Context) ([]model.WasteType, error)
	FindWasteTypeByCode(ctx context.Context, code string) (*model.WasteType, error)
	CreateWasteType(ctx context.Context, wasteType model.WasteType) (*model.WasteType, error)
	ListWasteCategoriesByType(ctx context.Context, wasteTypeID uuid.UUID) ([]model.WasteCategory, error)
	FindWasteCategoryByCode(ctx context.Context, wasteTypeID uuid.UUID, code string) (*model.WasteCategory, error)
	CreateWasteCategory(ctx context.Context, category model.WasteCategory) (*model.WasteCategory, error)
	ListWastesByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Waste, error)
	Hierarchy(ctx context.Context) ([]model.HierarchyRow, error)

	GetUom(ctx context.Context, id uuid.UUID) (*model.Uom, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (*model.Currency, error)
}
