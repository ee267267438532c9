package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// RelationService manages disposer-waste pairings. A pairing is unique per
// (disposer, waste) and must exist before any price can be recorded for it.
type RelationService struct {
	relations RelationStore
	catalog   CatalogStore
}

func NewRelationService(relations RelationStore, catalog CatalogStore) *RelationService {
	return &RelationService{relations: relations, catalog: catalog}
}

type CreateRelationInput struct {
	DisposerID   uuid.UUID
	WasteID      uuid.UUID
	UomID        uuid.UUID
	CurrencyID   uuid.UUID
	MinLot       *decimal.Decimal
	LeadTimeDays *int
	Notes        *string
}

func (s *RelationService) Create(ctx context.Context, input CreateRelationInput) (*model.DisposerWaste, error) {
	if input.DisposerID == uuid.Nil || input.WasteID == uuid.Nil ||
		input.UomID == uuid.Nil || input.CurrencyID == uuid.Nil {
		return nil, fmt.Errorf("%w: disposer_id, waste_id, uom_id and currency_id are required", ErrInvalidInput)
	}
	if input.MinLot != nil && input.MinLot.IsNegative() {
		return nil, fmt.Errorf("%w: min_lot cannot be negative", ErrInvalidInput)
	}
	if input.LeadTimeDays != nil && *input.LeadTimeDays < 0 {
		return nil, fmt.Errorf("%w: lead_time_days cannot be negative", ErrInvalidInput)
	}

	disposer, err := s.catalog.GetDisposer(ctx, input.DisposerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: disposer %s", ErrNotFound, input.DisposerID)
		}
		return nil, err
	}
	if !disposer.IsActive {
		return nil, fmt.Errorf("%w: disposer %s is inactive", ErrInvalidInput, input.DisposerID)
	}

	waste, err := s.catalog.GetWaste(ctx, input.WasteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: waste %s", ErrNotFound, input.WasteID)
		}
		return nil, err
	}
	if !waste.IsActive {
		return nil, fmt.Errorf("%w: waste %s is inactive", ErrInvalidInput, input.WasteID)
	}

	if _, err := s.catalog.GetUom(ctx, input.UomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: uom %s", ErrNotFound, input.UomID)
		}
		return nil, err
	}
	if _, err := s.catalog.GetCurrency(ctx, input.CurrencyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: currency %s", ErrNotFound, input.CurrencyID)
		}
		return nil, err
	}

	rel, err := s.relations.Create(ctx, model.DisposerWaste{
		DisposerID:   input.DisposerID,
		WasteID:      input.WasteID,
		UomID:        input.UomID,
		CurrencyID:   input.CurrencyID,
		MinLot:       input.MinLot,
		LeadTimeDays: input.LeadTimeDays,
		Notes:        input.Notes,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: relation for disposer %s and waste %s",
				ErrAlreadyExists, input.DisposerID, input.WasteID)
		}
		return nil, err
	}
	return rel, nil
}

func (s *RelationService) Get(ctx context.Context, id uuid.UUID) (*model.DisposerWaste, error) {
	rel, err := s.relations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, err
	}
	return rel, nil
}

// Deactivate retires a pairing. Its price history stays in the ledger.
func (s *RelationService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.relations.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRelationNotFound
		}
		return err
	}
	return nil
}
