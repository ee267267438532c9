package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// CatalogService manages the anchor entities of the price ledger. Disposers
// and wastes are never hard-deleted: anything that ever anchored price
// history is deactivated instead, and deactivation itself is refused while
// active relations still point at the entity.
type CatalogService struct {
	catalog   CatalogStore
	relations RelationStore
}

func NewCatalogService(catalog CatalogStore, relations RelationStore) *CatalogService {
	return &CatalogService{catalog: catalog, relations: relations}
}

func (s *CatalogService) ListDisposers(ctx context.Context) ([]model.Disposer, error) {
	disposers, err := s.catalog.ListDisposers(ctx)
	if err != nil {
		return nil, err
	}
	if disposers == nil {
		disposers = []model.Disposer{}
	}
	return disposers, nil
}

func (s *CatalogService) ListActiveDisposers(ctx context.Context) ([]model.Disposer, error) {
	disposers, err := s.catalog.ListActiveDisposers(ctx)
	if err != nil {
		return nil, err
	}
	if disposers == nil {
		disposers = []model.Disposer{}
	}
	return disposers, nil
}

func (s *CatalogService) GetDisposer(ctx context.Context, id uuid.UUID) (*model.Disposer, error) {
	disposer, err := s.catalog.GetDisposer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return disposer, nil
}

type CreateDisposerInput struct {
	LegalName string
	TradeName *string
	TaxID     string
	Website   *string
	Contacts  []model.DisposerContact
}

func (s *CatalogService) CreateDisposer(ctx context.Context, input CreateDisposerInput) (*model.Disposer, error) {
	if strings.TrimSpace(input.LegalName) == "" {
		return nil, fmt.Errorf("%w: legal_name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.TaxID) == "" {
		return nil, fmt.Errorf("%w: tax_id is required", ErrInvalidInput)
	}

	disposer, err := s.catalog.CreateDisposer(ctx, model.Disposer{
		LegalName: strings.TrimSpace(input.LegalName),
		TradeName: input.TradeName,
		TaxID:     strings.TrimSpace(input.TaxID),
		Website:   input.Website,
		Contacts:  input.Contacts,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: disposer with tax_id %s", ErrAlreadyExists, input.TaxID)
		}
		return nil, err
	}
	return disposer, nil
}

type UpdateDisposerInput struct {
	LegalName *string
	TradeName *string
	TaxID     *string
	Website   *string
	IsActive  *bool
}

func (s *CatalogService) UpdateDisposer(ctx context.Context, id uuid.UUID, input UpdateDisposerInput) (*model.Disposer, error) {
	disposer, err := s.GetDisposer(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.LegalName != nil {
		disposer.LegalName = strings.TrimSpace(*input.LegalName)
	}
	if input.TradeName != nil {
		disposer.TradeName = input.TradeName
	}
	if input.TaxID != nil {
		disposer.TaxID = strings.TrimSpace(*input.TaxID)
	}
	if input.Website != nil {
		disposer.Website = input.Website
	}
	if input.IsActive != nil {
		disposer.IsActive = *input.IsActive
	}
	if disposer.LegalName == "" || disposer.TaxID == "" {
		return nil, fmt.Errorf("%w: legal_name and tax_id cannot be blank", ErrInvalidInput)
	}

	saved, err := s.catalog.UpdateDisposer(ctx, *disposer)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: disposer with tax_id %s", ErrAlreadyExists, disposer.TaxID)
		}
		return nil, err
	}
	return saved, nil
}

// DeleteDisposer deactivates the disposer. Refused while it still holds
// active relations, since dropping it would strand a live price ledger.
func (s *CatalogService) DeleteDisposer(ctx context.Context, id uuid.UUID) error {
	count, err := s.relations.CountActiveByDisposer(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: disposer %s anchors %d active relations", ErrHasActiveRelations, id, count)
	}

	if err := s.catalog.DeactivateDisposer(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CatalogService) ListWastes(ctx context.Context) ([]model.Waste, error) {
	wastes, err := s.catalog.ListWastes(ctx)
	if err != nil {
		return nil, err
	}
	if wastes == nil {
		wastes = []model.Waste{}
	}
	return wastes, nil
}

func (s *CatalogService) GetWaste(ctx context.Context, id uuid.UUID) (*model.Waste, error) {
	waste, err := s.catalog.GetWaste(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return waste, nil
}

type CreateWasteInput struct {
	WasteCategoryID *uuid.UUID
	Code            string
	Name            string
	SubproductName  *string
	Description     *string
	HazardClass     *string
	Specifications  *string
}

func (s *CatalogService) CreateWaste(ctx context.Context, input CreateWasteInput) (*model.Waste, error) {
	if strings.TrimSpace(input.Code) == "" || strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: waste code and name are required", ErrInvalidInput)
	}

	waste, err := s.catalog.CreateWaste(ctx, model.Waste{
		WasteCategoryID: input.WasteCategoryID,
		Code:            strings.TrimSpace(input.Code),
		Name:            strings.TrimSpace(input.Name),
		SubproductName:  input.SubproductName,
		Description:     input.Description,
		HazardClass:     input.HazardClass,
		Specifications:  input.Specifications,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: waste %s", ErrAlreadyExists, input.Code)
		}
		return nil, err
	}
	return waste, nil
}

type UpdateWasteInput struct {
	WasteCategoryID *uuid.UUID
	Code            *string
	Name            *string
	SubproductName  *string
	Description     *string
	HazardClass     *string
	Specifications  *string
	IsActive        *bool
}

func (s *CatalogService) UpdateWaste(ctx context.Context, id uuid.UUID, input UpdateWasteInput) (*model.Waste, error) {
	waste, err := s.GetWaste(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.WasteCategoryID != nil {
		waste.WasteCategoryID = input.WasteCategoryID
	}
	if input.Code != nil {
		waste.Code = strings.TrimSpace(*input.Code)
	}
	if input.Name != nil {
		waste.Name = strings.TrimSpace(*input.Name)
	}
	if input.SubproductName != nil {
		waste.SubproductName = input.SubproductName
	}
	if input.Description != nil {
		waste.Description = input.Description
	}
	if input.HazardClass != nil {
		waste.HazardClass = input.HazardClass
	}
	if input.Specifications != nil {
		waste.Specifications = input.Specifications
	}
	if input.IsActive != nil {
		waste.IsActive = *input.IsActive
	}
	if waste.Code == "" || waste.Name == "" {
		return nil, fmt.Errorf("%w: waste code and name cannot be blank", ErrInvalidInput)
	}

	saved, err := s.catalog.UpdateWaste(ctx, *waste)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: waste %s", ErrAlreadyExists, waste.Code)
		}
		return nil, err
	}
	return saved, nil
}

// DeleteWaste deactivates the waste, refusing while active relations still
// reference it.
func (s *CatalogService) DeleteWaste(ctx context.Context, id uuid.UUID) error {
	count, err := s.relations.CountActiveByWaste(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: waste %s is referenced by %d active relations", ErrHasActiveRelations, id, count)
	}

	if err := s.catalog.DeactivateWaste(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *CatalogService) Hierarchy(ctx context.Context) ([]model.HierarchyRow, error) {
	rows, err := s.catalog.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.HierarchyRow{}
	}
	return rows, nil
}

func (s *CatalogService) ListWasteTypes(ctx context.Context) ([]model.WasteType, error) {
	types, err := s.catalog.ListWasteTypes(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []model.WasteType{}
	}
	return types, nil
}

func (s *CatalogService) ListWasteCategories(ctx context.Context, wasteTypeID uuid.UUID) ([]model.WasteCategory, error) {
	categories, err := s.catalog.ListWasteCategoriesByType(ctx, wasteTypeID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.WasteCategory{}
	}
	return categories, nil
}

func (s *CatalogService) ListWastesByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Waste, error) {
	wastes, err := s.catalog.ListWastesByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if wastes == nil {
		wastes = []model.Waste{}
	}
	return wastes, nil
}
