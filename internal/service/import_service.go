package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/excel"
	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// ImportService loads a waste hierarchy workbook: types and categories are
// found-or-created, products are created and reported as duplicates when
// their code already exists. Rows with validation errors are skipped, the
// rest still import.
type ImportService struct {
	catalog CatalogStore
}

func NewImportService(catalog CatalogStore) *ImportService {
	return &ImportService{catalog: catalog}
}

type ImportResult struct {
	TotalRows         int              `json:"total_rows"`
	Processed         int              `json:"processed"`
	CreatedTypes      int              `json:"created_types"`
	CreatedCategories int              `json:"created_categories"`
	CreatedWastes     int              `json:"created_wastes"`
	Issues            []excel.RowIssue `json:"issues"`
	Duplicates        []excel.RowIssue `json:"duplicates"`
	Summary           string           `json:"summary"`
}

func (s *ImportService) ImportHierarchy(ctx context.Context, data []byte) (*ImportResult, error) {
	rows, issues, err := excel.ParseHierarchy(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result := &ImportResult{
		TotalRows:  len(rows),
		Issues:     issues,
		Duplicates: []excel.RowIssue{},
	}
	if result.Issues == nil {
		result.Issues = []excel.RowIssue{}
	}

	skipped := make(map[int]bool)
	for _, issue := range issues {
		if issue.Severity == excel.SeverityError {
			skipped[issue.Row] = true
		}
	}

	typeIDs := make(map[string]uuid.UUID)
	categoryIDs := make(map[string]uuid.UUID)

	for _, row := range rows {
		if skipped[row.Row] {
			continue
		}

		typeID, err := s.ensureType(ctx, row, typeIDs, result)
		if err != nil {
			return nil, err
		}
		categoryID, err := s.ensureCategory(ctx, row, typeID, categoryIDs, result)
		if err != nil {
			return nil, err
		}
		if err := s.createWaste(ctx, row, categoryID, result); err != nil {
			return nil, err
		}
		result.Processed++
	}

	result.Summary = fmt.Sprintf(
		"%d rows read: %d products imported, %d duplicates, %d rows with errors; created %d types and %d categories",
		result.TotalRows, result.CreatedWastes, len(result.Duplicates), len(skipped),
		result.CreatedTypes, result.CreatedCategories,
	)
	return result, nil
}

func (s *ImportService) ensureType(ctx context.Context, row excel.WasteRow, cache map[string]uuid.UUID, result *ImportResult) (uuid.UUID, error) {
	if id, ok := cache[row.TypeCode]; ok {
		return id, nil
	}

	existing, err := s.catalog.FindWasteTypeByCode(ctx, row.TypeCode)
	if err == nil {
		cache[row.TypeCode] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	created, err := s.catalog.CreateWasteType(ctx, model.WasteType{
		Code: row.TypeCode,
		Name: row.TypeName,
	})
	if err != nil {
		return uuid.Nil, err
	}
	cache[row.TypeCode] = created.ID
	result.CreatedTypes++
	return created.ID, nil
}

func (s *ImportService) ensureCategory(ctx context.Context, row excel.WasteRow, typeID uuid.UUID, cache map[string]uuid.UUID, result *ImportResult) (uuid.UUID, error) {
	key := row.TypeCode + ":" + row.CategoryCode
	if id, ok := cache[key]; ok {
		return id, nil
	}

	existing, err := s.catalog.FindWasteCategoryByCode(ctx, typeID, row.CategoryCode)
	if err == nil {
		cache[key] = existing.ID
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	category := model.WasteCategory{
		WasteTypeID: typeID,
		Code:        row.CategoryCode,
		Name:        row.CategoryName,
	}
	// invalid specs were already reported as a warning; import without them
	if row.TechnicalSpecs != nil && json.Valid([]byte(*row.TechnicalSpecs)) {
		category.TechnicalSpecs = row.TechnicalSpecs
	}

	created, err := s.catalog.CreateWasteCategory(ctx, category)
	if err != nil {
		return uuid.Nil, err
	}
	cache[key] = created.ID
	result.CreatedCategories++
	return created.ID, nil
}

func (s *ImportService) createWaste(ctx context.Context, row excel.WasteRow, categoryID uuid.UUID, result *ImportResult) error {
	if _, err := s.catalog.FindWasteByCode(ctx, row.ProductCode); err == nil {
		result.Duplicates = append(result.Duplicates, excel.RowIssue{
			Row: row.Row, Field: "product_code",
			Message:  fmt.Sprintf("waste %s already exists", row.ProductCode),
			Severity: excel.SeverityWarning,
		})
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	waste := model.Waste{
		WasteCategoryID: &categoryID,
		Code:            row.ProductCode,
		Name:            row.ProductName,
		SubproductName:  row.Subproduct,
		Description:     row.Description,
		HazardClass:     row.HazardClass,
	}
	if row.TechnicalSpecs != nil && json.Valid([]byte(*row.TechnicalSpecs)) {
		waste.Specifications = row.TechnicalSpecs
	}

	if _, err := s.catalog.CreateWaste(ctx, waste); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			result.Duplicates = append(result.Duplicates, excel.RowIssue{
				Row: row.Row, Field: "product_name",
				Message:  fmt.Sprintf("waste named %q already exists", row.ProductName),
				Severity: excel.SeverityWarning,
			})
			return nil
		}
		return err
	}
	result.CreatedWastes++
	return nil
}
