package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// CatalogRepository covers the anchor entities the price ledger hangs off:
// disposers with their contacts, the waste hierarchy, and the uom/currency
// reference tables.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const disposerColumns = `
	id, legal_name, trade_name, tax_id, website, is_active, created_at, updated_at
`

func (r *CatalogRepository) ListDisposers(ctx context.Context) ([]model.Disposer, error) {
	var disposers []model.Disposer
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + disposerColumns + `
		FROM disposers
		ORDER BY created_at DESC
	`).Scan(&disposers).Error
	if err != nil {
		return nil, err
	}
	return disposers, nil
}

func (r *CatalogRepository) ListActiveDisposers(ctx context.Context) ([]model.Disposer, error) {
	var disposers []model.Disposer
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + disposerColumns + `
		FROM disposers
		WHERE is_active = TRUE
		ORDER BY legal_name ASC
	`).Scan(&disposers).Error
	if err != nil {
		return nil, err
	}
	return disposers, nil
}

func (r *CatalogRepository) GetDisposer(ctx context.Context, id uuid.UUID) (*model.Disposer, error) {
	var disposer model.Disposer
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+disposerColumns+`
		FROM disposers
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&disposer).Error
	if err != nil {
		return nil, err
	}
	if disposer.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, disposer_id, contact_name, email, phone, role, is_primary, created_at
		FROM disposer_contacts
		WHERE disposer_id = ?
		ORDER BY is_primary DESC, contact_name ASC
	`, id).Scan(&disposer.Contacts).Error; err != nil {
		return nil, err
	}
	return &disposer, nil
}

func (r *CatalogRepository) CreateDisposer(ctx context.Context, disposer model.Disposer) (*model.Disposer, error) {
	var saved model.Disposer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO disposers (legal_name, trade_name, tax_id, website)
			VALUES (?, ?, ?, ?)
			RETURNING `+disposerColumns,
			disposer.LegalName, disposer.TradeName, disposer.TaxID, disposer.Website,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		for _, contact := range disposer.Contacts {
			var savedContact model.DisposerContact
			err := tx.Raw(`
				INSERT INTO disposer_contacts (disposer_id, contact_name, email, phone, role, is_primary)
				VALUES (?, ?, ?, ?, ?, ?)
				RETURNING id, disposer_id, contact_name, email, phone, role, is_primary, created_at
			`, saved.ID, contact.ContactName, contact.Email, contact.Phone, contact.Role, contact.IsPrimary,
			).Scan(&savedContact).Error
			if err != nil {
				return err
			}
			saved.Contacts = append(saved.Contacts, savedContact)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CatalogRepository) UpdateDisposer(ctx context.Context, disposer model.Disposer) (*model.Disposer, error) {
	var saved model.Disposer
	err := r.db.WithContext(ctx).Raw(`
		UPDATE disposers
		SET legal_name = ?, trade_name = ?, tax_id = ?, website = ?, is_active = ?, updated_at = NOW()
		WHERE id = ?
		RETURNING `+disposerColumns,
		disposer.LegalName, disposer.TradeName, disposer.TaxID, disposer.Website,
		disposer.IsActive, disposer.ID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

func (r *CatalogRepository) DeactivateDisposer(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE disposers SET is_active = FALSE, updated_at = NOW() WHERE id = ? AND is_active = TRUE
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

const wasteColumns = `
	id, waste_category_id, code, name, subproduct_name, description,
	hazard_class, specifications, is_active, created_at
`

func (r *CatalogRepository) ListWastes(ctx context.Context) ([]model.Waste, error) {
	var wastes []model.Waste
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + wasteColumns + `
		FROM wastes
		ORDER BY name ASC
	`).Scan(&wastes).Error
	if err != nil {
		return nil, err
	}
	return wastes, nil
}

func (r *CatalogRepository) GetWaste(ctx context.Context, id uuid.UUID) (*model.Waste, error) {
	var waste model.Waste
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+wasteColumns+`
		FROM wastes
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&waste).Error
	if err != nil {
		return nil, err
	}
	if waste.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &waste, nil
}

func (r *CatalogRepository) FindWasteByCode(ctx context.Context, code string) (*model.Waste, error) {
	var waste model.Waste
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+wasteColumns+`
		FROM wastes
		WHERE code = ?
		LIMIT 1
	`, code).Scan(&waste).Error
	if err != nil {
		return nil, err
	}
	if waste.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &waste, nil
}

func (r *CatalogRepository) CreateWaste(ctx context.Context, waste model.Waste) (*model.Waste, error) {
	var saved model.Waste
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO wastes (waste_category_id, code, name, subproduct_name, description, hazard_class, specifications)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+wasteColumns,
		waste.WasteCategoryID, waste.Code, waste.Name, waste.SubproductName,
		waste.Description, waste.HazardClass, waste.Specifications,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CatalogRepository) UpdateWaste(ctx context.Context, waste model.Waste) (*model.Waste, error) {
	var saved model.Waste
	err := r.db.WithContext(ctx).Raw(`
		UPDATE wastes
		SET waste_category_id = ?, code = ?, name = ?, subproduct_name = ?,
			description = ?, hazard_class = ?, specifications = ?, is_active = ?
		WHERE id = ?
		RETURNING `+wasteColumns,
		waste.WasteCategoryID, waste.Code, waste.Name, waste.SubproductName,
		waste.Description, waste.HazardClass, waste.Specifications, waste.IsActive, waste.ID,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &saved, nil
}

func (r *CatalogRepository) DeactivateWaste(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE wastes SET is_active = FALSE WHERE id = ? AND is_active = TRUE
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

const wasteTypeColumns = `
	id, code, name, description, color, icon, is_active, created_at, updated_at
`

func (r *CatalogRepository) ListWasteTypes(ctx context.Context) ([]model.WasteType, error) {
	var types []model.WasteType
	err := r.db.WithContext(ctx).Raw(`
		SELECT ` + wasteTypeColumns + `
		FROM waste_types
		WHERE is_active = TRUE
		ORDER BY name ASC
	`).Scan(&types).Error
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (r *CatalogRepository) FindWasteTypeByCode(ctx context.Context, code string) (*model.WasteType, error) {
	var wasteType model.WasteType
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+wasteTypeColumns+`
		FROM waste_types
		WHERE code = ?
		LIMIT 1
	`, code).Scan(&wasteType).Error
	if err != nil {
		return nil, err
	}
	if wasteType.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &wasteType, nil
}

func (r *CatalogRepository) CreateWasteType(ctx context.Context, wasteType model.WasteType) (*model.WasteType, error) {
	var saved model.WasteType
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO waste_types (code, name, description, color, icon)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+wasteTypeColumns,
		wasteType.Code, wasteType.Name, wasteType.Description, wasteType.Color, wasteType.Icon,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

const wasteCategoryColumns = `
	id, waste_type_id, code, name, description, technical_specs::text AS technical_specs,
	is_active, created_at, updated_at
`

func (r *CatalogRepository) ListWasteCategoriesByType(ctx context.Context, wasteTypeID uuid.UUID) ([]model.WasteCategory, error) {
	var categories []model.WasteCategory
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+wasteCategoryColumns+`
		FROM waste_categories
		WHERE waste_type_id = ? AND is_active = TRUE
		ORDER BY name ASC
	`, wasteTypeID).Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CatalogRepository) FindWasteCategoryByCode(ctx context.Context, wasteTypeID uuid.UUID, code string) (*model.WasteCategory, error) {
	var category model.WasteCategory
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+wasteCategoryColumns+`
		FROM waste_categories
		WHERE waste_type_id = ? AND code = ?
		LIMIT 1
	`, wasteTypeID, code).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &category, nil
}

func (r *CatalogRepository) CreateWasteCategory(ctx context.Context, category model.WasteCategory) (*model.WasteCategory, error) {
	var saved model.WasteCategory
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO waste_categories (waste_type_id, code, name, description, technical_specs)
		VALUES (?, ?, ?, ?, ?::jsonb)
		RETURNING `+wasteCategoryColumns,
		category.WasteTypeID, category.Code, category.Name, category.Description, category.TechnicalSpecs,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CatalogRepository) ListWastesByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Waste, error) {
	var wastes []model.Waste
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+wasteColumns+`
		FROM wastes
		WHERE waste_category_id = ? AND is_active = TRUE
		ORDER BY COALESCE(subproduct_name, name) ASC
	`, categoryID).Scan(&wastes).Error
	if err != nil {
		return nil, err
	}
	return wastes, nil
}

// Hierarchy flattens the active type > category > waste tree the way the
// dashboard renders it.
func (r *CatalogRepository) Hierarchy(ctx context.Context) ([]model.HierarchyRow, error) {
	var rows []model.HierarchyRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			wt.id AS type_id,
			wt.code AS type_code,
			wt.name AS type_name,
			wt.color AS type_color,
			wt.icon AS type_icon,
			wc.id AS category_id,
			wc.code AS category_code,
			wc.name AS category_name,
			wc.technical_specs::text AS category_specs,
			w.id AS waste_id,
			w.code AS waste_code,
			w.name AS waste_name,
			w.subproduct_name AS subproduct,
			w.hazard_class,
			CONCAT(wt.name, ' > ', wc.name, ' > ', COALESCE(w.subproduct_name, w.name)) AS full_hierarchy
		FROM waste_types wt
		LEFT JOIN waste_categories wc ON wc.waste_type_id = wt.id AND wc.is_active = TRUE
		LEFT JOIN wastes w ON w.waste_category_id = wc.id AND w.is_active = TRUE
		WHERE wt.is_active = TRUE
		ORDER BY wt.name, wc.name, w.subproduct_name, w.name
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CatalogRepository) GetUom(ctx context.Context, id uuid.UUID) (*model.Uom, error) {
	var uom model.Uom
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, description FROM uoms WHERE id = ? LIMIT 1
	`, id).Scan(&uom).Error
	if err != nil {
		return nil, err
	}
	if uom.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &uom, nil
}

func (r *CatalogRepository) GetCurrency(ctx context.Context, id uuid.UUID) (*model.Currency, error) {
	var currency model.Currency
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, code, symbol, decimals FROM currencies WHERE id = ? LIMIT 1
	`, id).Scan(&currency).Error
	if err != nil {
		return nil, err
	}
	if currency.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &currency, nil
}

// EnsureUom and EnsureCurrency are idempotent upserts used by the seeder.

func (r *CatalogRepository) EnsureUom(ctx context.Context, code, description string) (*model.Uom, error) {
	var uom model.Uom
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO uoms (code, description)
		VALUES (?, ?)
		ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, code, description
	`, code, description).Scan(&uom).Error
	if err != nil {
		return nil, err
	}
	return &uom, nil
}

func (r *CatalogRepository) EnsureCurrency(ctx context.Context, code, symbol string, decimals int) (*model.Currency, error) {
	var currency model.Currency
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO currencies (code, symbol, decimals)
		VALUES (?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET symbol = EXCLUDED.symbol, decimals = EXCLUDED.decimals
		RETURNING id, code, symbol, decimals
	`, code, symbol, decimals).Scan(&currency).Error
	if err != nil {
		return nil, err
	}
	return &currency, nil
}
