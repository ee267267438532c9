package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

type RelationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

const relationColumns = `
	id,
	disposer_id,
	waste_id,
	uom_id,
	currency_id,
	min_lot,
	lead_time_days,
	notes,
	is_active,
	created_at,
	updated_at
`

// Create inserts the relation. The unique (disposer_id, waste_id) constraint
// rejects a second relation for the same pair as gorm.ErrDuplicatedKey.
func (r *RelationRepository) Create(ctx context.Context, rel model.DisposerWaste) (*model.DisposerWaste, error) {
	var saved model.DisposerWaste
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO disposer_wastes (disposer_id, waste_id, uom_id, currency_id, min_lot, lead_time_days, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+relationColumns,
		rel.DisposerID, rel.WasteID, rel.UomID, rel.CurrencyID,
		rel.MinLot, rel.LeadTimeDays, rel.Notes,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *RelationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DisposerWaste, error) {
	var rel model.DisposerWaste
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+relationColumns+`
		FROM disposer_wastes
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&rel).Error
	if err != nil {
		return nil, err
	}
	if rel.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &rel, nil
}

// GetByPair resolves the relation for a (disposer, waste) pair regardless of
// its active flag. History stays readable after a relation is retired.
func (r *RelationRepository) GetByPair(ctx context.Context, disposerID, wasteID uuid.UUID) (*model.DisposerWaste, error) {
	var rel model.DisposerWaste
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+relationColumns+`
		FROM disposer_wastes
		WHERE disposer_id = ? AND waste_id = ?
		LIMIT 1
	`, disposerID, wasteID).Scan(&rel).Error
	if err != nil {
		return nil, err
	}
	if rel.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &rel, nil
}

// GetActiveByPair resolves the one active relation for a (disposer, waste)
// pair, the anchor every price operation starts from.
func (r *RelationRepository) GetActiveByPair(ctx context.Context, disposerID, wasteID uuid.UUID) (*model.DisposerWaste, error) {
	var rel model.DisposerWaste
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+relationColumns+`
		FROM disposer_wastes
		WHERE disposer_id = ? AND waste_id = ? AND is_active = TRUE
		LIMIT 1
	`, disposerID, wasteID).Scan(&rel).Error
	if err != nil {
		return nil, err
	}
	if rel.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &rel, nil
}

// Deactivate soft-deletes the relation; the ledger underneath stays intact.
func (r *RelationRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE disposer_wastes
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = ? AND is_active = TRUE
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RelationRepository) CountActiveByDisposer(ctx context.Context, disposerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM disposer_wastes WHERE disposer_id = ? AND is_active = TRUE
	`, disposerID).Scan(&count).Error
	return count, err
}

func (r *RelationRepository) CountActiveByWaste(ctx context.Context, wasteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM disposer_wastes WHERE waste_id = ? AND is_active = TRUE
	`, wasteID).Scan(&count).Error
	return count, err
}
