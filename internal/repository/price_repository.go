package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// PriceRepository owns the price_history ledger. Rows are only ever written
// through Transition; the read methods are projections and never mutate.
type PriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

const priceRecordColumns = `
	id,
	disposer_waste_id AS relation_id,
	price,
	price_period::text AS period,
	source,
	notes,
	created_at AS recorded_at
`

// Transition closes the relation's open period at effectiveAt and inserts the
// new open record, all inside one transaction. The open row is locked FOR
// UPDATE so concurrent transitions on the same relation serialize; the
// partial unique index on open periods catches whatever slips past and
// surfaces as gorm.ErrDuplicatedKey for the caller to retry.
func (r *PriceRepository) Transition(
	ctx context.Context,
	relationID uuid.UUID,
	price decimal.Decimal,
	effectiveAt time.Time,
	source, notes *string,
) (*model.PriceRecord, error) {
	var saved model.PriceRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open []struct {
			ID          uuid.UUID
			PricePeriod string
		}
		if err := tx.Raw(`
			SELECT id, price_period::text AS price_period
			FROM price_history
			WHERE disposer_waste_id = ? AND upper_inf(price_period)
			FOR UPDATE
		`, relationID).Scan(&open).Error; err != nil {
			return err
		}
		if len(open) > 1 {
			return fmt.Errorf("%w: %d open periods for relation %s",
				model.ErrInvariantViolation, len(open), relationID)
		}

		if len(open) == 1 {
			period, err := model.ParsePeriod(open[0].PricePeriod)
			if err != nil {
				return err
			}
			closed, err := period.Close(effectiveAt)
			if err != nil {
				return err
			}
			if err := tx.Exec(`
				UPDATE price_history SET price_period = ?::tstzrange WHERE id = ?
			`, closed.String(), open[0].ID).Error; err != nil {
				return err
			}
		}

		return tx.Raw(`
			INSERT INTO price_history (disposer_waste_id, price, price_period, source, notes)
			VALUES (?, ?, ?::tstzrange, ?, ?)
			RETURNING `+priceRecordColumns,
			relationID, price, model.NewOpenPeriod(effectiveAt).String(), source, notes,
		).Scan(&saved).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// CurrentPrice returns the record whose period contains asOf. The ledger
// invariant allows at most one; finding two is corruption, not a tiebreak.
func (r *PriceRepository) CurrentPrice(ctx context.Context, relationID uuid.UUID, asOf time.Time) (*model.PriceRecord, error) {
	var records []model.PriceRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+priceRecordColumns+`
		FROM price_history
		WHERE disposer_waste_id = ? AND price_period @> ?::timestamptz
		LIMIT 2
	`, relationID, asOf).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return &records[0], nil
	default:
		return nil, fmt.Errorf("%w: multiple periods contain %s for relation %s",
			model.ErrInvariantViolation, asOf.Format(time.RFC3339), relationID)
	}
}

// TimeSeries returns the full ledger for a relation, most recent first.
func (r *PriceRepository) TimeSeries(ctx context.Context, relationID uuid.UUID) ([]model.PriceRecord, error) {
	var records []model.PriceRecord
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+priceRecordColumns+`
		FROM price_history
		WHERE disposer_waste_id = ?
		ORDER BY created_at DESC
	`, relationID).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// PricesForDisposer projects the current price of every active relation the
// disposer holds, ordered by waste name.
func (r *PriceRepository) PricesForDisposer(ctx context.Context, disposerID uuid.UUID, asOf time.Time) ([]model.DisposerPrice, error) {
	var rows []model.DisposerPrice
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			ph.id AS record_id,
			ph.disposer_waste_id AS relation_id,
			ph.price,
			ph.price_period::text AS period,
			ph.source,
			ph.notes,
			ph.created_at AS recorded_at,
			w.id AS waste_id,
			w.code AS waste_code,
			w.name AS waste_name,
			u.code AS uom_code,
			c.code AS currency_code,
			c.symbol AS symbol,
			dw.min_lot,
			dw.lead_time_days
		FROM price_history ph
		JOIN disposer_wastes dw ON dw.id = ph.disposer_waste_id
		JOIN wastes w ON w.id = dw.waste_id
		JOIN uoms u ON u.id = dw.uom_id
		JOIN currencies c ON c.id = dw.currency_id
		WHERE dw.disposer_id = ?
			AND dw.is_active = TRUE
			AND ph.price_period @> ?::timestamptz
		ORDER BY w.name ASC
	`, disposerID, asOf).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Compare projects every disposer's current price for a waste, highest first.
func (r *PriceRepository) Compare(ctx context.Context, wasteID uuid.UUID, asOf time.Time) ([]model.ComparisonEntry, error) {
	var rows []model.ComparisonEntry
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			ph.id AS record_id,
			ph.disposer_waste_id AS relation_id,
			ph.price,
			ph.price_period::text AS period,
			ph.source,
			ph.created_at AS recorded_at,
			d.id AS disposer_id,
			d.legal_name,
			d.trade_name,
			u.code AS uom_code,
			c.code AS currency_code,
			c.symbol AS symbol,
			dw.min_lot,
			dw.lead_time_days
		FROM price_history ph
		JOIN disposer_wastes dw ON dw.id = ph.disposer_waste_id
		JOIN disposers d ON d.id = dw.disposer_id
		JOIN uoms u ON u.id = dw.uom_id
		JOIN currencies c ON c.id = dw.currency_id
		WHERE dw.waste_id = ?
			AND dw.is_active = TRUE
			AND ph.price_period @> ?::timestamptz
		ORDER BY ph.price DESC
	`, wasteID, asOf).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Overview is the consolidated dashboard view of every current price.
func (r *PriceRepository) Overview(ctx context.Context, asOf time.Time) ([]model.OverviewRow, error) {
	var rows []model.OverviewRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			ph.id AS record_id,
			ph.price,
			ph.price_period::text AS period,
			ph.source,
			ph.created_at AS recorded_at,
			d.id AS disposer_id,
			d.legal_name,
			d.trade_name,
			w.id AS waste_id,
			w.code AS waste_code,
			w.name AS waste_name,
			u.code AS uom_code,
			c.code AS currency_code,
			c.symbol AS symbol,
			dw.min_lot,
			dw.lead_time_days
		FROM price_history ph
		JOIN disposer_wastes dw ON dw.id = ph.disposer_waste_id
		JOIN disposers d ON d.id = dw.disposer_id
		JOIN wastes w ON w.id = dw.waste_id
		JOIN uoms u ON u.id = dw.uom_id
		JOIN currencies c ON c.id = dw.currency_id
		WHERE dw.is_active = TRUE
			AND ph.price_period @> ?::timestamptz
		ORDER BY w.name ASC, d.legal_name ASC
	`, asOf).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
