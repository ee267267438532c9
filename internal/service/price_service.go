package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// OverviewExporter renders the consolidated price view as a spreadsheet.
type OverviewExporter interface {
	Generate(rows []model.OverviewRow, asOf time.Time) ([]byte, error)
}

// ComparisonRenderer renders a cross-disposer comparison as a PDF document.
type ComparisonRenderer interface {
	Generate(waste model.Waste, entries []model.ComparisonEntry, asOf time.Time) ([]byte, error)
}

// PriceService owns the price ledger: the close-then-open transition is the
// only write path, everything else is a projection.
type PriceService struct {
	prices    PriceStore
	relations RelationStore
	catalog   CatalogStore
	excel     OverviewExporter
	pdf       ComparisonRenderer
	now       func() time.Time
}

func NewPriceService(
	prices PriceStore,
	relations RelationStore,
	catalog CatalogStore,
	excel OverviewExporter,
	pdf ComparisonRenderer,
) *PriceService {
	return &PriceService{
		prices:    prices,
		relations: relations,
		catalog:   catalog,
		excel:     excel,
		pdf:       pdf,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock; tests use it to make transitions
// deterministic.
func (s *PriceService) WithClock(now func() time.Time) *PriceService {
	s.now = now
	return s
}

type RecordPriceInput struct {
	DisposerID  uuid.UUID
	WasteID     uuid.UUID
	Price       decimal.Decimal
	EffectiveAt time.Time // zero means "effective now"
	Source      *string
	Notes       *string
}

// RecordPrice closes the relation's current price at the effective instant
// and opens the new one there. Validation happens before any store write; the
// store performs the close+insert pair in one transaction. When a concurrent
// caller wins the open-period race the store reports a duplicate key and the
// sequence is retried once against the fresh state.
func (s *PriceService) RecordPrice(ctx context.Context, input RecordPriceInput) (*model.PriceRecord, error) {
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidPrice, input.Price)
	}

	rel, err := s.relations.GetActiveByPair(ctx, input.DisposerID, input.WasteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, err
	}

	pinned := !input.EffectiveAt.IsZero()
	effectiveAt := input.EffectiveAt.UTC()
	if !pinned {
		effectiveAt = s.now().UTC()
	}

	record, err := s.prices.Transition(ctx, rel.ID, input.Price, effectiveAt, input.Source, input.Notes)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if !pinned {
			effectiveAt = s.now().UTC()
		}
		record, err = s.prices.Transition(ctx, rel.ID, input.Price, effectiveAt, input.Source, input.Notes)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CurrentPrice returns the record whose validity period contains asOf, or
// ErrNotFound when the relation has no price at that instant.
func (s *PriceService) CurrentPrice(ctx context.Context, disposerID, wasteID uuid.UUID, asOf time.Time) (*model.PriceRecord, error) {
	rel, err := s.relations.GetActiveByPair(ctx, disposerID, wasteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, err
	}

	record, err := s.prices.CurrentPrice(ctx, rel.ID, s.resolveAsOf(asOf))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// DisposerPrices lists the current price of every active relation the
// disposer holds. An empty slice is the normal "nothing priced yet" answer;
// an unknown disposer is ErrNotFound.
func (s *PriceService) DisposerPrices(ctx context.Context, disposerID uuid.UUID, asOf time.Time) ([]model.DisposerPrice, error) {
	if _, err := s.catalog.GetDisposer(ctx, disposerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.prices.PricesForDisposer(ctx, disposerID, s.resolveAsOf(asOf))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.DisposerPrice{}
	}
	return rows, nil
}

// History returns the full ledger for a (disposer, waste) pair, most recent
// first. Retired relations keep their history readable.
func (s *PriceService) History(ctx context.Context, disposerID, wasteID uuid.UUID) ([]model.PriceRecord, error) {
	rel, err := s.relations.GetByPair(ctx, disposerID, wasteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, err
	}

	records, err := s.prices.TimeSeries(ctx, rel.ID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.PriceRecord{}
	}
	return records, nil
}

// Compare lists every disposer's current price for a waste, highest first.
func (s *PriceService) Compare(ctx context.Context, wasteID uuid.UUID, asOf time.Time) ([]model.ComparisonEntry, error) {
	if _, err := s.catalog.GetWaste(ctx, wasteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entries, err := s.prices.Compare(ctx, wasteID, s.resolveAsOf(asOf))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.ComparisonEntry{}
	}
	return entries, nil
}

// Stats aggregates the current prices offered for a waste. The average is
// rounded to two decimals for display; the raw entries ride along unrounded.
func (s *PriceService) Stats(ctx context.Context, wasteID uuid.UUID, asOf time.Time) (*model.PriceStats, error) {
	entries, err := s.Compare(ctx, wasteID, asOf)
	if err != nil {
		return nil, err
	}

	stats := &model.PriceStats{
		WasteID:       wasteID,
		DisposerCount: len(entries),
		Prices:        entries,
	}
	if len(entries) == 0 {
		return stats, nil
	}

	min := entries[0].Price
	max := entries[0].Price
	sum := decimal.Zero
	for _, entry := range entries {
		if entry.Price.LessThan(min) {
			min = entry.Price
		}
		if entry.Price.GreaterThan(max) {
			max = entry.Price
		}
		sum = sum.Add(entry.Price)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(entries)))).Round(2)

	stats.MinPrice = &min
	stats.MaxPrice = &max
	stats.AvgPrice = &avg
	return stats, nil
}

func (s *PriceService) Overview(ctx context.Context, asOf time.Time) ([]model.OverviewRow, error) {
	rows, err := s.prices.Overview(ctx, s.resolveAsOf(asOf))
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.OverviewRow{}
	}
	return rows, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportOverview renders the consolidated current-price view as a workbook.
func (s *PriceService) ExportOverview(ctx context.Context, asOf time.Time) (*ExportResult, error) {
	at := s.resolveAsOf(asOf)
	rows, err := s.Overview(ctx, at)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(rows, at)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("market-prices-%s.xlsx", at.Format("20060102-150405")),
		Content:  content,
	}, nil
}

// ComparisonPDF renders the cross-disposer comparison for a waste.
func (s *PriceService) ComparisonPDF(ctx context.Context, wasteID uuid.UUID, asOf time.Time) (*ExportResult, error) {
	waste, err := s.catalog.GetWaste(ctx, wasteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	at := s.resolveAsOf(asOf)
	entries, err := s.Compare(ctx, wasteID, at)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(*waste, entries, at)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("comparison-%s-%s.pdf", sanitizeFileName(waste.Code), at.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *PriceService) resolveAsOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.now().UTC()
	}
	return asOf.UTC()
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
