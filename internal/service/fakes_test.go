package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
)

// memStore is an in-memory stand-in for the gorm repositories. It mirrors
// their observable behavior: gorm sentinel errors on misses and duplicates,
// transition mutual exclusion under a lock, and the projection orderings.
type memStore struct {
	mu sync.Mutex

	disposers  map[uuid.UUID]model.Disposer
	wastes     map[uuid.UUID]model.Waste
	types      map[uuid.UUID]model.WasteType
	categories map[uuid.UUID]model.WasteCategory
	uoms       map[uuid.UUID]model.Uom
	currencies map[uuid.UUID]model.Currency
	relations  map[uuid.UUID]model.DisposerWaste
	records    []model.PriceRecord

	// failTransitions makes the next n Transition calls report a duplicate
	// key, the way a lost open-period race surfaces.
	failTransitions int
}

func newMemStore() *memStore {
	return &memStore{
		disposers:  map[uuid.UUID]model.Disposer{},
		wastes:     map[uuid.UUID]model.Waste{},
		types:      map[uuid.UUID]model.WasteType{},
		categories: map[uuid.UUID]model.WasteCategory{},
		uoms:       map[uuid.UUID]model.Uom{},
		currencies: map[uuid.UUID]model.Currency{},
		relations:  map[uuid.UUID]model.DisposerWaste{},
	}
}

func (s *memStore) addDisposer(name, taxID string, active bool) model.Disposer {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := model.Disposer{
		ID:        uuid.New(),
		LegalName: name,
		TaxID:     taxID,
		IsActive:  active,
		CreatedAt: time.Now(),
	}
	s.disposers[d.ID] = d
	return d
}

func (s *memStore) addWaste(code, name string, active bool) model.Waste {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := model.Waste{
		ID:       uuid.New(),
		Code:     code,
		Name:     name,
		IsActive: active,
	}
	s.wastes[w.ID] = w
	return w
}

func (s *memStore) addUom(code string) model.Uom {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.Uom{ID: uuid.New(), Code: code, Description: code}
	s.uoms[u.ID] = u
	return u
}

func (s *memStore) addCurrency(code, symbol string) model.Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Currency{ID: uuid.New(), Code: code, Symbol: symbol, Decimals: 2}
	s.currencies[c.ID] = c
	return c
}

func (s *memStore) addRelation(disposerID, wasteID, uomID, currencyID uuid.UUID, active bool) model.DisposerWaste {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel := model.DisposerWaste{
		ID:         uuid.New(),
		DisposerID: disposerID,
		WasteID:    wasteID,
		UomID:      uomID,
		CurrencyID: currencyID,
		IsActive:   active,
		CreatedAt:  time.Now(),
	}
	s.relations[rel.ID] = rel
	return rel
}

// --- PriceStore ---

func (s *memStore) Transition(_ context.Context, relationID uuid.UUID, price decimal.Decimal, effectiveAt time.Time, source, notes *string) (*model.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failTransitions > 0 {
		s.failTransitions--
		return nil, gorm.ErrDuplicatedKey
	}

	open := make([]int, 0, 1)
	for i, rec := range s.records {
		if rec.RelationID == relationID && rec.Period.IsOpen() {
			open = append(open, i)
		}
	}
	if len(open) > 1 {
		return nil, fmt.Errorf("%w: relation %s has %d open periods", model.ErrInvariantViolation, relationID, len(open))
	}
	if len(open) == 1 {
		closed, err := s.records[open[0]].Period.Close(effectiveAt)
		if err != nil {
			return nil, err
		}
		s.records[open[0]].Period = closed
	}

	record := model.PriceRecord{
		ID:         uuid.New(),
		RelationID: relationID,
		Price:      price,
		Period:     model.NewOpenPeriod(effectiveAt),
		Source:     source,
		Notes:      notes,
		RecordedAt: time.Now(),
	}
	s.records = append(s.records, record)
	return &record, nil
}

func (s *memStore) CurrentPrice(_ context.Context, relationID uuid.UUID, asOf time.Time) (*model.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]model.PriceRecord, 0, 1)
	for _, rec := range s.records {
		if rec.RelationID == relationID && rec.Period.Contains(asOf) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return nil, gorm.ErrRecordNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: relation %s has %d periods containing %s",
			model.ErrInvariantViolation, relationID, len(matches), asOf)
	}
}

func (s *memStore) TimeSeries(_ context.Context, relationID uuid.UUID) ([]model.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// insertion order is recording order; reverse for most-recent-first
	var out []model.PriceRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].RelationID == relationID {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func (s *memStore) PricesForDisposer(_ context.Context, disposerID uuid.UUID, asOf time.Time) ([]model.DisposerPrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.DisposerPrice
	for _, rel := range s.relations {
		if rel.DisposerID != disposerID || !rel.IsActive {
			continue
		}
		rec, ok := s.currentLocked(rel.ID, asOf)
		if !ok {
			continue
		}
		waste := s.wastes[rel.WasteID]
		out = append(out, model.DisposerPrice{
			RecordID:     rec.ID,
			RelationID:   rel.ID,
			Price:        rec.Price,
			Period:       rec.Period,
			Source:       rec.Source,
			Notes:        rec.Notes,
			RecordedAt:   rec.RecordedAt,
			WasteID:      waste.ID,
			WasteCode:    waste.Code,
			WasteName:    waste.Name,
			UomCode:      s.uoms[rel.UomID].Code,
			CurrencyCode: s.currencies[rel.CurrencyID].Code,
			Symbol:       s.currencies[rel.CurrencyID].Symbol,
			MinLot:       rel.MinLot,
			LeadTimeDays: rel.LeadTimeDays,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WasteName < out[j].WasteName })
	return out, nil
}

func (s *memStore) Compare(_ context.Context, wasteID uuid.UUID, asOf time.Time) ([]model.ComparisonEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.ComparisonEntry
	for _, rel := range s.relations {
		if rel.WasteID != wasteID || !rel.IsActive {
			continue
		}
		rec, ok := s.currentLocked(rel.ID, asOf)
		if !ok {
			continue
		}
		disposer := s.disposers[rel.DisposerID]
		out = append(out, model.ComparisonEntry{
			RecordID:     rec.ID,
			RelationID:   rel.ID,
			Price:        rec.Price,
			Period:       rec.Period,
			Source:       rec.Source,
			RecordedAt:   rec.RecordedAt,
			DisposerID:   disposer.ID,
			LegalName:    disposer.LegalName,
			TradeName:    disposer.TradeName,
			UomCode:      s.uoms[rel.UomID].Code,
			CurrencyCode: s.currencies[rel.CurrencyID].Code,
			Symbol:       s.currencies[rel.CurrencyID].Symbol,
			MinLot:       rel.MinLot,
			LeadTimeDays: rel.LeadTimeDays,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	return out, nil
}

func (s *memStore) Overview(_ context.Context, asOf time.Time) ([]model.OverviewRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.OverviewRow
	for _, rel := range s.relations {
		if !rel.IsActive {
			continue
		}
		rec, ok := s.currentLocked(rel.ID, asOf)
		if !ok {
			continue
		}
		disposer := s.disposers[rel.DisposerID]
		waste := s.wastes[rel.WasteID]
		out = append(out, model.OverviewRow{
			RecordID:     rec.ID,
			Price:        rec.Price,
			Period:       rec.Period,
			Source:       rec.Source,
			RecordedAt:   rec.RecordedAt,
			DisposerID:   disposer.ID,
			LegalName:    disposer.LegalName,
			TradeName:    disposer.TradeName,
			WasteID:      waste.ID,
			WasteCode:    waste.Code,
			WasteName:    waste.Name,
			UomCode:      s.uoms[rel.UomID].Code,
			CurrencyCode: s.currencies[rel.CurrencyID].Code,
			Symbol:       s.currencies[rel.CurrencyID].Symbol,
			MinLot:       rel.MinLot,
			LeadTimeDays: rel.LeadTimeDays,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WasteName != out[j].WasteName {
			return out[i].WasteName < out[j].WasteName
		}
		return out[i].LegalName < out[j].LegalName
	})
	return out, nil
}

func (s *memStore) currentLocked(relationID uuid.UUID, asOf time.Time) (model.PriceRecord, bool) {
	for _, rec := range s.records {
		if rec.RelationID == relationID && rec.Period.Contains(asOf) {
			return rec, true
		}
	}
	return model.PriceRecord{}, false
}

// injectOpenRecord appends an open ledger row behind the transition engine's
// back, the way an unguarded write path would corrupt the ledger.
func (s *memStore) injectOpenRecord(relationID uuid.UUID, price decimal.Decimal, start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, model.PriceRecord{
		ID:         uuid.New(),
		RelationID: relationID,
		Price:      price,
		Period:     model.NewOpenPeriod(start),
		RecordedAt: time.Now(),
	})
}

// recordCount reports the ledger size for a relation.
func (s *memStore) recordCount(relationID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.records {
		if rec.RelationID == relationID {
			n++
		}
	}
	return n
}

// openPeriods counts open ledger entries for a relation; tests use it to
// check the at-most-one-open invariant after concurrent writes.
func (s *memStore) openPeriods(relationID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.records {
		if rec.RelationID == relationID && rec.Period.IsOpen() {
			n++
		}
	}
	return n
}

// --- RelationStore ---

func (s *memStore) Create(_ context.Context, rel model.DisposerWaste) (*model.DisposerWaste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.relations {
		if existing.DisposerID == rel.DisposerID && existing.WasteID == rel.WasteID {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	rel.ID = uuid.New()
	rel.IsActive = true
	rel.CreatedAt = time.Now()
	s.relations[rel.ID] = rel
	return &rel, nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.DisposerWaste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.relations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rel, nil
}

func (s *memStore) GetByPair(_ context.Context, disposerID, wasteID uuid.UUID) (*model.DisposerWaste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rel := range s.relations {
		if rel.DisposerID == disposerID && rel.WasteID == wasteID {
			rel := rel
			return &rel, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) GetActiveByPair(_ context.Context, disposerID, wasteID uuid.UUID) (*model.DisposerWaste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rel := range s.relations {
		if rel.DisposerID == disposerID && rel.WasteID == wasteID && rel.IsActive {
			rel := rel
			return &rel, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) Deactivate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.relations[id]
	if !ok || !rel.IsActive {
		return gorm.ErrRecordNotFound
	}
	rel.IsActive = false
	s.relations[id] = rel
	return nil
}

func (s *memStore) CountActiveByDisposer(_ context.Context, disposerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rel := range s.relations {
		if rel.DisposerID == disposerID && rel.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountActiveByWaste(_ context.Context, wasteID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, rel := range s.relations {
		if rel.WasteID == wasteID && rel.IsActive {
			n++
		}
	}
	return n, nil
}

// --- CatalogStore ---

func (s *memStore) ListDisposers(_ context.Context) ([]model.Disposer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Disposer
	for _, d := range s.disposers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) ListActiveDisposers(_ context.Context) ([]model.Disposer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Disposer
	for _, d := range s.disposers {
		if d.IsActive {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LegalName < out[j].LegalName })
	return out, nil
}

func (s *memStore) GetDisposer(_ context.Context, id uuid.UUID) (*model.Disposer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disposers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (s *memStore) CreateDisposer(_ context.Context, disposer model.Disposer) (*model.Disposer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.disposers {
		if existing.TaxID == disposer.TaxID {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	disposer.ID = uuid.New()
	disposer.IsActive = true
	disposer.CreatedAt = time.Now()
	s.disposers[disposer.ID] = disposer
	return &disposer, nil
}

func (s *memStore) UpdateDisposer(_ context.Context, disposer model.Disposer) (*model.Disposer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.disposers[disposer.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, existing := range s.disposers {
		if existing.ID != disposer.ID && existing.TaxID == disposer.TaxID {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	disposer.UpdatedAt = time.Now()
	s.disposers[disposer.ID] = disposer
	return &disposer, nil
}

func (s *memStore) DeactivateDisposer(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.disposers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.IsActive = false
	s.disposers[id] = d
	return nil
}

func (s *memStore) ListWastes(_ context.Context) ([]model.Waste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Waste
	for _, w := range s.wastes {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) GetWaste(_ context.Context, id uuid.UUID) (*model.Waste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wastes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &w, nil
}

func (s *memStore) FindWasteByCode(_ context.Context, code string) (*model.Waste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wastes {
		if w.Code == code {
			w := w
			return &w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) CreateWaste(_ context.Context, waste model.Waste) (*model.Waste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.wastes {
		if existing.Code == waste.Code || existing.Name == waste.Name {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	waste.ID = uuid.New()
	waste.IsActive = true
	waste.CreatedAt = time.Now()
	s.wastes[waste.ID] = waste
	return &waste, nil
}

func (s *memStore) UpdateWaste(_ context.Context, waste model.Waste) (*model.Waste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wastes[waste.ID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	for _, existing := range s.wastes {
		if existing.ID != waste.ID && (existing.Code == waste.Code || existing.Name == waste.Name) {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	s.wastes[waste.ID] = waste
	return &waste, nil
}

func (s *memStore) DeactivateWaste(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wastes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	w.IsActive = false
	s.wastes[id] = w
	return nil
}

func (s *memStore) ListWasteTypes(_ context.Context) ([]model.WasteType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WasteType
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) FindWasteTypeByCode(_ context.Context, code string) (*model.WasteType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.types {
		if t.Code == code {
			t := t
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) CreateWasteType(_ context.Context, wasteType model.WasteType) (*model.WasteType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.types {
		if existing.Code == wasteType.Code {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	wasteType.ID = uuid.New()
	wasteType.IsActive = true
	s.types[wasteType.ID] = wasteType
	return &wasteType, nil
}

func (s *memStore) ListWasteCategoriesByType(_ context.Context, wasteTypeID uuid.UUID) ([]model.WasteCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WasteCategory
	for _, c := range s.categories {
		if c.WasteTypeID == wasteTypeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) FindWasteCategoryByCode(_ context.Context, wasteTypeID uuid.UUID, code string) (*model.WasteCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.WasteTypeID == wasteTypeID && c.Code == code {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) CreateWasteCategory(_ context.Context, category model.WasteCategory) (*model.WasteCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.WasteTypeID == category.WasteTypeID && existing.Code == category.Code {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	category.ID = uuid.New()
	category.IsActive = true
	s.categories[category.ID] = category
	return &category, nil
}

func (s *memStore) ListWastesByCategory(_ context.Context, categoryID uuid.UUID) ([]model.Waste, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Waste
	for _, w := range s.wastes {
		if w.WasteCategoryID != nil && *w.WasteCategoryID == categoryID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) Hierarchy(_ context.Context) ([]model.HierarchyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.HierarchyRow
	for _, t := range s.types {
		row := model.HierarchyRow{
			TypeID:        t.ID,
			TypeCode:      t.Code,
			TypeName:      t.Name,
			FullHierarchy: t.Name,
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *memStore) GetUom(_ context.Context, id uuid.UUID) (*model.Uom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uoms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (s *memStore) GetCurrency(_ context.Context, id uuid.UUID) (*model.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.currencies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}
