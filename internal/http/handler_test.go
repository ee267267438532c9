package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/RodrigoSHL/waste-manager-nx/internal/auth"
	httphandler "github.com/RodrigoSHL/waste-manager-nx/internal/http"
	"github.com/RodrigoSHL/waste-manager-nx/internal/http/middleware"
	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
	"github.com/RodrigoSHL/waste-manager-nx/internal/service"
)

const testSecret = "test-secret"

// The fakes embed the store interfaces so only the methods a test route
// touches need real bodies; anything else panics loudly.

type fakeCatalog struct {
	service.CatalogStore
	disposers map[uuid.UUID]model.Disposer
}

func (f *fakeCatalog) GetDisposer(_ context.Context, id uuid.UUID) (*model.Disposer, error) {
	d, ok := f.disposers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (f *fakeCatalog) ListDisposers(_ context.Context) ([]model.Disposer, error) {
	out := make([]model.Disposer, 0, len(f.disposers))
	for _, d := range f.disposers {
		out = append(out, d)
	}
	return out, nil
}

type fakeRelations struct {
	service.RelationStore
	relation *model.DisposerWaste
}

func (f *fakeRelations) GetActiveByPair(_ context.Context, disposerID, wasteID uuid.UUID) (*model.DisposerWaste, error) {
	if f.relation != nil && f.relation.DisposerID == disposerID && f.relation.WasteID == wasteID {
		return f.relation, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakePrices struct {
	service.PriceStore
	record *model.PriceRecord
	err    error
}

func (f *fakePrices) Transition(_ context.Context, relationID uuid.UUID, price decimal.Decimal, effectiveAt time.Time, source, notes *string) (*model.PriceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec := model.PriceRecord{
		ID:         uuid.New(),
		RelationID: relationID,
		Price:      price,
		Period:     model.NewOpenPeriod(effectiveAt),
		Source:     source,
		Notes:      notes,
		RecordedAt: time.Now(),
	}
	f.record = &rec
	return &rec, nil
}

type fixture struct {
	router    *gin.Engine
	catalog   *fakeCatalog
	relations *fakeRelations
	prices    *fakePrices
	disposer  model.Disposer
	waste     uuid.UUID
}

func newFixture(t *testing.T, seed func(context.Context) error) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	disposer := model.Disposer{ID: uuid.New(), LegalName: "Recicladora Austral SpA", TaxID: "76.123.456-7", IsActive: true}
	wasteID := uuid.New()

	catalog := &fakeCatalog{disposers: map[uuid.UUID]model.Disposer{disposer.ID: disposer}}
	relations := &fakeRelations{relation: &model.DisposerWaste{
		ID:         uuid.New(),
		DisposerID: disposer.ID,
		WasteID:    wasteID,
		IsActive:   true,
	}}
	prices := &fakePrices{}

	catalogSvc := service.NewCatalogService(catalog, relations)
	relationSvc := service.NewRelationService(relations, catalog)
	priceSvc := service.NewPriceService(prices, relations, catalog, nil, nil)
	importSvc := service.NewImportService(catalog)

	handler := httphandler.NewHandler(catalogSvc, relationSvc, priceSvc, importSvc, seed, zerolog.Nop())

	router := gin.New()
	handler.Register(router, middleware.Auth(auth.NewParser(testSecret)))

	return &fixture{
		router:    router,
		catalog:   catalog,
		relations: relations,
		prices:    prices,
		disposer:  disposer,
		waste:     wasteID,
	}
}

func signToken(t *testing.T, secret string) string {
	return signTokenAs(t, secret, "ADMIN")
}

func signTokenAs(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/health", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusOK, w.Code)
}

func TestMutationsRequireToken(t *testing.T) {
	f := newFixture(t, nil)

	body := bytes.NewBufferString(`{"price":"100"}`)
	path := "/market-prices/disposers/" + f.disposer.ID.String() + "/wastes/" + f.waste.String() + "/price"

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodPost, path, body))
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code, "no token")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewBufferString(`{"price":"100"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret"))
	f.router.ServeHTTP(w, req)
	assert.Equal(t, nethttp.StatusUnauthorized, w.Code, "token signed with another secret")
}

func TestRecordPriceEndpoint(t *testing.T) {
	f := newFixture(t, nil)

	path := "/market-prices/disposers/" + f.disposer.ID.String() + "/wastes/" + f.waste.String() + "/price"
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewBufferString(`{"price":"150.50","source":"llamada"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, nethttp.StatusCreated, w.Code, w.Body.String())

	var record model.PriceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.True(t, record.Price.Equal(decimal.RequireFromString("150.50")))
	assert.True(t, record.Period.IsOpen())
	require.NotNil(t, f.prices.record)
}

func TestRecordPriceEndpoint_UnknownPairIs404(t *testing.T) {
	f := newFixture(t, nil)

	path := "/market-prices/disposers/" + f.disposer.ID.String() + "/wastes/" + uuid.NewString() + "/price"
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewBufferString(`{"price":"10"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusNotFound, w.Code)
}

func TestRecordPriceEndpoint_BackdatedIs400(t *testing.T) {
	f := newFixture(t, nil)
	f.prices.err = model.ErrInvalidTransition

	path := "/market-prices/disposers/" + f.disposer.ID.String() + "/wastes/" + f.waste.String() + "/price"
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewBufferString(`{"price":"10","effective_at":"2020-01-01T00:00:00Z"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
}

func TestInvalidUUIDParamIs400(t *testing.T) {
	f := newFixture(t, nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/disposers/not-a-uuid", nil))
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
}

func TestUnknownDisposerIs404(t *testing.T) {
	f := newFixture(t, nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/disposers/"+uuid.NewString(), nil))
	assert.Equal(t, nethttp.StatusNotFound, w.Code)
}

func TestInvalidAsOfIs400(t *testing.T) {
	f := newFixture(t, nil)

	path := "/market-prices/disposers/" + f.disposer.ID.String() + "/prices?as_of=whenever"
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, path, nil))
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
}

func TestSeedEndpoint(t *testing.T) {
	called := false
	f := newFixture(t, func(context.Context) error {
		called = true
		return nil
	})

	req := httptest.NewRequest(nethttp.MethodPost, "/market-prices/seed", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.True(t, called)
}

func TestSeedEndpoint_RequiresAdminRole(t *testing.T) {
	called := false
	f := newFixture(t, func(context.Context) error {
		called = true
		return nil
	})

	req := httptest.NewRequest(nethttp.MethodPost, "/market-prices/seed", nil)
	req.Header.Set("Authorization", "Bearer "+signTokenAs(t, testSecret, "OPERATOR"))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusForbidden, w.Code)
	assert.False(t, called)
}

func TestSeedEndpoint_DisabledInProduction(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(nethttp.MethodPost, "/market-prices/seed", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusNotFound, w.Code)
}

func TestLedgerCorruptionIs500(t *testing.T) {
	f := newFixture(t, nil)
	f.prices.err = model.ErrInvariantViolation

	path := "/market-prices/disposers/" + f.disposer.ID.String() + "/wastes/" + f.waste.String() + "/price"
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewBufferString(`{"price":"10"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusInternalServerError, w.Code, "a corrupted ledger is a server fault, never a client error")
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	f := newFixture(t, nil)
	f.prices.err = errors.New("connection reset")

	path := "/market-prices/disposers/" + f.disposer.ID.String() + "/wastes/" + f.waste.String() + "/price"
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewBufferString(`{"price":"10"}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, nethttp.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
