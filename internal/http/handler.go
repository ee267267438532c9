package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/RodrigoSHL/waste-manager-nx/internal/http/middleware"
	"github.com/RodrigoSHL/waste-manager-nx/internal/model"
	"github.com/RodrigoSHL/waste-manager-nx/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"

	maxUploadBytes = 10 << 20
)

type Handler struct {
	catalog   *service.CatalogService
	relations *service.RelationService
	prices    *service.PriceService
	importer  *service.ImportService
	seed      func(ctx context.Context) error
	log       zerolog.Logger
}

// NewHandler wires the HTTP surface. seed may be nil; the seed endpoint then
// answers 404.
func NewHandler(
	catalog *service.CatalogService,
	relations *service.RelationService,
	prices *service.PriceService,
	importer *service.ImportService,
	seed func(ctx context.Context) error,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		catalog:   catalog,
		relations: relations,
		prices:    prices,
		importer:  importer,
		seed:      seed,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", h.health)

	disposers := router.Group("/disposers")
	disposers.GET("", h.listDisposers)
	disposers.GET("/:disposerId", h.getDisposer)
	disposersProtected := disposers.Group("")
	disposersProtected.Use(authMiddleware)
	disposersProtected.POST("", h.createDisposer)
	disposersProtected.PUT("/:disposerId", h.updateDisposer)
	disposersProtected.DELETE("/:disposerId", h.deleteDisposer)

	market := router.Group("/market-prices")
	market.GET("/disposers", h.listActiveDisposers)
	market.GET("/disposers/:disposerId/prices", h.disposerPrices)
	market.GET("/disposers/:disposerId/wastes/:wasteId/current", h.currentPrice)
	market.GET("/disposers/:disposerId/wastes/:wasteId/history", h.priceHistory)
	market.GET("/wastes", h.listWastes)
	market.GET("/wastes/:wasteId", h.getWaste)
	market.GET("/wastes/:wasteId/comparison", h.comparison)
	market.GET("/wastes/:wasteId/comparison/pdf", h.comparisonPDF)
	market.GET("/wastes/:wasteId/stats", h.priceStats)
	market.GET("/overview", h.overview)
	market.GET("/overview/export", h.exportOverview)
	market.GET("/hierarchy", h.hierarchy)
	market.GET("/types", h.listWasteTypes)
	market.GET("/types/:typeId/categories", h.listWasteCategories)
	market.GET("/categories/:categoryId/wastes", h.wastesByCategory)

	protected := market.Group("")
	protected.Use(authMiddleware)
	protected.POST("/wastes", h.createWaste)
	protected.PUT("/wastes/:wasteId", h.updateWaste)
	protected.DELETE("/wastes/:wasteId", h.deleteWaste)
	protected.POST("/disposers/:disposerId/wastes/:wasteId/price", h.recordPrice)
	protected.POST("/relations", h.createRelation)
	protected.DELETE("/relations/:relationId", h.deactivateRelation)
	protected.POST("/bulk-upload", h.bulkUpload)
	protected.POST("/seed", h.runSeed)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// --- disposers ---

func (h *Handler) listDisposers(c *gin.Context) {
	disposers, err := h.catalog.ListDisposers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, disposers)
}

func (h *Handler) listActiveDisposers(c *gin.Context) {
	disposers, err := h.catalog.ListActiveDisposers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, disposers)
}

func (h *Handler) getDisposer(c *gin.Context) {
	id, ok := parseIDParam(c, "disposerId")
	if !ok {
		return
	}
	disposer, err := h.catalog.GetDisposer(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, disposer)
}

type createDisposerRequest struct {
	LegalName string                  `json:"legal_name" binding:"required"`
	TradeName *string                 `json:"trade_name"`
	TaxID     string                  `json:"tax_id" binding:"required"`
	Website   *string                 `json:"website"`
	Contacts  []model.DisposerContact `json:"contacts"`
}

func (h *Handler) createDisposer(c *gin.Context) {
	var req createDisposerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	disposer, err := h.catalog.CreateDisposer(c.Request.Context(), service.CreateDisposerInput{
		LegalName: req.LegalName,
		TradeName: req.TradeName,
		TaxID:     req.TaxID,
		Website:   req.Website,
		Contacts:  req.Contacts,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, disposer)
}

type updateDisposerRequest struct {
	LegalName *string `json:"legal_name"`
	TradeName *string `json:"trade_name"`
	TaxID     *string `json:"tax_id"`
	Website   *string `json:"website"`
	IsActive  *bool   `json:"is_active"`
}

func (h *Handler) updateDisposer(c *gin.Context) {
	id, ok := parseIDParam(c, "disposerId")
	if !ok {
		return
	}
	var req updateDisposerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	disposer, err := h.catalog.UpdateDisposer(c.Request.Context(), id, service.UpdateDisposerInput{
		LegalName: req.LegalName,
		TradeName: req.TradeName,
		TaxID:     req.TaxID,
		Website:   req.Website,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, disposer)
}

func (h *Handler) deleteDisposer(c *gin.Context) {
	id, ok := parseIDParam(c, "disposerId")
	if !ok {
		return
	}
	if err := h.catalog.DeleteDisposer(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "disposer deactivated"})
}

// --- wastes ---

func (h *Handler) listWastes(c *gin.Context) {
	wastes, err := h.catalog.ListWastes(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wastes)
}

func (h *Handler) getWaste(c *gin.Context) {
	id, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}
	waste, err := h.catalog.GetWaste(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, waste)
}

type createWasteRequest struct {
	WasteCategoryID *uuid.UUID `json:"waste_category_id"`
	Code            string     `json:"code" binding:"required"`
	Name            string     `json:"name" binding:"required"`
	SubproductName  *string    `json:"subproduct_name"`
	Description     *string    `json:"description"`
	HazardClass     *string    `json:"hazard_class"`
	Specifications  *string    `json:"specifications"`
}

func (h *Handler) createWaste(c *gin.Context) {
	var req createWasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	waste, err := h.catalog.CreateWaste(c.Request.Context(), service.CreateWasteInput{
		WasteCategoryID: req.WasteCategoryID,
		Code:            req.Code,
		Name:            req.Name,
		SubproductName:  req.SubproductName,
		Description:     req.Description,
		HazardClass:     req.HazardClass,
		Specifications:  req.Specifications,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, waste)
}

type updateWasteRequest struct {
	WasteCategoryID *uuid.UUID `json:"waste_category_id"`
	Code            *string    `json:"code"`
	Name            *string    `json:"name"`
	SubproductName  *string    `json:"subproduct_name"`
	Description     *string    `json:"description"`
	HazardClass     *string    `json:"hazard_class"`
	Specifications  *string    `json:"specifications"`
	IsActive        *bool      `json:"is_active"`
}

func (h *Handler) updateWaste(c *gin.Context) {
	id, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}
	var req updateWasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	waste, err := h.catalog.UpdateWaste(c.Request.Context(), id, service.UpdateWasteInput{
		WasteCategoryID: req.WasteCategoryID,
		Code:            req.Code,
		Name:            req.Name,
		SubproductName:  req.SubproductName,
		Description:     req.Description,
		HazardClass:     req.HazardClass,
		Specifications:  req.Specifications,
		IsActive:        req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, waste)
}

func (h *Handler) deleteWaste(c *gin.Context) {
	id, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}
	if err := h.catalog.DeleteWaste(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "waste deactivated"})
}

// --- hierarchy ---

func (h *Handler) hierarchy(c *gin.Context) {
	rows, err := h.catalog.Hierarchy(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) listWasteTypes(c *gin.Context) {
	types, err := h.catalog.ListWasteTypes(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *Handler) listWasteCategories(c *gin.Context) {
	typeID, ok := parseIDParam(c, "typeId")
	if !ok {
		return
	}
	categories, err := h.catalog.ListWasteCategories(c.Request.Context(), typeID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) wastesByCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "categoryId")
	if !ok {
		return
	}
	wastes, err := h.catalog.ListWastesByCategory(c.Request.Context(), categoryID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, wastes)
}

// --- relations ---

type createRelationRequest struct {
	DisposerID   uuid.UUID        `json:"disposer_id" binding:"required"`
	WasteID      uuid.UUID        `json:"waste_id" binding:"required"`
	UomID        uuid.UUID        `json:"uom_id" binding:"required"`
	CurrencyID   uuid.UUID        `json:"currency_id" binding:"required"`
	MinLot       *decimal.Decimal `json:"min_lot"`
	LeadTimeDays *int             `json:"lead_time_days"`
	Notes        *string          `json:"notes"`
}

func (h *Handler) createRelation(c *gin.Context) {
	var req createRelationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	relation, err := h.relations.Create(c.Request.Context(), service.CreateRelationInput{
		DisposerID:   req.DisposerID,
		WasteID:      req.WasteID,
		UomID:        req.UomID,
		CurrencyID:   req.CurrencyID,
		MinLot:       req.MinLot,
		LeadTimeDays: req.LeadTimeDays,
		Notes:        req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, relation)
}

func (h *Handler) deactivateRelation(c *gin.Context) {
	id, ok := parseIDParam(c, "relationId")
	if !ok {
		return
	}
	if err := h.relations.Deactivate(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "relation deactivated"})
}

// --- prices ---

type recordPriceRequest struct {
	Price       decimal.Decimal `json:"price" binding:"required"`
	EffectiveAt *time.Time      `json:"effective_at"`
	Source      *string         `json:"source"`
	Notes       *string         `json:"notes"`
}

func (h *Handler) recordPrice(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	disposerID, ok := parseIDParam(c, "disposerId")
	if !ok {
		return
	}
	wasteID, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}

	var req recordPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.RecordPriceInput{
		DisposerID: disposerID,
		WasteID:    wasteID,
		Price:      req.Price,
		Source:     req.Source,
		Notes:      req.Notes,
	}
	if req.EffectiveAt != nil {
		input.EffectiveAt = *req.EffectiveAt
	}

	record, err := h.prices.RecordPrice(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().
		Str("user_id", principal.UserID.String()).
		Str("disposer_id", disposerID.String()).
		Str("waste_id", wasteID.String()).
		Str("price", record.Price.String()).
		Msg("price recorded")

	c.JSON(http.StatusCreated, record)
}

func (h *Handler) currentPrice(c *gin.Context) {
	disposerID, ok := parseIDParam(c, "disposerId")
	if !ok {
		return
	}
	wasteID, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	record, err := h.prices.CurrentPrice(c.Request.Context(), disposerID, wasteID, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) priceHistory(c *gin.Context) {
	disposerID, ok := parseIDParam(c, "disposerId")
	if !ok {
		return
	}
	wasteID, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}

	records, err := h.prices.History(c.Request.Context(), disposerID, wasteID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) disposerPrices(c *gin.Context) {
	disposerID, ok := parseIDParam(c, "disposerId")
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	prices, err := h.prices.DisposerPrices(c.Request.Context(), disposerID, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

func (h *Handler) comparison(c *gin.Context) {
	wasteID, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	entries, err := h.prices.Compare(c.Request.Context(), wasteID, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) priceStats(c *gin.Context) {
	wasteID, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	stats, err := h.prices.Stats(c.Request.Context(), wasteID, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) overview(c *gin.Context) {
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	rows, err := h.prices.Overview(c.Request.Context(), asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) exportOverview(c *gin.Context) {
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	result, err := h.prices.ExportOverview(c.Request.Context(), asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Type", contentTypeXLSX)
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypeXLSX, result.Content)
}

func (h *Handler) comparisonPDF(c *gin.Context) {
	wasteID, ok := parseIDParam(c, "wasteId")
	if !ok {
		return
	}
	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	result, err := h.prices.ComparisonPDF(c.Request.Context(), wasteID, asOf)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Type", contentTypePDF)
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypePDF, result.Content)
}

// --- bulk upload / seed ---

func (h *Handler) bulkUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected an .xlsx file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.importer.ImportHierarchy(c.Request.Context(), data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) runSeed(c *gin.Context) {
	if h.seed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	if !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "seeding requires the admin role"})
		return
	}

	if err := h.seed(c.Request.Context()); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seed data loaded"})
}

// --- helpers ---

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, model.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrRelationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrHasActiveRelations):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// parseAsOf reads the optional as_of query parameter. A zero time means
// "now"; the services resolve it against their clock.
func parseAsOf(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		return time.Time{}, true
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of"})
	return time.Time{}, false
}
