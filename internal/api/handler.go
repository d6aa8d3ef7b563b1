package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"watch-catalog/internal/catalog"
	"watch-catalog/internal/engine"
	"watch-catalog/internal/logging"
)

const defaultHistoryDays = 90

// QueryService is the engine surface the HTTP layer depends on.
type QueryService interface {
	Search(ctx context.Context, f catalog.FilterSpec, req catalog.PageRequest) (catalog.PageResult[catalog.Snapshot], error)
	WindowAverage(ctx context.Context, f catalog.FilterSpec, window catalog.Window, mode catalog.AvgMode, req catalog.PageRequest) (catalog.PageResult[catalog.AggregateRow], error)
	Facets(ctx context.Context, f catalog.FilterSpec) (engine.FacetCounts, error)
	SummarizeReference(ctx context.Context, reference string) (*catalog.ReferenceSummary, error)
	BrandDashboard(ctx context.Context, brand string) (*catalog.BrandDashboard, error)
	PriceHistory(ctx context.Context, reference string, since time.Time) ([]catalog.PricePoint, error)
	SuggestReferences(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Handler serves the catalog query API.
type Handler struct {
	engine QueryService
	logger zerolog.Logger
	now    func() time.Time
}

// NewHandler builds a Handler around the query engine.
func NewHandler(svc QueryService, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: svc,
		logger: logger.With().Str("component", "api").Logger(),
		now:    time.Now,
	}
}

// SetupRoutes registers the API routes on a router group.
func (h *Handler) SetupRoutes(r *gin.RouterGroup) {
	watches := r.Group("/watches")
	{
		watches.POST("/query", h.Query)
		watches.POST("/facets", h.Facets)
		watches.GET("/summary/:reference", h.Summary)
		watches.POST("/brand-dashboard/:brand", h.BrandDashboard)
		watches.GET("/price-history", h.PriceHistory)
		watches.GET("/autocomplete", h.Autocomplete)
	}
	r.GET("/healthz", h.Health)
}

// NewRouter assembles a gin engine with the full route set.
func NewRouter(svc QueryService, logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(logger))
	NewHandler(svc, logger).SetupRoutes(&router.RouterGroup)
	return router
}

// Query runs either a paged search or, when a window is requested, the
// windowed aggregation over the same filter body.
func (h *Handler) Query(c *gin.Context) {
	req, ok := h.bindQuery(c)
	if !ok {
		return
	}
	f, err := req.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.TrimSpace(req.Window) == "" {
		page, searchErr := h.engine.Search(c.Request.Context(), f, req.pageRequest())
		if searchErr != nil {
			h.serverError(c, searchErr)
			return
		}
		c.JSON(http.StatusOK, toPageDTO(page, toSnapshotDTO))
		return
	}

	window, err := catalog.ParseWindow(req.Window)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.engine.WindowAverage(c.Request.Context(), f, window, catalog.ParseAvgMode(req.AvgMode), req.pageRequest())
	if err != nil {
		if errors.Is(err, engine.ErrMissingBrandOrModel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPageDTO(page, toAggregateDTO))
}

// Facets counts facet values over the filter body.
func (h *Handler) Facets(c *gin.Context) {
	req, ok := h.bindQuery(c)
	if !ok {
		return
	}
	f, err := req.filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	facets, err := h.engine.Facets(c.Request.Context(), f)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, facets)
}

// Summary returns the latest-date rollup for one reference.
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.engine.SummarizeReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reference not found"})
		return
	}
	c.JSON(http.StatusOK, toSummaryDTO(*summary))
}

// BrandDashboard returns catalog-wide figures for one brand.
func (h *Handler) BrandDashboard(c *gin.Context) {
	dash, err := h.engine.BrandDashboard(c.Request.Context(), c.Param("brand"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	if dash == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "brand not found"})
		return
	}
	c.JSON(http.StatusOK, toDashboardDTO(*dash))
}

// PriceHistory returns the normalized price series of one reference.
func (h *Handler) PriceHistory(c *gin.Context) {
	reference := strings.TrimSpace(c.Query("reference"))
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	days := defaultHistoryDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	since := h.now().AddDate(0, 0, -days)
	points, err := h.engine.PriceHistory(c.Request.Context(), reference, since)
	if err != nil {
		h.serverError(c, err)
		return
	}

	out := make([]pricePointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, toPricePointDTO(p))
	}
	c.JSON(http.StatusOK, gin.H{"reference": reference, "days": days, "points": out})
}

// Autocomplete completes a reference-code prefix.
func (h *Handler) Autocomplete(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	refs, err := h.engine.SuggestReferences(c.Request.Context(), c.Query("prefix"), limit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"references": refs})
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindQuery decodes the shared request body, treating an empty body as
// an empty request.
func (h *Handler) bindQuery(c *gin.Context) (queryRequest, bool) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return queryRequest{}, false
	}
	return req, true
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
