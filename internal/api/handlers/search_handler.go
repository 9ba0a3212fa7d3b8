package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/search"
	"example.com/gamestore/services/games/internal/services"
	"example.com/gamestore/services/games/internal/tracing"
)

// SearchHandler handles full-text search HTTP requests
type SearchHandler struct {
	searchService *services.SearchService
	tracer        tracing.Tracer
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *services.SearchService, tracer tracing.Tracer) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		tracer:        tracer,
	}
}

// HandleSearchGames runs a free-text query against the search index
func (h *SearchHandler) HandleSearchGames(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-games")
	defer h.tracer.EndTransaction(txn)

	query := search.Query{
		Text: c.Query("q"),
		Tags: c.QueryArray("tags"),
	}

	if raw := c.Query("categoria"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || !models.GameCategory(value).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		category := models.GameCategory(value)
		query.Category = &category
	}
	if raw := c.Query("precoMin"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid minimum price"})
			return
		}
		query.PriceMin = &value
	}
	if raw := c.Query("precoMax"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maximum price"})
			return
		}
		query.PriceMax = &value
	}
	if raw := c.Query("page"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			query.Page = value
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			query.PageSize = value
		}
	}

	h.tracer.AddAttribute(txn, "query", query.Text)

	games, err := h.searchService.Search(c.Request.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("Search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// HandleSuggestions returns games suggested from the buyer's history
func (h *SearchHandler) HandleSuggestions(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-suggestions")
	defer h.tracer.EndTransaction(txn)

	buyerID, err := uuid.Parse(c.Param("usuarioId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	count := parseLimit(c.Query("quantidade"), 10)

	games, err := h.searchService.SuggestForBuyer(c.Request.Context(), buyerID, count)
	if err != nil {
		log.Error().Err(err).Str("buyer_id", buyerID.String()).Msg("Suggestion lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// HandlePopularMetrics returns tag/platform/category aggregates from the index
func (h *SearchHandler) HandlePopularMetrics(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-popular-metrics")
	defer h.tracer.EndTransaction(txn)

	top := parseLimit(c.Query("top"), 10)

	popular, err := h.searchService.PopularMetrics(c.Request.Context(), top)
	if err != nil {
		log.Error().Err(err).Msg("Popular metrics aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, popular)
}

// RegisterRoutes registers the handler's routes
func (h *SearchHandler) RegisterRoutes(router *gin.Engine) {
	searchGroup := router.Group("/api/search")
	{
		searchGroup.GET("/jogos", h.HandleSearchGames)
		searchGroup.GET("/sugestoes/:usuarioId", h.HandleSuggestions)
		searchGroup.GET("/metrics/popular", h.HandlePopularMetrics)
	}
}
