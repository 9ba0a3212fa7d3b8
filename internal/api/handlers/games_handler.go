package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/services"
	"example.com/gamestore/services/games/internal/tracing"
)

// GamesHandler handles catalog HTTP requests
type GamesHandler struct {
	gameService *services.GameService
	tracer      tracing.Tracer
}

// NewGamesHandler creates a new catalog handler
func NewGamesHandler(gameService *services.GameService, tracer tracing.Tracer) *GamesHandler {
	return &GamesHandler{
		gameService: gameService,
		tracer:      tracer,
	}
}

// GameRequest represents an incoming create or update payload
type GameRequest struct {
	Title       string   `json:"titulo" binding:"required"`
	Description string   `json:"descricao"`
	Developer   string   `json:"desenvolvedora"`
	Publisher   string   `json:"publicadora"`
	ReleaseDate string   `json:"dataLancamento"`
	Price       float64  `json:"preco"`
	ImageURL    *string  `json:"urlImagem"`
	VideoURL    *string  `json:"urlVideo"`
	Tags        []string `json:"tags"`
	Platforms   []string `json:"plataformas"`
	Category    int      `json:"categoria"`
	AgeRating   int      `json:"classificacaoIndicativa"`
	Available   *bool    `json:"disponivel"`
	Stock       int      `json:"estoque"`
}

// HandleCreateGame creates a catalog entry
func (h *GamesHandler) HandleCreateGame(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-game")
	defer h.tracer.EndTransaction(txn)

	var req GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error().Err(err).Msg("Invalid game payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	createReq, err := req.toCreateRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	h.tracer.AddAttribute(txn, "title", req.Title)

	game, err := h.gameService.Create(c.Request.Context(), createReq)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

// HandleListGames lists the full catalog
func (h *GamesHandler) HandleListGames(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-games")
	defer h.tracer.EndTransaction(txn)

	games, err := h.gameService.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list games")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// HandleGetGame returns a single game
func (h *GamesHandler) HandleGetGame(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-game")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	game, err := h.gameService.GetByID(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("game_id", id.String()).Msg("Failed to fetch game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}
	if game == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	c.JSON(http.StatusOK, game)
}

// HandleUpdateGame applies a partial update to a game
func (h *GamesHandler) HandleUpdateGame(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-update-game")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	var req gameUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	updateReq, err := req.toUpdateRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.gameService.Update(c.Request.Context(), id, updateReq)
	if err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("game_id", id.String()).Msg("Failed to update game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// HandleDeleteGame removes a game from the catalog
func (h *GamesHandler) HandleDeleteGame(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-delete-game")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	if err := h.gameService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("game_id", id.String()).Msg("Failed to delete game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleBrowseGames filters the catalog by title, category or price range
func (h *GamesHandler) HandleBrowseGames(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-browse-games")
	defer h.tracer.EndTransaction(txn)

	filter := services.CatalogFilter{
		Title: c.Query("titulo"),
	}

	if raw := c.Query("categoria"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || !models.GameCategory(value).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		category := models.GameCategory(value)
		filter.Category = &category
	}
	if raw := c.Query("precoMin"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid minimum price"})
			return
		}
		filter.PriceMin = &value
	}
	if raw := c.Query("precoMax"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid maximum price"})
			return
		}
		filter.PriceMax = &value
	}

	games, err := h.gameService.Browse(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Catalog browse failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// HandlePopularGames returns the highest-rated games
func (h *GamesHandler) HandlePopularGames(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-popular-games")
	defer h.tracer.EndTransaction(txn)

	limit := parseLimit(c.Query("quantidade"), 10)

	games, err := h.gameService.Popular(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch popular games")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// HandleRecommendedGames returns games matching the given tags
func (h *GamesHandler) HandleRecommendedGames(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-recommended-games")
	defer h.tracer.EndTransaction(txn)

	tags := c.QueryArray("tags")
	limit := parseLimit(c.Query("quantidade"), 10)

	games, err := h.gameService.Recommended(c.Request.Context(), tags, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch recommended games")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

// RegisterRoutes registers the handler's routes
func (h *GamesHandler) RegisterRoutes(router *gin.Engine) {
	games := router.Group("/api/jogos")
	{
		games.POST("", h.HandleCreateGame)
		games.GET("", h.HandleListGames)
		games.GET("/buscar", h.HandleBrowseGames)
		games.GET("/populares", h.HandlePopularGames)
		games.GET("/recomendados", h.HandleRecommendedGames)
		games.GET("/:id", h.HandleGetGame)
		games.PUT("/:id", h.HandleUpdateGame)
		games.DELETE("/:id", h.HandleDeleteGame)
	}
}

func (r GameRequest) toCreateRequest() (services.CreateGameRequest, error) {
	category := models.GameCategory(r.Category)
	if r.Category != 0 && !category.Valid() {
		return services.CreateGameRequest{}, errors.New("invalid category")
	}
	if category == 0 {
		category = models.CategoryOther
	}

	rating := models.AgeRating(r.AgeRating)
	if !rating.Valid() {
		return services.CreateGameRequest{}, errors.New("invalid age rating")
	}

	releaseDate := time.Now().UTC()
	if r.ReleaseDate != "" {
		parsed, err := time.Parse(time.RFC3339, r.ReleaseDate)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", r.ReleaseDate)
			if err != nil {
				return services.CreateGameRequest{}, errors.New("invalid release date")
			}
		}
		releaseDate = parsed
	}

	available := true
	if r.Available != nil {
		available = *r.Available
	}

	return services.CreateGameRequest{
		Title:       r.Title,
		Description: r.Description,
		Developer:   r.Developer,
		Publisher:   r.Publisher,
		ReleaseDate: releaseDate,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		VideoURL:    r.VideoURL,
		Tags:        r.Tags,
		Platforms:   r.Platforms,
		Category:    category,
		AgeRating:   rating,
		Available:   available,
		Stock:       r.Stock,
	}, nil
}

// gameUpdateRequest is the partial-update payload; absent fields keep the
// stored value
type gameUpdateRequest struct {
	Title       *string  `json:"titulo"`
	Description *string  `json:"descricao"`
	Developer   *string  `json:"desenvolvedora"`
	Publisher   *string  `json:"publicadora"`
	ReleaseDate *string  `json:"dataLancamento"`
	Price       *float64 `json:"preco"`
	ImageURL    *string  `json:"urlImagem"`
	VideoURL    *string  `json:"urlVideo"`
	Tags        []string `json:"tags"`
	Platforms   []string `json:"plataformas"`
	Category    *int     `json:"categoria"`
	AgeRating   *int     `json:"classificacaoIndicativa"`
	Available   *bool    `json:"disponivel"`
	Stock       *int     `json:"estoque"`
}

func (r gameUpdateRequest) toUpdateRequest() (services.UpdateGameRequest, error) {
	req := services.UpdateGameRequest{
		Title:       r.Title,
		Description: r.Description,
		Developer:   r.Developer,
		Publisher:   r.Publisher,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		VideoURL:    r.VideoURL,
		Tags:        r.Tags,
		Platforms:   r.Platforms,
		Available:   r.Available,
		Stock:       r.Stock,
	}

	if r.ReleaseDate != nil {
		parsed, err := time.Parse(time.RFC3339, *r.ReleaseDate)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", *r.ReleaseDate)
			if err != nil {
				return services.UpdateGameRequest{}, errors.New("invalid release date")
			}
		}
		req.ReleaseDate = &parsed
	}
	if r.Category != nil {
		category := models.GameCategory(*r.Category)
		if !category.Valid() {
			return services.UpdateGameRequest{}, errors.New("invalid category")
		}
		req.Category = &category
	}
	if r.AgeRating != nil {
		rating := models.AgeRating(*r.AgeRating)
		if !rating.Valid() {
			return services.UpdateGameRequest{}, errors.New("invalid age rating")
		}
		req.AgeRating = &rating
	}

	return req, nil
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
