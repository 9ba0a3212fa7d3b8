package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/internal/cache"
	"example.com/gamestore/services/games/internal/eventstore"
	"example.com/gamestore/services/games/internal/metrics"
	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/repositories"
	"example.com/gamestore/services/games/internal/search"
)

const (
	gameCacheTTL    = 5 * time.Minute
	popularCacheTTL = 10 * time.Minute
)

// GameStore abstracts game persistence for the catalog service
type GameStore interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	List(ctx context.Context) ([]models.Game, error)
	Update(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id uuid.UUID) error
	SearchByTitle(ctx context.Context, title string) ([]models.Game, error)
	SearchByCategory(ctx context.Context, category models.GameCategory) ([]models.Game, error)
	SearchByPriceRange(ctx context.Context, min, max float64) ([]models.Game, error)
	Popular(ctx context.Context, limit int) ([]models.Game, error)
	RecommendedByTags(ctx context.Context, tags []string, limit int) ([]models.Game, error)
}

// GameCache is the cache surface the catalog service uses
type GameCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CreateGameRequest carries the input for a new catalog entry
type CreateGameRequest struct {
	Title       string
	Description string
	Developer   string
	Publisher   string
	ReleaseDate time.Time
	Price       float64
	ImageURL    *string
	VideoURL    *string
	Tags        []string
	Platforms   []string
	Category    models.GameCategory
	AgeRating   models.AgeRating
	Available   bool
	Stock       int
}

// UpdateGameRequest carries a partial update; nil fields keep the stored value
type UpdateGameRequest struct {
	Title       *string
	Description *string
	Developer   *string
	Publisher   *string
	ReleaseDate *time.Time
	Price       *float64
	ImageURL    *string
	VideoURL    *string
	Tags        []string
	Platforms   []string
	Category    *models.GameCategory
	AgeRating   *models.AgeRating
	Available   *bool
	Stock       *int
}

// CatalogFilter narrows a catalog query. Title takes precedence over
// category, category over price range.
type CatalogFilter struct {
	Title    string
	Category *models.GameCategory
	PriceMin *float64
	PriceMax *float64
}

// GameService manages the game catalog
type GameService struct {
	games    GameStore
	cache    GameCache
	provider search.GameSearchProvider
	eventLog eventstore.EventStore
	metrics  *metrics.Metrics
}

func NewGameService(games GameStore, c GameCache, provider search.GameSearchProvider, eventLog eventstore.EventStore, m *metrics.Metrics) *GameService {
	return &GameService{
		games:    games,
		cache:    c,
		provider: provider,
		eventLog: eventLog,
		metrics:  m,
	}
}

// Create adds a game to the catalog and indexes it for search
func (s *GameService) Create(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	game := &models.Game{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Developer:   req.Developer,
		Publisher:   req.Publisher,
		ReleaseDate: req.ReleaseDate,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		VideoURL:    req.VideoURL,
		Tags:        models.StringList(req.Tags),
		Platforms:   models.StringList(req.Platforms),
		Category:    req.Category,
		AgeRating:   req.AgeRating,
		Available:   req.Available,
		Stock:       req.Stock,
	}

	if err := s.games.Create(ctx, game); err != nil {
		return nil, err
	}

	s.index(ctx, game)
	s.appendEvent(ctx, game.ID, "JogoCriado", game)
	return game, nil
}

// GetByID returns the game or nil when it does not exist. Reads go through
// the cache when one is configured.
func (s *GameService) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	if s.cache != nil {
		var cached models.Game
		if err := s.cache.Get(ctx, cache.GetGameCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.GetGameCacheKey(id), game, gameCacheTTL); err != nil {
			log.Warn().Err(err).Str("game_id", id.String()).Msg("Failed to cache game")
		}
	}
	return game, nil
}

func (s *GameService) List(ctx context.Context) ([]models.Game, error) {
	return s.games.List(ctx)
}

// Update applies a partial update and reindexes the game
func (s *GameService) Update(ctx context.Context, id uuid.UUID, req UpdateGameRequest) (*models.Game, error) {
	game, err := s.games.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		game.Title = *req.Title
	}
	if req.Description != nil {
		game.Description = *req.Description
	}
	if req.Developer != nil {
		game.Developer = *req.Developer
	}
	if req.Publisher != nil {
		game.Publisher = *req.Publisher
	}
	if req.ReleaseDate != nil {
		game.ReleaseDate = *req.ReleaseDate
	}
	if req.Price != nil {
		game.Price = *req.Price
	}
	if req.ImageURL != nil {
		game.ImageURL = req.ImageURL
	}
	if req.VideoURL != nil {
		game.VideoURL = req.VideoURL
	}
	if req.Tags != nil {
		game.Tags = models.StringList(req.Tags)
	}
	if req.Platforms != nil {
		game.Platforms = models.StringList(req.Platforms)
	}
	if req.Category != nil {
		game.Category = *req.Category
	}
	if req.AgeRating != nil {
		game.AgeRating = *req.AgeRating
	}
	if req.Available != nil {
		game.Available = *req.Available
	}
	if req.Stock != nil {
		game.Stock = *req.Stock
	}

	if err := s.games.Update(ctx, game); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.index(ctx, game)
	s.appendEvent(ctx, game.ID, "JogoAtualizado", game)
	return game, nil
}

// Delete removes a game from the catalog and the search index
func (s *GameService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.games.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrGameNotFound
		}
		return err
	}

	s.invalidate(ctx, id)
	if s.provider != nil {
		if err := s.provider.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("game_id", id.String()).Msg("Failed to remove game from search index")
		}
	}
	s.appendEvent(ctx, id, "JogoExcluido", map[string]any{"id": id})
	return nil
}

// Browse queries the catalog with a single filter. An empty filter lists
// everything.
func (s *GameService) Browse(ctx context.Context, filter CatalogFilter) ([]models.Game, error) {
	switch {
	case filter.Title != "":
		return s.games.SearchByTitle(ctx, filter.Title)
	case filter.Category != nil:
		return s.games.SearchByCategory(ctx, *filter.Category)
	case filter.PriceMin != nil || filter.PriceMax != nil:
		min, max := 0.0, 0.0
		if filter.PriceMin != nil {
			min = *filter.PriceMin
		}
		if filter.PriceMax != nil {
			max = *filter.PriceMax
		}
		return s.games.SearchByPriceRange(ctx, min, max)
	}
	return s.games.List(ctx)
}

// Popular returns the highest-rated games, served from cache when possible
func (s *GameService) Popular(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = 10
	}

	key := cache.GetPopularGamesCacheKey(limit)
	if s.cache != nil {
		var cached []models.Game
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	games, err := s.games.Popular(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, games, popularCacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache popular games")
		}
	}
	return games, nil
}

// Recommended returns games sharing tags with the given list
func (s *GameService) Recommended(ctx context.Context, tags []string, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.games.RecommendedByTags(ctx, tags, limit)
}

// ReindexAll pushes the whole catalog into the search index. Used by the
// worker to repair index drift.
func (s *GameService) ReindexAll(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}

	games, err := s.games.List(ctx)
	if err != nil {
		return err
	}

	for i := range games {
		if err := s.provider.Index(ctx, &games[i]); err != nil {
			log.Warn().Err(err).Str("game_id", games[i].ID.String()).Msg("Failed to reindex game")
			continue
		}
		s.metrics.IncrementCounter(metrics.CounterGamesIndexed)
	}

	log.Info().Int("count", len(games)).Msg("Catalog reindex finished")
	return nil
}

func (s *GameService) index(ctx context.Context, game *models.Game) {
	if s.provider == nil {
		return
	}
	if err := s.provider.Index(ctx, game); err != nil {
		log.Warn().Err(err).Str("game_id", game.ID.String()).Msg("Failed to index game")
		return
	}
	s.metrics.IncrementCounter(metrics.CounterGamesIndexed)
}

func (s *GameService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.GetGameCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("game_id", id.String()).Msg("Failed to invalidate cached game")
	}
}

func (s *GameService) appendEvent(ctx context.Context, aggregateID uuid.UUID, eventType string, payload any) {
	if s.eventLog == nil {
		return
	}
	if err := s.eventLog.Append(ctx, eventstore.AggregateGame, aggregateID, eventType, payload, nil); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to append event to store")
	}
}
