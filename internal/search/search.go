package search

import (
	"context"

	"github.com/google/uuid"

	"example.com/gamestore/services/games/internal/models"
)

// Query carries the filters for a catalog search
type Query struct {
	Text     string
	Category *models.GameCategory
	PriceMin *float64
	PriceMax *float64
	Tags     []string
	Page     int
	PageSize int
}

// PopularMetrics aggregates the most frequent terms across the index
type PopularMetrics struct {
	TopTags       []string `json:"top_tags"`
	TopPlatforms  []string `json:"top_platforms"`
	TopCategories []string `json:"top_categories"`
}

// GameSearchProvider is the catalog's text-search backend. The elastic
// variant and the no-op variant both satisfy it; the choice is made once at
// startup from configuration.
type GameSearchProvider interface {
	Index(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, gameID uuid.UUID) error
	Search(ctx context.Context, query Query) ([]models.Game, error)
	TopRated(ctx context.Context, limit int) ([]models.Game, error)
	GetPopularMetrics(ctx context.Context, top int) (*PopularMetrics, error)
}
