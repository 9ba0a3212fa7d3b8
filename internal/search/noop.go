package search

import (
	"context"

	"github.com/google/uuid"

	"example.com/gamestore/services/games/internal/models"
)

// NoopProvider is the search backend used when Elasticsearch is not
// configured. Writes are discarded and every query comes back empty.
type NoopProvider struct{}

// NewNoopProvider creates a no-op search provider
func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

// Index discards the document
func (p *NoopProvider) Index(ctx context.Context, game *models.Game) error {
	return nil
}

// Delete discards the deletion
func (p *NoopProvider) Delete(ctx context.Context, gameID uuid.UUID) error {
	return nil
}

// Search returns no results
func (p *NoopProvider) Search(ctx context.Context, query Query) ([]models.Game, error) {
	return nil, nil
}

// TopRated returns no results
func (p *NoopProvider) TopRated(ctx context.Context, limit int) ([]models.Game, error) {
	return nil, nil
}

// GetPopularMetrics returns empty aggregates
func (p *NoopProvider) GetPopularMetrics(ctx context.Context, top int) (*PopularMetrics, error) {
	return &PopularMetrics{}, nil
}
