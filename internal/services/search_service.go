package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/search"
)

const (
	suggestionTagLimit     = 5
	defaultSuggestionCount = 10
)

// SearchService answers full-text queries and buyer suggestions through the
// configured search provider
type SearchService struct {
	provider  search.GameSearchProvider
	purchases PurchaseStore
}

func NewSearchService(provider search.GameSearchProvider, purchases PurchaseStore) *SearchService {
	return &SearchService{provider: provider, purchases: purchases}
}

// Search runs a catalog query against the search index
func (s *SearchService) Search(ctx context.Context, query search.Query) ([]models.Game, error) {
	return s.provider.Search(ctx, query)
}

// PopularMetrics aggregates the most frequent tags, platforms and categories
// across the index
func (s *SearchService) PopularMetrics(ctx context.Context, top int) (*search.PopularMetrics, error) {
	return s.provider.GetPopularMetrics(ctx, top)
}

// TopRated returns the best rated games in the index
func (s *SearchService) TopRated(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = defaultSuggestionCount
	}
	return s.provider.TopRated(ctx, limit)
}

// SuggestForBuyer infers the buyer's preferences from their purchase history
// and searches for matching games. Buyers with no history, or whose
// preferences match nothing, get the top rated games instead.
func (s *SearchService) SuggestForBuyer(ctx context.Context, buyerID uuid.UUID, count int) ([]models.Game, error) {
	if count <= 0 {
		count = defaultSuggestionCount
	}

	history, err := s.purchases.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	tags, category := inferPreferences(history)
	if len(tags) > 0 || category != nil {
		query := search.Query{
			Tags:     tags,
			Category: category,
			PageSize: count,
		}
		games, err := s.provider.Search(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("buyer_id", buyerID.String()).Msg("Preference search failed, falling back to top rated")
		} else if len(games) > 0 {
			return games, nil
		}
	}

	return s.provider.TopRated(ctx, count)
}

// inferPreferences returns the buyer's most frequent tags and their single
// most purchased category
func inferPreferences(history []models.Purchase) ([]string, *models.GameCategory) {
	tagCounts := make(map[string]int)
	categoryCounts := make(map[models.GameCategory]int)

	for _, p := range history {
		if p.Status == models.StatusCancelled || p.Status == models.StatusRefunded {
			continue
		}
		for _, tag := range p.Game.Tags {
			tagCounts[tag]++
		}
		if p.Game.Category.Valid() {
			categoryCounts[p.Game.Category]++
		}
	}

	tags := make([]string, 0, len(tagCounts))
	for tag := range tagCounts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagCounts[tags[i]] != tagCounts[tags[j]] {
			return tagCounts[tags[i]] > tagCounts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > suggestionTagLimit {
		tags = tags[:suggestionTagLimit]
	}

	var category *models.GameCategory
	best := 0
	for c, n := range categoryCounts {
		if n > best || (n == best && category != nil && c < *category) {
			c := c
			category = &c
			best = n
		}
	}

	return tags, category
}
