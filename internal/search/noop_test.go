package search

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/gamestore/services/games/internal/models"
)

func TestNoopProviderAlwaysEmpty(t *testing.T) {
	provider := NewNoopProvider()
	ctx := context.Background()

	require.NoError(t, provider.Index(ctx, &models.Game{ID: uuid.New(), Title: "Ignored"}))
	require.NoError(t, provider.Delete(ctx, uuid.New()))

	games, err := provider.Search(ctx, Query{Text: "anything"})
	require.NoError(t, err)
	require.Empty(t, games)

	topRated, err := provider.TopRated(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, topRated)

	popular, err := provider.GetPopularMetrics(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, popular)
	require.Empty(t, popular.TopTags)
	require.Empty(t, popular.TopPlatforms)
	require.Empty(t, popular.TopCategories)
}
