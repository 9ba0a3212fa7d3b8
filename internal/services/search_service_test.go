package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/search"
)

type MockSearchProvider struct {
	mock.Mock
}

func (m *MockSearchProvider) Index(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockSearchProvider) Delete(ctx context.Context, gameID uuid.UUID) error {
	args := m.Called(ctx, gameID)
	return args.Error(0)
}

func (m *MockSearchProvider) Search(ctx context.Context, query search.Query) ([]models.Game, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockSearchProvider) TopRated(ctx context.Context, limit int) ([]models.Game, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockSearchProvider) GetPopularMetrics(ctx context.Context, top int) (*search.PopularMetrics, error) {
	args := m.Called(ctx, top)
	return args.Get(0).(*search.PopularMetrics), args.Error(1)
}

func purchaseWithGame(tags []string, category models.GameCategory, status models.PurchaseStatus) models.Purchase {
	return models.Purchase{
		ID:     uuid.New(),
		Status: status,
		Game: models.Game{
			ID:       uuid.New(),
			Tags:     models.StringList(tags),
			Category: category,
		},
	}
}

func TestSuggestForBuyerUsesPreferences(t *testing.T) {
	mockProvider := new(MockSearchProvider)
	mockPurchases := new(MockPurchaseStore)

	buyerID := uuid.New()
	history := []models.Purchase{
		purchaseWithGame([]string{"rpg", "fantasy"}, models.CategoryRPG, models.StatusApproved),
		purchaseWithGame([]string{"rpg", "open-world"}, models.CategoryRPG, models.StatusApproved),
		purchaseWithGame([]string{"racing"}, models.CategoryRacing, models.StatusApproved),
	}
	mockPurchases.On("ListByBuyer", mock.Anything, buyerID).Return(history, nil)

	expected := []models.Game{{Title: "Suggested RPG"}}
	var captured search.Query
	mockProvider.On("Search", mock.Anything, mock.AnythingOfType("search.Query")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(search.Query)
		}).
		Return(expected, nil)

	service := NewSearchService(mockProvider, mockPurchases)

	games, err := service.SuggestForBuyer(context.Background(), buyerID, 0)

	require.NoError(t, err)
	require.Equal(t, expected, games)
	require.Equal(t, defaultSuggestionCount, captured.PageSize)
	require.Equal(t, "rpg", captured.Tags[0])
	require.NotNil(t, captured.Category)
	require.Equal(t, models.CategoryRPG, *captured.Category)
	mockProvider.AssertNotCalled(t, "TopRated", mock.Anything, mock.Anything)
}

func TestSuggestForBuyerIgnoresCancelledPurchases(t *testing.T) {
	mockProvider := new(MockSearchProvider)
	mockPurchases := new(MockPurchaseStore)

	buyerID := uuid.New()
	history := []models.Purchase{
		purchaseWithGame([]string{"horror"}, models.CategoryHorror, models.StatusCancelled),
		purchaseWithGame([]string{"horror"}, models.CategoryHorror, models.StatusRefunded),
	}
	mockPurchases.On("ListByBuyer", mock.Anything, buyerID).Return(history, nil)

	topRated := []models.Game{{Title: "Top Rated"}}
	mockProvider.On("TopRated", mock.Anything, defaultSuggestionCount).Return(topRated, nil)

	service := NewSearchService(mockProvider, mockPurchases)

	games, err := service.SuggestForBuyer(context.Background(), buyerID, 0)

	require.NoError(t, err)
	require.Equal(t, topRated, games)
	mockProvider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSuggestForBuyerHonorsRequestedCount(t *testing.T) {
	mockProvider := new(MockSearchProvider)
	mockPurchases := new(MockPurchaseStore)

	buyerID := uuid.New()
	history := []models.Purchase{
		purchaseWithGame([]string{"indie"}, models.CategoryAdventure, models.StatusApproved),
	}
	mockPurchases.On("ListByBuyer", mock.Anything, buyerID).Return(history, nil)

	var captured search.Query
	mockProvider.On("Search", mock.Anything, mock.AnythingOfType("search.Query")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(search.Query)
		}).
		Return([]models.Game{}, nil)
	mockProvider.On("TopRated", mock.Anything, 3).Return([]models.Game{{Title: "Fallback"}}, nil)

	service := NewSearchService(mockProvider, mockPurchases)

	games, err := service.SuggestForBuyer(context.Background(), buyerID, 3)

	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, 3, captured.PageSize)
	mockProvider.AssertExpectations(t)
}

func TestSuggestForBuyerFallsBackWhenPreferenceSearchIsEmpty(t *testing.T) {
	mockProvider := new(MockSearchProvider)
	mockPurchases := new(MockPurchaseStore)

	buyerID := uuid.New()
	history := []models.Purchase{
		purchaseWithGame([]string{"strategy"}, models.CategoryStrategy, models.StatusApproved),
	}
	mockPurchases.On("ListByBuyer", mock.Anything, buyerID).Return(history, nil)
	mockProvider.On("Search", mock.Anything, mock.AnythingOfType("search.Query")).Return([]models.Game{}, nil)

	topRated := []models.Game{{Title: "Fallback"}}
	mockProvider.On("TopRated", mock.Anything, defaultSuggestionCount).Return(topRated, nil)

	service := NewSearchService(mockProvider, mockPurchases)

	games, err := service.SuggestForBuyer(context.Background(), buyerID, 0)

	require.NoError(t, err)
	require.Equal(t, topRated, games)
}

func TestInferPreferencesLimitsTags(t *testing.T) {
	history := []models.Purchase{
		purchaseWithGame([]string{"a", "b", "c", "d"}, models.CategoryAction, models.StatusApproved),
		purchaseWithGame([]string{"a", "e", "f", "g"}, models.CategoryAction, models.StatusApproved),
	}

	tags, category := inferPreferences(history)

	require.Len(t, tags, suggestionTagLimit)
	require.Equal(t, "a", tags[0])
	require.NotNil(t, category)
	require.Equal(t, models.CategoryAction, *category)
}

func TestInferPreferencesEmptyHistory(t *testing.T) {
	tags, category := inferPreferences(nil)

	require.Empty(t, tags)
	require.Nil(t, category)
}
