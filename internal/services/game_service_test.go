package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/gamestore/services/games/internal/metrics"
	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/repositories"
	"example.com/gamestore/services/games/internal/search"
)

type MockGameStore struct {
	mock.Mock
}

func (m *MockGameStore) Create(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameStore) List(ctx context.Context) ([]models.Game, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockGameStore) Update(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *MockGameStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGameStore) SearchByTitle(ctx context.Context, title string) ([]models.Game, error) {
	args := m.Called(ctx, title)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockGameStore) SearchByCategory(ctx context.Context, category models.GameCategory) ([]models.Game, error) {
	args := m.Called(ctx, category)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockGameStore) SearchByPriceRange(ctx context.Context, min, max float64) ([]models.Game, error) {
	args := m.Called(ctx, min, max)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockGameStore) Popular(ctx context.Context, limit int) ([]models.Game, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockGameStore) RecommendedByTags(ctx context.Context, tags []string, limit int) ([]models.Game, error) {
	args := m.Called(ctx, tags, limit)
	return args.Get(0).([]models.Game), args.Error(1)
}

func newTestGameService(games *MockGameStore) *GameService {
	return &GameService{
		games:    games,
		provider: search.NewNoopProvider(),
		metrics:  metrics.NewMetrics(),
	}
}

func TestCreateGame(t *testing.T) {
	mockGames := new(MockGameStore)
	mockGames.On("Create", mock.Anything, mock.AnythingOfType("*models.Game")).Return(nil)

	service := newTestGameService(mockGames)

	game, err := service.Create(context.Background(), CreateGameRequest{
		Title:       "Space Raiders",
		Description: "Arcade shooter",
		Developer:   "Example Studio",
		ReleaseDate: time.Now().UTC(),
		Price:       59.90,
		Tags:        []string{"arcade", "shooter"},
		Platforms:   []string{"PC"},
		Category:    models.CategoryAction,
		AgeRating:   models.RatingTwelve,
		Available:   true,
		Stock:       100,
	})

	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, game.ID)
	require.Equal(t, "Space Raiders", game.Title)
	require.Equal(t, models.StringList{"arcade", "shooter"}, game.Tags)
	require.Equal(t, 100, game.Stock)
	mockGames.AssertExpectations(t)
}

func TestGetGameMissingReturnsNil(t *testing.T) {
	mockGames := new(MockGameStore)
	id := uuid.New()
	mockGames.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	service := newTestGameService(mockGames)

	game, err := service.GetByID(context.Background(), id)

	require.NoError(t, err)
	require.Nil(t, game)
}

func TestUpdateGameMissing(t *testing.T) {
	mockGames := new(MockGameStore)
	id := uuid.New()
	mockGames.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	service := newTestGameService(mockGames)

	title := "New Title"
	_, err := service.Update(context.Background(), id, UpdateGameRequest{Title: &title})

	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestUpdateGameAppliesPartialFields(t *testing.T) {
	mockGames := new(MockGameStore)
	id := uuid.New()
	existing := &models.Game{
		ID:    id,
		Title: "Old Title",
		Price: 10.0,
		Stock: 5,
	}

	mockGames.On("GetByID", mock.Anything, id).Return(existing, nil)
	mockGames.On("Update", mock.Anything, existing).Return(nil)

	service := newTestGameService(mockGames)

	price := 24.90
	updated, err := service.Update(context.Background(), id, UpdateGameRequest{Price: &price})

	require.NoError(t, err)
	require.Equal(t, "Old Title", updated.Title)
	require.Equal(t, 24.90, updated.Price)
	require.Equal(t, 5, updated.Stock)
}

func TestDeleteGameMissing(t *testing.T) {
	mockGames := new(MockGameStore)
	id := uuid.New()
	mockGames.On("Delete", mock.Anything, id).Return(repositories.ErrNotFound)

	service := newTestGameService(mockGames)

	err := service.Delete(context.Background(), id)

	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestBrowseTitleTakesPrecedence(t *testing.T) {
	mockGames := new(MockGameStore)
	expected := []models.Game{{Title: "Portal Quest"}}
	mockGames.On("SearchByTitle", mock.Anything, "portal").Return(expected, nil)

	service := newTestGameService(mockGames)

	category := models.CategoryPuzzle
	games, err := service.Browse(context.Background(), CatalogFilter{
		Title:    "portal",
		Category: &category,
	})

	require.NoError(t, err)
	require.Equal(t, expected, games)
	mockGames.AssertNotCalled(t, "SearchByCategory", mock.Anything, mock.Anything)
}

func TestBrowsePriceRange(t *testing.T) {
	mockGames := new(MockGameStore)
	expected := []models.Game{{Title: "Budget Game"}}
	mockGames.On("SearchByPriceRange", mock.Anything, 5.0, 20.0).Return(expected, nil)

	service := newTestGameService(mockGames)

	min, max := 5.0, 20.0
	games, err := service.Browse(context.Background(), CatalogFilter{PriceMin: &min, PriceMax: &max})

	require.NoError(t, err)
	require.Equal(t, expected, games)
}

func TestBrowseEmptyFilterListsAll(t *testing.T) {
	mockGames := new(MockGameStore)
	expected := []models.Game{{Title: "A"}, {Title: "B"}}
	mockGames.On("List", mock.Anything).Return(expected, nil)

	service := newTestGameService(mockGames)

	games, err := service.Browse(context.Background(), CatalogFilter{})

	require.NoError(t, err)
	require.Len(t, games, 2)
}

func TestReindexAll(t *testing.T) {
	mockGames := new(MockGameStore)
	catalog := []models.Game{{ID: uuid.New()}, {ID: uuid.New()}}
	mockGames.On("List", mock.Anything).Return(catalog, nil)

	service := newTestGameService(mockGames)

	err := service.ReindexAll(context.Background())

	require.NoError(t, err)
	mockGames.AssertExpectations(t)
}
