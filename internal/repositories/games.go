package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/gamestore/services/games/internal/models"
)

// GameRepository provides access to the game catalog
type GameRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *gorm.DB, readOnlyDB *gorm.DB) *GameRepository {
	return &GameRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new game
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	// Use write DB for writes
	return r.db.WithContext(ctx).Create(game).Error
}

// GetByID gets a game by ID
func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	// Use read-only DB for reads
	err := r.readOnlyDB.WithContext(ctx).First(&game, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get game by ID")
	}
	return &game, nil
}

// List gets all games, excluding soft-deleted ones
func (r *GameRepository) List(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := r.readOnlyDB.WithContext(ctx).Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list games")
	}
	return games, nil
}

// Update persists changes to an existing game
func (r *GameRepository) Update(ctx context.Context, game *models.Game) error {
	result := r.db.WithContext(ctx).Save(game)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update game")
	}
	return nil
}

// Delete soft-deletes a game
func (r *GameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Game{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete game")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock atomically reserves one unit of stock. The guarded update
// is what keeps two concurrent purchases from overselling: the row is only
// touched when stock is still positive, so losers of the race see
// ErrOutOfStock instead of driving stock negative.
func (r *GameRepository) DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ? AND stock > 0", id).
		UpdateColumn("stock", gorm.Expr("stock - 1"))

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to decrement stock")
	}
	if result.RowsAffected == 0 {
		// Either the game vanished or stock hit zero; the caller already
		// verified existence, so report the stock condition.
		return ErrOutOfStock
	}
	return nil
}

// IncrementStock returns one unit of stock to the catalog
func (r *GameRepository) IncrementStock(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + 1"))

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to increment stock")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchByTitle finds games whose title contains the given fragment
func (r *GameRepository) SearchByTitle(ctx context.Context, title string) ([]models.Game, error) {
	var games []models.Game
	err := r.readOnlyDB.WithContext(ctx).
		Where("title ILIKE ?", "%"+title+"%").
		Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to search games by title")
	}
	return games, nil
}

// SearchByCategory finds games in the given category
func (r *GameRepository) SearchByCategory(ctx context.Context, category models.GameCategory) ([]models.Game, error) {
	var games []models.Game
	err := r.readOnlyDB.WithContext(ctx).
		Where("category = ?", category).
		Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to search games by category")
	}
	return games, nil
}

// SearchByPriceRange finds games priced within [min, max]
func (r *GameRepository) SearchByPriceRange(ctx context.Context, min, max float64) ([]models.Game, error) {
	var games []models.Game
	err := r.readOnlyDB.WithContext(ctx).
		Where("price >= ? AND price <= ?", min, max).
		Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to search games by price range")
	}
	return games, nil
}

// Popular gets the top rated games
func (r *GameRepository) Popular(ctx context.Context, limit int) ([]models.Game, error) {
	var games []models.Game
	err := r.readOnlyDB.WithContext(ctx).
		Order("average_rating DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get popular games")
	}
	return games, nil
}

// RecommendedByTags gets the top rated games carrying any of the given tags
func (r *GameRepository) RecommendedByTags(ctx context.Context, tags []string, limit int) ([]models.Game, error) {
	if len(tags) == 0 {
		return r.Popular(ctx, limit)
	}

	query := r.readOnlyDB.WithContext(ctx).Model(&models.Game{})
	for i, tag := range tags {
		cond := "tags @> ?"
		arg := models.StringList{tag}
		if i == 0 {
			query = query.Where(cond, arg)
		} else {
			query = query.Or(cond, arg)
		}
	}

	var games []models.Game
	err := query.
		Order("average_rating DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recommended games")
	}
	return games, nil
}
