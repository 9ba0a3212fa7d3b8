package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/gamestore/services/games/internal/models"
)

// PurchaseRepository provides access to purchase records
type PurchaseRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *gorm.DB, readOnlyDB *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new purchase. When tx is non-nil the insert joins the
// caller's transaction so it commits or rolls back with the stock update.
func (r *PurchaseRepository) Create(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(purchase).Error
}

// GetByID gets a purchase by ID
func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.readOnlyDB.WithContext(ctx).First(&purchase, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to get purchase by ID")
	}
	return &purchase, nil
}

// List gets purchases ordered by purchase time, newest first
func (r *PurchaseRepository) List(ctx context.Context, limit, offset int) ([]models.Purchase, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var purchases []models.Purchase
	err := r.readOnlyDB.WithContext(ctx).
		Order("purchased_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&purchases).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list purchases")
	}
	return purchases, nil
}

// ListByBuyer gets all purchases made by a buyer, with the game preloaded
// so callers can inspect tags and category for suggestions.
func (r *PurchaseRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.readOnlyDB.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Preload("Game").
		Find(&purchases).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list purchases by buyer")
	}
	return purchases, nil
}

// ListByGame gets all purchases of a game
func (r *PurchaseRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.readOnlyDB.WithContext(ctx).
		Where("game_id = ?", gameID).
		Find(&purchases).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list purchases by game")
	}
	return purchases, nil
}

// Update persists changes to an existing purchase
func (r *PurchaseRepository) Update(ctx context.Context, purchase *models.Purchase) error {
	result := r.db.WithContext(ctx).Save(purchase)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update purchase")
	}
	return nil
}
