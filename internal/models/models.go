package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GameCategory enumerates catalog categories.
type GameCategory int

const (
	CategoryAction GameCategory = iota + 1
	CategoryAdventure
	CategoryStrategy
	CategoryRPG
	CategorySports
	CategoryRacing
	CategoryPuzzle
	CategorySimulation
	CategoryHorror
	CategoryOther
)

// Valid reports whether c is a known category value.
func (c GameCategory) Valid() bool {
	return c >= CategoryAction && c <= CategoryOther
}

// AgeRating enumerates age classification levels.
type AgeRating int

const (
	RatingUnknown AgeRating = iota
	RatingEveryone
	RatingTen
	RatingTwelve
	RatingFourteen
	RatingSixteen
	RatingEighteen
)

// Valid reports whether r is a known rating value.
func (r AgeRating) Valid() bool {
	return r >= RatingUnknown && r <= RatingEighteen
}

// PurchaseStatus enumerates the lifecycle states of a purchase.
type PurchaseStatus int

const (
	StatusPending PurchaseStatus = iota + 1
	StatusApproved
	StatusCancelled
	StatusRefunded
	StatusProcessing
	StatusActivated
)

// String returns the status name used in logs and error messages.
func (s PurchaseStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusCancelled:
		return "Cancelled"
	case StatusRefunded:
		return "Refunded"
	case StatusProcessing:
		return "Processing"
	case StatusActivated:
		return "Activated"
	}
	return "Unknown"
}

// Valid reports whether s is a known status value.
func (s PurchaseStatus) Valid() bool {
	return s >= StatusPending && s <= StatusActivated
}

// StringList stores an ordered list of strings as a JSON column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.Errorf("unsupported type %T for StringList", value)
}

// Game represents a catalog entry for a digital game
type Game struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"not null" json:"description"`
	Developer     string         `gorm:"not null" json:"developer"`
	Publisher     string         `gorm:"not null" json:"publisher"`
	ReleaseDate   time.Time      `json:"release_date"`
	Price         float64        `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL      *string        `json:"image_url"`
	VideoURL      *string        `json:"video_url"`
	Tags          StringList     `gorm:"type:jsonb" json:"tags"`
	Platforms     StringList     `gorm:"type:jsonb" json:"platforms"`
	Category      GameCategory   `gorm:"not null" json:"category"`
	AgeRating     AgeRating      `gorm:"not null;default:0" json:"age_rating"`
	AverageRating int            `gorm:"not null;default:0" json:"average_rating"`
	RatingCount   int            `gorm:"not null;default:0" json:"rating_count"`
	Available     bool           `gorm:"not null;default:true" json:"available"`
	Stock         int            `gorm:"not null;default:0" json:"stock"`
	Purchases     []Purchase     `gorm:"foreignKey:GameID" json:"-"`
}

// Purchase represents a buyer's purchase of a game
type Purchase struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	BuyerID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"buyer_id"`
	GameID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"game_id"`
	PricePaid      float64        `gorm:"type:numeric(10,2);not null" json:"price_paid"`
	PurchasedAt    time.Time      `gorm:"not null" json:"purchased_at"`
	Status         PurchaseStatus `gorm:"not null" json:"status"`
	ActivationCode *string        `json:"activation_code"`
	ActivatedAt    *time.Time     `json:"activated_at"`
	Notes          *string        `json:"notes"`
	TransactionID  *uuid.UUID     `gorm:"type:uuid" json:"transaction_id"`
	Game           Game           `gorm:"foreignKey:GameID" json:"-"`
}

// StoredEvent is an append-only audit record of a domain event.
// Rows are only ever inserted, never updated or deleted.
type StoredEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AggregateType string    `gorm:"not null;index" json:"aggregate_type"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	EventType     string    `gorm:"not null;index" json:"event_type"`
	Data          []byte    `gorm:"type:jsonb" json:"data"`
	OccurredOn    time.Time `gorm:"not null;index" json:"occurred_on"`
	CorrelationID *string   `json:"correlation_id"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	// Apply all migrations
	err := db.AutoMigrate(
		&Game{},
		&Purchase{},
		&StoredEvent{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
