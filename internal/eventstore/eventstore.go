package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/gamestore/services/games/internal/models"
)

// Aggregate type names recorded in the event log.
const (
	AggregateGame     = "Jogo"
	AggregatePurchase = "Compra"
)

// EventStore is the interface for the append-only domain event log
type EventStore interface {
	// Append records a domain event; the log is write-only for the workflow
	Append(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, data interface{}, correlationID *string) error

	// Query pages through stored events matching the given filter
	Query(ctx context.Context, filter Filter) (*PagedResult, error)
}

// Filter narrows an event log query
type Filter struct {
	AggregateType string
	AggregateID   *uuid.UUID
	EventType     string
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// PagedResult is the page envelope returned by Query
type PagedResult struct {
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
	Total    int64                `json:"total"`
	Items    []models.StoredEvent `json:"items"`
}

// GormEventStore implements EventStore using GORM
type GormEventStore struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewGormEventStore creates a new GORM event store
func NewGormEventStore(db *gorm.DB, readOnlyDB *gorm.DB) *GormEventStore {
	return &GormEventStore{db: db, readOnlyDB: readOnlyDB}
}

// Append records a domain event
func (s *GormEventStore) Append(ctx context.Context, aggregateType string, aggregateID uuid.UUID, eventType string, data interface{}, correlationID *string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event data")
	}

	event := models.StoredEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Data:          payload,
		OccurredOn:    time.Now().UTC(),
		CorrelationID: correlationID,
	}

	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return errors.Wrap(err, "failed to append event")
	}

	log.Info().
		Str("aggregate_type", aggregateType).
		Str("aggregate_id", aggregateID.String()).
		Str("event_type", eventType).
		Msg("Event appended")

	return nil
}

// Query pages through stored events, newest first
func (s *GormEventStore) Query(ctx context.Context, filter Filter) (*PagedResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	query := s.readOnlyDB.WithContext(ctx).Model(&models.StoredEvent{})
	if filter.AggregateType != "" {
		query = query.Where("aggregate_type = ?", filter.AggregateType)
	}
	if filter.AggregateID != nil {
		query = query.Where("aggregate_id = ?", *filter.AggregateID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.From != nil {
		query = query.Where("occurred_on >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_on <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count stored events")
	}

	var items []models.StoredEvent
	err := query.
		Order("occurred_on DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query stored events")
	}

	return &PagedResult{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
		Items:    items,
	}, nil
}
