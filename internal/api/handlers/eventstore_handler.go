package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/internal/eventstore"
	"example.com/gamestore/services/games/internal/tracing"
)

// EventStoreHandler exposes the append-only event log for inspection
type EventStoreHandler struct {
	store  eventstore.EventStore
	tracer tracing.Tracer
}

// NewEventStoreHandler creates a new event store handler
func NewEventStoreHandler(store eventstore.EventStore, tracer tracing.Tracer) *EventStoreHandler {
	return &EventStoreHandler{
		store:  store,
		tracer: tracer,
	}
}

// HandleQueryEvents returns a page of stored events, newest first
func (h *EventStoreHandler) HandleQueryEvents(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-query-eventstore")
	defer h.tracer.EndTransaction(txn)

	filter := eventstore.Filter{
		AggregateType: c.Query("aggregateType"),
		EventType:     c.Query("eventType"),
	}

	if raw := c.Query("aggregateId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid aggregate id"})
			return
		}
		filter.AggregateID = &id
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		filter.To = &to
	}
	if raw := c.Query("page"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			filter.Page = value
		}
	}
	if raw := c.Query("pageSize"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			filter.PageSize = value
		}
	}

	result, err := h.store.Query(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Event store query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		h.tracer.RecordError(txn, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers the handler's routes
func (h *EventStoreHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/eventstore", h.HandleQueryEvents)
}
