package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/gamestore/services/games/internal/events"
	"example.com/gamestore/services/games/internal/eventstore"
	"example.com/gamestore/services/games/internal/metrics"
	"example.com/gamestore/services/games/internal/models"
	"example.com/gamestore/services/games/internal/payment"
	"example.com/gamestore/services/games/internal/repositories"
)

// activationCodeLength is the number of hex characters in an activation code
const activationCodeLength = 16

// GameStockStore is the slice of the game repository the purchase workflow needs
type GameStockStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	IncrementStock(ctx context.Context, id uuid.UUID) error
}

// PurchaseStore abstracts purchase persistence
type PurchaseStore interface {
	Create(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	List(ctx context.Context, limit, offset int) ([]models.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error)
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Purchase, error)
	Update(ctx context.Context, purchase *models.Purchase) error
}

// PaymentAuthorizer submits a transaction to the payment gateway
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, buyerID, gameID uuid.UUID, amount float64, details payment.Details) error
}

// TxRunner runs a function inside a database transaction. *gorm.DB satisfies it.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// statusTransitions is the set of legal purchase status changes
var statusTransitions = map[models.PurchaseStatus][]models.PurchaseStatus{
	models.StatusPending:    {models.StatusProcessing, models.StatusApproved, models.StatusCancelled},
	models.StatusProcessing: {models.StatusApproved, models.StatusCancelled},
	models.StatusApproved:   {models.StatusCancelled, models.StatusRefunded, models.StatusActivated},
	models.StatusActivated:  {models.StatusRefunded},
}

func canTransition(from, to models.PurchaseStatus) bool {
	if from == to {
		return true
	}
	for _, allowed := range statusTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// CreatePurchaseRequest carries the input for a new purchase
type CreatePurchaseRequest struct {
	BuyerID uuid.UUID
	GameID  uuid.UUID
	Notes   string
	Payment payment.Details
}

// PurchaseService implements the purchase workflow
type PurchaseService struct {
	db             TxRunner
	games          GameStockStore
	purchases      PurchaseStore
	gateway        PaymentAuthorizer
	bus            events.Bus
	eventLog       eventstore.EventStore
	metrics        *metrics.Metrics
	gatewayEnabled bool
}

func NewPurchaseService(db TxRunner, games GameStockStore, purchases PurchaseStore, gateway PaymentAuthorizer, bus events.Bus, eventLog eventstore.EventStore, m *metrics.Metrics, gatewayEnabled bool) *PurchaseService {
	return &PurchaseService{
		db:             db,
		games:          games,
		purchases:      purchases,
		gateway:        gateway,
		bus:            bus,
		eventLog:       eventLog,
		metrics:        m,
		gatewayEnabled: gatewayEnabled,
	}
}

// CreatePurchase authorizes payment when the gateway is enabled, then consumes
// one unit of stock and persists the purchase in a single transaction.
func (s *PurchaseService) CreatePurchase(ctx context.Context, req CreatePurchaseRequest) (*models.Purchase, error) {
	game, err := s.games.GetByID(ctx, req.GameID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	if game.Stock <= 0 {
		return nil, ErrOutOfStock
	}

	status := models.StatusPending
	if s.gatewayEnabled {
		if err := s.gateway.Authorize(ctx, req.BuyerID, req.GameID, game.Price, req.Payment); err != nil {
			s.metrics.IncrementCounter(metrics.CounterPaymentsRejected)
			return nil, err
		}
		status = models.StatusApproved
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	purchase := &models.Purchase{
		ID:          uuid.New(),
		BuyerID:     req.BuyerID,
		GameID:      req.GameID,
		PricePaid:   game.Price,
		PurchasedAt: time.Now().UTC(),
		Status:      status,
		Notes:       notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.games.DecrementStock(ctx, tx, req.GameID); err != nil {
			if errors.Is(err, repositories.ErrOutOfStock) {
				return ErrOutOfStock
			}
			return err
		}
		return s.purchases.Create(ctx, tx, purchase)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.CounterPurchasesCreated)
	s.appendEvent(ctx, purchase.ID, "CompraCriada", purchase)

	// Pending purchases get their completion event later, through the
	// payment approved chain.
	if s.bus != nil && purchase.Status == models.StatusApproved {
		var txID uuid.UUID
		if purchase.TransactionID != nil {
			txID = *purchase.TransactionID
		}
		evt := events.PurchaseCompletedEvent{
			PurchaseID:    purchase.ID,
			BuyerID:       purchase.BuyerID,
			GameID:        purchase.GameID,
			TransactionID: txID,
			AmountPaid:    purchase.PricePaid,
			PurchasedAt:   purchase.PurchasedAt,
		}
		if err := s.bus.Publish(ctx, evt, events.PurchaseCompleted); err != nil {
			log.Warn().Err(err).Str("purchase_id", purchase.ID.String()).Msg("Failed to publish purchase completed event")
		}
	}

	return purchase, nil
}

// GetByID returns the purchase or nil when it does not exist
func (s *PurchaseService) GetByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return purchase, nil
}

func (s *PurchaseService) List(ctx context.Context, limit, offset int) ([]models.Purchase, error) {
	return s.purchases.List(ctx, limit, offset)
}

func (s *PurchaseService) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error) {
	return s.purchases.ListByBuyer(ctx, buyerID)
}

func (s *PurchaseService) ListByGame(ctx context.Context, gameID uuid.UUID) ([]models.Purchase, error) {
	return s.purchases.ListByGame(ctx, gameID)
}

// UpdateStatus changes the purchase status, enforcing the transition table.
// Setting the current status again is a no-op.
func (s *PurchaseService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PurchaseStatus) (*models.Purchase, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	purchase, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	if purchase.Status == status {
		return purchase, nil
	}
	if !canTransition(purchase.Status, status) {
		return nil, &InvalidTransitionError{From: purchase.Status, To: status}
	}

	previous := purchase.Status
	purchase.Status = status
	if err := s.purchases.Update(ctx, purchase); err != nil {
		return nil, err
	}

	s.appendEvent(ctx, purchase.ID, "StatusCompraAlterado", map[string]any{
		"anterior": previous,
		"atual":    status,
	})
	return purchase, nil
}

// CancelPurchase cancels the purchase and returns its unit to stock
func (s *PurchaseService) CancelPurchase(ctx context.Context, id uuid.UUID) error {
	purchase, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPurchaseNotFound
		}
		return err
	}
	if purchase.Status == models.StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !canTransition(purchase.Status, models.StatusCancelled) {
		return &InvalidTransitionError{From: purchase.Status, To: models.StatusCancelled}
	}

	purchase.Status = models.StatusCancelled
	if err := s.purchases.Update(ctx, purchase); err != nil {
		return err
	}

	if err := s.games.IncrementStock(ctx, purchase.GameID); err != nil {
		log.Warn().Err(err).
			Str("purchase_id", purchase.ID.String()).
			Str("game_id", purchase.GameID.String()).
			Msg("Failed to restore stock after cancellation")
	}

	s.metrics.IncrementCounter(metrics.CounterPurchasesCancelled)
	s.appendEvent(ctx, purchase.ID, "CompraCancelada", purchase)
	return nil
}

// GenerateActivationCode issues the activation code for an approved purchase.
// A purchase gets exactly one code; repeated calls are rejected.
func (s *PurchaseService) GenerateActivationCode(ctx context.Context, id uuid.UUID) (string, error) {
	purchase, err := s.purchases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrPurchaseNotFound
		}
		return "", err
	}
	if purchase.Status != models.StatusApproved {
		return "", ErrNotApproved
	}
	if purchase.ActivationCode != nil && *purchase.ActivationCode != "" {
		return "", ErrActivationCodeIssued
	}

	code := newActivationCode()
	now := time.Now().UTC()
	purchase.ActivationCode = &code
	purchase.ActivatedAt = &now
	purchase.Status = models.StatusActivated
	if err := s.purchases.Update(ctx, purchase); err != nil {
		return "", err
	}

	s.metrics.IncrementCounter(metrics.CounterActivationCodes)
	s.appendEvent(ctx, purchase.ID, "CodigoAtivacaoGerado", map[string]any{
		"codigo": code,
	})
	return code, nil
}

// RegisterPurchase records a purchase that was already paid through the
// gateway. It is invoked by the payment approved handler.
func (s *PurchaseService) RegisterPurchase(ctx context.Context, buyerID, gameID, transactionID uuid.UUID, amountPaid float64) (uuid.UUID, error) {
	purchase := &models.Purchase{
		ID:            uuid.New(),
		BuyerID:       buyerID,
		GameID:        gameID,
		PricePaid:     amountPaid,
		PurchasedAt:   time.Now().UTC(),
		Status:        models.StatusApproved,
		TransactionID: &transactionID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.purchases.Create(ctx, tx, purchase)
	})
	if err != nil {
		return uuid.Nil, err
	}

	// The payment already went through, so the purchase record must exist
	// even when no stock is left to consume.
	if err := s.games.DecrementStock(ctx, nil, gameID); err != nil {
		log.Warn().Err(err).
			Str("purchase_id", purchase.ID.String()).
			Str("game_id", gameID.String()).
			Msg("Failed to consume stock for registered purchase")
	}

	s.metrics.IncrementCounter(metrics.CounterPurchasesRegistered)
	s.appendEvent(ctx, purchase.ID, "CompraRegistrada", purchase)
	return purchase.ID, nil
}

func (s *PurchaseService) appendEvent(ctx context.Context, aggregateID uuid.UUID, eventType string, payload any) {
	if s.eventLog == nil {
		return
	}
	if err := s.eventLog.Append(ctx, eventstore.AggregatePurchase, aggregateID, eventType, payload, nil); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to append event to store")
	}
}

func newActivationCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:activationCodeLength])
}
