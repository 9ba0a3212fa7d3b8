package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// PurchaseRegistrar registers a purchase for an already-approved payment
type PurchaseRegistrar interface {
	RegisterPurchase(ctx context.Context, buyerID, gameID, transactionID uuid.UUID, amountPaid float64) (uuid.UUID, error)
}

// NotificationSender pushes a notification onto an outbound transport
type NotificationSender interface {
	SendMessage(ctx context.Context, body interface{}) error
}

// PaymentApprovedHandler registers a purchase when a payment is approved
// and chains a purchase-completed event.
type PaymentApprovedHandler struct {
	purchases PurchaseRegistrar
	bus       Bus
}

// NewPaymentApprovedHandler creates the payment-approved handler
func NewPaymentApprovedHandler(purchases PurchaseRegistrar, bus Bus) *PaymentApprovedHandler {
	return &PaymentApprovedHandler{purchases: purchases, bus: bus}
}

// Handle registers the purchase and publishes PurchaseCompleted. Failures
// propagate to the bus; whether the message is retried is up to the
// transport that delivered it.
func (h *PaymentApprovedHandler) Handle(ctx context.Context, event IntegrationEvent) error {
	approved, ok := event.(PaymentApprovedEvent)
	if !ok {
		return errors.Errorf("unexpected event type %T", event)
	}

	log.Info().
		Str("buyer_id", approved.BuyerID.String()).
		Str("game_id", approved.GameID.String()).
		Str("transaction_id", approved.TransactionID.String()).
		Msg("Processing approved payment")

	purchaseID, err := h.purchases.RegisterPurchase(ctx, approved.BuyerID, approved.GameID, approved.TransactionID, approved.Amount)
	if err != nil {
		log.Error().
			Err(err).
			Str("transaction_id", approved.TransactionID.String()).
			Msg("Error processing approved payment")
		return err
	}

	completed := PurchaseCompletedEvent{
		PurchaseID:    purchaseID,
		BuyerID:       approved.BuyerID,
		GameID:        approved.GameID,
		TransactionID: approved.TransactionID,
		AmountPaid:    approved.Amount,
		PurchasedAt:   time.Now().UTC(),
	}

	if err := h.bus.Publish(ctx, completed, ""); err != nil {
		return err
	}

	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("transaction_id", approved.TransactionID.String()).
		Msg("Purchase registered successfully")

	return nil
}

// PurchaseCompletedHandler turns a completed purchase into a user notification
type PurchaseCompletedHandler struct {
	bus Bus
}

// NewPurchaseCompletedHandler creates the purchase-completed handler
func NewPurchaseCompletedHandler(bus Bus) *PurchaseCompletedHandler {
	return &PurchaseCompletedHandler{bus: bus}
}

// Handle builds and publishes the notification event
func (h *PurchaseCompletedHandler) Handle(ctx context.Context, event IntegrationEvent) error {
	completed, ok := event.(PurchaseCompletedEvent)
	if !ok {
		return errors.Errorf("unexpected event type %T", event)
	}

	notification := NotificationEvent{
		BuyerID: completed.BuyerID,
		Title:   "Purchase Completed Successfully",
		Message: fmt.Sprintf("Your purchase of R$ %.2f was completed successfully!", completed.AmountPaid),
		Type:    NotificationPurchaseCompleted,
		Metadata: map[string]string{
			"purchaseId":    completed.PurchaseID.String(),
			"gameId":        completed.GameID.String(),
			"transactionId": completed.TransactionID.String(),
		},
	}

	if err := h.bus.Publish(ctx, notification, ""); err != nil {
		return err
	}

	log.Info().
		Str("purchase_id", completed.PurchaseID.String()).
		Msg("Notification sent for completed purchase")

	return nil
}

// NotificationHandler forwards notification events to the outbound
// Service Bus queue. The notification itself is not persisted.
type NotificationHandler struct {
	sender NotificationSender
}

// NewNotificationHandler creates the notification handler
func NewNotificationHandler(sender NotificationSender) *NotificationHandler {
	return &NotificationHandler{sender: sender}
}

// Handle sends the notification out
func (h *NotificationHandler) Handle(ctx context.Context, event IntegrationEvent) error {
	notification, ok := event.(NotificationEvent)
	if !ok {
		return errors.Errorf("unexpected event type %T", event)
	}

	if err := h.sender.SendMessage(ctx, notification); err != nil {
		return errors.Wrap(err, "failed to send notification")
	}

	log.Info().
		Str("buyer_id", notification.BuyerID.String()).
		Str("type", notification.Type).
		Msg("Notification dispatched")

	return nil
}
