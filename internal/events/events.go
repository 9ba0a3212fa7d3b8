package events

import (
	"time"

	"github.com/google/uuid"
)

// Event names used for bus subscription and wire routing.
const (
	PaymentApproved   = "PagamentoAprovado"
	PurchaseCompleted = "CompraRealizada"
	Notification      = "Notificacao"
)

// Notification types
const (
	NotificationPurchaseCompleted = "PurchaseCompleted"
)

// IntegrationEvent is a transient message delivered through the event bus.
// Events are constructed by a publisher, handed to the subscribed handlers
// and then discarded; they are never persisted.
type IntegrationEvent interface {
	EventName() string
}

// PaymentApprovedEvent signals that an external payment was authorized
type PaymentApprovedEvent struct {
	TransactionID     uuid.UUID `json:"transactionId"`
	BuyerID           uuid.UUID `json:"buyerId"`
	GameID            uuid.UUID `json:"gameId"`
	Amount            float64   `json:"amount"`
	AuthorizationCode string    `json:"authorizationCode"`
	ApprovedAt        time.Time `json:"approvedAt"`
}

// EventName returns the bus routing name
func (PaymentApprovedEvent) EventName() string { return PaymentApproved }

// PurchaseCompletedEvent signals that a purchase was registered
type PurchaseCompletedEvent struct {
	PurchaseID    uuid.UUID `json:"purchaseId"`
	BuyerID       uuid.UUID `json:"buyerId"`
	GameID        uuid.UUID `json:"gameId"`
	TransactionID uuid.UUID `json:"transactionId"`
	AmountPaid    float64   `json:"amountPaid"`
	PurchasedAt   time.Time `json:"purchasedAt"`
}

// EventName returns the bus routing name
func (PurchaseCompletedEvent) EventName() string { return PurchaseCompleted }

// NotificationEvent carries a user-facing notification
type NotificationEvent struct {
	BuyerID  uuid.UUID         `json:"buyerId"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata"`
}

// EventName returns the bus routing name
func (NotificationEvent) EventName() string { return Notification }
