package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	received []IntegrationEvent
	err      error
}

func (h *recordingHandler) Handle(ctx context.Context, event IntegrationEvent) error {
	h.received = append(h.received, event)
	return h.err
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInMemoryBus()
	first := &recordingHandler{}
	second := &recordingHandler{}

	bus.Subscribe(PaymentApproved, first)
	bus.Subscribe(PaymentApproved, second)

	event := PaymentApprovedEvent{TransactionID: uuid.New(), Amount: 10.0}
	err := bus.Publish(context.Background(), event, PaymentApproved)

	require.NoError(t, err)
	require.Len(t, first.received, 1)
	require.Len(t, second.received, 1)
	require.Equal(t, event, first.received[0])
}

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	bus := NewInMemoryBus()

	err := bus.Publish(context.Background(), NotificationEvent{BuyerID: uuid.New()}, Notification)

	require.NoError(t, err)
}

func TestPublishStopsOnFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus()
	failing := &recordingHandler{err: errors.New("boom")}
	after := &recordingHandler{}

	bus.Subscribe(Notification, failing)
	bus.Subscribe(Notification, after)

	err := bus.Publish(context.Background(), NotificationEvent{BuyerID: uuid.New()}, Notification)

	require.Error(t, err)
	require.Len(t, failing.received, 1)
	require.Empty(t, after.received)
}

func TestDuplicateSubscriptionDeliversTwice(t *testing.T) {
	bus := NewInMemoryBus()
	handler := &recordingHandler{}

	bus.Subscribe(PurchaseCompleted, handler)
	bus.Subscribe(PurchaseCompleted, handler)

	err := bus.Publish(context.Background(), PurchaseCompletedEvent{PurchaseID: uuid.New()}, PurchaseCompleted)

	require.NoError(t, err)
	require.Len(t, handler.received, 2)
}

func TestEventsAreRoutedByName(t *testing.T) {
	bus := NewInMemoryBus()
	paymentHandler := &recordingHandler{}
	notificationHandler := &recordingHandler{}

	bus.Subscribe(PaymentApproved, paymentHandler)
	bus.Subscribe(Notification, notificationHandler)

	err := bus.Publish(context.Background(), PaymentApprovedEvent{TransactionID: uuid.New()}, PaymentApproved)

	require.NoError(t, err)
	require.Len(t, paymentHandler.received, 1)
	require.Empty(t, notificationHandler.received)
}
