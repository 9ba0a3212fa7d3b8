package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPurchaseRegistrar struct {
	mock.Mock
}

func (m *MockPurchaseRegistrar) RegisterPurchase(ctx context.Context, buyerID, gameID, transactionID uuid.UUID, amountPaid float64) (uuid.UUID, error) {
	args := m.Called(ctx, buyerID, gameID, transactionID, amountPaid)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) SendMessage(ctx context.Context, body interface{}) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}

func TestPaymentApprovedRegistersExactlyOnePurchase(t *testing.T) {
	bus := NewInMemoryBus()
	registrar := new(MockPurchaseRegistrar)
	completedHandler := &recordingHandler{}

	purchaseID := uuid.New()
	buyerID := uuid.New()
	gameID := uuid.New()
	transactionID := uuid.New()

	registrar.On("RegisterPurchase", mock.Anything, buyerID, gameID, transactionID, 79.90).
		Return(purchaseID, nil).Once()

	bus.Subscribe(PaymentApproved, NewPaymentApprovedHandler(registrar, bus))
	bus.Subscribe(PurchaseCompleted, completedHandler)

	approved := PaymentApprovedEvent{
		TransactionID: transactionID,
		BuyerID:       buyerID,
		GameID:        gameID,
		Amount:        79.90,
		ApprovedAt:    time.Now().UTC(),
	}

	err := bus.Publish(context.Background(), approved, PaymentApproved)

	require.NoError(t, err)
	registrar.AssertExpectations(t)
	require.Len(t, completedHandler.received, 1)

	completed, ok := completedHandler.received[0].(PurchaseCompletedEvent)
	require.True(t, ok)
	require.Equal(t, purchaseID, completed.PurchaseID)
	require.Equal(t, transactionID, completed.TransactionID)
	require.Equal(t, 79.90, completed.AmountPaid)
}

func TestPaymentApprovedPropagatesRegistrationFailure(t *testing.T) {
	bus := NewInMemoryBus()
	registrar := new(MockPurchaseRegistrar)
	completedHandler := &recordingHandler{}

	registrar.On("RegisterPurchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(uuid.Nil, errors.New("database down"))

	bus.Subscribe(PaymentApproved, NewPaymentApprovedHandler(registrar, bus))
	bus.Subscribe(PurchaseCompleted, completedHandler)

	err := bus.Publish(context.Background(), PaymentApprovedEvent{
		TransactionID: uuid.New(),
		BuyerID:       uuid.New(),
		GameID:        uuid.New(),
		Amount:        10.0,
	}, PaymentApproved)

	require.Error(t, err)
	require.Empty(t, completedHandler.received)
}

func TestPurchaseCompletedBuildsNotification(t *testing.T) {
	bus := NewInMemoryBus()
	notificationHandler := &recordingHandler{}

	bus.Subscribe(PurchaseCompleted, NewPurchaseCompletedHandler(bus))
	bus.Subscribe(Notification, notificationHandler)

	completed := PurchaseCompletedEvent{
		PurchaseID:    uuid.New(),
		BuyerID:       uuid.New(),
		GameID:        uuid.New(),
		TransactionID: uuid.New(),
		AmountPaid:    149.99,
		PurchasedAt:   time.Now().UTC(),
	}

	err := bus.Publish(context.Background(), completed, PurchaseCompleted)

	require.NoError(t, err)
	require.Len(t, notificationHandler.received, 1)

	notification, ok := notificationHandler.received[0].(NotificationEvent)
	require.True(t, ok)
	require.Equal(t, completed.BuyerID, notification.BuyerID)
	require.Equal(t, "Purchase Completed Successfully", notification.Title)
	require.Equal(t, "Your purchase of R$ 149.99 was completed successfully!", notification.Message)
	require.Equal(t, NotificationPurchaseCompleted, notification.Type)
	require.Equal(t, completed.PurchaseID.String(), notification.Metadata["purchaseId"])
	require.Equal(t, completed.GameID.String(), notification.Metadata["gameId"])
	require.Equal(t, completed.TransactionID.String(), notification.Metadata["transactionId"])
}

func TestNotificationHandlerForwardsToSender(t *testing.T) {
	sender := new(MockNotificationSender)
	handler := NewNotificationHandler(sender)

	notification := NotificationEvent{
		BuyerID: uuid.New(),
		Title:   "Purchase Completed Successfully",
		Type:    NotificationPurchaseCompleted,
	}

	sender.On("SendMessage", mock.Anything, notification).Return(nil).Once()

	err := handler.Handle(context.Background(), notification)

	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestNotificationHandlerWrapsSendFailure(t *testing.T) {
	sender := new(MockNotificationSender)
	handler := NewNotificationHandler(sender)

	sender.On("SendMessage", mock.Anything, mock.Anything).Return(errors.New("queue unavailable"))

	err := handler.Handle(context.Background(), NotificationEvent{BuyerID: uuid.New()})

	require.Error(t, err)
}

func TestHandlersRejectUnexpectedEventTypes(t *testing.T) {
	registrar := new(MockPurchaseRegistrar)
	bus := NewInMemoryBus()

	err := NewPaymentApprovedHandler(registrar, bus).Handle(context.Background(), NotificationEvent{})
	require.Error(t, err)

	err = NewPurchaseCompletedHandler(bus).Handle(context.Background(), PaymentApprovedEvent{})
	require.Error(t, err)

	err = NewNotificationHandler(new(MockNotificationSender)).Handle(context.Background(), PurchaseCompletedEvent{})
	require.Error(t, err)
}
