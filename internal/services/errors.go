package services

import (
	"errors"
	"fmt"

	"example.com/gamestore/services/games/internal/models"
)

// Business rule errors surfaced by the services
var (
	ErrGameNotFound         = errors.New("game not found")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrOutOfStock           = errors.New("game out of stock")
	ErrAlreadyCancelled     = errors.New("purchase is already cancelled")
	ErrNotApproved          = errors.New("only approved purchases can generate an activation code")
	ErrActivationCodeIssued = errors.New("activation code was already issued for this purchase")
	ErrInvalidStatus        = errors.New("invalid purchase status")
)

// InvalidTransitionError is returned when a status change is not allowed by
// the purchase state machine
type InvalidTransitionError struct {
	From models.PurchaseStatus
	To   models.PurchaseStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}
