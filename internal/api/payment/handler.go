package payment

import (
	"errors"

	"userfinderapi/internal/api"
)

type Handler struct {
	*api.Handler
}

var (
	ErrCustomerEmailMissing = errors.New("no customer email on checkout session")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrSessionNotPaid       = errors.New("checkout session not completed or not paid")
)
