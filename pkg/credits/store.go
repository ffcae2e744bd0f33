package credits

import (
	"context"
	"time"

	"userfinderapi/pkg/schemas"
)

// SubscriptionState is the account state written by reconciliation.
type SubscriptionState struct {
	Plan           Tier
	Credits        int
	IsSubscribed   bool
	Status         string
	StripeCustomer string
	SubscriptionId string
}

// Store is the account document store. Mutations that guard an invariant
// (non-negative balance, one reset per day) are conditional server-side,
// never read-modify-write in the caller.
type Store interface {
	Get(ctx context.Context, email string) (*schemas.User, error)
	GetByCustomer(ctx context.Context, customerId string) (*schemas.User, error)

	// Ensure inserts u unless an account with its email already exists,
	// and returns the stored document either way.
	Ensure(ctx context.Context, u *schemas.User) (*schemas.User, error)

	// ConsumeOne decrements credits by exactly one iff credits > 0.
	// Returns ErrInsufficientCredits when the balance is zero.
	ConsumeOne(ctx context.Context, email string) (*schemas.User, error)

	// ResetCredits overwrites credits and lastCreditReset iff the stored
	// lastCreditReset is before dueBefore. Reports whether it applied.
	ResetCredits(ctx context.Context, email string, credits int, resetAt, dueBefore time.Time) (bool, error)

	// UpsertSubscription merge-updates subscription state by email,
	// creating the account if absent.
	UpsertSubscription(ctx context.Context, email string, state SubscriptionState) (*schemas.User, error)

	// SetSubscriptionStatus mirrors a provider status change onto the
	// account owning customerId.
	SetSubscriptionStatus(ctx context.Context, customerId string, status string, subscribed bool) error

	// Downgrade drops the account owning customerId to the given tier and
	// allotment once the provider reports the subscription gone.
	Downgrade(ctx context.Context, customerId string, plan Tier, creditCount int, status string) error

	// Replenish overwrites the balance for a renewal cycle.
	Replenish(ctx context.Context, customerId string, creditCount int, at time.Time) error
}
