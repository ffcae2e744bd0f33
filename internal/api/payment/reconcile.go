package payment

import (
	"context"
	"strings"

	"userfinderapi/pkg/credits"
	"userfinderapi/pkg/schemas"

	"github.com/stripe/stripe-go/v82"
)

// applySession translates a completed checkout session into durable account
// state. Upsert semantics make it idempotent: replaying the same session
// (webhook retry, user refreshing the success page) converges on the same
// document.
func applySession(ctx context.Context, store credits.Store, cs *stripe.CheckoutSession) (*schemas.User, error) {

	// the session id is handed to the client before payment, never grant
	// on an open or unpaid session
	if cs.Status != stripe.CheckoutSessionStatusComplete ||
		cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return nil, ErrSessionNotPaid
	}

	email, err := resolveEmail(cs)
	if err != nil {
		return nil, err
	}

	state := credits.SubscriptionState{
		Plan:         credits.TierPro,
		Credits:      credits.PlanFor(credits.TierPro).SignupGrant,
		IsSubscribed: true,
		Status:       mirrorStatus(cs.Subscription),
	}
	if cs.Customer != nil {
		state.StripeCustomer = cs.Customer.ID
	}
	if cs.Subscription != nil {
		state.SubscriptionId = cs.Subscription.ID
	}

	return store.UpsertSubscription(ctx, email, state)

}

// resolveEmail prefers session metadata, then checkout details, then the
// expanded customer record.
func resolveEmail(cs *stripe.CheckoutSession) (string, error) {

	if email, ok := cs.Metadata["email"]; ok && email != "" {
		return strings.ToLower(email), nil
	}
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		return strings.ToLower(cs.CustomerDetails.Email), nil
	}
	if cs.Customer != nil && cs.Customer.Email != "" {
		return strings.ToLower(cs.Customer.Email), nil
	}

	return "", ErrCustomerEmailMissing

}

// mirrorStatus maps the provider's subscription state onto the local state
// machine: active -> pending_cancellation -> canceled.
func mirrorStatus(sub *stripe.Subscription) string {

	if sub == nil || sub.Status == "" {
		return credits.StatusActive
	}
	if sub.CancelAtPeriodEnd {
		return credits.StatusPendingCancellation
	}

	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return credits.StatusActive
	case stripe.SubscriptionStatusCanceled:
		return credits.StatusCanceled
	default:
		return string(sub.Status)
	}

}
