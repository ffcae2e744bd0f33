package payment

import (
	"context"
	"encoding/json"
	"testing"

	"userfinderapi/internal/api"
	"userfinderapi/pkg/credits"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

func webhookHandler(store credits.Store) *Handler {
	return &Handler{Handler: &api.Handler{
		Logger:  zap.NewNop(),
		Credits: credits.NewManager(store),
	}}
}

func subscribedStore(t *testing.T) credits.Store {
	t.Helper()
	store := credits.NewMemoryStore()
	_, err := applySession(context.Background(), store, proSession())
	require.NoError(t, err)
	return store
}

func event(t *testing.T, eventType stripe.EventType, payload string) stripe.Event {
	t.Helper()
	return stripe.Event{
		ID:   "evt_test_1",
		Type: eventType,
		Data: &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

func TestHandleSubscriptionDeleted(t *testing.T) {

	ctx := context.Background()
	store := subscribedStore(t)
	h := webhookHandler(store)

	ev := event(t, stripe.EventTypeCustomerSubscriptionDeleted,
		`{"id":"sub_1","customer":"cus_1","status":"canceled"}`)
	require.NoError(t, h.handleSubscriptionDeleted(ctx, ev))

	u, err := store.Get(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, string(credits.TierFree), u.Plan)
	assert.Equal(t, 5, u.Credits)
	assert.False(t, u.IsSubscribed)
	assert.Equal(t, credits.StatusCanceled, u.SubscriptionStatus)
	assert.Empty(t, u.SubscriptionId)

}

func TestHandleSubscriptionUpdatedPendingCancellation(t *testing.T) {

	ctx := context.Background()
	store := subscribedStore(t)
	h := webhookHandler(store)

	ev := event(t, stripe.EventTypeCustomerSubscriptionUpdated,
		`{"id":"sub_1","customer":"cus_1","status":"active","cancel_at_period_end":true}`)
	require.NoError(t, h.handleSubscriptionUpdated(ctx, ev))

	u, err := store.Get(ctx, "buyer@example.com")
	require.NoError(t, err)
	// entitlement is kept until the provider confirms the period ended
	assert.Equal(t, credits.StatusPendingCancellation, u.SubscriptionStatus)
	assert.True(t, u.IsSubscribed)
	assert.Equal(t, string(credits.TierPro), u.Plan)

}

func TestHandleInvoicePaidRenewal(t *testing.T) {

	ctx := context.Background()
	store := subscribedStore(t)
	h := webhookHandler(store)

	// drain part of the balance first
	for range 60 {
		if _, err := store.ConsumeOne(ctx, "buyer@example.com"); err != nil {
			break
		}
	}

	ev := event(t, stripe.EventTypeInvoicePaid,
		`{"customer":"cus_1","billing_reason":"subscription_cycle"}`)
	require.NoError(t, h.handleInvoicePaid(ctx, ev))

	u, err := store.Get(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, 50, u.Credits)

}

func TestHandleInvoicePaidIgnoresFirstInvoice(t *testing.T) {

	ctx := context.Background()
	store := subscribedStore(t)
	h := webhookHandler(store)

	// subscription_create invoices are covered by checkout reconciliation
	ev := event(t, stripe.EventTypeInvoicePaid,
		`{"customer":"cus_1","billing_reason":"subscription_create"}`)
	require.NoError(t, h.handleInvoicePaid(ctx, ev))

	u, err := store.Get(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, 100, u.Credits)

}

func TestHandleSubscriptionDeletedUnknownCustomer(t *testing.T) {

	ctx := context.Background()
	h := webhookHandler(credits.NewMemoryStore())

	ev := event(t, stripe.EventTypeCustomerSubscriptionDeleted,
		`{"id":"sub_9","customer":"cus_missing","status":"canceled"}`)
	assert.ErrorIs(t, h.handleSubscriptionDeleted(ctx, ev), credits.ErrAccountNotFound)

}
