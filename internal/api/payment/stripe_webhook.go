package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"userfinderapi/internal/api"
	"userfinderapi/pkg/config"
	"userfinderapi/pkg/credits"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// StripeWebhook ingests provider events. The payload is signature-verified,
// acknowledged immediately and processed off the request goroutine so the
// provider never retries because of a slow or failing mutation.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	resParams := &api.ResParams{W: w, R: r}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), config.ENV.STRIPE_WEBHOOK_SECRET)
	if err != nil {
		resParams.Code = http.StatusUnauthorized
		resParams.Err = err
		h.Res(resParams)
		return
	}

	go h.processEvent(event)

	resParams.ResData = &struct {
		Received bool `json:"received"`
	}{Received: true}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func (h *Handler) processEvent(event stripe.Event) {

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error

	switch event.Type {

	case stripe.EventTypeCheckoutSessionCompleted:
		err = h.handleCheckoutCompleted(ctx, event)

	case stripe.EventTypeCustomerSubscriptionUpdated:
		err = h.handleSubscriptionUpdated(ctx, event)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = h.handleSubscriptionDeleted(ctx, event)

	case stripe.EventTypeInvoicePaid:
		err = h.handleInvoicePaid(ctx, event)

	}

	if err != nil {
		h.Logger.Error("stripe event processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}

}

func (h *Handler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return err
	}
	if cs.Mode != stripe.CheckoutSessionModeSubscription {
		return nil
	}

	// one reconciliation per session id, webhook retries are no-ops
	fresh, err := h.RedisCli.SetNX(ctx, "stripesession:"+cs.ID, 1, 72*time.Hour).Result()
	if err != nil {
		return err
	}
	if !fresh {
		return nil
	}

	_, err = applySession(ctx, h.Credits.Store(), &cs)
	return err

}

func (h *Handler) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}
	if sub.Customer == nil {
		return nil
	}

	status := mirrorStatus(&sub)
	subscribed := status == credits.StatusActive || status == credits.StatusPendingCancellation

	return h.Credits.Store().SetSubscriptionStatus(ctx, sub.Customer.ID, status, subscribed)

}

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return err
	}
	if sub.Customer == nil {
		return nil
	}

	// the provider confirmed the period ended, drop the entitlement now
	return h.Credits.Store().Downgrade(ctx, sub.Customer.ID,
		credits.TierFree, credits.PlanFor(credits.TierFree).Daily, credits.StatusCanceled)

}

func (h *Handler) handleInvoicePaid(ctx context.Context, event stripe.Event) error {

	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return err
	}
	if inv.Customer == nil || inv.BillingReason != stripe.InvoiceBillingReasonSubscriptionCycle {
		return nil
	}

	// renewal cycle, top the balance back up to the paid allotment
	return h.Credits.Store().Replenish(ctx, inv.Customer.ID,
		credits.PlanFor(credits.TierPro).Daily, time.Now().UTC())

}
