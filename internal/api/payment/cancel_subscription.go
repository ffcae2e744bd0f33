package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"userfinderapi/internal/api"
	"userfinderapi/pkg/credits"

	"github.com/stripe/stripe-go/v82"
)

// CancelSubscription requests deferred cancellation from the provider.
// The local account only moves to pending_cancellation here; the downgrade
// to Free happens when the provider confirms the period ended (webhook).
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email string `json:"email" validate:"required,email"`
	}

	// validate request body
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData

	// normalize
	reqData.Email = strings.TrimSpace(strings.ToLower(reqData.Email))

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	user, err := h.Credits.Store().Get(ctx, reqData.Email)
	if err != nil {
		if errors.Is(err, credits.ErrAccountNotFound) {
			resParams.Code = http.StatusNotFound
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if user.StripeCustomer == "" || user.SubscriptionId == "" {
		resParams.ResData = &struct {
			Error string `json:"error"`
		}{Error: "no active subscription"}
		resParams.Err = ErrNoActiveSubscription
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	// confirm the provider still sees an active subscription
	sub, err := h.StripeCli.V1Subscriptions.Retrieve(ctx, user.SubscriptionId, nil)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			resParams.ResData = &struct {
				Error string `json:"error"`
			}{Error: "no active subscription"}
			resParams.Err = ErrNoActiveSubscription
			resParams.Code = http.StatusBadRequest
		} else {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
		}
		h.Res(resParams)
		return
	}
	if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
		resParams.ResData = &struct {
			Error string `json:"error"`
		}{Error: "no active subscription"}
		resParams.Err = ErrNoActiveSubscription
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	// cancel at period end, the user keeps the paid entitlement until then
	if _, err := h.StripeCli.V1Subscriptions.Update(ctx, user.SubscriptionId, &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if err := h.Credits.Store().SetSubscriptionStatus(ctx, user.StripeCustomer, credits.StatusPendingCancellation, true); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Success bool `json:"success"`
	}{Success: true}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
