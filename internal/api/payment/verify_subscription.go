package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"userfinderapi/internal/api"

	"github.com/stripe/stripe-go/v82"
)

// VerifySubscription reconciles the account against a checkout session id,
// normally right after the user returns from the provider's success page.
func (h *Handler) VerifySubscription(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		SessionId string `json:"sessionId" validate:"required"`
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
	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// fetch authoritative state from the provider
	cs, err := h.StripeCli.V1CheckoutSessions.Retrieve(ctx, reqData.SessionId, &stripe.CheckoutSessionRetrieveParams{
		Expand: []*string{
			stripe.String("customer"),
			stripe.String("subscription"),
		},
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			resParams.Code = http.StatusNotFound
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	user, err := applySession(ctx, h.Credits.Store(), cs)
	if err != nil {
		if errors.Is(err, ErrCustomerEmailMissing) || errors.Is(err, ErrSessionNotPaid) {
			resParams.Code = http.StatusBadRequest
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Success        bool   `json:"success"`
		Email          string `json:"email"`
		SubscriptionId string `json:"subscriptionId"`
		Status         string `json:"status"`
	}{
		Success:        true,
		Email:          user.Email,
		SubscriptionId: user.SubscriptionId,
		Status:         user.SubscriptionStatus,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
