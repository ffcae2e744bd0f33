package api

import (
	"context"
	"errors"
	"net/http"

	"userfinderapi/pkg/credits"
	"userfinderapi/pkg/utils"
)

// GateAction wraps a credit-costing action. Registered callers (valid
// Authorization header) run against their durable balance after the daily
// reset; anonymous callers run on the signed guest cookie. The fee is
// charged only after the downstream action succeeds, uniformly.
func (h *Handler) GateAction(w http.ResponseWriter, r *http.Request, reqData any, action func(ctx context.Context) (any, error)) {

	if r.Header.Get("Authorization") != "" {
		h.gateRegistered(w, r, reqData, action)
		return
	}
	h.gateGuest(w, r, reqData, action)

}

func (h *Handler) gateRegistered(w http.ResponseWriter, r *http.Request, reqData any, action func(ctx context.Context) (any, error)) {

	ctx := r.Context()
	resParams := &ResParams{W: w, R: r, ReqData: reqData}

	authToken, err := utils.ValidateAuthToken(r)
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusUnauthorized
		h.Res(resParams)
		return
	}
	email := authToken.Email

	if err := h.Credits.ResetIfDue(ctx, email); err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	balance, err := h.Credits.GetBalance(ctx, email)
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}
	if balance <= 0 {
		resParams.ResData = &struct {
			Error string `json:"error"`
		}{Error: "insufficient credits"}
		resParams.Err = credits.ErrInsufficientCredits
		resParams.Code = http.StatusForbidden
		h.Res(resParams)
		return
	}

	result, err := action(ctx)
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusBadGateway
		h.Res(resParams)
		return
	}

	remaining, err := h.Credits.ConsumeOne(ctx, email)
	if err != nil {
		// a concurrent request may have drained the balance between the
		// check and the charge, the work is done either way
		if !errors.Is(err, credits.ErrInsufficientCredits) {
			resParams.Err = err
			resParams.Code = http.StatusInternalServerError
			h.Res(resParams)
			return
		}
		remaining = 0
	}

	resParams.ResData = &struct {
		Result           any `json:"result"`
		CreditsRemaining int `json:"creditsRemaining"`
	}{Result: result, CreditsRemaining: remaining}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

func (h *Handler) gateGuest(w http.ResponseWriter, r *http.Request, reqData any, action func(ctx context.Context) (any, error)) {

	ctx := r.Context()
	resParams := &ResParams{W: w, R: r, ReqData: reqData}

	remaining := h.Guests.Remaining(r)
	if remaining <= 0 {
		resParams.ResData = &struct {
			Error string `json:"error"`
		}{Error: "insufficient credits"}
		resParams.Err = credits.ErrInsufficientCredits
		resParams.Code = http.StatusForbidden
		h.Res(resParams)
		return
	}

	result, err := action(ctx)
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusBadGateway
		h.Res(resParams)
		return
	}

	remaining--
	if err := h.Guests.Write(w, remaining); err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Result           any `json:"result"`
		CreditsRemaining int `json:"creditsRemaining"`
	}{Result: result, CreditsRemaining: remaining}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
