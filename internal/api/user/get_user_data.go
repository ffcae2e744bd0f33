package user

import (
	"net/http"

	"userfinderapi/internal/api"
	"userfinderapi/pkg/utils"
)

func (h *Handler) GetUserData(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}
	ctx := r.Context()

	authToken, err := utils.ValidateAuthToken(r)
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusUnauthorized
		h.Res(resParams)
		return
	}

	// refresh token if expiring soon
	authToken.Refresh()
	token, err := authToken.Sign()
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	// apply the daily reset before reporting the balance
	if err := h.Credits.ResetIfDue(ctx, authToken.Email); err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	user, err := h.Credits.Store().Get(ctx, authToken.Email)
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Token              string `json:"token"`
		DisplayName        string `json:"displayName"`
		Plan               string `json:"plan"`
		Credits            int    `json:"credits"`
		IsSubscribed       bool   `json:"isSubscribed"`
		SubscriptionStatus string `json:"subscriptionStatus"`
	}{
		Token:              token,
		DisplayName:        user.DisplayName,
		Plan:               user.Plan,
		Credits:            user.Credits,
		IsSubscribed:       user.IsSubscribed,
		SubscriptionStatus: user.SubscriptionStatus,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
