package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"userfinderapi/pkg/config"
	"userfinderapi/pkg/credits"
	"userfinderapi/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func gateHandler() *Handler {
	return &Handler{
		Logger:  zap.NewNop(),
		Credits: credits.NewManager(credits.NewMemoryStore()),
		Guests:  credits.NewGuestQuota([]byte("test-secret")),
	}
}

type gateResponse struct {
	Result           any    `json:"result"`
	CreditsRemaining int    `json:"creditsRemaining"`
	Error            string `json:"error"`
}

func decodeGate(t *testing.T, w *httptest.ResponseRecorder) gateResponse {
	t.Helper()
	var res gateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func okAction(result string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return result, nil
	}
}

func TestGateGuestChargesAfterSuccess(t *testing.T) {

	h := gateHandler()

	r := httptest.NewRequest("POST", "/search/prompt", nil)
	w := httptest.NewRecorder()
	h.GateAction(w, r, nil, okAction("found"))

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeGate(t, w)
	assert.Equal(t, "found", res.Result)
	assert.Equal(t, credits.GuestAllotment-1, res.CreditsRemaining)
	assert.NotEmpty(t, w.Result().Cookies())

}

func TestGateGuestRunsDry(t *testing.T) {

	h := gateHandler()

	// spend the whole allotment
	var cookies []*http.Cookie
	for range credits.GuestAllotment {
		r := httptest.NewRequest("POST", "/search/prompt", nil)
		for _, c := range cookies {
			r.AddCookie(c)
		}
		w := httptest.NewRecorder()
		h.GateAction(w, r, nil, okAction("found"))
		require.Equal(t, http.StatusOK, w.Code)
		cookies = w.Result().Cookies()
	}

	r := httptest.NewRequest("POST", "/search/prompt", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	called := false
	h.GateAction(w, r, nil, func(ctx context.Context) (any, error) {
		called = true
		return nil, nil
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, called, "action must not run without credits")
	assert.Equal(t, "insufficient credits", decodeGate(t, w).Error)

}

func TestGateGuestNotChargedOnFailure(t *testing.T) {

	h := gateHandler()

	r := httptest.NewRequest("POST", "/search/prompt", nil)
	w := httptest.NewRecorder()
	h.GateAction(w, r, nil, func(ctx context.Context) (any, error) {
		return nil, errors.New("provider down")
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	// no cookie written, the allotment is untouched
	assert.Empty(t, w.Result().Cookies())

}

func TestGateRegistered(t *testing.T) {

	config.ENV.JWT_SECRET = "test-secret"
	h := gateHandler()

	signed, err := utils.CreateNewAuthToken(bson.NewObjectID(), "member@example.com").Sign()
	require.NoError(t, err)

	r := httptest.NewRequest("POST", "/search/prompt", nil)
	r.Header.Set("Authorization", signed)
	w := httptest.NewRecorder()
	h.GateAction(w, r, nil, okAction("found"))

	require.Equal(t, http.StatusOK, w.Code)
	res := decodeGate(t, w)
	assert.Equal(t, "found", res.Result)
	// lazily created Free account, one credit charged
	assert.Equal(t, 4, res.CreditsRemaining)

	u, err := h.Credits.Store().Get(r.Context(), "member@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, u.Credits)

}

func TestGateRegisteredInsufficient(t *testing.T) {

	config.ENV.JWT_SECRET = "test-secret"
	h := gateHandler()

	signed, err := utils.CreateNewAuthToken(bson.NewObjectID(), "broke@example.com").Sign()
	require.NoError(t, err)

	// drain the account
	ctx := context.Background()
	_, err = h.Credits.GetBalance(ctx, "broke@example.com")
	require.NoError(t, err)
	for {
		if _, err := h.Credits.ConsumeOne(ctx, "broke@example.com"); err != nil {
			break
		}
	}

	r := httptest.NewRequest("POST", "/search/prompt", nil)
	r.Header.Set("Authorization", signed)
	w := httptest.NewRecorder()
	called := false
	h.GateAction(w, r, nil, func(ctx context.Context) (any, error) {
		called = true
		return nil, nil
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, called, "action must not run without credits")

}

func TestGateRegisteredBadToken(t *testing.T) {

	config.ENV.JWT_SECRET = "test-secret"
	h := gateHandler()

	r := httptest.NewRequest("POST", "/search/prompt", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	h.GateAction(w, r, nil, okAction("found"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

}
