package credits

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"userfinderapi/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guestRequest(t *testing.T, w *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest("POST", "/search/prompt", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestGuestQuotaFreshAllotment(t *testing.T) {

	g := NewGuestQuota([]byte("secret"))
	r := httptest.NewRequest("POST", "/search/prompt", nil)

	assert.Equal(t, GuestAllotment, g.Remaining(r))

}

func TestGuestQuotaRoundtrip(t *testing.T) {

	g := NewGuestQuota([]byte("secret"))

	w := httptest.NewRecorder()
	require.NoError(t, g.Write(w, 1))

	assert.Equal(t, 1, g.Remaining(guestRequest(t, w)))

}

func TestGuestQuotaClamps(t *testing.T) {

	g := NewGuestQuota([]byte("secret"))

	// the balance can never exceed the fixed allotment
	w := httptest.NewRecorder()
	require.NoError(t, g.Write(w, 99))
	assert.Equal(t, GuestAllotment, g.Remaining(guestRequest(t, w)))

	w = httptest.NewRecorder()
	require.NoError(t, g.Write(w, -4))
	assert.Equal(t, 0, g.Remaining(guestRequest(t, w)))

}

func TestGuestQuotaRejectsTamperedCookie(t *testing.T) {

	g := NewGuestQuota([]byte("secret"))

	w := httptest.NewRecorder()
	require.NoError(t, g.Write(w, 0))

	// re-signing with a different key must not carry the drained balance over
	forged := NewGuestQuota([]byte("other"))
	r := guestRequest(t, w)
	assert.Equal(t, GuestAllotment, forged.Remaining(r))

}

func TestGuestQuotaGarbageCookie(t *testing.T) {

	g := NewGuestQuota([]byte("secret"))

	r := httptest.NewRequest("POST", "/search/prompt", nil)
	r.AddCookie(&http.Cookie{Name: config.GUEST_COOKIE_NAME, Value: "not-a-jwt"})

	assert.Equal(t, GuestAllotment, g.Remaining(r))

}
