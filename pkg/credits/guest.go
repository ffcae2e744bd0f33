package credits

import (
	"net/http"
	"time"

	"userfinderapi/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// GuestQuota tracks unauthenticated callers through a signed cookie.
// The allotment is fixed, never resets and expires at the next local
// midnight along with the cookie. No server-side state.
type GuestQuota struct {
	secret []byte
}

func NewGuestQuota(secret []byte) *GuestQuota {
	return &GuestQuota{secret: secret}
}

type guestClaims struct {
	Remaining int `json:"rem"`
	jwt.RegisteredClaims
}

// Remaining reads the guest balance from the request cookie. A missing,
// tampered or expired cookie starts a fresh allotment.
func (g *GuestQuota) Remaining(r *http.Request) int {

	cookie, err := r.Cookie(config.GUEST_COOKIE_NAME)
	if err != nil {
		return GuestAllotment
	}

	var claims guestClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(token *jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return GuestAllotment
	}

	return clampGuest(claims.Remaining)

}

// Write stores the balance back into the response cookie.
func (g *GuestQuota) Write(w http.ResponseWriter, remaining int) error {

	now := time.Now()
	expiry := NextMidnight(now)

	claims := guestClaims{
		Remaining: clampGuest(remaining),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "userfinderapi",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GUEST_COOKIE_NAME,
		Value:    signed,
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil

}

func clampGuest(n int) int {
	if n < 0 {
		return 0
	}
	if n > GuestAllotment {
		return GuestAllotment
	}
	return n
}
