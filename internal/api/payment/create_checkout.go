package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"userfinderapi/internal/api"
	"userfinderapi/pkg/config"
	"userfinderapi/pkg/credits"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// release the mutex only if this request still owns it
var releaseMutexScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// CreateCheckoutSession starts a Pro subscription checkout for the
// authenticated user.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	email := ctx.Value("email").(string)
	resParams := &api.ResParams{W: w, R: r}

	// mutex to prevent session creation race condition
	mutexKey := "checkoutmutex:" + email
	mutexOwner := uuid.New().String()
	acquired, err := h.RedisCli.SetNX(ctx, mutexKey, mutexOwner, time.Minute).Result()
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if !acquired { // another session currently being created
		resParams.Code = http.StatusTooManyRequests
		h.Res(resParams)
		return
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := releaseMutexScript.Run(cleanupCtx, h.RedisCli, []string{mutexKey}, mutexOwner).Err(); err != nil {
			h.Logger.Warn("checkout mutex release failed", zap.Error(err))
		}
	}()

	user, err := h.Credits.Store().Get(ctx, email)
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

	// already on an active paid plan
	if user.IsSubscribed && user.SubscriptionStatus == credits.StatusActive {
		resParams.ResData = &struct {
			AlreadySubscribed bool `json:"alreadySubscribed"`
		}{AlreadySubscribed: true}
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	// create stripe customer for user if needed
	stripeCustomerId := user.StripeCustomer
	if stripeCustomerId == "" {
		cus, err := h.StripeCli.V1Customers.Create(ctx, &stripe.CustomerCreateParams{
			Email: stripe.String(user.Email),
		})
		if err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
		stripeCustomerId = cus.ID

		if _, err := h.MongoDB.Collection("users").UpdateOne(ctx, bson.M{
			"email": user.Email,
		}, bson.M{
			"$set": bson.M{
				"stripeCustomer": cus.ID,
			},
		}); err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
	}

	metadata := map[string]string{
		"email": user.Email,
		"type":  "subscription",
	}

	checkoutParams := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(config.ORIGIN + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(config.ORIGIN + "/checkout/cancel"),
		Customer:   stripe.String(stripeCustomerId),
		ExpiresAt:  stripe.Int64(time.Now().Add(config.CHECKOUT_SESSION_DURATION).Unix()),

		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(config.PRICE_ID_PRO_MONTHLY),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	checkoutSession, err := h.StripeCli.V1CheckoutSessions.Create(ctx, checkoutParams)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		CheckoutSession string `json:"checkoutSession"`
	}{CheckoutSession: checkoutSession.ID}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
