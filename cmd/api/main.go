package main

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"userfinderapi/internal/api"
	"userfinderapi/internal/api/auth"
	"userfinderapi/internal/api/payment"
	"userfinderapi/internal/api/search"
	"userfinderapi/internal/api/user"
	"userfinderapi/pkg/aiclient"
	"userfinderapi/pkg/config"
	"userfinderapi/pkg/credits"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {

	ctx := context.Background()
	h := &api.Handler{}

	// init logger
	logger, err := zap.NewDevelopment(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	if err != nil {
		panic(err)
	}
	logger.Info("Server starting...")
	defer logger.Sync()
	h.Logger = logger

	// init validator
	h.Validate = validator.New()
	h.Validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		re := regexp.MustCompile(`^[A-Za-z0-9~` + "`" + `!@#$%^&*()_\-+={[}\]|\\:;"'<,>.?/]{8,128}$`)
		return re.MatchString(password)
	})

	h.HttpCli = &http.Client{
		Timeout: 30 * time.Second,
	}

	// init mongo
	mongoServerAPI := options.ServerAPI(options.ServerAPIVersion1)
	mongoOpts := options.Client().ApplyURI(config.ENV.MONGO_URI).SetServerAPIOptions(mongoServerAPI)
	mongoCli, err := mongo.Connect(mongoOpts)
	if err != nil {
		panic(err)
	}
	defer func() {
		if err = mongoCli.Disconnect(ctx); err != nil {
			panic(err)
		}
	}()
	if err := mongoCli.Ping(ctx, readpref.Primary()); err != nil {
		panic(err)
	}
	h.MongoDB = mongoCli.Database(config.MONGO_DB)

	// init redis
	h.RedisCli = redis.NewClient(&redis.Options{
		Addr:     config.ENV.REDIS_ADDR,
		Username: "default",
		Password: config.ENV.REDIS_PASSWORD,
		DB:       0,
	})

	// init aws ses
	sesCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("us-east-1"))
	if err != nil {
		panic(err)
	}
	h.AWSSESCli = ses.NewFromConfig(sesCfg)

	// init stripe
	h.StripeCli = stripe.NewClient(config.ENV.STRIPE_SECRET_KEY)

	// init ai provider
	h.AICli = aiclient.New(h.HttpCli, config.ENV.AI_API_URL, config.ENV.AI_API_KEY)

	// init credit core
	h.Credits = credits.NewManager(credits.NewMongoStore(h.MongoDB))
	h.Guests = credits.NewGuestQuota([]byte(config.ENV.JWT_SECRET))

	router := chi.NewRouter()

	// Middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{config.ORIGIN},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestSize(1 << 20))

	authH := &auth.Handler{Handler: h}
	userH := &user.Handler{Handler: h}
	searchH := &search.Handler{Handler: h}
	paymentH := &payment.Handler{Handler: h}

	// auth endpoints
	router.Post("/auth/create-account", authH.CreateAccount)
	router.Post("/auth/password-login", authH.PasswordLogin)
	router.Post("/auth/send-verification-code", authH.SendVerificationCode)
	router.Post("/auth/verify-email", authH.VerifyEmail)
	router.Post("/auth/reset-password", authH.ResetPassword)

	// user endpoints
	router.Get("/user", userH.GetUserData)

	// credit-gated search endpoints (guest cookie or auth token)
	router.Post("/search/prompt", searchH.PromptSearch)
	router.Post("/search/image", searchH.ImageSearch)
	router.Post("/search/site-qa", searchH.SiteQA)

	// payment endpoints
	router.Post("/payment/create-checkout", h.AuthMiddleware(paymentH.CreateCheckoutSession))
	router.Post("/payment/verify-subscription", paymentH.VerifySubscription)
	router.Post("/payment/cancel-subscription", paymentH.CancelSubscription)
	router.Post("/payment/stripe-webhook", paymentH.StripeWebhook)

	logger.Info("Server running on port 8080")
	http.ListenAndServe(":8080", router)

}
