package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	ORIGIN   = "http://localhost:3000"
	MONGO_DB = "UserFinderDev"

	PRICE_ID_PRO_MONTHLY = "price_pro_monthly"

	CHECKOUT_SESSION_DURATION = 30 * time.Minute
	SITE_INDEX_TTL            = 24 * time.Hour
	SITE_INDEX_MAX_BYTES      = 1 << 16

	GUEST_COOKIE_NAME = "uf_guest"

	EMAIL_SENDER = "no-reply@userfinder.ai"
)

type EnvVars struct {
	MONGO_URI             string
	REDIS_ADDR            string
	REDIS_PASSWORD        string
	JWT_SECRET            string
	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string
	AI_API_URL            string
	AI_API_KEY            string
	AWS_ACCESS_KEY_ID     string
	AWS_SECRET_ACCESS_KEY string
}

var ENV *EnvVars

func init() {

	prod := os.Getenv("ENV") == "prod"

	if !prod {
		// no .env is fine (tests, CI), process env is used as-is
		godotenv.Load()
	}

	ENV = &EnvVars{
		MONGO_URI:             os.Getenv("MONGO_URI"),
		REDIS_ADDR:            os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD:        os.Getenv("REDIS_PASSWORD"),
		JWT_SECRET:            os.Getenv("JWT_SECRET"),
		STRIPE_SECRET_KEY:     os.Getenv("STRIPE_SECRET_KEY"),
		STRIPE_WEBHOOK_SECRET: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AI_API_URL:            os.Getenv("AI_API_URL"),
		AI_API_KEY:            os.Getenv("AI_API_KEY"),
		AWS_ACCESS_KEY_ID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWS_SECRET_ACCESS_KEY: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}

}
