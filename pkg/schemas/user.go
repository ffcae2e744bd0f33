package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the account document, keyed by email (unique index).
type User struct {
	Id                 bson.ObjectID `bson:"_id,omitempty"`
	Ctime              time.Time     `bson:"ctime"`
	Email              string        `bson:"email"`
	EmailVerified      bool          `bson:"emailVerified"`
	PassHash           string        `bson:"passHash"`
	DisplayName        string        `bson:"displayName"`
	Plan               string        `bson:"plan"`
	Credits            int           `bson:"credits"`
	LastCreditReset    time.Time     `bson:"lastCreditReset"`
	IsSubscribed       bool          `bson:"isSubscribed"`
	SubscriptionStatus string        `bson:"subscriptionStatus"`
	StripeCustomer     string        `bson:"stripeCustomer"`
	SubscriptionId     string        `bson:"subscriptionId"`
}
