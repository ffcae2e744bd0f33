package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"userfinderapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps accounts in the users collection, unique index on email.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("users")}
}

func (s *MongoStore) Get(ctx context.Context, email string) (*schemas.User, error) {

	var u schemas.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, fmt.Errorf("in MongoStore.Get: %w", err)
	}

	return &u, nil

}

func (s *MongoStore) GetByCustomer(ctx context.Context, customerId string) (*schemas.User, error) {

	var u schemas.User
	err := s.coll.FindOne(ctx, bson.M{"stripeCustomer": customerId}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, fmt.Errorf("in MongoStore.GetByCustomer: %w", err)
	}

	return &u, nil

}

func (s *MongoStore) Ensure(ctx context.Context, u *schemas.User) (*schemas.User, error) {

	var stored schemas.User
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"email": u.Email},
		bson.M{"$setOnInsert": u},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("in MongoStore.Ensure: %w", err)
	}

	return &stored, nil

}

func (s *MongoStore) ConsumeOne(ctx context.Context, email string) (*schemas.User, error) {

	// conditional decrement, the balance can never go negative
	var u schemas.User
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{
			"email":   email,
			"credits": bson.M{"$gt": 0},
		},
		bson.M{"$inc": bson.M{"credits": -1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)

	if errors.Is(err, mongo.ErrNoDocuments) {
		// either the account is missing or the balance is zero
		if _, getErr := s.Get(ctx, email); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInsufficientCredits
	} else if err != nil {
		return nil, fmt.Errorf("in MongoStore.ConsumeOne: %w", err)
	}

	return &u, nil

}

func (s *MongoStore) ResetCredits(ctx context.Context, email string, credits int, resetAt, dueBefore time.Time) (bool, error) {

	res, err := s.coll.UpdateOne(ctx,
		bson.M{
			"email":           email,
			"lastCreditReset": bson.M{"$lt": dueBefore},
		},
		bson.M{"$set": bson.M{
			"credits":         credits,
			"lastCreditReset": resetAt,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("in MongoStore.ResetCredits: %w", err)
	}

	return res.ModifiedCount > 0, nil

}

func (s *MongoStore) UpsertSubscription(ctx context.Context, email string, state SubscriptionState) (*schemas.User, error) {

	var u schemas.User
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{
			"$set": bson.M{
				"plan":               string(state.Plan),
				"credits":            state.Credits,
				"isSubscribed":       state.IsSubscribed,
				"subscriptionStatus": state.Status,
				"stripeCustomer":     state.StripeCustomer,
				"subscriptionId":     state.SubscriptionId,
				"lastCreditReset":    time.Now().UTC(),
			},
			"$setOnInsert": bson.M{
				"ctime": time.Now().UTC(),
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, fmt.Errorf("in MongoStore.UpsertSubscription: %w", err)
	}

	return &u, nil

}

func (s *MongoStore) SetSubscriptionStatus(ctx context.Context, customerId string, status string, subscribed bool) error {

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"stripeCustomer": customerId},
		bson.M{"$set": bson.M{
			"subscriptionStatus": status,
			"isSubscribed":       subscribed,
		}},
	)
	if err != nil {
		return fmt.Errorf("in MongoStore.SetSubscriptionStatus: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}

	return nil

}

func (s *MongoStore) Downgrade(ctx context.Context, customerId string, plan Tier, creditCount int, status string) error {

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"stripeCustomer": customerId},
		bson.M{"$set": bson.M{
			"plan":               string(plan),
			"credits":            creditCount,
			"isSubscribed":       false,
			"subscriptionStatus": status,
			"subscriptionId":     "",
			"lastCreditReset":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("in MongoStore.Downgrade: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}

	return nil

}

func (s *MongoStore) Replenish(ctx context.Context, customerId string, creditCount int, at time.Time) error {

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"stripeCustomer": customerId},
		bson.M{"$set": bson.M{
			"credits":         creditCount,
			"lastCreditReset": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("in MongoStore.Replenish: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}

	return nil

}
