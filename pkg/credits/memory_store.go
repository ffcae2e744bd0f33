package credits

import (
	"context"
	"sync"
	"time"

	"userfinderapi/pkg/schemas"
)

// MemoryStore is an in-process Store for tests and local development.
// All mutations run under one lock, so the conditional semantics match
// the server-side updates of MongoStore.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*schemas.User // keyed by email
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*schemas.User)}
}

func (s *MemoryStore) Get(ctx context.Context, email string) (*schemas.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.accounts[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetByCustomer(ctx context.Context, customerId string) (*schemas.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byCustomer(customerId)
	if u == nil {
		return nil, ErrAccountNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) Ensure(ctx context.Context, u *schemas.User) (*schemas.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.accounts[u.Email]; ok {
		cp := *stored
		return &cp, nil
	}
	cp := *u
	s.accounts[u.Email] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) ConsumeOne(ctx context.Context, email string) (*schemas.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.accounts[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if u.Credits <= 0 {
		return nil, ErrInsufficientCredits
	}
	u.Credits--
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) ResetCredits(ctx context.Context, email string, credits int, resetAt, dueBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.accounts[email]
	if !ok || !u.LastCreditReset.Before(dueBefore) {
		return false, nil
	}
	u.Credits = credits
	u.LastCreditReset = resetAt
	return true, nil
}

func (s *MemoryStore) UpsertSubscription(ctx context.Context, email string, state SubscriptionState) (*schemas.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.accounts[email]
	if !ok {
		u = &schemas.User{
			Ctime: time.Now().UTC(),
			Email: email,
		}
		s.accounts[email] = u
	}
	u.Plan = string(state.Plan)
	u.Credits = state.Credits
	u.IsSubscribed = state.IsSubscribed
	u.SubscriptionStatus = state.Status
	u.StripeCustomer = state.StripeCustomer
	u.SubscriptionId = state.SubscriptionId
	u.LastCreditReset = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) SetSubscriptionStatus(ctx context.Context, customerId string, status string, subscribed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byCustomer(customerId)
	if u == nil {
		return ErrAccountNotFound
	}
	u.SubscriptionStatus = status
	u.IsSubscribed = subscribed
	return nil
}

func (s *MemoryStore) Downgrade(ctx context.Context, customerId string, plan Tier, creditCount int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byCustomer(customerId)
	if u == nil {
		return ErrAccountNotFound
	}
	u.Plan = string(plan)
	u.Credits = creditCount
	u.IsSubscribed = false
	u.SubscriptionStatus = status
	u.SubscriptionId = ""
	u.LastCreditReset = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Replenish(ctx context.Context, customerId string, creditCount int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.byCustomer(customerId)
	if u == nil {
		return ErrAccountNotFound
	}
	u.Credits = creditCount
	u.LastCreditReset = at
	return nil
}

// callers hold s.mu
func (s *MemoryStore) byCustomer(customerId string) *schemas.User {
	if customerId == "" {
		return nil
	}
	for _, u := range s.accounts {
		if u.StripeCustomer == customerId {
			return u
		}
	}
	return nil
}
