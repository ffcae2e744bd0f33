package credits

import (
	"context"
	"time"

	"userfinderapi/pkg/schemas"

	petname "github.com/dustinkirkland/golang-petname"
)

// Manager owns the credit policy: lazy account creation, the daily reset
// and the consume-on-use decrement. Storage-level atomicity comes from Store.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) Store() Store {
	return m.store
}

// NewFreeAccount is the document created on first contact with an email.
func NewFreeAccount(email string) *schemas.User {
	now := time.Now().UTC()
	return &schemas.User{
		Ctime:           now,
		Email:           email,
		DisplayName:     petname.Generate(2, "-"),
		Plan:            string(TierFree),
		Credits:         PlanFor(TierFree).Daily,
		LastCreditReset: now,
	}
}

// GetBalance returns the current balance, creating a Free account with the
// default allotment when none exists yet.
func (m *Manager) GetBalance(ctx context.Context, email string) (int, error) {

	u, err := m.store.Ensure(ctx, NewFreeAccount(email))
	if err != nil {
		return 0, err
	}

	return u.Credits, nil

}

// ConsumeOne charges one credit and returns the remaining balance.
func (m *Manager) ConsumeOne(ctx context.Context, email string) (int, error) {

	u, err := m.store.ConsumeOne(ctx, email)
	if err != nil {
		return 0, err
	}

	return u.Credits, nil

}

// ResetIfDue overwrites the balance with the tier allotment when the last
// reset happened on an earlier calendar day. Same-day calls are no-ops,
// days compare as local dates.
func (m *Manager) ResetIfDue(ctx context.Context, email string) error {

	u, err := m.store.Ensure(ctx, NewFreeAccount(email))
	if err != nil {
		return err
	}

	now := time.Now()
	if sameCalendarDay(u.LastCreditReset, now) {
		return nil
	}

	_, err = m.store.ResetCredits(ctx, email, DailyAllotment(u), now.UTC(), startOfDay(now))
	return err

}

func sameCalendarDay(a, b time.Time) bool {
	return a.Local().Format("2006-01-02") == b.Local().Format("2006-01-02")
}

func startOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// NextMidnight is the expiry used for guest quotas.
func NextMidnight(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, 1)
}
