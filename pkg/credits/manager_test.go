package credits

import (
	"context"
	"sync"
	"testing"
	"time"

	"userfinderapi/pkg/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalanceCreatesFreeAccount(t *testing.T) {

	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	balance, err := m.GetBalance(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	u, err := m.Store().Get(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, string(TierFree), u.Plan)
	assert.Equal(t, 5, u.Credits)

}

func TestConsumeOneNeverNegative(t *testing.T) {

	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	_, err := m.GetBalance(ctx, "a@example.com")
	require.NoError(t, err)

	for i := 4; i >= 0; i-- {
		remaining, err := m.ConsumeOne(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, i, remaining)
	}

	_, err = m.ConsumeOne(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	u, err := m.Store().Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Credits)

}

func TestConsumeOneUnknownAccount(t *testing.T) {

	m := NewManager(NewMemoryStore())
	_, err := m.ConsumeOne(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)

}

func TestConsumeOneConcurrentLastCredit(t *testing.T) {

	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store)

	u := NewFreeAccount("race@example.com")
	u.Credits = 1
	_, err := store.Ensure(ctx, u)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.ConsumeOne(ctx, "race@example.com")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientCredits)
		}
	}
	assert.Equal(t, 1, succeeded)

	final, err := store.Get(ctx, "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, final.Credits)

}

func TestResetIfDue(t *testing.T) {

	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store)

	u := NewFreeAccount("reset@example.com")
	u.Credits = 2
	u.LastCreditReset = time.Now().AddDate(0, 0, -1)
	_, err := store.Ensure(ctx, u)
	require.NoError(t, err)

	require.NoError(t, m.ResetIfDue(ctx, "reset@example.com"))

	got, err := store.Get(ctx, "reset@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Credits)

	// idempotent within the same day: spending then re-running changes nothing
	_, err = m.ConsumeOne(ctx, "reset@example.com")
	require.NoError(t, err)
	require.NoError(t, m.ResetIfDue(ctx, "reset@example.com"))

	got, err = store.Get(ctx, "reset@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Credits)

}

func TestResetIfDueUsesSubscriptionAllotment(t *testing.T) {

	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store)

	// plan field lags behind, active subscription decides
	u := &schemas.User{
		Ctime:              time.Now().UTC(),
		Email:              "pro@example.com",
		Plan:               string(TierFree),
		Credits:            0,
		LastCreditReset:    time.Now().AddDate(0, 0, -3),
		IsSubscribed:       true,
		SubscriptionStatus: StatusActive,
	}
	_, err := store.Ensure(ctx, u)
	require.NoError(t, err)

	require.NoError(t, m.ResetIfDue(ctx, "pro@example.com"))

	got, err := store.Get(ctx, "pro@example.com")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Credits)

}

func TestResetIfDueCreatesMissingAccount(t *testing.T) {

	ctx := context.Background()
	m := NewManager(NewMemoryStore())

	require.NoError(t, m.ResetIfDue(ctx, "lazy@example.com"))

	u, err := m.Store().Get(ctx, "lazy@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, u.Credits)

}
