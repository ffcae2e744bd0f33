package credits

import "userfinderapi/pkg/schemas"

type Tier string

const (
	TierFree  Tier = "Free"
	TierBasic Tier = "Basic"
	TierPro   Tier = "Pro"
)

// provider-mirrored subscription states
const (
	StatusActive              = "active"
	StatusPendingCancellation = "pending_cancellation"
	StatusCanceled            = "canceled"
)

const GuestAllotment = 3

type Plan struct {
	Daily       int // credits granted by the daily reset
	SignupGrant int // one-time grant applied when a checkout completes
}

// Single source of truth for tier -> allotment. Both the reset path and
// the reconciliation path read from this table.
var plans = map[Tier]Plan{
	TierFree:  {Daily: 5},
	TierBasic: {Daily: 50},
	TierPro:   {Daily: 50, SignupGrant: 100},
}

func PlanFor(tier Tier) Plan {
	if p, ok := plans[tier]; ok {
		return p
	}
	return plans[TierFree]
}

// DailyAllotment returns the reset target for an account. An active paid
// subscription always yields the Pro allotment, whatever the stored plan says.
func DailyAllotment(u *schemas.User) int {
	if u.IsSubscribed && u.SubscriptionStatus == StatusActive {
		return plans[TierPro].Daily
	}
	return PlanFor(Tier(u.Plan)).Daily
}
