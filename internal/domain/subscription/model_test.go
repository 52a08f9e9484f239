package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billingbridge/billingbridge/internal/types"
)

func activeSubscription() *Subscription {
	renews := time.Now().UTC().Add(20 * 24 * time.Hour)
	return &Subscription{
		ID:                 "subs_1",
		UserID:             "user-1",
		Provider:           types.ProviderStripe,
		ProviderID:         "sub_p1",
		PlanKey:            "pro",
		SubscriptionStatus: types.SubscriptionStatusActive,
		Quantity:           1,
		RenewsAt:           &renews,
	}
}

func TestIsEntitled(t *testing.T) {
	now := time.Now().UTC()

	sub := activeSubscription()
	assert.True(t, sub.IsEntitled(now))

	sub.SubscriptionStatus = types.SubscriptionStatusTrialing
	assert.True(t, sub.IsEntitled(now))

	sub.SubscriptionStatus = types.SubscriptionStatusPastDue
	assert.True(t, sub.IsEntitled(now), "past_due keeps access while payment recovers")

	ends := now.Add(time.Hour)
	sub.SubscriptionStatus = types.SubscriptionStatusCanceled
	sub.EndsAt = &ends
	assert.True(t, sub.IsEntitled(now), "canceled stays entitled until ends_at")
	assert.False(t, sub.IsEntitled(ends.Add(time.Minute)))

	sub.SubscriptionStatus = types.SubscriptionStatusEnded
	assert.False(t, sub.IsEntitled(now))
}

func TestCancelAndResume(t *testing.T) {
	now := time.Now().UTC()
	periodEnd := now.Add(10 * 24 * time.Hour)

	sub := activeSubscription()
	require.NoError(t, sub.Cancel(now, periodEnd))
	assert.Equal(t, types.SubscriptionStatusCanceled, sub.SubscriptionStatus)
	assert.Equal(t, &periodEnd, sub.EndsAt)

	require.NoError(t, sub.Resume(now))
	assert.Equal(t, types.SubscriptionStatusActive, sub.SubscriptionStatus)
	assert.Nil(t, sub.CanceledAt)
	assert.Nil(t, sub.EndsAt)
}

func TestResumeRequiresPendingCancellation(t *testing.T) {
	sub := activeSubscription()
	assert.Error(t, sub.Resume(time.Now().UTC()))
}

func TestEndedIsTerminal(t *testing.T) {
	now := time.Now().UTC()
	sub := activeSubscription()
	sub.SubscriptionStatus = types.SubscriptionStatusEnded

	assert.Error(t, sub.Cancel(now, now.Add(time.Hour)))
	assert.Error(t, sub.Resume(now))
	assert.False(t, sub.Apply(&types.SubscriptionState{Status: types.SubscriptionStatusActive}))
	assert.Equal(t, types.SubscriptionStatusEnded, sub.SubscriptionStatus)
}

func TestEndRequiresElapsedGracePeriod(t *testing.T) {
	now := time.Now().UTC()
	sub := activeSubscription()

	assert.False(t, sub.End(now), "active subscriptions are never swept")

	future := now.Add(time.Hour)
	require.NoError(t, sub.Cancel(now, future))
	assert.False(t, sub.End(now), "grace period still running")

	past := now.Add(-time.Minute)
	sub.EndsAt = &past
	assert.True(t, sub.End(now))
	assert.Equal(t, types.SubscriptionStatusEnded, sub.SubscriptionStatus)
}

func TestApplyOverwritesLifecycleFields(t *testing.T) {
	sub := activeSubscription()
	ends := time.Now().UTC().Add(5 * 24 * time.Hour)

	ok := sub.Apply(&types.SubscriptionState{
		Status:   types.SubscriptionStatusCanceled,
		Quantity: 3,
		EndsAt:   &ends,
	})
	assert.True(t, ok)
	assert.Equal(t, types.SubscriptionStatusCanceled, sub.SubscriptionStatus)
	assert.Equal(t, 3, sub.Quantity)
	assert.Equal(t, &ends, sub.EndsAt)
	assert.Nil(t, sub.RenewsAt)

	// Zero quantity in a snapshot keeps the local seat count
	ok = sub.Apply(&types.SubscriptionState{Status: types.SubscriptionStatusActive})
	assert.True(t, ok)
	assert.Equal(t, 3, sub.Quantity)
}
