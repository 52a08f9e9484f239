package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	"github.com/billingbridge/billingbridge/internal/domain/providermapping"
	"github.com/billingbridge/billingbridge/internal/domain/subscription"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/testutil"
	"github.com/billingbridge/billingbridge/internal/types"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	subscriptionService SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.subscriptionService = NewSubscriptionService(params, NewResolver(params))
}

// seedSubscription stores an active local subscription with matching provider
// state at the fake stripe provider.
func (s *SubscriptionServiceSuite) seedSubscription(id, providerID string) *subscription.Subscription {
	renews := s.GetNow().Add(20 * 24 * time.Hour)
	s.GetStripe().Subscriptions[providerID] = &types.SubscriptionState{
		ProviderID: providerID,
		Status:     types.SubscriptionStatusActive,
		Quantity:   1,
		RenewsAt:   &renews,
	}

	sub := &subscription.Subscription{
		ID:                 id,
		UserID:             "user-1",
		Provider:           types.ProviderStripe,
		ProviderID:         providerID,
		PlanKey:            "pro",
		SubscriptionStatus: types.SubscriptionStatusActive,
		Quantity:           1,
		RenewsAt:           &renews,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *SubscriptionServiceSuite) TestCancelKeepsEntitlementUntilPeriodEnd() {
	s.seedSubscription("subs_1", "sub_p1")

	sub, err := s.subscriptionService.Cancel(s.GetContext(), "subs_1")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, sub.SubscriptionStatus)
	s.NotNil(sub.CanceledAt)
	s.Require().NotNil(sub.EndsAt)

	// Still entitled during the grace period, not after it
	s.True(sub.IsEntitled(s.GetNow()))
	s.False(sub.IsEntitled(sub.EndsAt.Add(time.Minute)))

	s.Contains(s.GetPublisher().EventNames(), types.EventSubscriptionCanceled)
}

func (s *SubscriptionServiceSuite) TestCancelEndedSubscriptionFails() {
	sub := s.seedSubscription("subs_1", "sub_p1")
	sub.SubscriptionStatus = types.SubscriptionStatusEnded
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	_, err := s.subscriptionService.Cancel(s.GetContext(), "subs_1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestResumeClearsPendingCancellation() {
	s.seedSubscription("subs_1", "sub_p1")
	_, err := s.subscriptionService.Cancel(s.GetContext(), "subs_1")
	s.Require().NoError(err)

	sub, err := s.subscriptionService.Resume(s.GetContext(), "subs_1")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.SubscriptionStatus)
	s.Nil(sub.CanceledAt)
	s.Nil(sub.EndsAt)
	s.Contains(s.GetPublisher().EventNames(), types.EventSubscriptionResumed)
}

func (s *SubscriptionServiceSuite) TestResumeRequiresCanceledState() {
	s.seedSubscription("subs_1", "sub_p1")

	_, err := s.subscriptionService.Resume(s.GetContext(), "subs_1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestChangePlanAfterProviderConfirms() {
	s.seedSubscription("subs_1", "sub_p1")
	s.seedPlan("team", "price-team", "team_monthly", "stripe_price_team", false)

	sub, err := s.subscriptionService.ChangePlan(s.GetContext(), "subs_1", "team_monthly")
	s.NoError(err)
	s.Equal("team", sub.PlanKey)
	s.Contains(s.GetPublisher().EventNames(), types.EventSubscriptionUpdated)
}

func (s *SubscriptionServiceSuite) TestChangePlanUnknownPriceFails() {
	s.seedSubscription("subs_1", "sub_p1")

	_, err := s.subscriptionService.ChangePlan(s.GetContext(), "subs_1", "nope_monthly")
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrUnknownPrice))
}

func (s *SubscriptionServiceSuite) TestSyncSeatsOnSeatBasedPlan() {
	s.seedSubscription("subs_1", "sub_p1")
	s.seedPlan("pro", "price-pro", "pro_monthly", "stripe_price_pro", true)

	sub, err := s.subscriptionService.SyncSeats(s.GetContext(), "subs_1", 7)
	s.NoError(err)
	s.Equal(7, sub.Quantity)
}

func (s *SubscriptionServiceSuite) TestSyncSeatsRejectsNonSeatBasedPlan() {
	s.seedSubscription("subs_1", "sub_p1")
	s.seedPlan("pro", "price-pro", "pro_monthly", "stripe_price_pro", false)

	_, err := s.subscriptionService.SyncSeats(s.GetContext(), "subs_1", 7)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestSyncFromProviderNeverRegressesEnded() {
	sub := s.seedSubscription("subs_1", "sub_p1")
	sub.SubscriptionStatus = types.SubscriptionStatusEnded
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	// Provider still reports the subscription active (stale state)
	got, err := s.subscriptionService.SyncFromProvider(s.GetContext(), types.ProviderStripe, "sub_p1", ResolveHints{})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusEnded, got.SubscriptionStatus)

	stored, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), "subs_1")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusEnded, stored.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestSweepEndedFinalizesElapsedGracePeriods() {
	sub := s.seedSubscription("subs_1", "sub_p1")
	past := s.GetNow().Add(-time.Hour)
	canceledAt := s.GetNow().Add(-48 * time.Hour)
	sub.SubscriptionStatus = types.SubscriptionStatusCanceled
	sub.CanceledAt = &canceledAt
	sub.EndsAt = &past
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	ended, err := s.subscriptionService.SweepEnded(s.GetContext())
	s.NoError(err)
	s.Equal(1, ended)

	stored, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), "subs_1")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusEnded, stored.SubscriptionStatus)
	s.Contains(s.GetPublisher().EventNames(), types.EventSubscriptionEnded)
}

func (s *SubscriptionServiceSuite) TestSweepEndedSkipsRunningGracePeriods() {
	sub := s.seedSubscription("subs_1", "sub_p1")
	future := s.GetNow().Add(time.Hour)
	canceledAt := s.GetNow().Add(-time.Hour)
	sub.SubscriptionStatus = types.SubscriptionStatusCanceled
	sub.CanceledAt = &canceledAt
	sub.EndsAt = &future
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), sub))

	ended, err := s.subscriptionService.SweepEnded(s.GetContext())
	s.NoError(err)
	s.Equal(0, ended)
}

func (s *SubscriptionServiceSuite) TestCreateCheckout() {
	s.seedPlan("pro", "price-pro", "pro_monthly", "stripe_price_pro", false)

	session, err := s.subscriptionService.CreateCheckout(
		s.GetContext(), types.ProviderStripe, "user-1", "pro_monthly", 1,
		"https://app.example.com/done", "https://app.example.com/back")
	s.NoError(err)
	s.NotEmpty(session.ProviderSessionID)
	s.NotEmpty(session.URL)
}

func (s *SubscriptionServiceSuite) TestCreateCheckoutUnpushedPriceFails() {
	s.seedPlan("pro", "price-pro", "pro_monthly", "", false)

	_, err := s.subscriptionService.CreateCheckout(
		s.GetContext(), types.ProviderStripe, "user-1", "pro_monthly", 1,
		"https://app.example.com/done", "https://app.example.com/back")
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrMissingPriceID))
}

// seedPlan stores a product with one price and, when providerPriceID is set,
// the price's stripe mapping.
func (s *SubscriptionServiceSuite) seedPlan(planKey, priceID, priceLookupKey, providerPriceID string, seatBased bool) {
	ctx := s.GetContext()
	prod := &product.Product{
		ID:        "prod-" + planKey,
		LookupKey: planKey,
		Name:      planKey,
		SeatBased: seatBased,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.Require().NoError(s.GetStores().ProductRepo.Create(ctx, prod))

	pr := &price.Price{
		ID:                 priceID,
		LookupKey:          priceLookupKey,
		ProductID:          prod.ID,
		Amount:             1900,
		Currency:           "usd",
		Type:               types.PriceTypeRecurring,
		BillingPeriod:      types.BillingPeriodMonth,
		BillingPeriodCount: 1,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.Require().NoError(s.GetStores().PriceRepo.Create(ctx, pr))

	if providerPriceID == "" {
		return
	}
	mapping := &providermapping.ProviderMapping{
		ID:               "pmap-" + priceID,
		EntityType:       types.MappingEntityPrice,
		EntityID:         priceID,
		Provider:         types.ProviderStripe,
		ProviderEntityID: providerPriceID,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	s.Require().NoError(s.GetStores().MappingRepo.Create(ctx, mapping))
}
