package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/billingbridge/billingbridge/internal/domain/outbox"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	"github.com/billingbridge/billingbridge/internal/domain/providermapping"
	"github.com/billingbridge/billingbridge/internal/testutil"
	"github.com/billingbridge/billingbridge/internal/types"
)

type OutboxServiceSuite struct {
	testutil.BaseServiceTestSuite
	outboxService OutboxService
}

func TestOutboxService(t *testing.T) {
	suite.Run(t, new(OutboxServiceSuite))
}

func (s *OutboxServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.outboxService = NewOutboxService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *OutboxServiceSuite) TestEnqueueIsIdempotent() {
	created, err := s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.NoError(err)
	s.True(created)

	created, err = s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.NoError(err)
	s.False(created)
}

func (s *OutboxServiceSuite) TestReEnqueueAfterCompletionStaysCompleted() {
	_, err := s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.Require().NoError(err)

	entry, err := s.GetStores().OutboxRepo.GetByKey(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.Require().NoError(err)
	s.Require().NoError(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(types.OutboxStatusCompleted, entry.OutboxStatus)

	created, err := s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.NoError(err)
	s.False(created)

	stored, err := s.GetStores().OutboxRepo.GetByKey(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.NoError(err)
	s.Equal(types.OutboxStatusCompleted, stored.OutboxStatus)
}

func (s *OutboxServiceSuite) TestProcessDeletesRemoteObject() {
	_, err := s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityPrice, "stripe_price_1")
	s.Require().NoError(err)

	entry, err := s.GetStores().OutboxRepo.GetByKey(s.GetContext(), types.ProviderStripe, types.OutboxEntityPrice, "stripe_price_1")
	s.Require().NoError(err)

	s.NoError(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(types.OutboxStatusCompleted, entry.OutboxStatus)
	s.Contains(s.GetStripe().Deleted, "stripe_price_1")
}

func (s *OutboxServiceSuite) TestProcessTreatsRemoteNotFoundAsDeleted() {
	s.GetStripe().NotFoundOnDelete = true

	_, err := s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_gone")
	s.Require().NoError(err)

	entry, err := s.GetStores().OutboxRepo.GetByKey(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_gone")
	s.Require().NoError(err)

	s.NoError(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(types.OutboxStatusCompleted, entry.OutboxStatus)
	s.Equal(0, entry.Attempts)
}

func (s *OutboxServiceSuite) TestProcessFailureWalksBackoffLadder() {
	s.GetStripe().DeleteErr = errors.New("provider unavailable")

	_, err := s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.Require().NoError(err)
	entry, err := s.GetStores().OutboxRepo.GetByKey(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.Require().NoError(err)

	s.Error(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(types.OutboxStatusFailed, entry.OutboxStatus)
	s.Equal(1, entry.Attempts)
	s.Require().NotNil(entry.NextAttemptAt)
	s.WithinDuration(time.Now().UTC().Add(10*time.Second), *entry.NextAttemptAt, 5*time.Second)

	// Not due yet: processing is a no-op
	s.NoError(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(1, entry.Attempts)

	// Force the retry due and fail again
	due := time.Now().UTC().Add(-time.Second)
	entry.NextAttemptAt = &due
	s.Error(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(2, entry.Attempts)
	s.Require().NotNil(entry.NextAttemptAt)
	s.WithinDuration(time.Now().UTC().Add(30*time.Second), *entry.NextAttemptAt, 5*time.Second)

	// Third failure schedules the last ladder rung
	entry.NextAttemptAt = &due
	s.Error(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(3, entry.Attempts)
	s.Require().NotNil(entry.NextAttemptAt)
	s.WithinDuration(time.Now().UTC().Add(120*time.Second), *entry.NextAttemptAt, 5*time.Second)

	// Fourth failure exhausts the budget; no further retry is scheduled
	entry.NextAttemptAt = &due
	s.Error(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(outbox.MaxAttempts, entry.Attempts)
	s.Nil(entry.NextAttemptAt)
	s.False(entry.Retryable(time.Now().UTC()))

	// Exhausted entries are terminal for the processor
	s.NoError(s.outboxService.Process(s.GetContext(), entry))
	s.Equal(outbox.MaxAttempts, entry.Attempts)
}

func (s *OutboxServiceSuite) TestEnqueueProductDeletionCoversPricesAndProviders() {
	ctx := s.GetContext()
	prod := &product.Product{
		ID:        "prod-1",
		LookupKey: "pro",
		Name:      "Pro",
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.Require().NoError(s.GetStores().ProductRepo.Create(ctx, prod))

	pr := &price.Price{
		ID:                 "price-1",
		LookupKey:          "pro_monthly",
		ProductID:          "prod-1",
		Amount:             1900,
		Currency:           "usd",
		Type:               types.PriceTypeRecurring,
		BillingPeriod:      types.BillingPeriodMonth,
		BillingPeriodCount: 1,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	s.Require().NoError(s.GetStores().PriceRepo.Create(ctx, pr))

	mappings := []*providermapping.ProviderMapping{
		{ID: "m1", EntityType: types.MappingEntityProduct, EntityID: "prod-1", Provider: types.ProviderStripe, ProviderEntityID: "stripe_prod_1"},
		{ID: "m2", EntityType: types.MappingEntityProduct, EntityID: "prod-1", Provider: types.ProviderPaddle, ProviderEntityID: "paddle_prod_1"},
		{ID: "m3", EntityType: types.MappingEntityPrice, EntityID: "price-1", Provider: types.ProviderStripe, ProviderEntityID: "stripe_price_1"},
	}
	for _, m := range mappings {
		m.BaseModel = types.GetDefaultBaseModel(ctx)
		s.Require().NoError(s.GetStores().MappingRepo.Create(ctx, m))
	}

	enqueued, err := s.outboxService.EnqueueProductDeletion(ctx, "prod-1")
	s.NoError(err)
	s.Equal(3, enqueued)

	due, err := s.GetStores().OutboxRepo.ListDue(ctx, time.Now().UTC(), 10)
	s.NoError(err)
	s.Len(due, 3)
}

func (s *OutboxServiceSuite) TestProcessDueDrainsQueue() {
	_, err := s.outboxService.Enqueue(s.GetContext(), types.ProviderStripe, types.OutboxEntityProduct, "stripe_prod_1")
	s.Require().NoError(err)
	_, err = s.outboxService.Enqueue(s.GetContext(), types.ProviderPaddle, types.OutboxEntityPrice, "paddle_price_1")
	s.Require().NoError(err)

	processed, failed, err := s.outboxService.ProcessDue(s.GetContext(), 10)
	s.NoError(err)
	s.Equal(2, processed)
	s.Equal(0, failed)

	var entries []*outbox.Entry
	entries, err = s.GetStores().OutboxRepo.ListDue(s.GetContext(), time.Now().UTC(), 10)
	s.NoError(err)
	s.Empty(entries)
}
