package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/testutil"
	"github.com/billingbridge/billingbridge/internal/types"
)

type CatalogServiceSuite struct {
	testutil.BaseServiceTestSuite
	catalogService CatalogService
	outboxService  OutboxService
}

func TestCatalogService(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.outboxService = NewOutboxService(params)
	s.catalogService = NewCatalogService(params, NewCatalogSyncService(params), s.outboxService)
}

func (s *CatalogServiceSuite) createPlan() (*product.Product, *price.Price) {
	prod, err := s.catalogService.CreateProduct(s.GetContext(), &product.Product{
		LookupKey: "pro",
		Name:      "Pro",
	})
	s.Require().NoError(err)

	pr, err := s.catalogService.CreatePrice(s.GetContext(), &price.Price{
		LookupKey:          "pro_monthly",
		ProductID:          prod.ID,
		Amount:             1900,
		Currency:           "USD",
		Type:               types.PriceTypeRecurring,
		BillingPeriod:      types.BillingPeriodMonth,
		BillingPeriodCount: 1,
	})
	s.Require().NoError(err)
	return prod, pr
}

func (s *CatalogServiceSuite) TestCreateProductPushesToProviders() {
	prod, pr := s.createPlan()

	s.Len(s.GetStripe().Products, 1)
	s.Len(s.GetPaddle().Products, 1)
	s.Equal("usd", pr.Currency, "currency is normalized on create")
	s.Equal("19.00", pr.DisplayAmount)

	mappings, err := s.GetStores().MappingRepo.GetByEntity(s.GetContext(), types.MappingEntityProduct, prod.ID)
	s.NoError(err)
	s.Len(mappings, 2)
}

func (s *CatalogServiceSuite) TestCreateProductSurvivesPushFailure() {
	s.GetStripe().CatalogErr = errors.New("stripe down")
	s.GetPaddle().CatalogErr = errors.New("paddle down")

	prod, err := s.catalogService.CreateProduct(s.GetContext(), &product.Product{
		LookupKey: "pro",
		Name:      "Pro",
	})
	s.NoError(err, "local create commits even when every push fails")

	stored, err := s.GetStores().ProductRepo.Get(s.GetContext(), prod.ID)
	s.NoError(err)
	s.Equal("pro", stored.LookupKey)
	s.Contains(s.GetPublisher().EventNames(), types.EventProviderPushFailed)
}

func (s *CatalogServiceSuite) TestUpdateProductRejectsLookupKeyChange() {
	prod, _ := s.createPlan()

	_, err := s.catalogService.UpdateProduct(s.GetContext(), &product.Product{
		ID:        prod.ID,
		LookupKey: "renamed",
		Name:      "Pro",
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CatalogServiceSuite) TestUpdatePriceRejectsImmutableFieldChange() {
	_, pr := s.createPlan()

	changed := *pr
	changed.Amount = 2900

	_, err := s.catalogService.UpdatePrice(s.GetContext(), &changed)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CatalogServiceSuite) TestUpdatePriceAcceptsTrialAndMetadata() {
	_, pr := s.createPlan()

	changed := *pr
	changed.TrialPeriodDays = 14
	changed.Metadata = types.Metadata{"highlight": "true"}

	updated, err := s.catalogService.UpdatePrice(s.GetContext(), &changed)
	s.NoError(err)
	s.Equal(14, updated.TrialPeriodDays)
	s.Equal("true", updated.Metadata.Get("highlight"))
	s.Equal(int64(1900), updated.Amount)
}

func (s *CatalogServiceSuite) TestDeleteProductEnqueuesRemoteCleanup() {
	prod, _ := s.createPlan()

	s.NoError(s.catalogService.DeleteProduct(s.GetContext(), prod.ID))

	// Local records are soft-deleted immediately
	_, err := s.GetStores().ProductRepo.GetByLookupKey(s.GetContext(), "pro")
	s.True(ierr.IsNotFound(err))
	_, err = s.GetStores().PriceRepo.GetByLookupKey(s.GetContext(), "pro_monthly")
	s.True(ierr.IsNotFound(err))

	// Remote cleanup is queued, one entry per mapping
	due, err := s.GetStores().OutboxRepo.ListDue(s.GetContext(), time.Now().UTC(), 10)
	s.NoError(err)
	s.Len(due, 4)
}

func (s *CatalogServiceSuite) TestDeleteProductRunsEnqueueAndDeletesInOneTransaction() {
	prod, _ := s.createPlan()
	s.Require().Equal(0, s.GetDB().Calls, "creates do not open explicit transactions")

	s.NoError(s.catalogService.DeleteProduct(s.GetContext(), prod.ID))
	s.Equal(1, s.GetDB().Calls, "outbox enqueue and soft-deletes share a single transaction")
}

func (s *CatalogServiceSuite) TestDeletePriceRunsInsideTransaction() {
	_, pr := s.createPlan()

	s.NoError(s.catalogService.DeletePrice(s.GetContext(), pr.ID))
	s.Equal(1, s.GetDB().Calls)
}

func (s *CatalogServiceSuite) TestDeleteProductSurfacesTransactionFailure() {
	prod, _ := s.createPlan()
	s.GetDB().CommitErr = errors.New("commit failed")

	s.Error(s.catalogService.DeleteProduct(s.GetContext(), prod.ID))
}

func (s *CatalogServiceSuite) TestListPlansGroupsPricesByProduct() {
	prod, pr := s.createPlan()

	plans, err := s.catalogService.ListPlans(s.GetContext())
	s.NoError(err)
	s.Require().Len(plans, 1)
	s.Equal(prod.ID, plans[0].Product.ID)
	s.Require().Len(plans[0].Prices, 1)
	s.Equal(pr.ID, plans[0].Prices[0].ID)

	// Deleted prices drop out of the pricing table
	s.Require().NoError(s.GetStores().PriceRepo.Delete(s.GetContext(), pr.ID))
	plans, err = s.catalogService.ListPlans(s.GetContext())
	s.NoError(err)
	s.Require().Len(plans, 1)
	s.Empty(plans[0].Prices)
}

func (s *CatalogServiceSuite) TestCreateDiscountStoresProviderID() {
	d, err := s.catalogService.CreateDiscount(s.GetContext(), &discount.Discount{
		LookupKey:  "LAUNCH20",
		Provider:   types.ProviderStripe,
		PercentOff: 20,
	})
	s.NoError(err)
	s.NotEmpty(d.ProviderID)

	stored, err := s.GetStores().DiscountRepo.GetByLookupKey(s.GetContext(), "LAUNCH20")
	s.NoError(err)
	s.Equal(d.ProviderID, stored.ProviderID)
}

func (s *CatalogServiceSuite) TestCreateDiscountRejectsConflictingRules() {
	_, err := s.catalogService.CreateDiscount(s.GetContext(), &discount.Discount{
		LookupKey:  "BROKEN",
		Provider:   types.ProviderStripe,
		PercentOff: 20,
		AmountOff:  500,
		Currency:   "usd",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
