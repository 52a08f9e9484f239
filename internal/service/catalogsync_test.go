package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	"github.com/billingbridge/billingbridge/internal/testutil"
	"github.com/billingbridge/billingbridge/internal/types"
)

type CatalogSyncServiceSuite struct {
	testutil.BaseServiceTestSuite
	syncService CatalogSyncService
}

func TestCatalogSyncService(t *testing.T) {
	suite.Run(t, new(CatalogSyncServiceSuite))
}

func (s *CatalogSyncServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.syncService = NewCatalogSyncService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *CatalogSyncServiceSuite) seedLocalPlan() (*product.Product, *price.Price) {
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
	return prod, pr
}

func (s *CatalogSyncServiceSuite) TestPushCreatesRemoteObjectsAndMappings() {
	_, pr := s.seedLocalPlan()

	s.NoError(s.syncService.PushAll(s.GetContext()))

	// Both providers got the product and the price
	s.Len(s.GetStripe().Products, 1)
	s.Len(s.GetStripe().Prices, 1)
	s.Len(s.GetPaddle().Products, 1)
	s.Len(s.GetPaddle().Prices, 1)

	mappings, err := s.GetStores().MappingRepo.GetByEntity(s.GetContext(), types.MappingEntityPrice, pr.ID)
	s.NoError(err)
	s.Len(mappings, 2)
}

func (s *CatalogSyncServiceSuite) TestPushIsUpdateWhenMappingExists() {
	prod, _ := s.seedLocalPlan()

	s.NoError(s.syncService.PushProduct(s.GetContext(), prod.ID))
	s.NoError(s.syncService.PushProduct(s.GetContext(), prod.ID))

	// Second push updates in place instead of creating a duplicate
	s.Len(s.GetStripe().Products, 1)
	mappings, err := s.GetStores().MappingRepo.GetByEntity(s.GetContext(), types.MappingEntityProduct, prod.ID)
	s.NoError(err)
	s.Len(mappings, 2)
}

func (s *CatalogSyncServiceSuite) TestPullCreatesLocalCatalog() {
	s.GetStripe().Pages = []*types.CatalogPage{{
		Items: []types.CatalogItem{{
			ProviderProductID: "stripe_prod_1",
			Name:              "Team",
			Active:            true,
			Metadata:          map[string]string{"lookup_key": "team", "seat_based": "1", "featured": "yes"},
			Prices: []types.CatalogPrice{{
				ProviderPriceID: "stripe_price_1",
				Amount:          4900,
				Currency:        "USD",
				Type:            types.PriceTypeRecurring,
				Period:          types.BillingPeriodMonth,
				PeriodCount:     1,
				Active:          true,
				Metadata:        map[string]string{"lookup_key": "team_monthly"},
			}},
		}},
	}}

	report, err := s.syncService.Pull(s.GetContext(), types.ProviderStripe)
	s.NoError(err)
	s.Equal(1, report.ProductsCreated)
	s.Equal(1, report.PricesCreated)
	s.Empty(report.Warnings)

	prod, err := s.GetStores().ProductRepo.GetByLookupKey(s.GetContext(), "team")
	s.NoError(err)
	s.True(prod.SeatBased, "stringified flags must coerce")
	s.True(prod.Featured)

	pr, err := s.GetStores().PriceRepo.GetByLookupKey(s.GetContext(), "team_monthly")
	s.NoError(err)
	s.Equal(int64(4900), pr.Amount)
	s.Equal("usd", pr.Currency, "currency is stored lowercase")
	s.Equal("49.00", pr.DisplayAmount)
}

func (s *CatalogSyncServiceSuite) TestPullWithoutLookupKeyCreatesTombstone() {
	s.GetStripe().Pages = []*types.CatalogPage{{
		Items: []types.CatalogItem{{
			ProviderProductID: "stripe_prod_orphan",
			Name:              "Legacy",
			Active:            true,
		}},
	}}

	report, err := s.syncService.Pull(s.GetContext(), types.ProviderStripe)
	s.NoError(err)
	s.Equal(1, report.TombstonesCreated)
	s.NotEmpty(report.Warnings)

	mapping, err := s.GetStores().MappingRepo.GetByProviderEntityID(
		s.GetContext(), types.ProviderStripe, types.MappingEntityProduct, "stripe_prod_orphan")
	s.NoError(err)
	s.True(mapping.IsTombstone())
}

func (s *CatalogSyncServiceSuite) TestPullLinksTombstoneWhenLocalEntityAppears() {
	page := &types.CatalogPage{
		Items: []types.CatalogItem{{
			ProviderProductID: "stripe_prod_1",
			Name:              "Pro",
			Active:            true,
		}},
	}
	s.GetStripe().Pages = []*types.CatalogPage{page}

	// First pull: no lookup key, no local product -> tombstone
	report, err := s.syncService.Pull(s.GetContext(), types.ProviderStripe)
	s.Require().NoError(err)
	s.Require().Equal(1, report.TombstonesCreated)

	// The product later appears locally and remotely gains its lookup key
	s.seedLocalPlan()
	page.Items[0].Metadata = map[string]string{"lookup_key": "pro"}

	report, err = s.syncService.Pull(s.GetContext(), types.ProviderStripe)
	s.NoError(err)
	s.Equal(1, report.TombstonesLinked)
	s.Equal(0, report.ProductsCreated)

	mapping, err := s.GetStores().MappingRepo.GetByProviderEntityID(
		s.GetContext(), types.ProviderStripe, types.MappingEntityProduct, "stripe_prod_1")
	s.NoError(err)
	s.False(mapping.IsTombstone())
	s.Equal("prod-1", mapping.EntityID)
}

func (s *CatalogSyncServiceSuite) TestPullFollowsPagination() {
	s.GetStripe().Pages = []*types.CatalogPage{
		{Items: []types.CatalogItem{{
			ProviderProductID: "stripe_prod_1",
			Name:              "Pro",
			Active:            true,
			Metadata:          map[string]string{"lookup_key": "pro"},
		}}},
		{Items: []types.CatalogItem{{
			ProviderProductID: "stripe_prod_2",
			Name:              "Team",
			Active:            true,
			Metadata:          map[string]string{"lookup_key": "team"},
		}}},
	}

	report, err := s.syncService.Pull(s.GetContext(), types.ProviderStripe)
	s.NoError(err)
	s.Equal(2, report.ProductsCreated)
}

func (s *CatalogSyncServiceSuite) TestPullArchivesInactiveRemoteProducts() {
	s.GetStripe().Pages = []*types.CatalogPage{{
		Items: []types.CatalogItem{{
			ProviderProductID: "stripe_prod_old",
			Name:              "Old Plan",
			Active:            false,
			Metadata:          map[string]string{"lookup_key": "old"},
		}},
	}}

	_, err := s.syncService.Pull(s.GetContext(), types.ProviderStripe)
	s.NoError(err)

	prod, err := s.GetStores().ProductRepo.GetByLookupKey(s.GetContext(), "old")
	s.NoError(err)
	s.Equal(types.StatusArchived, prod.Status)
	s.False(prod.Active())
}

func (s *CatalogSyncServiceSuite) TestPullAllCoversEveryProvider() {
	reports, err := s.syncService.PullAll(s.GetContext())
	s.NoError(err)
	s.Len(reports, 2)
}
