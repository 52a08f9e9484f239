package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/billingbridge/billingbridge/internal/api/dto"
	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// CatalogService is the local catalog CRUD surface. Writes commit locally
// first; provider pushes happen after the commit and are best-effort, since a
// later full pull reconciles anything a failed push left behind. Deletions
// are the exception: they go through the durable outbox.
type CatalogService interface {
	CreateProduct(ctx context.Context, prod *product.Product) (*product.Product, error)
	UpdateProduct(ctx context.Context, prod *product.Product) (*product.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*product.Product, error)
	ListProducts(ctx context.Context) ([]*product.Product, error)
	ListPlans(ctx context.Context) ([]*dto.PlanResponse, error)

	CreatePrice(ctx context.Context, pr *price.Price) (*price.Price, error)
	UpdatePrice(ctx context.Context, pr *price.Price) (*price.Price, error)
	DeletePrice(ctx context.Context, id string) error

	CreateDiscount(ctx context.Context, d *discount.Discount) (*discount.Discount, error)
}

type catalogService struct {
	ServiceParams
	sync   CatalogSyncService
	outbox OutboxService
}

func NewCatalogService(params ServiceParams, sync CatalogSyncService, outbox OutboxService) CatalogService {
	return &catalogService{
		ServiceParams: params,
		sync:          sync,
		outbox:        outbox,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, prod *product.Product) (*product.Product, error) {
	if prod.ID == "" {
		prod.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT)
	}
	prod.BaseModel = types.GetDefaultBaseModel(ctx)
	if err := prod.Validate(); err != nil {
		return nil, err
	}

	if err := s.ProductRepo.Create(ctx, prod); err != nil {
		return nil, err
	}

	s.pushAfterCommit(ctx, func(ctx context.Context) error {
		return s.sync.PushProduct(ctx, prod.ID)
	})
	return prod, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, prod *product.Product) (*product.Product, error) {
	stored, err := s.ProductRepo.Get(ctx, prod.ID)
	if err != nil {
		return nil, err
	}
	if prod.LookupKey != "" && prod.LookupKey != stored.LookupKey {
		return nil, ierr.NewError("lookup_key is immutable").
			WithHint("The plan key of a product cannot change").
			Mark(ierr.ErrInvalidOperation)
	}

	stored.Name = prod.Name
	stored.Description = prod.Description
	stored.SeatBased = prod.SeatBased
	stored.Featured = prod.Featured
	stored.Metadata = prod.Metadata
	if err := stored.Validate(); err != nil {
		return nil, err
	}
	if err := s.ProductRepo.Update(ctx, stored); err != nil {
		return nil, err
	}

	s.pushAfterCommit(ctx, func(ctx context.Context) error {
		return s.sync.PushProduct(ctx, stored.ID)
	})
	return stored, nil
}

// DeleteProduct soft-deletes the product and its prices locally and enqueues
// the provider-side deletions. Remote cleanup is durable, not best-effort:
// the outbox rows commit in the same transaction as the soft-deletes, so a
// failure mid-delete leaves neither orphaned outbox rows nor a half-deleted
// product. Provider API calls happen later, from the outbox processor.
func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.ProductRepo.Get(ctx, id); err != nil {
		return err
	}

	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.outbox.EnqueueProductDeletion(ctx, id); err != nil {
			return err
		}

		prices, err := s.PriceRepo.GetByProductID(ctx, id)
		if err != nil {
			return err
		}
		for _, pr := range prices {
			if err := s.PriceRepo.Delete(ctx, pr.ID); err != nil {
				return err
			}
		}
		return s.ProductRepo.Delete(ctx, id)
	})
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.ProductRepo.Get(ctx, id)
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*product.Product, error) {
	return s.ProductRepo.List(ctx)
}

// ListPlans assembles the pricing table: active products with the active
// prices attached to each.
func (s *catalogService) ListPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	products, err := s.ProductRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	pricesByProduct := make(map[string][]*price.Price, len(products))
	for _, prod := range products {
		prices, err := s.PriceRepo.GetByProductID(ctx, prod.ID)
		if err != nil {
			return nil, err
		}
		pricesByProduct[prod.ID] = lo.Filter(prices, func(pr *price.Price, _ int) bool {
			return pr.Active()
		})
	}

	return lo.Map(products, func(prod *product.Product, _ int) *dto.PlanResponse {
		return &dto.PlanResponse{
			Product: prod,
			Prices:  pricesByProduct[prod.ID],
		}
	}), nil
}

func (s *catalogService) CreatePrice(ctx context.Context, pr *price.Price) (*price.Price, error) {
	if pr.ID == "" {
		pr.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE)
	}
	pr.Currency = types.NormalizeCurrency(pr.Currency)
	pr.DisplayAmount = pr.GetDisplayAmount()
	pr.BaseModel = types.GetDefaultBaseModel(ctx)
	if err := pr.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.ProductRepo.Get(ctx, pr.ProductID); err != nil {
		return nil, err
	}

	if err := s.PriceRepo.Create(ctx, pr); err != nil {
		return nil, err
	}

	s.pushAfterCommit(ctx, func(ctx context.Context) error {
		return s.sync.PushPrice(ctx, pr.ID)
	})
	return pr, nil
}

// UpdatePrice accepts changes to trial, metadata and status only. Amount,
// currency and interval are frozen once the price exists; a different amount
// is a new price, never an edit.
func (s *catalogService) UpdatePrice(ctx context.Context, pr *price.Price) (*price.Price, error) {
	stored, err := s.PriceRepo.Get(ctx, pr.ID)
	if err != nil {
		return nil, err
	}

	pr.Currency = types.NormalizeCurrency(pr.Currency)
	if !stored.ImmutableEquals(pr) {
		return nil, ierr.NewError("immutable price fields changed").
			WithHint("Amount, currency and billing interval cannot change; create a new price instead").
			WithReportableDetails(map[string]any{
				"price_id": pr.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	stored.TrialPeriodDays = pr.TrialPeriodDays
	stored.Metadata = pr.Metadata
	if err := s.PriceRepo.Update(ctx, stored); err != nil {
		return nil, err
	}

	s.pushAfterCommit(ctx, func(ctx context.Context) error {
		return s.sync.PushPrice(ctx, stored.ID)
	})
	return stored, nil
}

func (s *catalogService) DeletePrice(ctx context.Context, id string) error {
	if _, err := s.PriceRepo.Get(ctx, id); err != nil {
		return err
	}

	return s.DB.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.outbox.EnqueuePriceDeletion(ctx, id); err != nil {
			return err
		}
		return s.PriceRepo.Delete(ctx, id)
	})
}

// CreateDiscount pushes the coupon to its provider and stores the returned id
func (s *catalogService) CreateDiscount(ctx context.Context, d *discount.Discount) (*discount.Discount, error) {
	if d.ID == "" {
		d.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DISCOUNT)
	}
	d.Currency = types.NormalizeCurrency(d.Currency)
	d.BaseModel = types.GetDefaultBaseModel(ctx)
	if err := d.Validate(); err != nil {
		return nil, err
	}

	catalog, err := s.Registry.Catalog(d.Provider)
	if err != nil {
		return nil, err
	}

	providerID, err := catalog.CreateDiscount(ctx, d)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Provider refused the discount").
			Mark(ierr.ErrProviderActionFailed)
	}
	d.ProviderID = providerID

	if err := s.DiscountRepo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// pushAfterCommit runs a best-effort provider push. Failures are logged and
// published; the periodic pull repairs any drift they leave.
func (s *catalogService) pushAfterCommit(ctx context.Context, push func(context.Context) error) {
	if err := push(ctx); err != nil {
		s.Logger.Errorw("catalog push failed", "error", err)
		if s.Events != nil {
			ev := types.NewDomainEvent(types.EventProviderPushFailed, types.GetTenantID(ctx), map[string]string{
				"error": err.Error(),
			})
			if perr := s.Events.Publish(ctx, ev); perr != nil {
				s.Logger.Errorw("failed to publish push failure event", "error", perr)
			}
		}
	}
}
