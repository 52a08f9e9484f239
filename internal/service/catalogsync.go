package service

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	"github.com/billingbridge/billingbridge/internal/domain/providermapping"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/provider"
	"github.com/billingbridge/billingbridge/internal/types"
)

// SyncReport summarizes one provider pull
type SyncReport struct {
	Provider          types.ProviderType `json:"provider"`
	ProductsCreated   int                `json:"products_created"`
	ProductsLinked    int                `json:"products_linked"`
	PricesCreated     int                `json:"prices_created"`
	PricesLinked      int                `json:"prices_linked"`
	TombstonesCreated int                `json:"tombstones_created"`
	TombstonesLinked  int                `json:"tombstones_linked"`
	Warnings          []string           `json:"warnings,omitempty"`
}

// CatalogSyncService moves catalog state between the local store and the
// billing providers. Push sends local objects out; pull reconciles the remote
// catalog back, linking tombstones and creating whatever is missing locally.
type CatalogSyncService interface {
	PushProduct(ctx context.Context, productID string) error
	PushPrice(ctx context.Context, priceID string) error
	// PushAll pushes every product and price to every configured provider
	PushAll(ctx context.Context) error

	Pull(ctx context.Context, providerType types.ProviderType) (*SyncReport, error)
	// PullAll pulls every configured provider concurrently
	PullAll(ctx context.Context) ([]*SyncReport, error)
}

type catalogSyncService struct {
	ServiceParams
}

func NewCatalogSyncService(params ServiceParams) CatalogSyncService {
	return &catalogSyncService{ServiceParams: params}
}

// PushProduct creates or updates the product at every configured provider.
// Per-provider failures do not stop the remaining providers.
func (s *catalogSyncService) PushProduct(ctx context.Context, productID string) error {
	prod, err := s.ProductRepo.Get(ctx, productID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, catalog := range s.Registry.CatalogProviders() {
		if err := s.pushProductTo(ctx, catalog, prod); err != nil {
			s.Logger.Errorw("product push failed",
				"error", err,
				"provider", catalog.Name(),
				"product_id", prod.ID,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *catalogSyncService) pushProductTo(ctx context.Context, catalog provider.CatalogProvider, prod *product.Product) error {
	mapping := s.mappingFor(ctx, catalog.Name(), types.MappingEntityProduct, prod.ID)
	if mapping != nil {
		return catalog.UpdateProduct(ctx, prod, mapping.ProviderEntityID)
	}

	providerID, err := catalog.CreateProduct(ctx, prod)
	if err != nil {
		return err
	}
	return s.saveMapping(ctx, catalog.Name(), types.MappingEntityProduct, prod.ID, providerID)
}

// PushPrice creates or updates the price at every provider that already has
// its product. A provider missing the product gets the product pushed first.
func (s *catalogSyncService) PushPrice(ctx context.Context, priceID string) error {
	pr, err := s.PriceRepo.Get(ctx, priceID)
	if err != nil {
		return err
	}
	prod, err := s.ProductRepo.Get(ctx, pr.ProductID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, catalog := range s.Registry.CatalogProviders() {
		if err := s.pushPriceTo(ctx, catalog, prod, pr); err != nil {
			s.Logger.Errorw("price push failed",
				"error", err,
				"provider", catalog.Name(),
				"price_id", pr.ID,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *catalogSyncService) pushPriceTo(ctx context.Context, catalog provider.CatalogProvider, prod *product.Product, pr *price.Price) error {
	if mapping := s.mappingFor(ctx, catalog.Name(), types.MappingEntityPrice, pr.ID); mapping != nil {
		return catalog.UpdatePrice(ctx, pr, mapping.ProviderEntityID)
	}

	productMapping := s.mappingFor(ctx, catalog.Name(), types.MappingEntityProduct, prod.ID)
	if productMapping == nil {
		if err := s.pushProductTo(ctx, catalog, prod); err != nil {
			return err
		}
		productMapping = s.mappingFor(ctx, catalog.Name(), types.MappingEntityProduct, prod.ID)
		if productMapping == nil {
			return ierr.NewError("product mapping missing after push").
				WithHintf("Product %s could not be pushed to %s", prod.ID, catalog.Name()).
				Mark(ierr.ErrProviderError)
		}
	}

	if pr.HasTrial() && !catalog.Capabilities().PriceLevelTrials {
		// The trial stays local and is applied at checkout time instead
		s.Logger.Debugw("provider does not support price-level trials",
			"provider", catalog.Name(),
			"price_id", pr.ID,
			"trial_period_days", pr.TrialPeriodDays,
		)
	}

	providerID, err := catalog.CreatePrice(ctx, pr, productMapping.ProviderEntityID)
	if err != nil {
		return err
	}
	return s.saveMapping(ctx, catalog.Name(), types.MappingEntityPrice, pr.ID, providerID)
}

func (s *catalogSyncService) PushAll(ctx context.Context) error {
	products, err := s.ProductRepo.List(ctx)
	if err != nil {
		return err
	}

	var firstErr error
	for _, prod := range products {
		if err := s.PushProduct(ctx, prod.ID); err != nil && firstErr == nil {
			firstErr = err
		}
		prices, err := s.PriceRepo.GetByProductID(ctx, prod.ID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, pr := range prices {
			if err := s.PushPrice(ctx, pr.ID); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Pull walks the provider's catalog to exhaustion and reconciles every object
// into local products, prices and mappings.
func (s *catalogSyncService) Pull(ctx context.Context, providerType types.ProviderType) (*SyncReport, error) {
	catalog, err := s.Registry.Catalog(providerType)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Provider: providerType}
	cursor := ""
	for {
		page, err := catalog.ListCatalog(ctx, cursor)
		if err != nil {
			return nil, err
		}
		report.Warnings = append(report.Warnings, page.Warnings...)

		for _, item := range page.Items {
			if err := s.reconcileItem(ctx, providerType, &item, report); err != nil {
				return nil, err
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	s.Logger.Infow("catalog pull finished",
		"provider", providerType,
		"products_created", report.ProductsCreated,
		"products_linked", report.ProductsLinked,
		"prices_created", report.PricesCreated,
		"prices_linked", report.PricesLinked,
		"tombstones_created", report.TombstonesCreated,
		"tombstones_linked", report.TombstonesLinked,
		"warnings", len(report.Warnings),
	)

	if s.Events != nil {
		ev := types.NewDomainEvent(types.EventCatalogSynced, types.GetTenantID(ctx), report)
		if err := s.Events.Publish(ctx, ev); err != nil {
			s.Logger.Errorw("failed to publish catalog sync event", "error", err)
		}
	}
	return report, nil
}

// PullAll pulls every configured provider concurrently
func (s *catalogSyncService) PullAll(ctx context.Context) ([]*SyncReport, error) {
	p := pool.NewWithResults[*SyncReport]().WithContext(ctx)
	for _, catalog := range s.Registry.CatalogProviders() {
		name := catalog.Name()
		p.Go(func(ctx context.Context) (*SyncReport, error) {
			return s.Pull(ctx, name)
		})
	}
	return p.Wait()
}

// reconcileItem links one remote product (and its prices) to local records.
// The lookup key travels in provider metadata; a remote object without one
// cannot be linked and becomes a tombstone.
func (s *catalogSyncService) reconcileItem(ctx context.Context, providerType types.ProviderType, item *types.CatalogItem, report *SyncReport) error {
	lookupKey := types.Metadata(item.Metadata).Get("lookup_key")

	localID := ""
	if lookupKey != "" {
		prod, err := s.ProductRepo.GetByLookupKey(ctx, lookupKey)
		switch {
		case err == nil:
			localID = prod.ID
		case ierr.IsNotFound(err):
			created, cerr := s.createLocalProduct(ctx, lookupKey, item)
			if cerr != nil {
				return cerr
			}
			localID = created.ID
			report.ProductsCreated++
		default:
			return err
		}
	}

	if err := s.linkMapping(ctx, providerType, types.MappingEntityProduct, localID, item.ProviderProductID, report, &report.ProductsLinked); err != nil {
		return err
	}
	if localID == "" {
		report.Warnings = append(report.Warnings, "remote product "+item.ProviderProductID+" carries no lookup_key")
	}

	for _, cp := range item.Prices {
		if err := s.reconcilePrice(ctx, providerType, localID, &cp, report); err != nil {
			return err
		}
	}
	return nil
}

func (s *catalogSyncService) reconcilePrice(ctx context.Context, providerType types.ProviderType, productID string, cp *types.CatalogPrice, report *SyncReport) error {
	lookupKey := types.Metadata(cp.Metadata).Get("lookup_key")

	localID := ""
	if lookupKey != "" {
		pr, err := s.PriceRepo.GetByLookupKey(ctx, lookupKey)
		switch {
		case err == nil:
			localID = pr.ID
		case ierr.IsNotFound(err):
			if productID != "" {
				created, cerr := s.createLocalPrice(ctx, lookupKey, productID, cp)
				if cerr != nil {
					return cerr
				}
				localID = created.ID
				report.PricesCreated++
			}
		default:
			return err
		}
	}

	if err := s.linkMapping(ctx, providerType, types.MappingEntityPrice, localID, cp.ProviderPriceID, report, &report.PricesLinked); err != nil {
		return err
	}
	if localID == "" {
		report.Warnings = append(report.Warnings, "remote price "+cp.ProviderPriceID+" carries no lookup_key")
	}
	return nil
}

// linkMapping upserts the mapping row for a remote object. A pre-existing
// tombstone gains its local entity here instead of spawning a duplicate.
func (s *catalogSyncService) linkMapping(ctx context.Context, providerType types.ProviderType, entityType types.MappingEntityType, localID, providerEntityID string, report *SyncReport, linked *int) error {
	mapping := &providermapping.ProviderMapping{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROVIDER_MAPPING),
		EntityType:       entityType,
		EntityID:         localID,
		Provider:         providerType,
		ProviderEntityID: providerEntityID,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	created, existing, err := s.MappingRepo.CreateOrGet(ctx, mapping)
	if err != nil {
		return err
	}

	if created {
		if localID == "" {
			report.TombstonesCreated++
		} else {
			*linked++
		}
		return nil
	}

	if existing.IsTombstone() && localID != "" {
		existing.EntityID = localID
		if err := s.MappingRepo.Update(ctx, existing); err != nil {
			return err
		}
		report.TombstonesLinked++
		return nil
	}

	*linked++
	return nil
}

func (s *catalogSyncService) createLocalProduct(ctx context.Context, lookupKey string, item *types.CatalogItem) (*product.Product, error) {
	md := types.Metadata(item.Metadata)
	prod := &product.Product{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT),
		LookupKey:   lookupKey,
		Name:        item.Name,
		Description: item.Description,
		// Provider custom data stringifies flags; plain parsing is not enough
		SeatBased: types.CoerceBool(md.Get("seat_based")),
		Featured:  types.CoerceBool(md.Get("featured")),
		Metadata:  md,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if !item.Active {
		prod.Status = types.StatusArchived
	}
	if err := prod.Validate(); err != nil {
		return nil, err
	}
	if err := s.ProductRepo.Create(ctx, prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func (s *catalogSyncService) createLocalPrice(ctx context.Context, lookupKey, productID string, cp *types.CatalogPrice) (*price.Price, error) {
	pr := &price.Price{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRICE),
		LookupKey:          lookupKey,
		ProductID:          productID,
		Amount:             cp.Amount,
		Currency:           types.NormalizeCurrency(cp.Currency),
		Type:               cp.Type,
		BillingPeriod:      cp.Period,
		BillingPeriodCount: cp.PeriodCount,
		TrialPeriodDays:    cp.TrialPeriodDays,
		Metadata:           cp.Metadata,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	pr.DisplayAmount = pr.GetDisplayAmount()
	if !cp.Active {
		pr.Status = types.StatusArchived
	}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	if err := s.PriceRepo.Create(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// mappingFor finds the non-tombstone mapping of a local entity at one provider
func (s *catalogSyncService) mappingFor(ctx context.Context, providerType types.ProviderType, entityType types.MappingEntityType, entityID string) *providermapping.ProviderMapping {
	mappings, err := s.MappingRepo.GetByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil
	}
	for _, m := range mappings {
		if m.Provider == providerType {
			return m
		}
	}
	return nil
}

func (s *catalogSyncService) saveMapping(ctx context.Context, providerType types.ProviderType, entityType types.MappingEntityType, entityID, providerEntityID string) error {
	mapping := &providermapping.ProviderMapping{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROVIDER_MAPPING),
		EntityType:       entityType,
		EntityID:         entityID,
		Provider:         providerType,
		ProviderEntityID: providerEntityID,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	_, _, err := s.MappingRepo.CreateOrGet(ctx, mapping)
	return err
}
