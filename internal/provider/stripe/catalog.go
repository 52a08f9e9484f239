package stripe

import (
	"context"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	"github.com/billingbridge/billingbridge/internal/provider"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Capabilities reports Stripe's feature set. Stripe has no price-level trial
// configuration; trials are applied at subscription creation instead.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{PriceLevelTrials: false}
}

func (p *Provider) CreateProduct(ctx context.Context, prod *product.Product) (string, error) {
	params := &stripeapi.ProductCreateParams{
		Name:     stripeapi.String(prod.Name),
		Active:   stripeapi.Bool(prod.Active()),
		Metadata: productMetadata(prod),
	}
	if prod.Description != "" {
		params.Description = stripeapi.String(prod.Description)
	}

	created, err := p.client.V1Products.Create(ctx, params)
	if err != nil {
		return "", p.wrapErr(err, "product.create", map[string]any{"lookup_key": prod.LookupKey})
	}
	return created.ID, nil
}

func (p *Provider) UpdateProduct(ctx context.Context, prod *product.Product, providerID string) error {
	params := &stripeapi.ProductUpdateParams{
		Name:     stripeapi.String(prod.Name),
		Active:   stripeapi.Bool(prod.Active()),
		Metadata: productMetadata(prod),
	}
	if prod.Description != "" {
		params.Description = stripeapi.String(prod.Description)
	}

	_, err := p.client.V1Products.Update(ctx, providerID, params)
	return p.wrapErr(err, "product.update", map[string]any{"provider_id": providerID})
}

func (p *Provider) DeleteProduct(ctx context.Context, providerID string) error {
	// Stripe rejects deletion of products with prices; archiving is the
	// supported cleanup for them.
	_, err := p.client.V1Products.Delete(ctx, providerID, nil)
	if err == nil {
		return nil
	}
	if stripeErr, ok := err.(*stripeapi.Error); ok && stripeErr.Type == stripeapi.ErrorTypeInvalidRequest && stripeErr.Code != stripeapi.ErrorCodeResourceMissing {
		_, archiveErr := p.client.V1Products.Update(ctx, providerID, &stripeapi.ProductUpdateParams{
			Active: stripeapi.Bool(false),
		})
		return p.wrapErr(archiveErr, "product.archive", map[string]any{"provider_id": providerID})
	}
	return p.wrapErr(err, "product.delete", map[string]any{"provider_id": providerID})
}

func (p *Provider) CreatePrice(ctx context.Context, pr *price.Price, productProviderID string) (string, error) {
	params := &stripeapi.PriceCreateParams{
		Product:    stripeapi.String(productProviderID),
		UnitAmount: stripeapi.Int64(pr.Amount),
		// Stripe expects uppercase ISO codes on the wire
		Currency: stripeapi.String(strings.ToUpper(pr.Currency)),
		Active:   stripeapi.Bool(pr.Active()),
		Metadata: priceMetadata(pr),
	}
	if pr.LookupKey != "" {
		params.LookupKey = stripeapi.String(pr.LookupKey)
	}
	if pr.Type == types.PriceTypeRecurring {
		params.Recurring = &stripeapi.PriceCreateRecurringParams{
			Interval:      stripeapi.String(string(pr.BillingPeriod)),
			IntervalCount: stripeapi.Int64(int64(pr.BillingPeriodCount)),
		}
	}

	created, err := p.client.V1Prices.Create(ctx, params)
	if err != nil {
		return "", p.wrapErr(err, "price.create", map[string]any{"lookup_key": pr.LookupKey})
	}
	return created.ID, nil
}

// UpdatePrice forwards only the mutable surface: metadata and active flag.
// Stripe prices are immutable in amount/currency/interval.
func (p *Provider) UpdatePrice(ctx context.Context, pr *price.Price, providerID string) error {
	params := &stripeapi.PriceUpdateParams{
		Active:   stripeapi.Bool(pr.Active()),
		Metadata: priceMetadata(pr),
	}

	_, err := p.client.V1Prices.Update(ctx, providerID, params)
	return p.wrapErr(err, "price.update", map[string]any{"provider_id": providerID})
}

// DeletePrice deactivates the price; Stripe does not support deleting prices
func (p *Provider) DeletePrice(ctx context.Context, providerID string) error {
	_, err := p.client.V1Prices.Update(ctx, providerID, &stripeapi.PriceUpdateParams{
		Active: stripeapi.Bool(false),
	})
	return p.wrapErr(err, "price.deactivate", map[string]any{"provider_id": providerID})
}

func (p *Provider) CreateDiscount(ctx context.Context, d *discount.Discount) (string, error) {
	params := &stripeapi.CouponCreateParams{
		Name: stripeapi.String(d.LookupKey),
	}
	if d.PercentOff > 0 {
		params.PercentOff = stripeapi.Float64(float64(d.PercentOff))
	} else {
		params.AmountOff = stripeapi.Int64(d.AmountOff)
		params.Currency = stripeapi.String(strings.ToUpper(d.Currency))
	}

	created, err := p.client.V1Coupons.Create(ctx, params)
	if err != nil {
		return "", p.wrapErr(err, "coupon.create", map[string]any{"lookup_key": d.LookupKey})
	}
	return created.ID, nil
}

// ListCatalog pulls one page of products with their prices. The Stripe SDK
// auto-pages internally, so the whole catalog is returned as a single page
// with no next cursor.
func (p *Provider) ListCatalog(ctx context.Context, cursor string) (*types.CatalogPage, error) {
	page := &types.CatalogPage{}
	if cursor != "" {
		return page, nil
	}

	for prod, err := range p.client.V1Products.List(ctx, &stripeapi.ProductListParams{}) {
		if err != nil {
			return nil, p.wrapErr(err, "product.list", nil)
		}

		item := types.CatalogItem{
			ProviderProductID: prod.ID,
			Name:              prod.Name,
			Description:       prod.Description,
			Active:            prod.Active,
			Metadata:          prod.Metadata,
		}

		prices, err := p.listPrices(ctx, prod.ID)
		if err != nil {
			page.Warnings = append(page.Warnings, "failed to list prices for product "+prod.ID)
			p.logger.Warnw("skipping prices for product", "provider_product_id", prod.ID, "error", err)
		} else {
			item.Prices = prices
		}

		page.Items = append(page.Items, item)
	}

	return page, nil
}

func (p *Provider) listPrices(ctx context.Context, productProviderID string) ([]types.CatalogPrice, error) {
	var out []types.CatalogPrice
	params := &stripeapi.PriceListParams{Product: stripeapi.String(productProviderID)}

	for pr, err := range p.client.V1Prices.List(ctx, params) {
		if err != nil {
			return nil, p.wrapErr(err, "price.list", map[string]any{"provider_product_id": productProviderID})
		}

		cp := types.CatalogPrice{
			ProviderPriceID: pr.ID,
			Amount:          pr.UnitAmount,
			Currency:        string(pr.Currency),
			Type:            types.PriceTypeOneTime,
			Active:          pr.Active,
			Metadata:        pr.Metadata,
		}
		if pr.Recurring != nil {
			cp.Type = types.PriceTypeRecurring
			cp.Period = types.BillingPeriod(pr.Recurring.Interval)
			cp.PeriodCount = int(pr.Recurring.IntervalCount)
		}
		out = append(out, cp)
	}

	return out, nil
}

func productMetadata(prod *product.Product) map[string]string {
	md := types.Metadata{
		"lookup_key": prod.LookupKey,
	}
	return md.Merge(prod.Metadata)
}

func priceMetadata(pr *price.Price) map[string]string {
	md := types.Metadata{
		"lookup_key": pr.LookupKey,
	}
	return md.Merge(pr.Metadata)
}
