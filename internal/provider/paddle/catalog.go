package paddle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/billingbridge/billingbridge/internal/domain/discount"
	"github.com/billingbridge/billingbridge/internal/domain/price"
	"github.com/billingbridge/billingbridge/internal/domain/product"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/provider"
	"github.com/billingbridge/billingbridge/internal/types"
)

// Capabilities reports Paddle's feature set. Paddle supports trial
// configuration directly on the price object.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{PriceLevelTrials: true}
}

func (p *Provider) CreateProduct(ctx context.Context, prod *product.Product) (string, error) {
	body := map[string]interface{}{
		"name":        prod.Name,
		"tax_category": "standard",
		"custom_data": productCustomData(prod),
	}
	if prod.Description != "" {
		body["description"] = prod.Description
	}

	var resp struct {
		Data paddleProduct `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/products", body, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

func (p *Provider) UpdateProduct(ctx context.Context, prod *product.Product, providerID string) error {
	body := map[string]interface{}{
		"name":        prod.Name,
		"custom_data": productCustomData(prod),
		"status":      paddleStatus(prod.Active()),
	}
	if prod.Description != "" {
		body["description"] = prod.Description
	}
	return p.do(ctx, http.MethodPatch, "/products/"+providerID, body, nil)
}

// DeleteProduct archives the product; Paddle has no hard delete
func (p *Provider) DeleteProduct(ctx context.Context, providerID string) error {
	body := map[string]interface{}{"status": "archived"}
	return p.do(ctx, http.MethodPatch, "/products/"+providerID, body, nil)
}

func (p *Provider) CreatePrice(ctx context.Context, pr *price.Price, productProviderID string) (string, error) {
	body := map[string]interface{}{
		"product_id":  productProviderID,
		"description": pr.LookupKey,
		"unit_price": map[string]string{
			// Paddle wants a stringified minor-unit amount and uppercase code
			"amount":        strconv.FormatInt(pr.Amount, 10),
			"currency_code": strings.ToUpper(pr.Currency),
		},
		"custom_data": priceCustomData(pr),
	}
	if pr.Type == types.PriceTypeRecurring {
		body["billing_cycle"] = map[string]interface{}{
			"interval":  string(pr.BillingPeriod),
			"frequency": pr.BillingPeriodCount,
		}
	}
	if pr.HasTrial() {
		body["trial_period"] = map[string]interface{}{
			"interval":  "day",
			"frequency": pr.TrialPeriodDays,
		}
	}

	var resp struct {
		Data paddlePrice `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/prices", body, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

// UpdatePrice forwards only custom data and status; unit price and billing
// cycle are immutable after creation.
func (p *Provider) UpdatePrice(ctx context.Context, pr *price.Price, providerID string) error {
	body := map[string]interface{}{
		"custom_data": priceCustomData(pr),
		"status":      paddleStatus(pr.Active()),
	}
	return p.do(ctx, http.MethodPatch, "/prices/"+providerID, body, nil)
}

// DeletePrice archives the price; Paddle has no hard delete
func (p *Provider) DeletePrice(ctx context.Context, providerID string) error {
	body := map[string]interface{}{"status": "archived"}
	return p.do(ctx, http.MethodPatch, "/prices/"+providerID, body, nil)
}

func (p *Provider) CreateDiscount(ctx context.Context, d *discount.Discount) (string, error) {
	body := map[string]interface{}{
		"description": d.LookupKey,
		"code":        d.LookupKey,
	}
	if d.PercentOff > 0 {
		body["type"] = "percentage"
		body["amount"] = strconv.Itoa(d.PercentOff)
	} else {
		body["type"] = "flat"
		body["amount"] = strconv.FormatInt(d.AmountOff, 10)
		body["currency_code"] = strings.ToUpper(d.Currency)
	}

	var resp struct {
		Data paddleDiscount `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/discounts", body, &resp); err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

// ListCatalog pulls one page of products with embedded prices, following
// Paddle's cursor pagination (meta.pagination.next).
func (p *Provider) ListCatalog(ctx context.Context, cursor string) (*types.CatalogPage, error) {
	path := "/products?include=prices&per_page=50"
	if cursor != "" {
		path += "&after=" + url.QueryEscape(cursor)
	}

	var resp envelope
	if err := p.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	var products []paddleProduct
	if err := json.Unmarshal(resp.Data, &products); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode Paddle product list").
			Mark(ierr.ErrProviderError)
	}

	page := &types.CatalogPage{}
	for _, prod := range products {
		item := types.CatalogItem{
			ProviderProductID: prod.ID,
			Name:              prod.Name,
			Description:       prod.Description,
			Active:            prod.Status == "active",
			Metadata:          prod.CustomData,
		}
		for _, pr := range prod.Prices {
			cp, ok := toCatalogPrice(pr)
			if !ok {
				page.Warnings = append(page.Warnings, "unparseable amount on paddle price "+pr.ID)
				continue
			}
			item.Prices = append(item.Prices, cp)
		}
		page.Items = append(page.Items, item)
	}

	if resp.Meta.Pagination.HasMore {
		page.NextCursor = nextCursor(resp.Meta.Pagination.Next)
	}

	return page, nil
}

func toCatalogPrice(pr paddlePrice) (types.CatalogPrice, bool) {
	amount, err := strconv.ParseInt(pr.UnitPrice.Amount, 10, 64)
	if err != nil {
		return types.CatalogPrice{}, false
	}

	cp := types.CatalogPrice{
		ProviderPriceID: pr.ID,
		Amount:          amount,
		Currency:        pr.UnitPrice.CurrencyCode,
		Type:            types.PriceTypeOneTime,
		Active:          pr.Status == "active",
		Metadata:        pr.CustomData,
	}
	if pr.BillingCycle != nil {
		cp.Type = types.PriceTypeRecurring
		cp.Period = types.BillingPeriod(pr.BillingCycle.Interval)
		cp.PeriodCount = pr.BillingCycle.Frequency
	}
	if pr.TrialPeriod != nil && pr.TrialPeriod.Interval == "day" {
		cp.TrialPeriodDays = pr.TrialPeriod.Frequency
	}
	return cp, true
}

// nextCursor extracts the `after` cursor from the pagination next URL
func nextCursor(next string) string {
	if next == "" {
		return ""
	}
	parsed, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("after")
}

func paddleStatus(active bool) string {
	if active {
		return "active"
	}
	return "archived"
}

func productCustomData(prod *product.Product) map[string]string {
	md := types.Metadata{
		"lookup_key": prod.LookupKey,
	}
	return md.Merge(prod.Metadata)
}

func priceCustomData(pr *price.Price) map[string]string {
	md := types.Metadata{
		"lookup_key": pr.LookupKey,
	}
	return md.Merge(pr.Metadata)
}
