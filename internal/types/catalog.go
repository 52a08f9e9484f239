package types

// CatalogPrice is the normalized shape of a provider-side price object
type CatalogPrice struct {
	ProviderPriceID  string            `json:"provider_price_id"`
	Amount           int64             `json:"amount"` // integer minor currency units
	Currency         string            `json:"currency"`
	Type             PriceType         `json:"type"`
	Period           BillingPeriod     `json:"period,omitempty"`
	PeriodCount      int               `json:"period_count,omitempty"`
	TrialPeriodDays  int               `json:"trial_period_days,omitempty"`
	Active           bool              `json:"active"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// CatalogItem is one product with its prices as pulled from a provider
type CatalogItem struct {
	ProviderProductID string            `json:"provider_product_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Active            bool              `json:"active"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Prices            []CatalogPrice    `json:"prices"`
}

// CatalogPage is one page of a provider catalog listing
type CatalogPage struct {
	Items      []CatalogItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
}
