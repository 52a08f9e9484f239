package paddle

import "encoding/json"

// Paddle wire shapes. Responses arrive as {"data": ..., "meta": {...}};
// list endpoints carry cursor pagination under meta.pagination.

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta meta            `json:"meta"`
}

type meta struct {
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	PerPage int    `json:"per_page"`
	Next    string `json:"next"`
	HasMore bool   `json:"has_more"`
}

type paddleProduct struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	CustomData  map[string]string `json:"custom_data"`
	Prices      []paddlePrice     `json:"prices"`
}

type paddlePrice struct {
	ID           string            `json:"id"`
	ProductID    string            `json:"product_id"`
	Description  string            `json:"description"`
	Status       string            `json:"status"`
	UnitPrice    paddleMoney       `json:"unit_price"`
	BillingCycle *paddleInterval   `json:"billing_cycle"`
	TrialPeriod  *paddleInterval   `json:"trial_period"`
	CustomData   map[string]string `json:"custom_data"`
}

type paddleMoney struct {
	// Amount is a stringified integer of minor currency units
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

type paddleInterval struct {
	Interval  string `json:"interval"`
	Frequency int    `json:"frequency"`
}

type paddleSubscription struct {
	ID                   string                `json:"id"`
	Status               string                `json:"status"`
	CustomerID           string                `json:"customer_id"`
	CanceledAt           *string               `json:"canceled_at"`
	CurrentBillingPeriod *paddleBillingPeriod  `json:"current_billing_period"`
	ScheduledChange      *paddleChange         `json:"scheduled_change"`
	Items                []paddleSubItem       `json:"items"`
	CustomData           map[string]string     `json:"custom_data"`
}

type paddleBillingPeriod struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

type paddleChange struct {
	Action      string `json:"action"`
	EffectiveAt string `json:"effective_at"`
}

type paddleSubItem struct {
	Quantity int         `json:"quantity"`
	TrialEnd *string     `json:"next_billed_at"`
	Price    paddlePrice `json:"price"`
}

type paddleCustomer struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	CustomData map[string]string `json:"custom_data"`
}

type paddleDiscount struct {
	ID string `json:"id"`
}

type paddleTransaction struct {
	ID       string `json:"id"`
	Checkout struct {
		URL string `json:"url"`
	} `json:"checkout"`
}

type paddleWebhookEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}
