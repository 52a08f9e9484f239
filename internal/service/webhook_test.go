package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/testutil"
	"github.com/billingbridge/billingbridge/internal/types"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	webhookService      WebhookService
	subscriptionService SubscriptionService
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := newTestParams(&s.BaseServiceTestSuite)
	resolver := NewResolver(params)
	s.subscriptionService = NewSubscriptionService(params, resolver)

	dispatcher := NewDispatcher(s.GetLogger())
	dispatcher.Register(NewSubscriptionEventHandler(s.subscriptionService))
	dispatcher.Register(NewCheckoutEventHandler(params, s.subscriptionService))
	dispatcher.Register(NewInvoiceEventHandler(params, s.subscriptionService))

	s.webhookService = NewWebhookService(params, dispatcher)
}

func (s *WebhookServiceSuite) registerStripeEvent(eventID, eventType, signature string, payload string) []byte {
	body := []byte(payload)
	s.GetStripe().Events[signature] = &types.NormalizedEvent{
		ID:      eventID,
		Type:    eventType,
		Payload: body,
	}
	return body
}

func (s *WebhookServiceSuite) TestIngestCreatesSubscription() {
	s.GetStripe().Subscriptions["sub_123"] = &types.SubscriptionState{
		ProviderID: "sub_123",
		Status:     types.SubscriptionStatusActive,
		Quantity:   1,
		Metadata:   map[string]string{"user_id": "user-1", "plan_key": "pro"},
	}
	payload := s.registerStripeEvent("evt_1", "customer.subscription.created", "sig-1",
		`{"id":"sub_123","customer":"cus_1"}`)

	err := s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-1")
	s.NoError(err)

	subs, err := s.GetStores().SubscriptionRepo.ListByUserID(s.GetContext(), "user-1")
	s.NoError(err)
	s.Len(subs, 1)
	s.Equal("pro", subs[0].PlanKey)
	s.Equal(types.SubscriptionStatusActive, subs[0].SubscriptionStatus)

	stored, err := s.GetStores().WebhookEventRepo.GetByExternalID(s.GetContext(), types.ProviderStripe, "evt_1")
	s.NoError(err)
	s.Equal(types.WebhookEventStatusProcessed, stored.EventStatus)
	s.Contains(s.GetPublisher().EventNames(), types.EventSubscriptionCreated)
}

func (s *WebhookServiceSuite) TestIngestDuplicateDeliveryRunsHandlersOnce() {
	s.GetStripe().Subscriptions["sub_123"] = &types.SubscriptionState{
		ProviderID: "sub_123",
		Status:     types.SubscriptionStatusActive,
		Quantity:   1,
		Metadata:   map[string]string{"user_id": "user-1", "plan_key": "pro"},
	}
	payload := s.registerStripeEvent("evt_1", "customer.subscription.created", "sig-1",
		`{"id":"sub_123","customer":"cus_1"}`)

	s.NoError(s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-1"))
	s.NoError(s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-1"))

	subs, err := s.GetStores().SubscriptionRepo.ListByUserID(s.GetContext(), "user-1")
	s.NoError(err)
	s.Len(subs, 1)

	created := 0
	for _, name := range s.GetPublisher().EventNames() {
		if name == types.EventSubscriptionCreated {
			created++
		}
	}
	s.Equal(1, created)
}

func (s *WebhookServiceSuite) TestIngestUnknownEventTypeIsProcessed() {
	payload := s.registerStripeEvent("evt_2", "charge.succeeded", "sig-2", `{"id":"ch_1"}`)

	err := s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-2")
	s.NoError(err)

	stored, err := s.GetStores().WebhookEventRepo.GetByExternalID(s.GetContext(), types.ProviderStripe, "evt_2")
	s.NoError(err)
	s.Equal(types.WebhookEventStatusProcessed, stored.EventStatus)
}

func (s *WebhookServiceSuite) TestIngestRejectsBadSignature() {
	err := s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, []byte(`{}`), "bogus")
	s.Error(err)
	s.True(ierr.IsWebhookValidationFailed(err))

	events, err := s.GetStores().WebhookEventRepo.ListByStatus(s.GetContext(), types.WebhookEventStatusPending, 10)
	s.NoError(err)
	s.Empty(events)
}

func (s *WebhookServiceSuite) TestIngestHandlerFailureKeepsEventForReplay() {
	// The runtime does not know sub_missing, so the handler's pull fails
	payload := s.registerStripeEvent("evt_3", "customer.subscription.updated", "sig-3",
		`{"id":"sub_missing","customer":"cus_1"}`)

	err := s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-3")
	s.NoError(err, "delivery must be acknowledged even when the handler fails")

	stored, err := s.GetStores().WebhookEventRepo.GetByExternalID(s.GetContext(), types.ProviderStripe, "evt_3")
	s.NoError(err)
	s.Equal(types.WebhookEventStatusFailed, stored.EventStatus)
	s.Equal(1, stored.Attempts)
}

func (s *WebhookServiceSuite) TestInvoiceEventSelfHealsCustomerLink() {
	stripe := s.GetStripe()
	stripe.Subscriptions["sub_sh"] = &types.SubscriptionState{
		ProviderID: "sub_sh",
		Status:     types.SubscriptionStatusPastDue,
		Quantity:   1,
		Metadata:   map[string]string{"plan_key": "pro"},
	}
	stripe.Customers["cus_sh"] = &types.ProviderCustomer{
		ProviderCustomerID: "cus_sh",
		Email:              "owner@example.com",
		Metadata:           map[string]string{"user_id": "user-heal"},
	}
	payload := s.registerStripeEvent("evt_4", "invoice.payment_failed", "sig-4",
		`{"id":"in_1","subscription":"sub_sh","customer":"cus_sh"}`)

	err := s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-4")
	s.NoError(err)
	s.Equal(1, stripe.GetCustomerCalls)

	subs, err := s.GetStores().SubscriptionRepo.ListByUserID(s.GetContext(), "user-heal")
	s.NoError(err)
	s.Len(subs, 1)
	s.Equal(types.SubscriptionStatusPastDue, subs[0].SubscriptionStatus)

	// The fetched link was written back for the next event
	link, err := s.GetStores().BillingCustomerRepo.GetByProviderCustomerID(s.GetContext(), types.ProviderStripe, "cus_sh")
	s.NoError(err)
	s.Equal("user-heal", link.UserID)

	// A second event for the same customer resolves from the stored link
	// without touching the provider again
	payload = s.registerStripeEvent("evt_4b", "invoice.payment_failed", "sig-4b",
		`{"id":"in_2","subscription":"sub_sh","customer":"cus_sh"}`)
	s.NoError(s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-4b"))
	s.Equal(1, stripe.GetCustomerCalls)
}

func (s *WebhookServiceSuite) TestCheckoutEventLinksCustomerAndSubscription() {
	stripe := s.GetStripe()
	stripe.Subscriptions["sub_co"] = &types.SubscriptionState{
		ProviderID: "sub_co",
		Status:     types.SubscriptionStatusTrialing,
		Quantity:   1,
		Metadata:   map[string]string{"user_id": "user-co", "plan_key": "starter"},
	}
	payload := s.registerStripeEvent("evt_5", "checkout.session.completed", "sig-5",
		`{"id":"cs_1","customer":"cus_co","subscription":"sub_co","customer_email":"co@example.com","metadata":{"user_id":"user-co","plan_key":"starter"}}`)

	err := s.webhookService.Ingest(s.GetContext(), types.ProviderStripe, payload, "sig-5")
	s.NoError(err)

	link, err := s.GetStores().BillingCustomerRepo.GetByProviderCustomerID(s.GetContext(), types.ProviderStripe, "cus_co")
	s.NoError(err)
	s.Equal("user-co", link.UserID)
	s.Equal("co@example.com", link.Email)

	subs, err := s.GetStores().SubscriptionRepo.ListByUserID(s.GetContext(), "user-co")
	s.NoError(err)
	s.Len(subs, 1)
	s.Equal(types.SubscriptionStatusTrialing, subs[0].SubscriptionStatus)
}
