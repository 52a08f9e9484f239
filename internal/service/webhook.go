package service

import (
	"context"
	"time"

	"github.com/billingbridge/billingbridge/internal/domain/webhookevent"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// WebhookService is the inbound webhook pipeline: verify, store, dispatch,
// mark. Storage before dispatch makes redelivery a no-op and keeps failed
// events replayable.
type WebhookService interface {
	Ingest(ctx context.Context, provider types.ProviderType, payload []byte, signature string) error
}

type webhookService struct {
	ServiceParams
	dispatcher *Dispatcher
}

func NewWebhookService(params ServiceParams, dispatcher *Dispatcher) WebhookService {
	return &webhookService{
		ServiceParams: params,
		dispatcher:    dispatcher,
	}
}

func (s *webhookService) Ingest(ctx context.Context, provider types.ProviderType, payload []byte, signature string) error {
	runtime, err := s.Registry.Runtime(provider)
	if err != nil {
		return err
	}

	ev, err := runtime.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}

	record := webhookevent.New(provider, ev)
	record.BaseModel = types.GetDefaultBaseModel(ctx)
	if err := record.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Rejecting malformed webhook event").
			Mark(ierr.ErrWebhookValidationFailed)
	}

	created, stored, err := s.WebhookEventRepo.Record(ctx, record)
	if err != nil {
		return err
	}
	if !created {
		// Redelivery of an event already seen; handlers never run twice
		s.Logger.Infow("skipping duplicate webhook event",
			"provider", provider,
			"external_event_id", ev.ID,
			"event_type", ev.Type,
			"event_status", stored.EventStatus,
		)
		return nil
	}

	now := time.Now().UTC()
	if err := s.dispatcher.Dispatch(ctx, provider, ev); err != nil {
		stored.MarkFailed(now)
		if uerr := s.WebhookEventRepo.Update(ctx, stored); uerr != nil {
			s.Logger.Errorw("failed to mark webhook event failed",
				"error", uerr,
				"event_id", stored.ID,
			)
		}
		// Handler failures are kept for replay; the delivery itself succeeded
		// so the provider must not retry.
		return nil
	}

	stored.MarkProcessed(now)
	return s.WebhookEventRepo.Update(ctx, stored)
}
