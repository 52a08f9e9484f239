package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/billingbridge/billingbridge/internal/domain/outbox"
	ierr "github.com/billingbridge/billingbridge/internal/errors"
	"github.com/billingbridge/billingbridge/internal/types"
)

// OutboxService guarantees provider-side deletions eventually happen. Local
// deletes commit first; the remote delete is retried from a durable queue
// until it succeeds or exhausts its attempt budget.
type OutboxService interface {
	// Enqueue records a pending provider deletion. Re-enqueueing the same
	// remote object is a no-op, including after completion.
	Enqueue(ctx context.Context, provider types.ProviderType, entityType types.OutboxEntityType, providerEntityID string) (bool, error)

	// EnqueueProductDeletion enqueues the product and all its prices at every
	// provider the product was pushed to.
	EnqueueProductDeletion(ctx context.Context, productID string) (int, error)

	// EnqueuePriceDeletion enqueues one price at every provider it was pushed to
	EnqueuePriceDeletion(ctx context.Context, priceID string) (int, error)

	// Process executes one entry against its provider
	Process(ctx context.Context, entry *outbox.Entry) error

	// ProcessDue drains entries whose next attempt has come due
	ProcessDue(ctx context.Context, limit int) (processed int, failed int, err error)
}

type outboxService struct {
	ServiceParams
}

func NewOutboxService(params ServiceParams) OutboxService {
	return &outboxService{ServiceParams: params}
}

func (s *outboxService) Enqueue(ctx context.Context, provider types.ProviderType, entityType types.OutboxEntityType, providerEntityID string) (bool, error) {
	entry := &outbox.Entry{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_OUTBOX),
		Provider:         provider,
		EntityType:       entityType,
		ProviderEntityID: providerEntityID,
		OutboxStatus:     types.OutboxStatusPending,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	if err := entry.Validate(); err != nil {
		return false, err
	}

	created, existing, err := s.OutboxRepo.FirstOrCreate(ctx, entry)
	if err != nil {
		return false, err
	}
	if !created {
		// completed stays completed, failed keeps its attempt history
		s.Logger.Debugw("deletion already enqueued",
			"provider", provider,
			"entity_type", entityType,
			"provider_entity_id", providerEntityID,
			"outbox_status", existing.OutboxStatus,
		)
	}
	return created, nil
}

func (s *outboxService) EnqueueProductDeletion(ctx context.Context, productID string) (int, error) {
	enqueued := 0

	mappings, err := s.MappingRepo.GetByEntity(ctx, types.MappingEntityProduct, productID)
	if err != nil {
		return 0, err
	}

	// Prices go first so providers with dependent-object constraints see the
	// children removed before the parent.
	prices, err := s.PriceRepo.GetByProductID(ctx, productID)
	if err != nil {
		return 0, err
	}
	for _, pr := range prices {
		n, err := s.EnqueuePriceDeletion(ctx, pr.ID)
		if err != nil {
			return enqueued, err
		}
		enqueued += n
	}

	for _, m := range mappings {
		created, err := s.Enqueue(ctx, m.Provider, types.OutboxEntityProduct, m.ProviderEntityID)
		if err != nil {
			return enqueued, err
		}
		if created {
			enqueued++
		}
	}
	return enqueued, nil
}

func (s *outboxService) EnqueuePriceDeletion(ctx context.Context, priceID string) (int, error) {
	mappings, err := s.MappingRepo.GetByEntity(ctx, types.MappingEntityPrice, priceID)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, m := range mappings {
		created, err := s.Enqueue(ctx, m.Provider, types.OutboxEntityPrice, m.ProviderEntityID)
		if err != nil {
			return enqueued, err
		}
		if created {
			enqueued++
		}
	}
	return enqueued, nil
}

func (s *outboxService) Process(ctx context.Context, entry *outbox.Entry) error {
	now := time.Now().UTC()
	if entry.OutboxStatus == types.OutboxStatusCompleted {
		return nil
	}
	if !entry.Retryable(now) {
		return nil
	}

	if _, err := s.Registry.Catalog(entry.Provider); err != nil {
		// Provider no longer configured; surface for operators without
		// burning attempts.
		return err
	}

	err := s.deleteRemote(ctx, entry)
	if err != nil && !ierr.IsNotFound(err) {
		entry.MarkFailed(now, err)
		if uerr := s.OutboxRepo.Update(ctx, entry); uerr != nil {
			return uerr
		}
		s.Logger.Warnw("provider deletion failed",
			"provider", entry.Provider,
			"entity_type", entry.EntityType,
			"provider_entity_id", entry.ProviderEntityID,
			"attempts", entry.Attempts,
			"error", err,
		)
		return err
	}

	// An object already gone remotely counts as deleted
	entry.MarkCompleted(now)
	return s.OutboxRepo.Update(ctx, entry)
}

// deleteRemote performs the provider call with a short in-process retry for
// transient faults. Durable cross-invocation retry stays with the entry's
// backoff ladder.
func (s *outboxService) deleteRemote(ctx context.Context, entry *outbox.Entry) error {
	catalog, err := s.Registry.Catalog(entry.Provider)
	if err != nil {
		return err
	}

	operation := func() error {
		var err error
		switch entry.EntityType {
		case types.OutboxEntityProduct:
			err = catalog.DeleteProduct(ctx, entry.ProviderEntityID)
		case types.OutboxEntityPrice:
			err = catalog.DeletePrice(ctx, entry.ProviderEntityID)
		default:
			return backoff.Permanent(ierr.NewError("unknown entity type").
				WithHintf("Entity type %q is not deletable", entry.EntityType).
				Mark(ierr.ErrValidation))
		}
		if err != nil && ierr.IsNotFound(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	return backoff.Retry(operation, policy)
}

func (s *outboxService) ProcessDue(ctx context.Context, limit int) (int, int, error) {
	if limit <= 0 {
		limit = 100
	}

	due, err := s.OutboxRepo.ListDue(ctx, time.Now().UTC(), limit)
	if err != nil {
		return 0, 0, err
	}

	processed, failed := 0, 0
	for _, entry := range due {
		if err := s.Process(ctx, entry); err != nil {
			failed++
			continue
		}
		processed++
	}
	return processed, failed, nil
}
