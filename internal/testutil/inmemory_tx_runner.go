package testutil

import (
	"context"
	"sync"

	"github.com/billingbridge/billingbridge/internal/postgres"
)

// InMemoryTxRunner implements postgres.TxRunner over the in-memory stores.
// The stores have no rollback, so WithTx just runs fn; the runner records
// each invocation and can inject a post-fn error to simulate a failed commit.
type InMemoryTxRunner struct {
	mu sync.Mutex

	// Calls counts WithTx invocations
	Calls int

	// CommitErr, when set, is returned after fn succeeds
	CommitErr error
}

var _ postgres.TxRunner = (*InMemoryTxRunner)(nil)

func NewInMemoryTxRunner() *InMemoryTxRunner {
	return &InMemoryTxRunner{}
}

func (r *InMemoryTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	r.Calls++
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		return err
	}
	return r.CommitErr
}
