package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/types"
)

type stubHandler struct {
	types  []string
	err    error
	panics bool
	calls  int
}

func (h *stubHandler) EventTypes() []string { return h.types }

func (h *stubHandler) Handle(_ context.Context, _ types.ProviderType, _ *types.NormalizedEvent) error {
	h.calls++
	if h.panics {
		panic("boom")
	}
	return h.err
}

func TestDispatchUnknownEventTypeIsNoOp(t *testing.T) {
	d := NewDispatcher(logger.NewNopLogger())
	d.Register(&stubHandler{types: []string{"subscription.created"}})

	err := d.Dispatch(context.Background(), types.ProviderStripe, &types.NormalizedEvent{
		ID:   "evt_1",
		Type: "charge.refunded",
	})
	assert.NoError(t, err)
}

func TestDispatchRunsEveryHandlerAndReturnsFirstError(t *testing.T) {
	d := NewDispatcher(logger.NewNopLogger())
	first := &stubHandler{types: []string{"subscription.updated"}, err: errors.New("first failed")}
	second := &stubHandler{types: []string{"subscription.updated"}}
	d.Register(first)
	d.Register(second)

	err := d.Dispatch(context.Background(), types.ProviderStripe, &types.NormalizedEvent{
		ID:   "evt_1",
		Type: "subscription.updated",
	})
	require.Error(t, err)
	assert.Equal(t, "first failed", err.Error())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls, "later handlers still run after a failure")
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	d := NewDispatcher(logger.NewNopLogger())
	d.Register(&stubHandler{types: []string{"subscription.created"}, panics: true})

	err := d.Dispatch(context.Background(), types.ProviderPaddle, &types.NormalizedEvent{
		ID:   "evt_1",
		Type: "subscription.created",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panicked")
}
