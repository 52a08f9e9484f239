package service

import (
	"context"
	"fmt"

	"github.com/billingbridge/billingbridge/internal/logger"
	"github.com/billingbridge/billingbridge/internal/types"
)

// EventHandler processes normalized webhook events of declared types
type EventHandler interface {
	// EventTypes lists the provider event type strings the handler wants
	EventTypes() []string
	Handle(ctx context.Context, provider types.ProviderType, ev *types.NormalizedEvent) error
}

// Dispatcher routes a normalized event to every handler registered for its
// type. Events with no registered handler are processed successfully: webhook
// endpoints must tolerate event types added by providers over time.
type Dispatcher struct {
	handlers map[string][]EventHandler
	logger   *logger.Logger
}

func NewDispatcher(logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

func (d *Dispatcher) Register(h EventHandler) {
	for _, t := range h.EventTypes() {
		d.handlers[t] = append(d.handlers[t], h)
	}
}

// Dispatch runs every handler registered for the event type. All handlers run
// even when an earlier one fails; the first error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, provider types.ProviderType, ev *types.NormalizedEvent) error {
	handlers, ok := d.handlers[ev.Type]
	if !ok {
		d.logger.Debugw("no handler registered for event type",
			"provider", provider,
			"event_type", ev.Type,
			"event_id", ev.ID,
		)
		return nil
	}

	var firstErr error
	for _, h := range handlers {
		if err := d.run(ctx, h, provider, ev); err != nil {
			d.logger.Errorw("webhook handler failed",
				"error", err,
				"provider", provider,
				"event_type", ev.Type,
				"event_id", ev.ID,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// run invokes one handler, converting panics into errors so a single bad
// handler cannot take down event processing.
func (d *Dispatcher) run(ctx context.Context, h EventHandler, provider types.ProviderType, ev *types.NormalizedEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, provider, ev)
}
