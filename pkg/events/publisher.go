// Package events delivers relayed outbox events to brokers and live subscribers.
package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/junaidrashid-git/storefront-api/pkg/outbox"
)

// LogPublisher is the "none" broker: events are only logged.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, ev outbox.Event) error {
	p.log.Info("order event", "event_id", ev.ID, "type", ev.Type, "aggregate_id", ev.AggregateID)
	return nil
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []outbox.Publisher

func (f Fanout) Publish(ctx context.Context, ev outbox.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
