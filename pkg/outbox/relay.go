package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Publisher delivers one event to a downstream transport.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Relay struct {
	log       *slog.Logger
	store     Store
	publisher Publisher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
}

func NewRelay(log *slog.Logger, store Store, publisher Publisher, relayID string) *Relay {
	return &Relay{
		log:       log,
		store:     store,
		publisher: publisher,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     30 * time.Second,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.Error("relay batch error", "relay_id", r.relayID, "err", err)
			}
		}
	}
}

// RunOnce relays a single batch and reports how many events were delivered.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			r.log.Error("outbox publish failed", "event_id", ev.ID, "type", ev.Type, "err", err)
			if markErr := r.store.MarkFailed(ctx, ev.ID, err.Error()); markErr != nil {
				r.log.Error("outbox mark failed error", "event_id", ev.ID, "err", markErr)
			}
			continue
		}
		ids = append(ids, ev.ID)
	}
	if err := r.store.MarkSent(ctx, ids); err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		r.log.Info("outbox relayed", "relay_id", r.relayID, "count", len(ids))
	}
	return len(ids), nil
}
