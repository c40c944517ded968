// README: Live tracking feed; change events and a poll ticker share one refresh channel.
package tracking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bitebay/internal/logger"
	"bitebay/internal/modules/identity"
	"bitebay/internal/realtime"
	"bitebay/internal/types"
)

type Snapshotter interface {
	Snapshot(ctx context.Context, caller *identity.Caller, orderID types.ID) (*Snapshot, error)
}

type Feed struct {
	snapshots Snapshotter
	sub       realtime.Subscriber
	interval  time.Duration
}

func NewFeed(snapshots Snapshotter, sub realtime.Subscriber, interval time.Duration) *Feed {
	return &Feed{snapshots: snapshots, sub: sub, interval: interval}
}

// Run emits an initial snapshot, then a fresh one per refresh until the order
// is terminal, emit fails or ctx ends. An error before the first emit (for
// example ErrForbidden) is returned unchanged.
func (f *Feed) Run(ctx context.Context, caller *identity.Caller, orderID types.ID, emit func(*Snapshot) error) error {
	snap, err := f.snapshots.Snapshot(ctx, caller, orderID)
	if err != nil {
		return err
	}
	if err := emit(snap); err != nil {
		return err
	}
	if snap.Terminal {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log := logger.FromCtx(ctx).With(zap.String("order_id", string(orderID)))

	// Capacity one: a pending refresh already covers any later poke.
	refresh := make(chan struct{}, 1)
	poke := func() {
		select {
		case refresh <- struct{}{}:
		default:
		}
	}

	if f.sub != nil {
		events, closeSub, err := f.sub.Subscribe(ctx, realtime.OrderTopic(orderID))
		if err != nil {
			log.Warn("change feed unavailable, polling only", zap.Error(err))
		} else {
			defer func() { _ = closeSub() }()
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case _, ok := <-events:
						if !ok {
							return
						}
						poke()
					}
				}
			}()
		}
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poke()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-refresh:
			snap, err := f.snapshots.Snapshot(ctx, caller, orderID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("tracking refresh failed", zap.Error(err))
				continue
			}
			if err := emit(snap); err != nil {
				return err
			}
			if snap.Terminal {
				return nil
			}
		}
	}
}
