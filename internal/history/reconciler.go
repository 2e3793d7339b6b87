package history

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/model"
)

// ExpiryFeed produces expired-key notifications from the fast tier. The
// returned channel closes when the subscription drops; callers obtain a
// fresh channel by calling Expirations again.
type ExpiryFeed interface {
	Expirations(ctx context.Context) (<-chan string, error)
}

// Reconciler keeps the activity index free of entries for users whose
// fast-tier entry has already expired. One instance runs per process.
//
// Consumption is at-least-once: Remove is idempotent, so duplicate
// notifications are harmless. A dropped subscription causes temporary index
// staleness only, bounded by the resubscribe backoff.
type Reconciler struct {
	feed  ExpiryFeed
	index ActivityIndex
	log   zerolog.Logger
}

func NewReconciler(feed ExpiryFeed, index ActivityIndex, log zerolog.Logger) *Reconciler {
	return &Reconciler{feed: feed, index: index, log: log}
}

// Run consumes expiry notifications until ctx is cancelled, resubscribing
// indefinitely with exponential backoff when the feed drops.
func (r *Reconciler) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // retry forever; staleness is the acceptable degraded mode

	for {
		ch, err := r.feed.Expirations(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := bo.NextBackOff()
			r.log.Warn().Err(err).Dur("retry_in", wait).Msg("expiry subscription failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()
		r.log.Info().Msg("expiry reconciler subscribed")

		if err := r.consume(ctx, ch); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warn().Err(err).Msg("expiry subscription dropped, resubscribing")
		}
	}
}

// consume drains one subscription, removing index entries for expired
// conversation-history keys. Keys outside the chat namespace are ignored.
func (r *Reconciler) consume(ctx context.Context, ch <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case key, ok := <-ch:
			if !ok {
				return model.ErrSubscriptionLost
			}
			userID, ok := UserIDFromKey(key)
			if !ok {
				continue
			}
			if err := r.index.Remove(ctx, userID); err != nil {
				// The entry stays stale until the next notification or
				// eviction pass touches it.
				r.log.Error().Err(err).Str("user_id", userID).Msg("activity remove failed during reconciliation")
			}
		}
	}
}
