package history

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Evictor periodically enforces the fast-tier capacity bound. It is
// independent of request traffic and never crashes the process: eviction
// failures are logged and retried on the next tick.
type Evictor struct {
	mgr      *Manager
	interval time.Duration
	log      zerolog.Logger
}

func NewEvictor(mgr *Manager, interval time.Duration, log zerolog.Logger) *Evictor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Evictor{mgr: mgr, interval: interval, log: log}
}

// Run performs an immediate eviction pass and then one per interval until
// ctx is cancelled.
func (e *Evictor) Run(ctx context.Context) error {
	e.log.Info().Dur("interval", e.interval).Msg("evictor starting")
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	pass := func() {
		if err := e.mgr.EvictExcess(ctx); err != nil {
			e.log.Error().Err(err).Msg("eviction pass failed")
		}
	}

	pass()
	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("evictor stopping")
			return ctx.Err()
		case <-ticker.C:
			pass()
		}
	}
}
