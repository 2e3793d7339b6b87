package history

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/model"
)

// FastTier is the low-latency, TTL-bounded cache of recent records.
type FastTier interface {
	Push(ctx context.Context, userID string, rec model.ConversationRecord) error
	LoadBatch(ctx context.Context, userID string, recs []model.ConversationRecord) (bool, error)
	Recent(ctx context.Context, userID string, n int) ([]model.ConversationRecord, error)
	Delete(ctx context.Context, userID string) error
}

// ActivityIndex ranks users by recency of activity for capacity eviction.
type ActivityIndex interface {
	Touch(ctx context.Context, userID string, ts float64) error
	Remove(ctx context.Context, userID string) error
	Oldest(ctx context.Context, n int64) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

// DurableStore is the persistent, unbounded conversation log (source of truth).
type DurableStore interface {
	Append(ctx context.Context, rec model.ConversationRecord) error
	Query(ctx context.Context, userID string, before *float64, limit int) ([]model.ConversationRecord, error)
}

// backgroundWriteTimeout bounds fire-and-forget durable appends and backfills,
// which outlive the request context that spawned them.
const backgroundWriteTimeout = 10 * time.Second

// ManagerConfig carries the tunables for a Manager.
type ManagerConfig struct {
	MaxRecordCount int   // default window for Recent when count <= 0
	MaxUserCount   int64 // fast-tier capacity bound enforced by EvictExcess
	SyncDurability bool  // when true, Record waits on the durable append and surfaces its error
}

// Manager composes the fast tier, the activity index and the durable store
// into the conversation-history API used by the chat orchestration layer.
type Manager struct {
	fast    FastTier
	index   ActivityIndex
	durable DurableStore
	cfg     ManagerConfig
	log     zerolog.Logger

	// wg tracks spawned background writes so shutdown and tests can join them.
	wg sync.WaitGroup
}

func NewManager(fast FastTier, index ActivityIndex, durable DurableStore, cfg ManagerConfig, log zerolog.Logger) *Manager {
	if cfg.MaxRecordCount <= 0 {
		cfg.MaxRecordCount = 5
	}
	if cfg.MaxUserCount <= 0 {
		cfg.MaxUserCount = 9000
	}
	return &Manager{fast: fast, index: index, durable: durable, cfg: cfg, log: log}
}

// Record stores one user/bot exchange. The fast-tier write and the durable
// append are independent best-effort writes: a durable failure in async mode
// is logged and never surfaced, while a fast-tier failure is returned as a
// transient store error.
func (m *Manager) Record(ctx context.Context, userID, userText, botText string) error {
	rec := model.NewConversationRecord(userID, userText, botText)

	if err := m.fast.Push(ctx, userID, rec); err != nil {
		return errors.Wrapf(model.ErrStoreUnavailable, "fast-tier push for %q: %v", userID, err)
	}
	if err := m.index.Touch(ctx, userID, rec.Timestamp); err != nil {
		return errors.Wrapf(model.ErrStoreUnavailable, "activity touch for %q: %v", userID, err)
	}

	if m.cfg.SyncDurability {
		if err := m.durable.Append(ctx, rec); err != nil {
			return errors.Wrapf(model.ErrStoreUnavailable, "durable append for %q: %v", userID, err)
		}
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		actx, cancel := context.WithTimeout(context.Background(), backgroundWriteTimeout)
		defer cancel()
		if err := m.durable.Append(actx, rec); err != nil {
			m.log.Error().Err(err).Str("user_id", userID).Msg("durable append failed")
		}
	}()
	return nil
}

// Recent returns up to count records for the user, oldest first. A fast-tier
// miss (or read failure) falls through to the durable store; the cold result
// is returned immediately and the fast tier is backfilled asynchronously.
func (m *Manager) Recent(ctx context.Context, userID string, count int) ([]model.ConversationRecord, error) {
	if count <= 0 {
		count = m.cfg.MaxRecordCount
	}

	recs, err := m.fast.Recent(ctx, userID, count)
	if err != nil {
		// Treated as a cache miss; the cold path below is the answer.
		m.log.Warn().Err(err).Str("user_id", userID).Msg("fast-tier read failed, falling back to durable store")
		recs = nil
	}
	if len(recs) > 0 {
		return recs, nil
	}

	cold, err := m.durable.Query(ctx, userID, nil, count)
	if err != nil {
		return nil, errors.Wrapf(model.ErrStoreUnavailable, "durable query for %q: %v", userID, err)
	}
	if len(cold) == 0 {
		return []model.ConversationRecord{}, nil
	}

	// Durable store returns newest first; history reads are chronological.
	chron := make([]model.ConversationRecord, len(cold))
	for i, rec := range cold {
		chron[len(cold)-1-i] = rec
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		bctx, cancel := context.WithTimeout(context.Background(), backgroundWriteTimeout)
		defer cancel()
		loaded, err := m.fast.LoadBatch(bctx, userID, chron)
		if err != nil {
			m.log.Error().Err(err).Str("user_id", userID).Msg("fast-tier backfill failed")
			return
		}
		if loaded {
			// The backfilled entry is now live, so it must be ranked.
			newest := chron[len(chron)-1]
			if err := m.index.Touch(bctx, userID, newest.Timestamp); err != nil {
				m.log.Error().Err(err).Str("user_id", userID).Msg("activity touch after backfill failed")
			}
		}
	}()

	return chron, nil
}

// History pages the durable store directly (newest first), for callers that
// need more than the cached window.
func (m *Manager) History(ctx context.Context, userID string, before *float64, limit int) ([]model.ConversationRecord, error) {
	if limit <= 0 {
		limit = m.cfg.MaxRecordCount
	}
	recs, err := m.durable.Query(ctx, userID, before, limit)
	if err != nil {
		return nil, errors.Wrapf(model.ErrStoreUnavailable, "durable query for %q: %v", userID, err)
	}
	return recs, nil
}

// EvictExcess enforces the fast-tier user-count bound: when the activity
// index holds more than MaxUserCount users, the least recently active excess
// users are evicted. The fast-tier entry is deleted before the index entry so
// a crash mid-eviction can only leave a stale index entry (reconciled later),
// never a live entry the index no longer sees.
func (m *Manager) EvictExcess(ctx context.Context) error {
	count, err := m.index.Count(ctx)
	if err != nil {
		return errors.Wrapf(model.ErrStoreUnavailable, "activity count: %v", err)
	}
	excess := count - m.cfg.MaxUserCount
	if excess <= 0 {
		return nil
	}

	victims, err := m.index.Oldest(ctx, excess)
	if err != nil {
		return errors.Wrapf(model.ErrStoreUnavailable, "activity range: %v", err)
	}
	if len(victims) == 0 {
		m.log.Error().Err(model.ErrCapacityInvariant).
			Int64("count", count).
			Int64("excess", excess).
			Msg("index over capacity but produced no eviction victims")
		return nil
	}

	evicted := 0
	for _, userID := range victims {
		if err := m.fast.Delete(ctx, userID); err != nil {
			// Keep the index entry so the next pass retries this user.
			m.log.Error().Err(err).Str("user_id", userID).Msg("fast-tier delete failed during eviction")
			continue
		}
		if err := m.index.Remove(ctx, userID); err != nil {
			m.log.Error().Err(err).Str("user_id", userID).Msg("activity remove failed during eviction")
			continue
		}
		evicted++
	}
	m.log.Info().Int("evicted", evicted).Int64("count", count).Msg("eviction pass complete")
	return nil
}

// Wait joins all in-flight background writes (durable appends, backfills).
// Called during shutdown and by tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}
