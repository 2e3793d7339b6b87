package history

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/model"
)

const (
	// keyPrefix namespaces fast-tier entries; the reconciler uses it to
	// recognize expiry notifications that belong to conversation history.
	keyPrefix = "chat:"

	// expiredEventPattern matches Redis keyspace expiry notifications on any DB.
	expiredEventPattern = "__keyevent@*__:expired"
)

// Key returns the fast-tier key for a user.
func Key(userID string) string { return keyPrefix + userID }

// UserIDFromKey extracts the user identifier from a fast-tier key.
// Returns false for keys outside the conversation-history namespace.
func UserIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", false
	}
	return key[len(keyPrefix):], true
}

// backfill writes a batch only when the key is absent. A concurrent Push
// wins over a cache-miss backfill; the stale batch is dropped.
var backfillScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
for i = 3, #ARGV do
  redis.call('RPUSH', KEYS[1], ARGV[i])
end
redis.call('LTRIM', KEYS[1], -tonumber(ARGV[1]), -1)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return 1
`)

// RedisFastTier holds each user's most recent conversation records in a
// TTL-bounded Redis list.
type RedisFastTier struct {
	rdb        *redis.Client
	maxRecords int
	ttl        time.Duration
	log        zerolog.Logger
}

// NewRedisFastTier constructs a fast tier over an existing Redis client.
// The client is a shared, process-wide handle owned by the caller.
func NewRedisFastTier(rdb *redis.Client, maxRecords int, ttl time.Duration, log zerolog.Logger) *RedisFastTier {
	return &RedisFastTier{rdb: rdb, maxRecords: maxRecords, ttl: ttl, log: log}
}

// Push appends a record to the user's entry, trims to the newest maxRecords
// (FIFO) and resets the TTL. The three commands run in one MULTI/EXEC block
// so push-and-trim is atomic at the store.
func (f *RedisFastTier) Push(ctx context.Context, userID string, rec model.ConversationRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := Key(userID)
	_, err = f.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, raw)
		pipe.LTrim(ctx, key, int64(-f.maxRecords), -1)
		pipe.Expire(ctx, key, f.ttl)
		return nil
	})
	return err
}

// LoadBatch backfills an ordered batch of records (oldest first) after a
// cold-tier read. The write is skipped when the entry already exists, so a
// record that raced ahead of the backfill is never clobbered. Returns true
// when the batch was written.
func (f *RedisFastTier) LoadBatch(ctx context.Context, userID string, recs []model.ConversationRecord) (bool, error) {
	if len(recs) == 0 {
		return false, nil
	}
	args := make([]interface{}, 0, len(recs)+2)
	args = append(args, f.maxRecords, int(f.ttl.Seconds()))
	for _, rec := range recs {
		raw, err := json.Marshal(rec)
		if err != nil {
			return false, err
		}
		args = append(args, raw)
	}
	loaded, err := backfillScript.Run(ctx, f.rdb, []string{Key(userID)}, args...).Int()
	if err != nil {
		return false, err
	}
	return loaded == 1, nil
}

// Recent returns up to n most recent records in chronological order (oldest
// of the returned window first). Read-only: the TTL is not refreshed.
// Elements that fail to decode are dropped and logged.
func (f *RedisFastTier) Recent(ctx context.Context, userID string, n int) ([]model.ConversationRecord, error) {
	raws, err := f.rdb.LRange(ctx, Key(userID), int64(-n), -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.ConversationRecord, 0, len(raws))
	for _, raw := range raws {
		var rec model.ConversationRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			f.log.Error().Err(model.ErrBadRecord).
				Str("user_id", userID).
				Msg("dropping undecodable fast-tier record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes a user's entry. Idempotent.
func (f *RedisFastTier) Delete(ctx context.Context, userID string) error {
	return f.rdb.Del(ctx, Key(userID)).Err()
}

// Expirations subscribes to Redis keyspace expiry notifications and returns
// a channel of expired key names. The channel closes when the subscription
// drops or ctx is cancelled; callers resubscribe by calling Expirations again.
func (f *RedisFastTier) Expirations(ctx context.Context) (<-chan string, error) {
	// Keyspace events are off by default; enabling them is best-effort since
	// managed Redis may forbid CONFIG SET and be configured out of band.
	if err := f.rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		f.log.Warn().Err(err).Msg("could not enable keyspace notifications; assuming preconfigured")
	}

	sub := f.rdb.PSubscribe(ctx, expiredEventPattern)
	// Force the initial handshake so a dead connection fails here, not silently.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan string, 64)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// HealthPing reports Redis connectivity.
func (f *RedisFastTier) HealthPing(ctx context.Context) error {
	return f.rdb.Ping(ctx).Err()
}
