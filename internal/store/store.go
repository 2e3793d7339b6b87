package store

import (
	"context"

	"github.com/foodiary/foodiary-chat/internal/model"
)

// Store is the durable, per-user conversation log — the source of truth
// behind the fast tier. Implementations live under internal/store/<driver>/
// (mongo, postgres).
type Store interface {
	// Append persists one conversation record. Append is best-effort from the
	// caller's perspective; duplicates of an already-stored record are ignored.
	Append(ctx context.Context, rec model.ConversationRecord) error

	// Query returns up to limit records for the user, newest first. When
	// before is set, only records strictly older than that timestamp are
	// returned (pagination cursor).
	Query(ctx context.Context, userID string, before *float64, limit int) ([]model.ConversationRecord, error)

	// HealthPing reports backend connectivity.
	HealthPing(ctx context.Context) error

	// Close releases the underlying client.
	Close(ctx context.Context) error
}
