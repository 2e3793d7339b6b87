// Package postgres implements the durable conversation log on PostgreSQL,
// a single chat_records table keyed by (user_id, ts).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/foodiary/foodiary-chat/internal/model"
	"github.com/foodiary/foodiary-chat/internal/store"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS chat_records (
    user_id      TEXT             NOT NULL,
    ts           DOUBLE PRECISION NOT NULL,
    chat_content JSONB            NOT NULL,
    PRIMARY KEY (user_id, ts)
)`

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

// EnsureSchema creates the chat_records table when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}

func (s *pgStore) Append(ctx context.Context, rec model.ConversationRecord) error {
	turns, err := json.Marshal(rec.Turns)
	if err != nil {
		return err
	}
	// Re-appending the same exchange is a no-op, matching Mongo's
	// duplicate-key tolerance.
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO chat_records (user_id, ts, chat_content)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, ts) DO NOTHING
    `, rec.UserID, rec.Timestamp, turns)
	return err
}

func (s *pgStore) Query(ctx context.Context, userID string, before *float64, limit int) ([]model.ConversationRecord, error) {
	query := `
        SELECT ts, chat_content FROM chat_records
        WHERE user_id=$1`
	args := []interface{}{userID}
	if before != nil {
		query += ` AND ts < $2 ORDER BY ts DESC LIMIT $3`
		args = append(args, *before, limit)
	} else {
		query += ` ORDER BY ts DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.ConversationRecord, 0, limit)
	for rows.Next() {
		rec := model.ConversationRecord{UserID: userID}
		var turns []byte
		if err := rows.Scan(&rec.Timestamp, &turns); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(turns, &rec.Turns); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *pgStore) Close(ctx context.Context) error {
	return s.db.Close()
}
