package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/foodiary/foodiary-chat/internal/model"
	"github.com/foodiary/foodiary-chat/internal/store"
)

func record(userID string, ts float64, question, answer string) model.ConversationRecord {
	return model.ConversationRecord{
		UserID:    userID,
		Timestamp: ts,
		Turns: []model.Message{
			{Role: model.RoleUser, Text: question},
			{Role: model.RoleBot, Text: answer},
		},
	}
}

// Run exercises a minimal compliance suite against a store.Store
// implementation. Implementations should provide a connected store and
// return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Unique per run so reruns against a shared backend stay isolated.
	userID := "u-" + uuid.New().String()

	for i, ts := range []float64{100, 200, 300} {
		rec := record(userID, ts, "question", "answer")
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	// Newest first, full window.
	got, err := s.Query(ctx, userID, nil, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Query: want 3 records, got %d", len(got))
	}
	if got[0].Timestamp != 300 || got[2].Timestamp != 100 {
		t.Fatalf("Query ordering: got timestamps %v %v %v", got[0].Timestamp, got[1].Timestamp, got[2].Timestamp)
	}
	if len(got[0].Turns) != 2 || got[0].Turns[0].Role != model.RoleUser || got[0].Turns[1].Role != model.RoleBot {
		t.Fatalf("Query turns round-trip: got %+v", got[0].Turns)
	}

	// Limit.
	got, err = s.Query(ctx, userID, nil, 2)
	if err != nil || len(got) != 2 {
		t.Fatalf("Query limit: n=%d err=%v", len(got), err)
	}
	if got[0].Timestamp != 300 || got[1].Timestamp != 200 {
		t.Fatalf("Query limit ordering: got %v %v", got[0].Timestamp, got[1].Timestamp)
	}

	// Pagination cursor: strictly older than the given timestamp.
	before := 300.0
	got, err = s.Query(ctx, userID, &before, 5)
	if err != nil || len(got) != 2 {
		t.Fatalf("Query before: n=%d err=%v", len(got), err)
	}
	if got[0].Timestamp != 200 {
		t.Fatalf("Query before ordering: got %v", got[0].Timestamp)
	}

	// Duplicate append is tolerated.
	if err := s.Append(ctx, record(userID, 300, "question", "answer")); err != nil {
		t.Fatalf("duplicate Append: %v", err)
	}

	// Unknown users read empty, not an error.
	got, err = s.Query(ctx, "u-"+uuid.New().String(), nil, 5)
	if err != nil || len(got) != 0 {
		t.Fatalf("Query unknown user: n=%d err=%v", len(got), err)
	}

	if err := s.HealthPing(ctx); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}
}
