package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/foodiary/foodiary-chat/internal/store"
	"github.com/foodiary/foodiary-chat/internal/store/storetest"
)

func makeMongoStore(t *testing.T) store.Store {
	t.Helper()
	uri := os.Getenv("FOODIARY_MONGO_URI")
	if uri == "" {
		t.Skip("FOODIARY_MONGO_URI not set; skipping mongo store integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := Open(ctx, uri)
	if err != nil {
		t.Fatalf("mongo open: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return NewWithClient(client)
}

func TestMongoStore_Compliance(t *testing.T) {
	storetest.Run(t, makeMongoStore)
}
