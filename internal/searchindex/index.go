package searchindex

import (
	"context"

	"github.com/foodiary/foodiary-chat/internal/model"
)

// Index provides retrieval over the ingested document corpus.
type Index interface {
	// Search runs a hybrid (keyword + vector) query and returns the topK
	// best-scoring documents.
	Search(ctx context.Context, query string, vec []float32, topK int) ([]model.DocumentHit, error)

	// UpsertDocument writes one document chunk; used by the ingest pipeline.
	UpsertDocument(ctx context.Context, id string, vec []float32, content, filename string) error

	// HealthPing reports index connectivity.
	HealthPing(ctx context.Context) error
}
