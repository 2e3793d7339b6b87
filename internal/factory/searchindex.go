package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/config"
	"github.com/foodiary/foodiary-chat/internal/searchindex"
)

// schemaBootstrapTimeout bounds the async schema-ensure on startup.
const schemaBootstrapTimeout = 30 * time.Second

// NewSearchIndex creates the Weaviate-backed document index.
// Schema bootstrap runs asynchronously so startup is never blocked on it.
func NewSearchIndex(ctx context.Context, cfg *config.Config, log zerolog.Logger) (searchindex.Index, error) {
	if cfg.SearchIndexURL == "" {
		return nil, fmt.Errorf("search index URL not configured - required for service operation")
	}

	idx, err := searchindex.NewWeaviateIndex(cfg.SearchIndexURL)
	if err != nil {
		return nil, err
	}

	go func() {
		bctx, cancel := context.WithTimeout(ctx, schemaBootstrapTimeout)
		defer cancel()
		if err := searchindex.EnsureSchema(bctx, cfg.SearchIndexURL); err != nil {
			log.Warn().Err(err).Str("url", cfg.SearchIndexURL).Msg("search index schema bootstrap failed")
		} else {
			log.Debug().Str("url", cfg.SearchIndexURL).Msg("search index schema bootstrap completed")
		}
	}()

	return idx, nil
}
