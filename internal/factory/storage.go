package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/config"
	storepkg "github.com/foodiary/foodiary-chat/internal/store"
	storemongo "github.com/foodiary/foodiary-chat/internal/store/mongo"
	storepg "github.com/foodiary/foodiary-chat/internal/store/postgres"
)

// NewStore builds the durable conversation store selected by cfg.DBDriver
// (mongo or postgres; ResolveDefaults derives mongo from "auto").
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "mongo":
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("FOODIARY_MONGO_URI is required when DB_DRIVER=mongo")
		}
		client, err := storemongo.Open(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		log.Info().Str("driver", "mongo").Msg("durable store ready")
		return storemongo.NewWithClient(client), nil

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("FOODIARY_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := storepg.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		log.Info().Str("driver", "postgres").Msg("durable store ready")
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
