package main

import (
	"context"
	"fmt"

	"fabula/internal/bus"
	"fabula/internal/config"
	"fabula/internal/engine"
	"fabula/internal/store"
	"fabula/internal/store/postgres"
	"fabula/internal/store/sqlite"
)

const configPath = "fabula.yaml"

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return sqlite.New(ctx, cfg.Database.DSN)
	case "postgres":
		return postgres.New(ctx, cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func newEngine(cfg *config.ProjectConfig, db store.Store, events *bus.Bus) *engine.Engine {
	var rng engine.Rander
	if cfg.Seed != 0 {
		rng = engine.NewSeededRand(cfg.Seed)
	}
	return engine.New(db, rng, events)
}
