// Package app wires the ledger services shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"smsledger/internal/categorizer"
	"smsledger/internal/config"
	"smsledger/internal/database"
	"smsledger/internal/ingest"
	"smsledger/internal/notification"
	"smsledger/internal/reconciliation"
	"smsledger/internal/sender"
)

// App holds the long-lived services built on one database
type App struct {
	Config   *config.Config
	DB       *database.DB
	Learned  *categorizer.Learned
	Engine   *categorizer.Engine
	Cache    *notification.Cache
	Enricher *notification.Enricher
	Pipeline *ingest.Pipeline
	Matcher  *reconciliation.Matcher
}

// Open opens the database from cfg and builds the services on it
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.OpenAndInit(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// New builds the services on an open database and loads learned merchants
func New(ctx context.Context, cfg *config.Config, db *database.DB) (*App, error) {
	learned := categorizer.NewLearned(db)
	if err := learned.Load(ctx); err != nil {
		return nil, fmt.Errorf("load merchant mappings: %w", err)
	}

	merchants := categorizer.Layered{
		Learned: learned,
		Seed:    categorizer.NewRegistry(cfg.Merchants),
	}
	engine := categorizer.NewEngine(merchants, cfg.Location)
	cache := notification.NewCache()
	enricher := notification.NewEnricher(cache, merchants, notification.DefaultWindow)

	return &App{
		Config:   cfg,
		DB:       db,
		Learned:  learned,
		Engine:   engine,
		Cache:    cache,
		Enricher: enricher,
		Pipeline: ingest.NewPipeline(db, sender.New(cfg.TrustedSenders...), engine, cache, enricher),
		Matcher:  reconciliation.NewMatcher(db),
	}, nil
}

// Close releases the database
func (a *App) Close() error {
	return a.DB.Close()
}
