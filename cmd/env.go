package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/grupo-alfil/crm-backend/internal/db"
	"github.com/grupo-alfil/crm-backend/internal/directorio"
	"github.com/grupo-alfil/crm-backend/internal/match"
	"github.com/grupo-alfil/crm-backend/internal/poliza"
)

// crmEnv holds the store and engine wiring shared by the commands.
type crmEnv struct {
	Pool       *pgxpool.Pool
	Contacts   *directorio.PostgresStore
	Policies   *poliza.PostgresStore
	Finder     *match.Finder
	Reconciler *match.Reconciler
}

// Close releases the connection pool.
func (e *crmEnv) Close() {
	if e.Pool != nil {
		e.Pool.Close()
	}
}

// initEnv connects to Postgres, runs the directory migration, and builds
// the matching engine. Callers should defer env.Close().
func initEnv(ctx context.Context) (*crmEnv, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}

	pool, err := db.NewPool(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
		MaxConns: int32(cfg.Store.MaxConns),
		MinConns: int32(cfg.Store.MinConns),
	})
	if err != nil {
		return nil, err
	}

	contacts := directorio.NewPostgresStore(pool)
	if err := contacts.Migrate(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "migrate directory")
	}
	policies := poliza.NewPostgresStore(pool)

	finder := match.NewFinder(contacts, policies, match.Config{
		RelationshipThreshold: cfg.Match.RelationshipThreshold,
		LookupThreshold:       cfg.Match.LookupThreshold,
		Concurrency:           cfg.Match.Concurrency,
	})

	return &crmEnv{
		Pool:       pool,
		Contacts:   contacts,
		Policies:   policies,
		Finder:     finder,
		Reconciler: match.NewReconciler(finder, contacts),
	}, nil
}
