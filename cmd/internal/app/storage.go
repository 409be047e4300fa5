package app

import (
	"context"
	"database/sql"
	"fmt"

	"tasktrack/cmd/identity"
	"tasktrack/cmd/internal/storage"
	"tasktrack/cmd/internal/task"
)

// backend bundles the stores for the configured driver with its lifecycle hooks.
type backend struct {
	driver string
	users  identity.Store
	tasks  task.Store

	// ping reports storage reachability for /readyz.
	ping  func(ctx context.Context) error
	close func()
}

func openBackend(ctx context.Context, cfg Config, log Logger) (*backend, error) {
	switch cfg.StorageDriver {
	case DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case DriverSQLite:
		return openSQLite(ctx, cfg, log)
	case DriverMemory:
		log.Info("storage.memory", "persistent", false)
		return &backend{
			driver: DriverMemory,
			users:  identity.NewMemoryStore(),
			tasks:  task.NewMemoryStore(),
			ping:   func(context.Context) error { return nil },
			close:  func() {},
		}, nil
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.StorageDriver)
	}
}

func openPostgres(ctx context.Context, cfg Config, log Logger) (*backend, error) {
	pool, err := storage.NewPostgresPool(ctx, storage.PostgresConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, err
	}
	if err := storage.ApplyPostgresSchema(ctx, pool, cfg.DBSchema); err != nil {
		pool.Close()
		return nil, err
	}

	users, err := identity.NewPostgresStore(pool, identity.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, err
	}
	tasks, err := task.NewPostgresStore(pool, task.WithSchema(cfg.DBSchema))
	if err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("storage.postgres", "schema", cfg.DBSchema)

	// The app owns the pool; stores never close it.
	return &backend{
		driver: DriverPostgres,
		users:  users,
		tasks:  tasks,
		ping: func(ctx context.Context) error {
			return storage.PingPostgres(ctx, pool, readyzTimeout)
		},
		close: pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg Config, log Logger) (*backend, error) {
	db, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	users, err := identity.NewSQLiteStore(db)
	if err != nil {
		closeDB(db, log)
		return nil, err
	}
	tasks, err := task.NewSQLiteStore(db)
	if err != nil {
		closeDB(db, log)
		return nil, err
	}

	log.Info("storage.sqlite", "path", cfg.SQLitePath)

	return &backend{
		driver: DriverSQLite,
		users:  users,
		tasks:  tasks,
		ping: func(ctx context.Context) error {
			return storage.PingSQLite(ctx, db, readyzTimeout)
		},
		close: func() { closeDB(db, log) },
	}, nil
}

func closeDB(db *sql.DB, log Logger) {
	if err := db.Close(); err != nil {
		log.Error("storage.close.fail", "err", err)
	}
}
