package repository

import (
	"context"
	"fmt"

	"chatbot-server/internal/config"
	"chatbot-server/internal/db"
)

// Store agrupa el repositorio de mensajes con el chequeo de conectividad del backend elegido.
type Store struct {
	Messages MessageRepository
	Pinger   db.Pinger
	close    func()
}

// Close libera las conexiones del backend.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// OpenMessageStore abre el backend según DB_DRIVER y aplica el esquema si DB_MIGRATE está activo.
func OpenMessageStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if cfg.DBMigrate {
			if err := db.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &Store{Messages: NewPgMessageRepository(pool), Pinger: pool, close: pool.Close}, nil
	case config.DriverSQLite:
		sqlDB, err := db.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DBMigrate {
			if err := db.MigrateSQLite(ctx, sqlDB); err != nil {
				sqlDB.Close()
				return nil, err
			}
		}
		return &Store{
			Messages: NewSQLiteMessageRepository(sqlDB),
			Pinger:   db.PingerFunc(sqlDB.PingContext),
			close:    func() { _ = sqlDB.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.DBDriver)
	}
}
