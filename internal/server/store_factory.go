package server

import (
	"fmt"
	"log/slog"

	"github.com/preston-bernstein/racket-score-service/internal/config"
	"github.com/preston-bernstein/racket-score-service/internal/logging"
	"github.com/preston-bernstein/racket-score-service/internal/store"
)

var openSQLite = func(dsn string) (*store.SQLStore, error) {
	return store.OpenSQLite(dsn)
}

// buildStore opens the configured match store. The returned close func is never nil.
func buildStore(cfg config.StoreConfig, logger *slog.Logger) (store.MatchStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		sqlStore, err := openSQLite(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open match store: %w", err)
		}
		logging.Info(logger, "using sqlite match store", "dsn", cfg.SQLiteDSN)
		return sqlStore, sqlStore.Close, nil
	default:
		logging.Info(logger, "using in-memory match store")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}
}
