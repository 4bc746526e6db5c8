// Package sqldb opens the relational database selected by configuration.
package sqldb

import (
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/sqlite"
)

// Handle is an open database together with its dialect.
type Handle struct {
	DB      *sql.DB
	Dialect database.Dialect
}

func (h *Handle) Close() error {
	return h.DB.Close()
}

// Open connects to SQLite when the indexer store driver is "sqlite" and to
// PostgreSQL otherwise.
func Open(cfg *config.Config) (*Handle, error) {
	if cfg.Indexer.StoreDriver == "sqlite" {
		client, err := sqlite.New(cfg.Indexer.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return &Handle{DB: client.DB, Dialect: client.Dialect()}, nil
	}
	client, err := postgres.New(cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("opening postgres store: %w", err)
	}
	return &Handle{DB: client.DB, Dialect: client.Dialect()}, nil
}
