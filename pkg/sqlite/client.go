// Package sqlite opens embedded SQLite databases through the
// ncruces/go-sqlite3 database/sql driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/database"
)

type Client struct {
	DB *sql.DB
}

// New opens the database at dsn. In-memory databases are limited to one
// connection so every query sees the same database.
func New(dsn string) (*Client, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling sqlite foreign keys: %w", err)
	}
	return &Client{DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) Dialect() database.Dialect {
	return database.SQLite
}

func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return database.InTx(ctx, c.DB, fn)
}
