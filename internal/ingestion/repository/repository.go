// Package repository stores wiki pages in the pages table of PostgreSQL or
// SQLite and resolves index dump records back into live pages.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id           SERIAL PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	type_tag     TEXT NOT NULL,
	content      TEXT NOT NULL,
	content_type TEXT NOT NULL,
	keywords     TEXT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	type_tag     TEXT NOT NULL,
	content      TEXT NOT NULL,
	content_type TEXT NOT NULL,
	keywords     TEXT NOT NULL,
	updated_at   TIMESTAMP NOT NULL
)`

const pageColumns = `id, name, title, type_tag, content, content_type, keywords, updated_at`

type PageRepository struct {
	db      *sql.DB
	dialect database.Dialect
	logger  *slog.Logger
}

func New(db *sql.DB, dialect database.Dialect) *PageRepository {
	return &PageRepository{
		db:      db,
		dialect: dialect,
		logger:  slog.Default().With("component", "page-repository"),
	}
}

// Migrate creates the pages table when it does not exist.
func (r *PageRepository) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if r.dialect == database.SQLite {
		schema = sqliteSchema
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating pages table: %w", err)
	}
	return nil
}

// Upsert inserts the page or replaces the page with the same name, keeping
// its ID.
func (r *PageRepository) Upsert(ctx context.Context, req *ingestion.PageRequest, updatedAt time.Time) (*ingestion.Page, error) {
	page := ingestion.NewPage(0, req, updatedAt)
	keywords, err := json.Marshal(nonNil(page.Keywords()))
	if err != nil {
		return nil, fmt.Errorf("encoding keywords: %w", err)
	}

	var id int
	err = r.db.QueryRowContext(ctx, r.dialect.Rebind(`
		INSERT INTO pages (name, title, type_tag, content, content_type, keywords, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			title = excluded.title,
			type_tag = excluded.type_tag,
			content = excluded.content,
			content_type = excluded.content_type,
			keywords = excluded.keywords,
			updated_at = excluded.updated_at
		RETURNING id`),
		page.Name(), page.Title(), page.TypeTag(), page.Content(),
		string(page.ContentType()), string(keywords), page.DateTime(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upserting page %q: %w", req.Name, err)
	}
	return ingestion.NewPage(id, req, updatedAt), nil
}

// FindByName returns the page called name, or an error wrapping
// ErrDocumentNotFound.
func (r *PageRepository) FindByName(ctx context.Context, name string) (*ingestion.Page, error) {
	row := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`SELECT `+pageColumns+` FROM pages WHERE name = ?`), name)
	page, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %q: %w", name, apperrors.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying page %q: %w", name, err)
	}
	return page, nil
}

// List returns every stored page ordered by ID.
func (r *PageRepository) List(ctx context.Context) ([]*ingestion.Page, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []*ingestion.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	return pages, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*ingestion.Page, error) {
	var (
		id          int
		req         ingestion.PageRequest
		contentType string
		keywords    string
		updatedAt   database.Timestamp
	)
	err := row.Scan(&id, &req.Name, &req.Title, &req.TypeTag, &req.Content, &contentType, &keywords, &updatedAt)
	if err != nil {
		return nil, err
	}
	req.ContentType = ingestion.ContentType(contentType)
	if err := json.Unmarshal([]byte(keywords), &req.Keywords); err != nil {
		return nil, fmt.Errorf("decoding keywords of page %q: %w", req.Name, err)
	}
	return ingestion.NewPage(id, &req, updatedAt.Time), nil
}

// Delete removes the page called name and returns its ID.
func (r *PageRepository) Delete(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx,
		r.dialect.Rebind(`DELETE FROM pages WHERE name = ? RETURNING id`), name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("page %q: %w", name, apperrors.ErrDocumentNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("deleting page %q: %w", name, err)
	}
	return id, nil
}

// Count returns the number of stored pages.
func (r *PageRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

// BuildDocument returns a callback resolving dumped documents by page name.
// Pages that no longer exist, or whose type tag changed, resolve to nil.
func (r *PageRepository) BuildDocument(ctx context.Context) index.BuildDocumentFunc {
	return func(dumped index.DumpedDocument) index.Document {
		page, err := r.FindByName(ctx, dumped.Name)
		if err != nil {
			if !errors.Is(err, apperrors.ErrDocumentNotFound) {
				r.logger.Error("resolving dumped document failed",
					"name", dumped.Name,
					"error", err,
				)
			}
			return nil
		}
		if page.TypeTag() != dumped.TypeTag {
			return nil
		}
		return page
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
