// Package store persists index changes into relational tables and loads
// them back as a dump. It runs against PostgreSQL or SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/resilience"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS index_documents (
		id        SERIAL PRIMARY KEY,
		name      TEXT NOT NULL,
		title     TEXT NOT NULL,
		type_tag  TEXT NOT NULL,
		date_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS index_words (
		id   SERIAL PRIMARY KEY,
		text TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS index_mappings (
		word_id          INTEGER NOT NULL REFERENCES index_words (id),
		document_id      INTEGER NOT NULL REFERENCES index_documents (id),
		first_char_index INTEGER NOT NULL,
		word_index       INTEGER NOT NULL,
		location         SMALLINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS index_mappings_document_idx ON index_mappings (document_id)`,
	`CREATE INDEX IF NOT EXISTS index_mappings_word_idx ON index_mappings (word_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS index_documents (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		name      TEXT NOT NULL,
		title     TEXT NOT NULL,
		type_tag  TEXT NOT NULL,
		date_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS index_words (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS index_mappings (
		word_id          INTEGER NOT NULL REFERENCES index_words (id),
		document_id      INTEGER NOT NULL REFERENCES index_documents (id),
		first_char_index INTEGER NOT NULL,
		word_index       INTEGER NOT NULL,
		location         INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS index_mappings_document_idx ON index_mappings (document_id)`,
	`CREATE INDEX IF NOT EXISTS index_mappings_word_idx ON index_mappings (word_id)`,
}

// Store is an index.ChangeListener that mirrors every change into the
// index_documents, index_words and index_mappings tables. The IDs those
// tables assign are handed back to the engine through the change result.
type Store struct {
	db      *sql.DB
	dialect database.Dialect
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

func New(db *sql.DB, dialect database.Dialect, retry resilience.RetryConfig) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		retry:   retry,
		logger:  slog.Default().With("component", "index-store", "dialect", dialect.String()),
	}
}

// Migrate creates the index tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if s.dialect == database.SQLite {
		schema = sqliteSchema
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating index store: %w", err)
		}
	}
	return nil
}

// IndexChanged persists change in a single transaction.
func (s *Store) IndexChanged(ctx context.Context, change *index.Change) error {
	switch change.Kind {
	case index.DocumentAdded:
		var result *index.IndexStorerResult
		err := s.inTx(ctx, "index-store-add", func(tx *sql.Tx) error {
			var err error
			result, err = s.add(ctx, tx, change.Data)
			return err
		})
		if err != nil {
			return fmt.Errorf("storing document %q: %w", change.Data.Document.Name, err)
		}
		change.Result = result
		s.logger.Debug("document persisted",
			"name", change.Data.Document.Name,
			"dump_id", result.DocumentID,
			"new_words", len(result.WordIDs),
			"mappings", len(change.Data.Mappings),
		)
	case index.DocumentRemoved:
		err := s.inTx(ctx, "index-store-remove", func(tx *sql.Tx) error {
			return s.remove(ctx, tx, change.Data)
		})
		if err != nil {
			return fmt.Errorf("removing document %q: %w", change.Data.Document.Name, err)
		}
		s.logger.Debug("document deleted", "dump_id", change.Data.Document.ID)
	case index.IndexCleared:
		err := s.inTx(ctx, "index-store-clear", func(tx *sql.Tx) error {
			for _, table := range []string{"index_mappings", "index_words", "index_documents"} {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
					return fmt.Errorf("clearing %s: %w", table, err)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("clearing index store: %w", err)
		}
		s.logger.Info("index store cleared")
	}
	return nil
}

// inTx retries the whole transaction; a cancelled or expired context ends
// the retries.
func (s *Store) inTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	return resilience.Retry(ctx, name, s.retry, func() error {
		err := database.InTx(ctx, s.db, fn)
		if err != nil && ctx.Err() != nil {
			return resilience.Permanent(err)
		}
		return err
	})
}

func (s *Store) add(ctx context.Context, tx *sql.Tx, data *index.DumpedChange) (*index.IndexStorerResult, error) {
	doc := data.Document
	var docID int
	err := tx.QueryRowContext(ctx, s.dialect.Rebind(
		`INSERT INTO index_documents (name, title, type_tag, date_time) VALUES (?, ?, ?, ?) RETURNING id`),
		doc.Name, doc.Title, doc.TypeTag, doc.DateTime.UTC(),
	).Scan(&docID)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	result := &index.IndexStorerResult{
		DocumentID: docID,
		WordIDs:    make([]index.WordIDAssignment, 0, len(data.Words)),
	}
	wordIDs := make(map[int]int, len(data.Words))
	// Every word without a permanent ID is resolved by text, including
	// words created while an earlier store failed.
	for _, w := range data.Words {
		var id int
		err := tx.QueryRowContext(ctx, s.dialect.Rebind(
			`INSERT INTO index_words (text) VALUES (?)
			ON CONFLICT (text) DO UPDATE SET text = excluded.text
			RETURNING id`), w.Text).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("inserting word %q: %w", w.Text, err)
		}
		wordIDs[w.ID] = id
		result.WordIDs = append(result.WordIDs, index.WordIDAssignment{Text: w.Text, ID: id})
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.Rebind(
		`INSERT INTO index_mappings (word_id, document_id, first_char_index, word_index, location) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return nil, fmt.Errorf("preparing mapping insert: %w", err)
	}
	defer stmt.Close()
	for _, m := range data.Mappings {
		wordID := m.WordID
		if id, ok := wordIDs[m.WordID]; ok {
			wordID = id
		} else if wordID <= 0 {
			return nil, fmt.Errorf("mapping references unresolved word %d", wordID)
		}
		if _, err := stmt.ExecContext(ctx, wordID, docID, m.FirstCharIndex, m.WordIndex, int(m.Location)); err != nil {
			return nil, fmt.Errorf("inserting mapping for word %d: %w", wordID, err)
		}
	}
	return result, nil
}

// remove deletes a stored document. Documents and words with non-positive
// IDs were never stored and are skipped.
func (s *Store) remove(ctx context.Context, tx *sql.Tx, data *index.DumpedChange) error {
	docID := data.Document.ID
	if docID > 0 {
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM index_mappings WHERE document_id = ?`), docID); err != nil {
			return fmt.Errorf("deleting mappings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM index_documents WHERE id = ?`), docID); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
	}
	for _, w := range data.Words {
		if w.ID <= 0 {
			continue
		}
		_, err := tx.ExecContext(ctx, s.dialect.Rebind(
			`DELETE FROM index_words WHERE id = ? AND NOT EXISTS (SELECT 1 FROM index_mappings WHERE word_id = ?)`),
			w.ID, w.ID)
		if err != nil {
			return fmt.Errorf("deleting word %q: %w", w.Text, err)
		}
	}
	return nil
}

// Load reads the stored index as a dump suitable for
// Engine.InitializeData.
func (s *Store) Load(ctx context.Context) (index.Dump, error) {
	dump := index.Dump{
		Documents: make([]index.DumpedDocument, 0),
		Words:     make([]index.DumpedWord, 0),
		Mappings:  make([]index.DumpedWordMapping, 0),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, title, type_tag, date_time FROM index_documents ORDER BY id`)
	if err != nil {
		return dump, fmt.Errorf("querying documents: %w", err)
	}
	for rows.Next() {
		var d index.DumpedDocument
		var ts database.Timestamp
		if err := rows.Scan(&d.ID, &d.Name, &d.Title, &d.TypeTag, &ts); err != nil {
			rows.Close()
			return dump, fmt.Errorf("scanning document: %w", err)
		}
		d.DateTime = ts.Time
		dump.Documents = append(dump.Documents, d)
	}
	if err := closeRows(rows); err != nil {
		return dump, fmt.Errorf("reading documents: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT id, text FROM index_words ORDER BY id`)
	if err != nil {
		return dump, fmt.Errorf("querying words: %w", err)
	}
	for rows.Next() {
		var w index.DumpedWord
		if err := rows.Scan(&w.ID, &w.Text); err != nil {
			rows.Close()
			return dump, fmt.Errorf("scanning word: %w", err)
		}
		dump.Words = append(dump.Words, w)
	}
	if err := closeRows(rows); err != nil {
		return dump, fmt.Errorf("reading words: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT word_id, document_id, first_char_index, word_index, location
		FROM index_mappings
		ORDER BY word_id, document_id, first_char_index, word_index, location`)
	if err != nil {
		return dump, fmt.Errorf("querying mappings: %w", err)
	}
	for rows.Next() {
		var m index.DumpedWordMapping
		var location int
		if err := rows.Scan(&m.WordID, &m.DocumentID, &m.FirstCharIndex, &m.WordIndex, &location); err != nil {
			rows.Close()
			return dump, fmt.Errorf("scanning mapping: %w", err)
		}
		m.Location = byte(location)
		dump.Mappings = append(dump.Mappings, m)
	}
	if err := closeRows(rows); err != nil {
		return dump, fmt.Errorf("reading mappings: %w", err)
	}

	s.logger.Info("index store loaded",
		"documents", len(dump.Documents),
		"words", len(dump.Words),
		"mappings", len(dump.Mappings),
	)
	return dump, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
