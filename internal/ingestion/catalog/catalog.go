// Package catalog records corpus documents in PostgreSQL and tracks their
// way through the pipeline: PENDING when published, then INDEXED with the
// assigned document id, or FAILED.
package catalog

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           BIGSERIAL PRIMARY KEY,
	source       TEXT UNIQUE,
	label        TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	content_size INTEGER NOT NULL,
	status       TEXT NOT NULL DEFAULT 'PENDING',
	doc_id       INTEGER,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	indexed_at   TIMESTAMPTZ
)`

type Catalog struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Catalog {
	return &Catalog{
		db:     db,
		logger: slog.Default().With("component", "catalog"),
	}
}

// EnsureSchema creates the documents table when it does not exist.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// Record inserts doc as PENDING and returns its catalog id. A document
// whose source is already cataloged yields ErrDocumentExists.
func (c *Catalog) Record(ctx context.Context, doc ingestion.Document) (int64, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(doc.Text)))
	var id int64
	err := c.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO documents (source, label, content_hash, content_size, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source) DO NOTHING
		RETURNING id`, nullableString(doc.Source), doc.Label, hash, len(doc.Text), ingestion.StatusPending).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.Newf(apperrors.ErrDocumentExists, http.StatusConflict, "source %q already cataloged", doc.Source)
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("recording document: %w", err)
	}
	return id, nil
}

// MarkIndexed stores the document id the indexer assigned.
func (c *Catalog) MarkIndexed(ctx context.Context, catalogID int64, docID index.DocID) error {
	return c.update(ctx, catalogID,
		`UPDATE documents SET status = $2, doc_id = $3, error = NULL, indexed_at = NOW() WHERE id = $1`,
		ingestion.StatusIndexed, int(docID))
}

func (c *Catalog) MarkFailed(ctx context.Context, catalogID int64, reason error) error {
	return c.update(ctx, catalogID,
		`UPDATE documents SET status = $2, error = $3 WHERE id = $1`,
		ingestion.StatusFailed, reason.Error())
}

// StatusCounts returns the number of documents per status.
func (c *Catalog) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := c.db.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (c *Catalog) update(ctx context.Context, catalogID int64, query string, args ...any) error {
	res, err := c.db.DB.ExecContext(ctx, query, append([]any{catalogID}, args...)...)
	if err != nil {
		return fmt.Errorf("updating document %d: %w", catalogID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating document %d: %w", catalogID, apperrors.ErrDocumentNotFound)
	}
	c.logger.Debug("catalog updated", "catalog_id", catalogID, "status", args[0])
	return nil
}

// nullableString converts a Go string to a sql.NullString, treating the
// empty string as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
