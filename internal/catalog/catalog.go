// Package catalog persists processed-document metadata and answer-service
// interactions in PostgreSQL. The object store holds the payload bytes; the
// catalog is the queryable index over them.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/policydocs/harvester/internal/harvest"
	"github.com/policydocs/harvester/pkg/postgres"
)

// Catalog wraps the database client with document and interaction queries.
type Catalog struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Catalog over an established database connection.
func New(db *postgres.Client) *Catalog {
	return &Catalog{
		db:     db,
		logger: slog.Default().With("component", "catalog"),
	}
}

// EnsureSchema creates the catalog tables when they do not exist yet.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	_, err := c.db.DB.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("ensuring catalog schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            BIGSERIAL PRIMARY KEY,
	original_url  TEXT        NOT NULL,
	filename      TEXT        NOT NULL,
	link_text     TEXT        NOT NULL DEFAULT '',
	section       TEXT        NOT NULL,
	storage_key   TEXT        NOT NULL UNIQUE,
	size_bytes    BIGINT      NOT NULL,
	content_type  TEXT        NOT NULL DEFAULT '',
	processed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS documents_section_idx ON documents (section);

CREATE TABLE IF NOT EXISTS interactions (
	id          BIGSERIAL PRIMARY KEY,
	session_id  TEXT        NOT NULL,
	user_id     TEXT        NOT NULL DEFAULT 'anonymous',
	kind        TEXT        NOT NULL,
	query       TEXT        NOT NULL,
	response    TEXT        NOT NULL DEFAULT '',
	feedback    TEXT        NOT NULL DEFAULT '',
	source_count INTEGER    NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS interactions_session_idx ON interactions (session_id);
`

// RecordDocument upserts a processed document keyed by its storage key, so a
// re-harvest of the same document overwrites rather than duplicates.
func (c *Catalog) RecordDocument(ctx context.Context, doc harvest.ProcessedDocument) error {
	err := c.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (original_url, filename, link_text, section, storage_key, size_bytes, content_type, processed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (storage_key) DO UPDATE SET
			   original_url = EXCLUDED.original_url,
			   filename     = EXCLUDED.filename,
			   link_text    = EXCLUDED.link_text,
			   section      = EXCLUDED.section,
			   size_bytes   = EXCLUDED.size_bytes,
			   content_type = EXCLUDED.content_type,
			   processed_at = EXCLUDED.processed_at`,
			doc.OriginalURL, doc.Filename, doc.LinkText, doc.Section,
			doc.StorageKey, doc.SizeBytes, doc.ContentType, doc.ProcessedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording document %s: %w", doc.StorageKey, err)
	}
	return nil
}

// ListDocuments returns catalog rows, newest first, optionally filtered by
// section.
func (c *Catalog) ListDocuments(ctx context.Context, section string, limit int) ([]harvest.ProcessedDocument, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT original_url, filename, link_text, section, storage_key, size_bytes, content_type, processed_at
	          FROM documents`
	args := []any{}
	if section != "" {
		query += ` WHERE section = $1`
		args = append(args, section)
	}
	query += fmt.Sprintf(` ORDER BY processed_at DESC LIMIT %d`, limit)

	rows, err := c.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []harvest.ProcessedDocument
	for rows.Next() {
		var d harvest.ProcessedDocument
		if err := rows.Scan(&d.OriginalURL, &d.Filename, &d.LinkText, &d.Section,
			&d.StorageKey, &d.SizeBytes, &d.ContentType, &d.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Interaction is one logged answer-service exchange.
type Interaction struct {
	SessionID   string
	UserID      string
	Kind        string
	Query       string
	Response    string
	Feedback    string
	SourceCount int
}

// RecordInteraction appends a query or feedback interaction to the log.
// Logging failures are reported but should not fail the user-visible request.
func (c *Catalog) RecordInteraction(ctx context.Context, in Interaction) error {
	if in.UserID == "" {
		in.UserID = "anonymous"
	}
	_, err := c.db.DB.ExecContext(ctx,
		`INSERT INTO interactions (session_id, user_id, kind, query, response, feedback, source_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		in.SessionID, in.UserID, in.Kind, in.Query, in.Response, in.Feedback,
		in.SourceCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording interaction for session %s: %w", in.SessionID, err)
	}
	return nil
}
