// Package postgres implements the lead store on a Postgres database with the
// documents(id, storage_path, owner) and leads(email, document_id) tables.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           UUID PRIMARY KEY,
	storage_path TEXT NOT NULL,
	owner        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	email       TEXT NOT NULL,
	document_id UUID NOT NULL REFERENCES documents(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS leads_document_id_idx ON leads (document_id);
`

// Config holds connection settings for the pool.
type Config struct {
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// Store is a lead store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates a pgx pool for cfg.DSN.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: DSN must be provided")
	}
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "leadflow"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Connected to Postgres.", "maxConns", pc.MaxConns)
	return &Store{pool: pool}, nil
}

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InsertDocument inserts one documents row.
func (s *Store) InsertDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, storage_path, owner, created_at) VALUES ($1, $2, $3, $4)`,
		doc.ID, doc.StoragePath, doc.Owner, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
	}
	return nil
}

// InsertLeads copies all leads in one COPY statement, so either every row lands or none does.
func (s *Store) InsertLeads(ctx context.Context, leads []models.Lead) error {
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"leads"},
		[]string{"email", "document_id", "created_at"},
		pgx.CopyFromSlice(len(leads), func(i int) ([]any, error) {
			documentID, err := uuid.Parse(leads[i].DocumentID)
			if err != nil {
				return nil, fmt.Errorf("lead %d: invalid document id: %w", i, err)
			}
			return []any{leads[i].Email, pgtype.UUID{Bytes: documentID, Valid: true}, leads[i].CreatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %d leads: %w", len(leads), err)
	}
	return nil
}

// GetDocument loads one document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, models.ErrDocumentNotFound
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text AS id, storage_path, owner, created_at FROM documents WHERE id = $1`,
		pgtype.UUID{Bytes: key, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("failed to query document %s: %w", id, err)
	}
	doc, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Document])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return doc, nil
}

// ListLeads returns every lead recorded for documentID, oldest first. An id
// that is not a UUID has no leads.
func (s *Store) ListLeads(ctx context.Context, documentID string) ([]models.Lead, error) {
	key, err := uuid.Parse(documentID)
	if err != nil {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT email, document_id::text AS document_id, created_at FROM leads
		 WHERE document_id = $1 ORDER BY created_at, email`,
		pgtype.UUID{Bytes: key, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("failed to query leads for %s: %w", documentID, err)
	}
	leads, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Lead])
	if err != nil {
		return nil, fmt.Errorf("failed to read leads for %s: %w", documentID, err)
	}
	return leads, nil
}
