package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/vectorstore/migrations"
	apperrors "github.com/kapu/roast-rag-go/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded, file-backed vector store. Queries are exact
// brute-force scans, which is fine for corpora of a few thousand rows.
type SQLiteStore struct {
	db       *sql.DB
	embedder Embedder
	logger   *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath, applies pragmas and
// runs migrations. embedder may be nil for stores that only hold precomputed vectors.
func NewSQLiteStore(dbPath string, embedder Embedder, logger *zap.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db, "sqlite", migrations.SQLiteDir); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite vector store opened", zap.String("path", dbPath))

	return &SQLiteStore{db: db, embedder: embedder, logger: logger}, nil
}

func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (s *SQLiteStore) Backend() string {
	return "sqlite"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Collection(name string, metric Metric) Collection {
	return &sqliteCollection{store: s, name: name, metric: metric}
}

type sqliteCollection struct {
	store  *SQLiteStore
	name   string
	metric Metric
}

func (c *sqliteCollection) Name() string {
	return c.name
}

func (c *sqliteCollection) Metric() Metric {
	return c.metric
}

func (c *sqliteCollection) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := embedMissing(ctx, c.store.embedder, records); err != nil {
		return apperrors.NewStoreError("embed records", c.name, "upsert", err)
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("begin transaction", c.name, "upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (collection, id, text, source, embedding, dimension, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			text = excluded.text,
			source = excluded.source,
			embedding = excluded.embedding,
			dimension = excluded.dimension
	`)
	if err != nil {
		return apperrors.NewStoreError("prepare upsert", c.name, "upsert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, c.name, r.ID, r.Text, r.Metadata.Source, PackEmbedding(r.Embedding), len(r.Embedding), now); err != nil {
			return apperrors.NewStoreError("insert record", c.name, "upsert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("commit", c.name, "upsert", err)
	}
	return nil
}

func (c *sqliteCollection) QueryText(ctx context.Context, text string, k int) ([]domain.Match, error) {
	if c.store.embedder == nil {
		return nil, apperrors.NewStoreError("text query", c.name, "query", ErrNoEmbedder)
	}
	vec, err := c.store.embedder.Embed(ctx, text)
	if err != nil {
		return nil, apperrors.NewStoreError("embed query", c.name, "query", err)
	}
	return c.QueryEmbedding(ctx, vec, k)
}

func (c *sqliteCollection) QueryEmbedding(ctx context.Context, embedding []float32, k int) ([]domain.Match, error) {
	if k <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, text, source, embedding FROM entries
		WHERE collection = ? AND dimension = ?
	`, c.name, len(embedding))
	if err != nil {
		return nil, apperrors.NewStoreError("scan entries", c.name, "query", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var (
			m    domain.Match
			blob []byte
		)
		if err := rows.Scan(&m.ID, &m.Text, &m.Metadata.Source, &blob); err != nil {
			return nil, apperrors.NewStoreError("scan row", c.name, "query", err)
		}
		stored, err := UnpackEmbedding(blob)
		if err != nil {
			c.store.logger.Warn("Skipping corrupt embedding", zap.String("collection", c.name), zap.String("id", m.ID), zap.Error(err))
			continue
		}
		m.Distance = c.metric.Distance(embedding, stored)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("iterate rows", c.name, "query", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (c *sqliteCollection) Count(ctx context.Context) (int, error) {
	var count int
	err := c.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries WHERE collection = ?", c.name).Scan(&count)
	if err != nil {
		return 0, apperrors.NewStoreError("count entries", c.name, "count", err)
	}
	return count, nil
}

func (c *sqliteCollection) Reset(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM entries WHERE collection = ?", c.name); err != nil {
		return apperrors.NewStoreError("delete entries", c.name, "reset", err)
	}
	return nil
}
