package vectorstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kapu/roast-rag-go/internal/domain"
	"github.com/kapu/roast-rag-go/internal/vectorstore/migrations"
	apperrors "github.com/kapu/roast-rag-go/pkg/errors"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// PostgresStore keeps collections in one pgvector table and lets the database
// rank neighbours.
type PostgresStore struct {
	db       *sql.DB
	embedder Embedder
	logger   *zap.Logger
}

// NewPostgresStore runs migrations on an already opened connection. The caller
// owns db and closes it.
func NewPostgresStore(db *sql.DB, embedder Embedder, logger *zap.Logger) (*PostgresStore, error) {
	if err := RunMigrations(db, "postgres", migrations.PostgresDir); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, embedder: embedder, logger: logger}, nil
}

func (s *PostgresStore) Backend() string {
	return "postgres"
}

func (s *PostgresStore) Close() error {
	return nil
}

func (s *PostgresStore) Collection(name string, metric Metric) Collection {
	return &postgresCollection{store: s, name: name, metric: metric}
}

type postgresCollection struct {
	store  *PostgresStore
	name   string
	metric Metric
}

func (c *postgresCollection) Name() string {
	return c.name
}

func (c *postgresCollection) Metric() Metric {
	return c.metric
}

// operator maps the metric to its pgvector distance operator.
func (c *postgresCollection) operator() string {
	if c.metric == MetricL2 {
		return "<->"
	}
	return "<=>"
}

func (c *postgresCollection) Upsert(ctx context.Context, records []Record) error {
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
		INSERT INTO roast_entries (collection, id, text, source, embedding, dimension)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, id) DO UPDATE SET
			text = EXCLUDED.text,
			source = EXCLUDED.source,
			embedding = EXCLUDED.embedding,
			dimension = EXCLUDED.dimension
	`)
	if err != nil {
		return apperrors.NewStoreError("prepare upsert", c.name, "upsert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, c.name, r.ID, r.Text, r.Metadata.Source, pgvector.NewVector(r.Embedding), len(r.Embedding)); err != nil {
			return apperrors.NewStoreError("insert record", c.name, "upsert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("commit", c.name, "upsert", err)
	}
	return nil
}

func (c *postgresCollection) QueryText(ctx context.Context, text string, k int) ([]domain.Match, error) {
	if c.store.embedder == nil {
		return nil, apperrors.NewStoreError("text query", c.name, "query", ErrNoEmbedder)
	}
	vec, err := c.store.embedder.Embed(ctx, text)
	if err != nil {
		return nil, apperrors.NewStoreError("embed query", c.name, "query", err)
	}
	return c.QueryEmbedding(ctx, vec, k)
}

func (c *postgresCollection) QueryEmbedding(ctx context.Context, embedding []float32, k int) ([]domain.Match, error) {
	if k <= 0 || len(embedding) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, text, source, embedding %s $1 AS distance
		FROM roast_entries
		WHERE collection = $2 AND dimension = $3
		ORDER BY distance
		LIMIT $4
	`, c.operator())

	rows, err := c.store.db.QueryContext(ctx, query, pgvector.NewVector(embedding), c.name, len(embedding), k)
	if err != nil {
		return nil, apperrors.NewStoreError("vector search", c.name, "query", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Metadata.Source, &m.Distance); err != nil {
			return nil, apperrors.NewStoreError("scan row", c.name, "query", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("iterate rows", c.name, "query", err)
	}
	return matches, nil
}

func (c *postgresCollection) Count(ctx context.Context) (int, error) {
	var count int
	err := c.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roast_entries WHERE collection = $1", c.name).Scan(&count)
	if err != nil {
		return 0, apperrors.NewStoreError("count entries", c.name, "count", err)
	}
	return count, nil
}

func (c *postgresCollection) Reset(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM roast_entries WHERE collection = $1", c.name); err != nil {
		return apperrors.NewStoreError("delete entries", c.name, "reset", err)
	}
	return nil
}
