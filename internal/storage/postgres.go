package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the part of *pgxpool.Pool the backend needs.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresBackend keeps one row per stream in clinic_snapshots.
type PostgresBackend struct {
	pool PgxPool
}

func NewPostgresBackend(pool PgxPool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) Read(ctx context.Context, stream Stream) ([]byte, bool, error) {
	var payload []byte
	err := b.pool.QueryRow(ctx, `
		SELECT payload
		FROM clinic_snapshots
		WHERE name = $1
	`, string(stream)).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", stream, err)
	}
	return payload, true, nil
}

// Write upserts every stream in a single transaction.
func (b *PostgresBackend) Write(ctx context.Context, docs []Document) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, doc := range docs {
		_, err := tx.Exec(ctx, `
			INSERT INTO clinic_snapshots (name, payload, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE
			SET payload = EXCLUDED.payload,
			    updated_at = now()
		`, string(doc.Stream), doc.Payload)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", doc.Stream, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
