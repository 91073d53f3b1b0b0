package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"AwardScanner/internal/domain"
	"AwardScanner/internal/ports"
)

// PostgresRepository persists finished payloads into Postgres so callers can
// keep history; the extraction core never reads them back.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.SnapshotRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveSnapshot upserts the award snapshot payload keyed by query.
func (r *PostgresRepository) SaveSnapshot(ctx context.Context, snapshot domain.AwardSnapshot) error {
	return r.upsert(ctx, "award_snapshots", snapshot.Query, snapshot)
}

// SaveIntel upserts the competitor-intel payload keyed by query.
func (r *PostgresRepository) SaveIntel(ctx context.Context, query string, intel domain.CompetitorIntel) error {
	return r.upsert(ctx, "competitor_intel", query, intel)
}

func (r *PostgresRepository) upsert(ctx context.Context, table, query string, payload any) error {
	if r.db == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	stmt, args, err := r.builder.
		Insert(table).
		Columns("query", "payload").
		Values(query, raw).
		Suffix("ON CONFLICT (query) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}
