package postgres

import (
	"context"

	"equipdata/domain/core"
	"equipdata/domain/upload"
	"equipdata/internal/errors"
	"equipdata/ports"

	"github.com/jmoiron/sqlx"
)

// HistoryRepositoryImpl implements HistoryRepository for PostgreSQL.
// Records are append-only; the table has no update path.
type HistoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(db *sqlx.DB) ports.HistoryRepository {
	return &HistoryRepositoryImpl{db: db}
}

// Append inserts one record. The id comes from the uploads sequence and the
// timestamp from the database clock, so concurrent appends for the same
// owner can never collide or lose a record.
func (r *HistoryRepositoryImpl) Append(ctx context.Context, ownerID core.UserID, name string, agg upload.Aggregate) (*upload.Record, error) {
	record := upload.Record{
		Name:         name,
		OwnerID:      ownerID,
		TotalRows:    agg.TotalRows,
		AvgFlowRate:  agg.AvgFlowRate,
		AvgPressure:  agg.AvgPressure,
		Distribution: agg.Distribution,
	}

	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO uploads (owner_id, name, total_rows, avg_flow_rate, avg_pressure, equipment_distribution)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, uploaded_at, (SELECT username FROM users WHERE id = $1)
	`, ownerID, name, agg.TotalRows, agg.AvgFlowRate, agg.AvgPressure, agg.Distribution).
		Scan(&record.ID, &record.UploadedAt, &record.UploadedBy)

	if err != nil {
		return nil, errors.DatabaseError("failed to persist upload record", err)
	}

	return &record, nil
}

// ListByOwner returns one page of the owner's history, newest first.
func (r *HistoryRepositoryImpl) ListByOwner(ctx context.Context, ownerID core.UserID, limit, offset int) (*upload.Page, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM uploads WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return nil, errors.DatabaseError("failed to count upload records", err)
	}

	results := make([]upload.Record, 0, limit)
	err = r.db.SelectContext(ctx, &results, `
		SELECT u.id, u.name, u.owner_id, us.username AS uploaded_by, u.uploaded_at,
		       u.total_rows, u.avg_flow_rate, u.avg_pressure, u.equipment_distribution
		FROM uploads u
		JOIN users us ON us.id = u.owner_id
		WHERE u.owner_id = $1
		ORDER BY u.uploaded_at DESC, u.id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, errors.DatabaseError("failed to list upload records", err)
	}

	return &upload.Page{
		Count:   count,
		Limit:   limit,
		Offset:  offset,
		Results: results,
	}, nil
}
