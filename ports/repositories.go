// Package ports defines the interfaces between application services and
// their storage adapters.
package ports

import (
	"context"

	"equipdata/domain/core"
	"equipdata/domain/upload"
	"equipdata/models"
)

// HistoryRepository persists one record per successful ingestion and serves
// ordered, paginated retrieval scoped to an owner. There are no update or
// delete operations; uploads are historical facts.
type HistoryRepository interface {
	// Append creates a new record with a storage-assigned id and timestamp.
	// The insert is atomic: on failure the store is left unchanged.
	Append(ctx context.Context, ownerID core.UserID, name string, agg upload.Aggregate) (*upload.Record, error)

	// ListByOwner returns the owner's records ordered by uploaded_at
	// descending, ties broken by descending id. Count covers all records
	// for the owner regardless of limit/offset.
	ListByOwner(ctx context.Context, ownerID core.UserID, limit, offset int) (*upload.Page, error)
}

// UserRepository stores registered accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id core.UserID) (*models.User, error)
}
