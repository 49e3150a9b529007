package app

import (
	"context"

	"equipdata/domain/core"
	"equipdata/domain/upload"
	"equipdata/internal/errors"
	"equipdata/ports"
)

// HistoryService serves paginated upload history for one owner.
type HistoryService struct {
	history ports.HistoryRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(history ports.HistoryRepository) *HistoryService {
	return &HistoryService{history: history}
}

// List returns one page of the owner's history. Pagination bounds are
// checked before the store is touched.
func (s *HistoryService) List(ctx context.Context, ownerID core.UserID, limit, offset int) (*upload.Page, error) {
	if limit <= 0 {
		return nil, errors.InvalidPagination("limit must be a positive integer")
	}
	if offset < 0 {
		return nil, errors.InvalidPagination("offset must not be negative")
	}

	return s.history.ListByOwner(ctx, ownerID, limit, offset)
}
