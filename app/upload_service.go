package app

import (
	"context"
	"io"

	"equipdata/domain/core"
	"equipdata/domain/upload"
	"equipdata/internal"
	"equipdata/internal/errors"
	"equipdata/internal/ingest"
	"equipdata/internal/metrics"
	"equipdata/ports"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	ID       core.UserID
	Username string
}

// UploadService runs one upload end to end: validate the file, aggregate it,
// persist the record. Both the web and the desktop upload endpoints share
// this path; the origin is metadata only and never changes behavior.
type UploadService struct {
	validator *ingest.Validator
	history   ports.HistoryRepository
	log       *internal.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(validator *ingest.Validator, history ports.HistoryRepository, logger *internal.Logger) *UploadService {
	return &UploadService{validator: validator, history: history, log: logger}
}

// HandleUpload moves one upload through Received -> Validated -> Persisted.
// A failure before Persisted leaves the history store untouched; no partial
// record is ever visible.
func (s *UploadService) HandleUpload(ctx context.Context, owner Identity, filename string, file io.Reader) (*upload.Record, error) {
	if filename == "" || file == nil {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, errors.NoFileProvided()
	}

	agg, err := s.validator.Validate(filename, file)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		s.log.Info("upload %q from %s rejected: %v", filename, owner.Username, err)
		return nil, err
	}

	record, err := s.history.Append(ctx, owner.ID, filename, *agg)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.log.Error("upload %q from %s failed to persist: %v", filename, owner.Username, err)
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	metrics.UploadRowsTotal.Add(float64(record.TotalRows))
	s.log.Info("upload %q from %s persisted as record %s (%d rows)", filename, owner.Username, record.ID, record.TotalRows)
	return record, nil
}
