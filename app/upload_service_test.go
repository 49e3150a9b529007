package app

import (
	"context"
	"strings"
	"testing"

	"equipdata/domain/core"
	"equipdata/domain/upload"
	"equipdata/internal"
	"equipdata/internal/errors"
	"equipdata/internal/ingest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validCSV = `Type,FlowRate,Pressure,Temperature
Pump,45.2,100.5,25.3
Valve,32.1,98.2,24.8
`

func newUploadService(history *MockHistoryRepository) *UploadService {
	return NewUploadService(ingest.NewValidator(), history, internal.NewLogger(internal.LogLevelError))
}

// TestHandleUploadSuccess runs a valid upload end to end against a mocked
// store.
func TestHandleUploadSuccess(t *testing.T) {
	owner := Identity{ID: core.NewUserID(), Username: "operator"}
	history := new(MockHistoryRepository)

	stored := &upload.Record{
		ID:           1,
		Name:         "equipment.csv",
		OwnerID:      owner.ID,
		UploadedBy:   owner.Username,
		TotalRows:    2,
		AvgFlowRate:  38.65,
		AvgPressure:  99.35,
		Distribution: upload.Distribution{"Pump": 1, "Valve": 1},
	}
	history.On("Append", mock.Anything, owner.ID, "equipment.csv", mock.MatchedBy(func(agg upload.Aggregate) bool {
		return agg.TotalRows == 2 && agg.Distribution["Pump"] == 1 && agg.Distribution["Valve"] == 1
	})).Return(stored, nil)

	svc := newUploadService(history)
	record, err := svc.HandleUpload(context.Background(), owner, "equipment.csv", strings.NewReader(validCSV))
	require.NoError(t, err)

	assert.Equal(t, core.UploadID(1), record.ID)
	assert.Equal(t, owner.Username, record.UploadedBy)
	history.AssertExpectations(t)
}

// TestHandleUploadValidationFailureSkipsStore asserts a rejected file never
// reaches the store.
func TestHandleUploadValidationFailureSkipsStore(t *testing.T) {
	owner := Identity{ID: core.NewUserID(), Username: "operator"}
	history := new(MockHistoryRepository)

	svc := newUploadService(history)
	_, err := svc.HandleUpload(context.Background(), owner, "readings.txt", strings.NewReader(validCSV))
	require.Error(t, err)

	assert.Equal(t, errors.CodeUnsupportedFormat, errors.GetCode(err))
	history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestHandleUploadNoFile covers the missing-file edge.
func TestHandleUploadNoFile(t *testing.T) {
	owner := Identity{ID: core.NewUserID(), Username: "operator"}
	history := new(MockHistoryRepository)
	svc := newUploadService(history)

	_, err := svc.HandleUpload(context.Background(), owner, "", strings.NewReader(validCSV))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoFileProvided, errors.GetCode(err))

	_, err = svc.HandleUpload(context.Background(), owner, "equipment.csv", nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoFileProvided, errors.GetCode(err))

	history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestHandleUploadPersistenceFailure propagates the store error unchanged.
func TestHandleUploadPersistenceFailure(t *testing.T) {
	owner := Identity{ID: core.NewUserID(), Username: "operator"}
	history := new(MockHistoryRepository)
	history.On("Append", mock.Anything, owner.ID, "equipment.csv", mock.Anything).
		Return(nil, errors.DatabaseError("insert failed", nil))

	svc := newUploadService(history)
	_, err := svc.HandleUpload(context.Background(), owner, "equipment.csv", strings.NewReader(validCSV))
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}
