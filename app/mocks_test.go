package app

import (
	"context"

	"equipdata/domain/core"
	"equipdata/domain/upload"
	"equipdata/models"

	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, ownerID core.UserID, name string, agg upload.Aggregate) (*upload.Record, error) {
	args := m.Called(ctx, ownerID, name, agg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.Record), args.Error(1)
}

func (m *MockHistoryRepository) ListByOwner(ctx context.Context, ownerID core.UserID, limit, offset int) (*upload.Page, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.Page), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id core.UserID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
