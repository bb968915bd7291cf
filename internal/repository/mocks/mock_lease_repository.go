package mocks

import (
	"context"

	"bms/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockLeaseRepository struct {
	mock.Mock
}

func (m *MockLeaseRepository) LatestForTenant(ctx context.Context, tenantID string) (*model.Lease, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lease), args.Error(1)
}

func (m *MockLeaseRepository) Create(ctx context.Context, lease *model.Lease) (*model.Lease, error) {
	args := m.Called(ctx, lease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Lease), args.Error(1)
}

type MockDocumentTypeRepository struct {
	mock.Mock
}

func (m *MockDocumentTypeRepository) List(ctx context.Context) ([]model.DocumentType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentType), args.Error(1)
}

func (m *MockDocumentTypeRepository) Create(ctx context.Context, dt *model.DocumentType) (*model.DocumentType, error) {
	args := m.Called(ctx, dt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentType), args.Error(1)
}
