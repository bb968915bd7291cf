package mocks

import (
	"context"

	"bms/internal/model"
	"bms/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, q service.ListQuery) ([]model.Document, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Approve(ctx context.Context, landlordID, documentID string) (*model.Document, error) {
	args := m.Called(ctx, landlordID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Reject(ctx context.Context, landlordID, documentID, reason string) (*model.Document, error) {
	args := m.Called(ctx, landlordID, documentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, callerID, filePath string) (string, error) {
	args := m.Called(ctx, callerID, filePath)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, tenantID, documentID string) error {
	args := m.Called(ctx, tenantID, documentID)
	return args.Error(0)
}

func (m *MockDocumentService) ListTypes(ctx context.Context) ([]model.DocumentType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentType), args.Error(1)
}
