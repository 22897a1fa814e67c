package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/legalflow/internal/model"
)

// MockRepository is a mock of storage.Repository.
type MockRepository struct {
	mock.Mock
}

// CreateDocument provides a mock function with given fields: ctx, d
func (_m *MockRepository) CreateDocument(ctx context.Context, d model.Document) error {
	ret := _m.Called(ctx, d)

	if rf, ok := ret.Get(0).(func(context.Context, model.Document) error); ok {
		return rf(ctx, d)
	}

	return ret.Error(0)
}

// GetDocument provides a mock function with given fields: ctx, id
func (_m *MockRepository) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.Document
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Document)
	}

	return r0, ret.Error(1)
}

// ListDocuments provides a mock function with given fields: ctx
func (_m *MockRepository) ListDocuments(ctx context.Context) ([]model.Document, error) {
	ret := _m.Called(ctx)

	var r0 []model.Document
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Document)
	}

	return r0, ret.Error(1)
}

// UpdateDocument provides a mock function with given fields: ctx, d
func (_m *MockRepository) UpdateDocument(ctx context.Context, d model.Document) error {
	ret := _m.Called(ctx, d)
	return ret.Error(0)
}

// DeleteDocument provides a mock function with given fields: ctx, id
func (_m *MockRepository) DeleteDocument(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// CreateAnalysis provides a mock function with given fields: ctx, a
func (_m *MockRepository) CreateAnalysis(ctx context.Context, a model.Analysis) error {
	ret := _m.Called(ctx, a)

	if rf, ok := ret.Get(0).(func(context.Context, model.Analysis) error); ok {
		return rf(ctx, a)
	}

	return ret.Error(0)
}

// ListAnalyses provides a mock function with given fields: ctx, documentID
func (_m *MockRepository) ListAnalyses(ctx context.Context, documentID string) ([]model.Analysis, error) {
	ret := _m.Called(ctx, documentID)

	var r0 []model.Analysis
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Analysis)
	}

	return r0, ret.Error(1)
}
