package services

import (
	"context"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of repository.Repository for testing
type MockRepository[T any] struct {
	mock.Mock
}

func (m *MockRepository[T]) Create(ctx context.Context, record *T) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	record, ok := args.Get(0).(*T)
	if !ok {
		return nil, args.Error(1)
	}
	return record, args.Error(1)
}

func (m *MockRepository[T]) List(ctx context.Context, filter repository.Filter) ([]T, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	records, ok := args.Get(0).([]T)
	if !ok {
		return nil, args.Error(1)
	}
	return records, args.Error(1)
}

func (m *MockRepository[T]) Update(ctx context.Context, record *T) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBillRepository adds the bill-specific queries.
type MockBillRepository struct {
	MockRepository[models.Bill]
}

func (m *MockBillRepository) ExistsForPeriod(ctx context.Context, tenantID, period string) (bool, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Bool(0), args.Error(1)
}

func (m *MockBillRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

// inlineTransactor runs fn directly without a database.
type inlineTransactor struct{}

func (inlineTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fixedClock pins the service clock.
func fixedClock(t time.Time) Settings {
	s := DefaultSettings()
	s.Now = func() time.Time { return t }
	return s
}
