package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/skuswap/backend/internal/domain/integration"
)

// MockSkuMappingRepository is a mock implementation of SkuMappingRepository
type MockSkuMappingRepository struct {
	mock.Mock
}

func (m *MockSkuMappingRepository) FindActive(ctx context.Context) ([]integration.SkuMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SkuMapping), args.Error(1)
}

func (m *MockSkuMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SkuMapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SkuMapping), args.Error(1)
}

func (m *MockSkuMappingRepository) FindByOriginalSku(ctx context.Context, originalSku string) (*integration.SkuMapping, error) {
	args := m.Called(ctx, originalSku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SkuMapping), args.Error(1)
}

func (m *MockSkuMappingRepository) FindAll(ctx context.Context, filter integration.SkuMappingFilter) ([]integration.SkuMapping, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SkuMapping), args.Error(1)
}

func (m *MockSkuMappingRepository) ExistsByOriginalSku(ctx context.Context, originalSku string) (bool, error) {
	args := m.Called(ctx, originalSku)
	return args.Bool(0), args.Error(1)
}

func (m *MockSkuMappingRepository) Save(ctx context.Context, mapping *integration.SkuMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockSkuMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProcessingLogRepository is a mock implementation of ProcessingLogRepository
type MockProcessingLogRepository struct {
	mock.Mock
}

func (m *MockProcessingLogRepository) Save(ctx context.Context, log *integration.ProcessingLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockProcessingLogRepository) FindRecent(ctx context.Context, filter integration.ProcessingLogFilter) ([]integration.ProcessingLog, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProcessingLog), args.Error(1)
}

func (m *MockProcessingLogRepository) FindByOrderID(ctx context.Context, orderID string) ([]integration.ProcessingLog, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProcessingLog), args.Error(1)
}

// MockOrderEditor is a mock implementation of OrderEditor
type MockOrderEditor struct {
	mock.Mock
}

func (m *MockOrderEditor) ApplyLineItemEdit(ctx context.Context, req integration.OrderEditRequest) (*integration.OrderEditResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.OrderEditResult), args.Error(1)
}

// recordingLocker counts acquisitions and releases
type recordingLocker struct {
	mu       sync.Mutex
	err      error
	acquired []integration.PlatformID
	released int
}

func (l *recordingLocker) Acquire(_ context.Context, orderID integration.PlatformID, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.acquired = append(l.acquired, orderID)
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

// failingDeliveryStore fails every MarkProcessed call
type failingDeliveryStore struct {
	err error
}

func (s *failingDeliveryStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, s.err
}

func (s *failingDeliveryStore) Close() error { return nil }
