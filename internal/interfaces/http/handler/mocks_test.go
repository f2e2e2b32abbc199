package handler

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	integrationapp "github.com/skuswap/backend/internal/application/integration"
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

// recordingProcessor remembers the payloads it was asked to process
type recordingProcessor struct {
	mu          sync.Mutex
	payloads    [][]byte
	deliveryIDs []string
	ctxErrs     []error
	onProcess   func()
}

func (p *recordingProcessor) ProcessOrderWebhook(ctx context.Context, deliveryID string, payload []byte) integrationapp.ProcessingOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.onProcess != nil {
		p.onProcess()
	}
	p.payloads = append(p.payloads, payload)
	p.deliveryIDs = append(p.deliveryIDs, deliveryID)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return integrationapp.ProcessingOutcome{Status: integration.ProcessingStatusSuccess}
}

func (p *recordingProcessor) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

// asyncSubmitter runs each task on its own goroutine, or refuses them when err is set
type asyncSubmitter struct {
	err   error
	names []string
	wg    sync.WaitGroup
}

func (s *asyncSubmitter) Submit(ctx context.Context, name string, task integrationapp.Task) error {
	if s.err != nil {
		return s.err
	}
	s.names = append(s.names, name)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		task(ctx)
	}()
	return nil
}

func (s *asyncSubmitter) wait() {
	s.wg.Wait()
}
