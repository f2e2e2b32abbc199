package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuswap/backend/internal/domain/integration"
)

func TestProcessingLogService_ListRecent_Limits(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		requested int
		want      int
	}{
		{0, DefaultLogLimit},
		{-5, DefaultLogLimit},
		{25, 25},
		{10000, MaxLogLimit},
	}

	for _, tt := range tests {
		repo := new(MockProcessingLogRepository)
		repo.On("FindRecent", ctx, integration.ProcessingLogFilter{Limit: tt.want}).
			Return([]integration.ProcessingLog{}, nil)

		logs, err := NewProcessingLogService(repo).ListRecent(ctx, tt.requested, "")
		require.NoError(t, err)
		assert.NotNil(t, logs)
		repo.AssertExpectations(t)
	}
}

func TestProcessingLogService_ListRecent_Status(t *testing.T) {
	ctx := context.Background()
	entry, err := integration.NewProcessingLog("1001", "#1001", integration.ProcessingStatusError,
		integration.MessageUpdateFailed, nil, "boom")
	require.NoError(t, err)

	repo := new(MockProcessingLogRepository)
	repo.On("FindRecent", ctx, integration.ProcessingLogFilter{Status: integration.ProcessingStatusError, Limit: DefaultLogLimit}).
		Return([]integration.ProcessingLog{*entry}, nil)
	svc := NewProcessingLogService(repo)

	logs, err := svc.ListRecent(ctx, 0, integration.ProcessingStatusError)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "boom", logs[0].ErrorDetails)
	assert.NotNil(t, logs[0].Replacements)

	_, err = svc.ListRecent(ctx, 0, "pending")
	assert.Equal(t, "INVALID_INPUT", domainCode(t, err))
}

func TestProcessingLogService_ListByOrder(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProcessingLogRepository)
	repo.On("FindByOrderID", ctx, "1001").Return([]integration.ProcessingLog{}, nil)
	svc := NewProcessingLogService(repo)

	logs, err := svc.ListByOrder(ctx, " 1001 ")
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = svc.ListByOrder(ctx, "  ")
	assert.Equal(t, "INVALID_INPUT", domainCode(t, err))
}
