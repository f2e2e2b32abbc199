package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skuswap/backend/internal/domain/integration"
)

func testOrder() *integration.IncomingOrder {
	return &integration.IncomingOrder{
		ID:   "1001",
		Name: "#1001",
		Tags: "free sample",
		LineItems: []integration.LineItem{
			{ID: "10", SKU: "A", ProductID: "100", VariantID: "200", Quantity: 2},
			{ID: "11", SKU: "B", ProductID: "101", VariantID: "201", Quantity: 1},
			{ID: "12", SKU: "C", ProductID: "102", VariantID: "", Quantity: 1},
		},
	}
}

func testPlan(ids ...integration.PlatformID) *integration.ReplacementPlan {
	plan := &integration.ReplacementPlan{}
	for _, id := range ids {
		plan.Replacements = append(plan.Replacements, integration.Replacement{
			LineItemID:     id,
			OriginalSku:    "SKU-" + id.String(),
			ReplacementSku: "NEW-" + id.String(),
		})
	}
	return plan
}

func TestOrderMutator_Apply(t *testing.T) {
	editor := new(MockOrderEditor)
	editor.On("ApplyLineItemEdit", mock.Anything, mock.MatchedBy(func(req integration.OrderEditRequest) bool {
		return req.VariantID == "200"
	})).Return(&integration.OrderEditResult{CommittedOrderID: "gid://shopify/Order/1001"}, nil).Once()
	editor.On("ApplyLineItemEdit", mock.Anything, mock.MatchedBy(func(req integration.OrderEditRequest) bool {
		return req.VariantID == "201"
	})).Return(&integration.OrderEditResult{}, nil).Once()

	applied, err := NewOrderMutator(editor).Apply(context.Background(), testOrder(), testPlan("10", "11"))

	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, integration.PlatformID("10"), applied[0].LineItemID)
	assert.Equal(t, integration.PlatformID("11"), applied[1].LineItemID)

	first := editor.Calls[0].Arguments.Get(1).(integration.OrderEditRequest)
	assert.Equal(t, integration.PlatformID("1001"), first.OrderID)
	assert.Equal(t, 2, first.Quantity)
	require.Len(t, first.Properties, 1)
	assert.Equal(t, integration.ReplacementNoteKey, first.Properties[0].Key)
	assert.Equal(t, "Original SKU (SKU-10) replaced with NEW-10", first.Properties[0].Value)
	editor.AssertExpectations(t)
}

func TestOrderMutator_SkipsMissingItemsAndVariants(t *testing.T) {
	editor := new(MockOrderEditor)
	editor.On("ApplyLineItemEdit", mock.Anything, mock.Anything).Return(&integration.OrderEditResult{}, nil)

	applied, err := NewOrderMutator(editor).Apply(context.Background(), testOrder(), testPlan("99", "12", "11"))

	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, integration.PlatformID("11"), applied[0].LineItemID)
	editor.AssertNumberOfCalls(t, "ApplyLineItemEdit", 1)
}

func TestOrderMutator_StopsAtFirstFailure(t *testing.T) {
	editor := new(MockOrderEditor)
	editor.On("ApplyLineItemEdit", mock.Anything, mock.MatchedBy(func(req integration.OrderEditRequest) bool {
		return req.VariantID == "200"
	})).Return(&integration.OrderEditResult{}, nil).Once()
	editor.On("ApplyLineItemEdit", mock.Anything, mock.MatchedBy(func(req integration.OrderEditRequest) bool {
		return req.VariantID == "201"
	})).Return(nil, integration.ErrOrderEditRejected).Once()

	order := testOrder()
	order.LineItems = append(order.LineItems, integration.LineItem{ID: "13", SKU: "D", VariantID: "203", Quantity: 1})

	applied, err := NewOrderMutator(editor).Apply(context.Background(), order, testPlan("10", "11", "13"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, integration.ErrOrderEditRejected))
	assert.Contains(t, err.Error(), "line item 11")
	require.Len(t, applied, 1)
	assert.Equal(t, integration.PlatformID("10"), applied[0].LineItemID)
	editor.AssertNumberOfCalls(t, "ApplyLineItemEdit", 2)
}

func TestOrderMutator_EmptyPlan(t *testing.T) {
	editor := new(MockOrderEditor)

	applied, err := NewOrderMutator(editor).Apply(context.Background(), testOrder(), &integration.ReplacementPlan{})

	require.NoError(t, err)
	assert.NotNil(t, applied)
	assert.Empty(t, applied)
	editor.AssertNotCalled(t, "ApplyLineItemEdit", mock.Anything, mock.Anything)
}

func TestOrderMutator_ApplyEachReportsBeforePanic(t *testing.T) {
	editor := new(MockOrderEditor)
	editor.On("ApplyLineItemEdit", mock.Anything, mock.MatchedBy(func(req integration.OrderEditRequest) bool {
		return req.VariantID == "200"
	})).Return(&integration.OrderEditResult{}, nil).Once()
	editor.On("ApplyLineItemEdit", mock.Anything, mock.MatchedBy(func(req integration.OrderEditRequest) bool {
		return req.VariantID == "201"
	})).Run(func(mock.Arguments) { panic("boom") })

	var seen []integration.Replacement
	assert.Panics(t, func() {
		_ = NewOrderMutator(editor).ApplyEach(context.Background(), testOrder(), testPlan("10", "11"),
			func(r integration.Replacement) { seen = append(seen, r) })
	})

	require.Len(t, seen, 1)
	assert.Equal(t, integration.PlatformID("10"), seen[0].LineItemID)
}
