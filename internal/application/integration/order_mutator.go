package integration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/skuswap/backend/internal/domain/integration"
	"github.com/skuswap/backend/internal/infrastructure/logger"
	"github.com/skuswap/backend/internal/infrastructure/telemetry"
)

// OrderMutator applies a replacement plan to the remote order, one edit per
// line item, in plan order.
type OrderMutator struct {
	editor integration.OrderEditor
}

// NewOrderMutator creates a new OrderMutator
func NewOrderMutator(editor integration.OrderEditor) *OrderMutator {
	return &OrderMutator{editor: editor}
}

// Apply rewrites each planned line item on the platform. Items missing from
// the order or lacking a variant id are skipped. The first failing edit stops
// the loop; the replacements applied before it are returned together with the
// error. Edits are never retried.
func (m *OrderMutator) Apply(
	ctx context.Context,
	order *integration.IncomingOrder,
	plan *integration.ReplacementPlan,
) ([]integration.Replacement, error) {
	applied := make([]integration.Replacement, 0, plan.Len())
	err := m.ApplyEach(ctx, order, plan, func(r integration.Replacement) {
		applied = append(applied, r)
	})
	return applied, err
}

// ApplyEach behaves like Apply but reports every successful edit to onApplied
// as soon as the platform confirms it, so the caller keeps the applied subset
// even if a later edit panics.
func (m *OrderMutator) ApplyEach(
	ctx context.Context,
	order *integration.IncomingOrder,
	plan *integration.ReplacementPlan,
	onApplied func(integration.Replacement),
) error {
	if plan.IsEmpty() {
		return nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "OrderMutator", "Apply")
	defer span.End()

	log := logger.L(ctx)
	for _, r := range plan.Replacements {
		item, ok := order.FindLineItem(r.LineItemID)
		if !ok || item.VariantID.IsZero() {
			log.Warn("Skipping line item without variant",
				zap.String("line_item_id", r.LineItemID.String()),
				zap.String("original_sku", r.OriginalSku),
			)
			continue
		}

		if _, err := m.editor.ApplyLineItemEdit(ctx, integration.OrderEditRequest{
			OrderID:   order.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Properties: []integration.LineItemProperty{{
				Key:   integration.ReplacementNoteKey,
				Value: integration.ReplacementNote(r.OriginalSku, r.ReplacementSku),
			}},
		}); err != nil {
			err = fmt.Errorf("line item %s: %w", r.LineItemID, err)
			telemetry.RecordError(span, err)
			return err
		}

		log.Info("Replaced line item SKU",
			zap.String("line_item_id", r.LineItemID.String()),
			zap.String("original_sku", r.OriginalSku),
			zap.String("replacement_sku", r.ReplacementSku),
		)
		onApplied(r)
	}

	telemetry.SetOK(span)
	return nil
}
