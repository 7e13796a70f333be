package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/application"
	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/shopify"
	"shopify-sync-engine/internal/ports"
)

// OrderHandler applies order lifecycle webhooks. Create and update
// deliveries reuse the pull path's full order mirror; paid and cancelled
// deliveries apply narrow status updates and do not touch line items.
type OrderHandler struct {
	sync    *application.SyncService
	records ports.RecordStore
	logger  zerolog.Logger
}

func NewOrderHandler(sync *application.SyncService, records ports.RecordStore, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{sync: sync, records: records, logger: logger}
}

func (h *OrderHandler) CanHandle(topic string) bool {
	switch topic {
	case "orders/create", "orders/updated", "orders/paid", "orders/cancelled":
		return true
	}
	return false
}

func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload shopify.OrderPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode order webhook: %w", err)
	}
	if payload.ID == 0 {
		return fmt.Errorf("%w: order webhook missing id", domain.ErrMalformedRecord)
	}

	switch event.Topic {
	case "orders/create", "orders/updated":
		if err := h.sync.ApplyOrder(ctx, event.StoreID, payload); err != nil {
			return err
		}
	case "orders/paid":
		if err := h.applyPaid(ctx, event.StoreID, payload); err != nil {
			return err
		}
	case "orders/cancelled":
		cancelledAt := time.Now().UTC()
		if payload.CancelledAt != nil {
			cancelledAt = *payload.CancelledAt
		}
		if err := h.records.MarkOrderCancelled(ctx, event.StoreID, payload.ID, cancelledAt, payload.CancelReason, payload.UpdatedAt); err != nil {
			return err
		}
	}

	h.logger.Info().
		Str("shop", event.ShopDomain).
		Int64("order", payload.ID).
		Str("topic", event.Topic).
		Msg("order webhook applied")
	return nil
}

// applyPaid marks the order paid and records a checkout_completed
// analytics event alongside it.
func (h *OrderHandler) applyPaid(ctx context.Context, storeID uuid.UUID, payload shopify.OrderPayload) error {
	processedAt := time.Now().UTC()
	if payload.ProcessedAt != nil {
		processedAt = *payload.ProcessedAt
	}
	if err := h.records.MarkOrderPaid(ctx, storeID, payload.ID, processedAt, payload.UpdatedAt); err != nil {
		return err
	}

	data, err := json.Marshal(map[string]any{
		"orderId":     payload.ID,
		"orderNumber": payload.OrderNumber,
		"totalPrice":  payload.TotalPrice,
		"currency":    payload.Currency,
	})
	if err != nil {
		return fmt.Errorf("failed to encode checkout event: %w", err)
	}

	now := time.Now().UTC()
	return h.records.InsertEvent(ctx, &domain.CustomEvent{
		ID:         uuid.New(),
		StoreID:    storeID,
		EventType:  "checkout_completed",
		EventName:  "Checkout Completed",
		EventData:  data,
		Timestamp:  processedAt,
		ReceivedAt: now,
		Source:     "webhook",
	})
}
