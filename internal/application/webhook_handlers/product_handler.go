package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/shopify"
	"shopify-sync-engine/internal/ports"
)

// ProductHandler mirrors product create and update webhooks.
type ProductHandler struct {
	records ports.RecordStore
	logger  zerolog.Logger
}

func NewProductHandler(records ports.RecordStore, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{records: records, logger: logger}
}

func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" || topic == "products/update"
}

func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload shopify.ProductPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode product webhook: %w", err)
	}
	product, err := payload.ToProduct(event.StoreID)
	if err != nil {
		return err
	}
	if err := h.records.UpsertProduct(ctx, product); err != nil {
		return err
	}
	h.logger.Info().
		Str("shop", event.ShopDomain).
		Int64("product", payload.ID).
		Str("topic", event.Topic).
		Msg("product webhook applied")
	return nil
}
