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

// CustomerHandler mirrors customer create and update webhooks. Both
// topics funnel into the same upsert, so delivery order and replays do
// not matter.
type CustomerHandler struct {
	records ports.RecordStore
	logger  zerolog.Logger
}

func NewCustomerHandler(records ports.RecordStore, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{records: records, logger: logger}
}

func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/create" || topic == "customers/update"
}

func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload shopify.CustomerPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode customer webhook: %w", err)
	}
	customer, err := payload.ToCustomer(event.StoreID)
	if err != nil {
		return err
	}
	if err := h.records.UpsertCustomer(ctx, customer); err != nil {
		return err
	}
	h.logger.Info().
		Str("shop", event.ShopDomain).
		Int64("customer", payload.ID).
		Str("topic", event.Topic).
		Msg("customer webhook applied")
	return nil
}
