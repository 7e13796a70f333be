package webhook_handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/shopify"
)

func TestCustomerWebhookUpserts(t *testing.T) {
	records := newStubRecords()
	handler := NewCustomerHandler(records, zerolog.Nop())
	storeID := uuid.New()

	payload := shopify.CustomerPayload{
		ID:         700,
		Email:      "jo@example.com",
		TotalSpent: "120.00",
		Tags:       "vip",
	}
	if err := handler.Handle(context.Background(), webhookEvent(t, storeID, "customers/create", payload)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	customer := records.customers[key(storeID, 700)]
	if customer == nil {
		t.Fatal("customer not stored")
	}
	if customer.Email != "jo@example.com" {
		t.Errorf("email = %q", customer.Email)
	}

	// Update delivery converges on the same row.
	payload.Email = "jo+new@example.com"
	if err := handler.Handle(context.Background(), webhookEvent(t, storeID, "customers/update", payload)); err != nil {
		t.Fatalf("Handle update: %v", err)
	}
	if len(records.customers) != 1 {
		t.Errorf("stored customers = %d, want 1", len(records.customers))
	}
	if got := records.customers[key(storeID, 700)].Email; got != "jo+new@example.com" {
		t.Errorf("email after update = %q", got)
	}
}

func TestCustomerWebhookRejectsMalformedPayload(t *testing.T) {
	handler := NewCustomerHandler(newStubRecords(), zerolog.Nop())
	event := &domain.WebhookEvent{
		StoreID: uuid.New(),
		Topic:   "customers/create",
		Payload: []byte(`{not json`),
	}
	if err := handler.Handle(context.Background(), event); err == nil {
		t.Error("malformed payload should be rejected")
	}
}

func TestProductWebhookUpserts(t *testing.T) {
	records := newStubRecords()
	handler := NewProductHandler(records, zerolog.Nop())
	storeID := uuid.New()

	payload := shopify.ProductPayload{ID: 900, Title: "Shirt", Tags: "summer, sale"}
	if err := handler.Handle(context.Background(), webhookEvent(t, storeID, "products/create", payload)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	product := records.products[key(storeID, 900)]
	if product == nil {
		t.Fatal("product not stored")
	}
	if len(product.Tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", product.Tags)
	}
	if handler.CanHandle("orders/create") {
		t.Error("product handler should not claim order topics")
	}
}
