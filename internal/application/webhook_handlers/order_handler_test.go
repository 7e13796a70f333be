package webhook_handlers

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/application"
	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/metrics"
	"shopify-sync-engine/internal/infrastructure/shopify"
)

// stubRecords is a minimal in-memory RecordStore for handler tests.
type stubRecords struct {
	customers map[string]*domain.Customer
	products  map[string]*domain.Product
	orders    map[string]*domain.Order
	items     map[string]*domain.OrderItem
	events    []*domain.CustomEvent
}

func newStubRecords() *stubRecords {
	return &stubRecords{
		customers: make(map[string]*domain.Customer),
		products:  make(map[string]*domain.Product),
		orders:    make(map[string]*domain.Order),
		items:     make(map[string]*domain.OrderItem),
	}
}

func key(parent uuid.UUID, externalID int64) string {
	return parent.String() + "/" + strconv.FormatInt(externalID, 10)
}

func (s *stubRecords) UpsertCustomer(ctx context.Context, c *domain.Customer) error {
	if existing, ok := s.customers[key(c.StoreID, c.ExternalID)]; ok {
		c.ID = existing.ID
	}
	copied := *c
	s.customers[key(c.StoreID, c.ExternalID)] = &copied
	return nil
}

func (s *stubRecords) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if existing, ok := s.products[key(p.StoreID, p.ExternalID)]; ok {
		p.ID = existing.ID
	}
	copied := *p
	s.products[key(p.StoreID, p.ExternalID)] = &copied
	return nil
}

func (s *stubRecords) UpsertOrder(ctx context.Context, o *domain.Order) (uuid.UUID, error) {
	if existing, ok := s.orders[key(o.StoreID, o.ExternalID)]; ok {
		o.ID = existing.ID
	}
	copied := *o
	s.orders[key(o.StoreID, o.ExternalID)] = &copied
	return o.ID, nil
}

func (s *stubRecords) UpsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	if existing, ok := s.items[key(item.OrderID, item.ExternalID)]; ok {
		item.ID = existing.ID
	}
	copied := *item
	s.items[key(item.OrderID, item.ExternalID)] = &copied
	return nil
}

func (s *stubRecords) LookupCustomerID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error) {
	if c, ok := s.customers[key(storeID, externalID)]; ok {
		return uuid.NullUUID{UUID: c.ID, Valid: true}, nil
	}
	return uuid.NullUUID{}, nil
}

func (s *stubRecords) LookupProductID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error) {
	if p, ok := s.products[key(storeID, externalID)]; ok {
		return uuid.NullUUID{UUID: p.ID, Valid: true}, nil
	}
	return uuid.NullUUID{}, nil
}

func (s *stubRecords) MarkOrderPaid(ctx context.Context, storeID uuid.UUID, externalID int64, processedAt time.Time, platformUpdatedAt *time.Time) error {
	if o, ok := s.orders[key(storeID, externalID)]; ok {
		o.FinancialStatus = "paid"
		o.ProcessedAt = &processedAt
	}
	return nil
}

func (s *stubRecords) MarkOrderCancelled(ctx context.Context, storeID uuid.UUID, externalID int64, cancelledAt time.Time, reason string, platformUpdatedAt *time.Time) error {
	if o, ok := s.orders[key(storeID, externalID)]; ok {
		o.FinancialStatus = "voided"
		o.CancelledAt = &cancelledAt
		o.CancelReason = reason
	}
	return nil
}

func (s *stubRecords) InsertEvent(ctx context.Context, event *domain.CustomEvent) error {
	copied := *event
	s.events = append(s.events, &copied)
	return nil
}

func newOrderHandler(records *stubRecords) *OrderHandler {
	m := metrics.NewSyncMetrics(prometheus.NewRegistry())
	sync := application.NewSyncService(nil, records, m, zerolog.Nop())
	return NewOrderHandler(sync, records, zerolog.Nop())
}

func webhookEvent(t *testing.T, storeID uuid.UUID, topic string, payload interface{}) *domain.WebhookEvent {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return &domain.WebhookEvent{
		StoreID:    storeID,
		Topic:      topic,
		ShopDomain: "acme.myshopify.com",
		Payload:    body,
	}
}

func TestOrderHandlerTopics(t *testing.T) {
	handler := newOrderHandler(newStubRecords())
	for _, topic := range []string{"orders/create", "orders/updated", "orders/paid", "orders/cancelled"} {
		if !handler.CanHandle(topic) {
			t.Errorf("CanHandle(%q) = false", topic)
		}
	}
	if handler.CanHandle("products/create") {
		t.Error("order handler should not claim product topics")
	}
}

func TestOrderCreateMirrorsOrderTree(t *testing.T) {
	records := newStubRecords()
	handler := newOrderHandler(records)
	storeID := uuid.New()

	payload := shopify.OrderPayload{
		ID:          5001,
		OrderNumber: 1001,
		TotalPrice:  "42.00",
		LineItems: []shopify.LineItemPayload{
			{ID: 1, Quantity: 2, Price: "21.00"},
		},
	}
	if err := handler.Handle(context.Background(), webhookEvent(t, storeID, "orders/create", payload)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	order := records.orders[key(storeID, 5001)]
	if order == nil {
		t.Fatal("order not stored")
	}
	if len(records.items) != 1 {
		t.Errorf("stored items = %d, want 1", len(records.items))
	}

	// Redelivery converges on the same rows.
	if err := handler.Handle(context.Background(), webhookEvent(t, storeID, "orders/updated", payload)); err != nil {
		t.Fatalf("Handle redelivery: %v", err)
	}
	if len(records.orders) != 1 || len(records.items) != 1 {
		t.Errorf("redelivery created extra rows: orders=%d items=%d", len(records.orders), len(records.items))
	}
}

func TestOrderPaidAppliesNarrowUpdate(t *testing.T) {
	records := newStubRecords()
	handler := newOrderHandler(records)
	storeID := uuid.New()

	// Mirror the order first, the way a pull run would.
	records.orders[key(storeID, 5002)] = &domain.Order{
		ID:         uuid.New(),
		StoreID:    storeID,
		ExternalID: 5002,
	}
	existingItems := len(records.items)

	processedAt := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	payload := shopify.OrderPayload{
		ID:          5002,
		OrderNumber: 1002,
		TotalPrice:  "99.00",
		Currency:    "EUR",
		ProcessedAt: &processedAt,
	}
	if err := handler.Handle(context.Background(), webhookEvent(t, storeID, "orders/paid", payload)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	order := records.orders[key(storeID, 5002)]
	if order.FinancialStatus != "paid" {
		t.Errorf("financial status = %q, want paid", order.FinancialStatus)
	}
	if order.ProcessedAt == nil || !order.ProcessedAt.Equal(processedAt) {
		t.Errorf("processed at = %v, want %v", order.ProcessedAt, processedAt)
	}
	if len(records.items) != existingItems {
		t.Error("paid webhook must not touch line items")
	}

	if len(records.events) != 1 {
		t.Fatalf("stored events = %d, want 1", len(records.events))
	}
	event := records.events[0]
	if event.EventType != "checkout_completed" {
		t.Errorf("event type = %q, want checkout_completed", event.EventType)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(event.EventData, &data); err != nil {
		t.Fatalf("event data: %v", err)
	}
	if data["currency"] != "EUR" {
		t.Errorf("event currency = %v, want EUR", data["currency"])
	}
}

func TestOrderCancelledAppliesNarrowUpdate(t *testing.T) {
	records := newStubRecords()
	handler := newOrderHandler(records)
	storeID := uuid.New()

	records.orders[key(storeID, 5003)] = &domain.Order{
		ID:         uuid.New(),
		StoreID:    storeID,
		ExternalID: 5003,
	}

	cancelledAt := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)
	payload := shopify.OrderPayload{
		ID:           5003,
		CancelledAt:  &cancelledAt,
		CancelReason: "customer",
	}
	if err := handler.Handle(context.Background(), webhookEvent(t, storeID, "orders/cancelled", payload)); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	order := records.orders[key(storeID, 5003)]
	if order.FinancialStatus != "voided" {
		t.Errorf("financial status = %q, want voided", order.FinancialStatus)
	}
	if order.CancelReason != "customer" {
		t.Errorf("cancel reason = %q, want customer", order.CancelReason)
	}
}

func TestOrderWebhookRejectsMissingID(t *testing.T) {
	handler := newOrderHandler(newStubRecords())
	err := handler.Handle(context.Background(), webhookEvent(t, uuid.New(), "orders/create", shopify.OrderPayload{}))
	if err == nil {
		t.Error("payload without id should be rejected")
	}
}
