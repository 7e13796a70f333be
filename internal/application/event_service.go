package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/ports"
)

// CustomEventInput is the body of a custom analytics event submission.
type CustomEventInput struct {
	StoreID     uuid.UUID       `json:"storeId"`
	EventType   string          `json:"eventType"`
	EventName   string          `json:"eventName"`
	EventData   json.RawMessage `json:"eventData"`
	SessionID   string          `json:"sessionId"`
	UserID      string          `json:"userId"`
	AnonymousID string          `json:"anonymousId"`
	URL         string          `json:"url"`
	Referrer    string          `json:"referrer"`
	UserAgent   string          `json:"userAgent"`
	IPAddress   string          `json:"ipAddress"`
	Properties  json.RawMessage `json:"properties"`
	Context     json.RawMessage `json:"context"`
	Traits      json.RawMessage `json:"traits"`
	Timestamp   *time.Time      `json:"timestamp"`
}

// EventService appends custom analytics events for connected stores.
type EventService struct {
	directory ports.StoreDirectory
	records   ports.RecordStore
	logger    zerolog.Logger
}

// NewEventService creates an event service.
func NewEventService(directory ports.StoreDirectory, records ports.RecordStore, logger zerolog.Logger) *EventService {
	return &EventService{directory: directory, records: records, logger: logger}
}

// Record validates and appends one custom event. Events for unknown or
// disconnected stores are rejected.
func (s *EventService) Record(ctx context.Context, input CustomEventInput) (*domain.CustomEvent, error) {
	if input.StoreID == uuid.Nil {
		return nil, fmt.Errorf("storeId is required")
	}
	if input.EventType == "" {
		return nil, fmt.Errorf("eventType is required")
	}

	store, err := s.directory.GetByID(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil || !store.IsActive {
		return nil, domain.ErrStoreNotFound
	}
	if !store.Settings.SyncEvents {
		return nil, fmt.Errorf("%w: %s", domain.ErrEventsDisabled, store.Domain)
	}

	now := time.Now().UTC()
	timestamp := now
	if input.Timestamp != nil {
		timestamp = input.Timestamp.UTC()
	}

	event := &domain.CustomEvent{
		ID:          uuid.New(),
		StoreID:     input.StoreID,
		EventType:   input.EventType,
		EventName:   input.EventName,
		EventData:   input.EventData,
		SessionID:   input.SessionID,
		UserID:      input.UserID,
		AnonymousID: input.AnonymousID,
		URL:         input.URL,
		Referrer:    input.Referrer,
		UserAgent:   input.UserAgent,
		IPAddress:   input.IPAddress,
		Properties:  input.Properties,
		Context:     input.Context,
		Traits:      input.Traits,
		Timestamp:   timestamp,
		ReceivedAt:  now,
		Source:      "web",
	}
	if err := s.records.InsertEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("shop", store.Domain).
		Str("event_type", event.EventType).
		Msg("custom event recorded")
	return event, nil
}
