package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is a verified platform push notification, resolved to a
// local store, awaiting dispatch to a topic handler.
type WebhookEvent struct {
	StoreID    uuid.UUID
	Topic      string
	ShopDomain string
	Payload    []byte
}

// CustomEvent is an append-only analytics event tied to a store. Custom
// events are never upserted or deduplicated.
type CustomEvent struct {
	ID          uuid.UUID       `json:"id"`
	StoreID     uuid.UUID       `json:"storeId"`
	EventType   string          `json:"eventType"`
	EventName   string          `json:"eventName"`
	EventData   json.RawMessage `json:"eventData,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	UserID      string          `json:"userId,omitempty"`
	AnonymousID string          `json:"anonymousId,omitempty"`
	URL         string          `json:"url,omitempty"`
	Referrer    string          `json:"referrer,omitempty"`
	UserAgent   string          `json:"userAgent,omitempty"`
	IPAddress   string          `json:"ipAddress,omitempty"`
	Properties  json.RawMessage `json:"properties,omitempty"`
	Context     json.RawMessage `json:"context,omitempty"`
	Traits      json.RawMessage `json:"traits,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	ReceivedAt  time.Time       `json:"receivedAt"`
	Source      string          `json:"source,omitempty"`
}
