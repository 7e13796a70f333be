package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
)

// WebhookHandler processes verified webhook events for the topics it
// claims.
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to the first
// registered handler that claims the topic. Unclaimed topics are
// acknowledged without processing so the platform does not retry them.
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates an empty dispatcher.
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Registration order decides precedence
// when topics overlap.
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch routes the event to its topic handler.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	for _, handler := range d.handlers {
		if !handler.CanHandle(event.Topic) {
			continue
		}
		if err := handler.Handle(ctx, event); err != nil {
			return fmt.Errorf("failed to handle %s webhook: %w", event.Topic, err)
		}
		return nil
	}
	d.logger.Debug().
		Str("topic", event.Topic).
		Str("shop", event.ShopDomain).
		Msg("no handler registered for webhook topic")
	return nil
}
