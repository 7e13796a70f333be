package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shopify-sync-engine/internal/domain"
)

// RecordStore defines the interface for the mirrored entity persistence.
// Every upsert is an idempotent insert-or-update on the entity's
// uniqueness key: (storeID, externalID) for customers, products and
// orders, (orderID, externalID) for order items. Repeated application of
// the same payload leaves the record unchanged.
type RecordStore interface {
	UpsertCustomer(ctx context.Context, customer *domain.Customer) error
	UpsertProduct(ctx context.Context, product *domain.Product) error

	// UpsertOrder returns the local order id so line items can be
	// attached to it within the same run.
	UpsertOrder(ctx context.Context, order *domain.Order) (uuid.UUID, error)
	UpsertOrderItem(ctx context.Context, item *domain.OrderItem) error

	// LookupCustomerID and LookupProductID translate a platform external
	// id into the local surrogate key. A missing record is not an error;
	// the returned id is simply invalid.
	LookupCustomerID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error)
	LookupProductID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error)

	// MarkOrderPaid and MarkOrderCancelled are the narrow lifecycle
	// updates applied by webhook events; they do not touch line items.
	MarkOrderPaid(ctx context.Context, storeID uuid.UUID, externalID int64, processedAt time.Time, platformUpdatedAt *time.Time) error
	MarkOrderCancelled(ctx context.Context, storeID uuid.UUID, externalID int64, cancelledAt time.Time, reason string, platformUpdatedAt *time.Time) error

	// InsertEvent appends an analytics event. Events are never deduplicated.
	InsertEvent(ctx context.Context, event *domain.CustomEvent) error
}
