package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
)

// PostgresRecordStore persists mirrored catalog and transaction records.
// All upserts key on the platform external id within their parent scope,
// so replaying a page or a webhook converges on the same rows.
type PostgresRecordStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresRecordStore creates a record store backed by the given pool.
func NewPostgresRecordStore(db *sql.DB, logger zerolog.Logger) *PostgresRecordStore {
	return &PostgresRecordStore{db: db, logger: logger}
}

func (r *PostgresRecordStore) UpsertCustomer(ctx context.Context, customer *domain.Customer) error {
	tags, err := json.Marshal(customer.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode customer tags: %w", err)
	}

	query := `
		INSERT INTO customers (
			id, store_id, external_id, email, first_name, last_name, phone,
			accepts_marketing, total_spent, total_orders, state, note, tags,
			verified_email, tax_exempt, platform_created_at, platform_updated_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			accepts_marketing = EXCLUDED.accepts_marketing,
			total_spent = EXCLUDED.total_spent,
			total_orders = EXCLUDED.total_orders,
			state = EXCLUDED.state,
			note = EXCLUDED.note,
			tags = EXCLUDED.tags,
			verified_email = EXCLUDED.verified_email,
			tax_exempt = EXCLUDED.tax_exempt,
			platform_created_at = EXCLUDED.platform_created_at,
			platform_updated_at = EXCLUDED.platform_updated_at,
			updated_at = NOW()
		RETURNING id`

	err = r.db.QueryRowContext(ctx, query,
		newOrExisting(customer.ID), customer.StoreID, customer.ExternalID,
		customer.Email, customer.FirstName, customer.LastName, customer.Phone,
		customer.AcceptsMarketing, customer.TotalSpent.String(), customer.TotalOrders,
		customer.State, customer.Note, tags,
		customer.VerifiedEmail, customer.TaxExempt,
		nullTime(customer.PlatformCreatedAt), nullTime(customer.PlatformUpdatedAt),
	).Scan(&customer.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert customer %d: %w", customer.ExternalID, err)
	}
	return nil
}

func (r *PostgresRecordStore) UpsertProduct(ctx context.Context, product *domain.Product) error {
	tags, err := json.Marshal(product.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode product tags: %w", err)
	}

	query := `
		INSERT INTO products (
			id, store_id, external_id, title, body_html, vendor, product_type,
			handle, status, published_scope, tags, variants, options, images,
			platform_created_at, platform_updated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			body_html = EXCLUDED.body_html,
			vendor = EXCLUDED.vendor,
			product_type = EXCLUDED.product_type,
			handle = EXCLUDED.handle,
			status = EXCLUDED.status,
			published_scope = EXCLUDED.published_scope,
			tags = EXCLUDED.tags,
			variants = EXCLUDED.variants,
			options = EXCLUDED.options,
			images = EXCLUDED.images,
			platform_created_at = EXCLUDED.platform_created_at,
			platform_updated_at = EXCLUDED.platform_updated_at,
			updated_at = NOW()
		RETURNING id`

	err = r.db.QueryRowContext(ctx, query,
		newOrExisting(product.ID), product.StoreID, product.ExternalID,
		product.Title, product.BodyHTML, product.Vendor, product.ProductType,
		product.Handle, product.Status, product.PublishedScope, tags,
		nullRaw(product.Variants), nullRaw(product.Options), nullRaw(product.Images),
		nullTime(product.PlatformCreatedAt), nullTime(product.PlatformUpdatedAt),
	).Scan(&product.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", product.ExternalID, err)
	}
	return nil
}

func (r *PostgresRecordStore) UpsertOrder(ctx context.Context, order *domain.Order) (uuid.UUID, error) {
	tags, err := json.Marshal(order.Tags)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode order tags: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, store_id, customer_id, external_id, order_number, name, email, phone,
			financial_status, fulfillment_status, currency,
			total_price, subtotal_price, total_tax, total_discounts, total_weight,
			taxes_included, confirmed, processed_at, cancelled_at, cancel_reason, closed_at,
			test, tags, note, source_name, shipping_address, billing_address,
			platform_created_at, platform_updated_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, NOW(), NOW()
		)
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			order_number = EXCLUDED.order_number,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			financial_status = EXCLUDED.financial_status,
			fulfillment_status = EXCLUDED.fulfillment_status,
			currency = EXCLUDED.currency,
			total_price = EXCLUDED.total_price,
			subtotal_price = EXCLUDED.subtotal_price,
			total_tax = EXCLUDED.total_tax,
			total_discounts = EXCLUDED.total_discounts,
			total_weight = EXCLUDED.total_weight,
			taxes_included = EXCLUDED.taxes_included,
			confirmed = EXCLUDED.confirmed,
			processed_at = EXCLUDED.processed_at,
			cancelled_at = EXCLUDED.cancelled_at,
			cancel_reason = EXCLUDED.cancel_reason,
			closed_at = EXCLUDED.closed_at,
			test = EXCLUDED.test,
			tags = EXCLUDED.tags,
			note = EXCLUDED.note,
			source_name = EXCLUDED.source_name,
			shipping_address = EXCLUDED.shipping_address,
			billing_address = EXCLUDED.billing_address,
			platform_created_at = EXCLUDED.platform_created_at,
			platform_updated_at = EXCLUDED.platform_updated_at,
			updated_at = NOW()
		RETURNING id`

	var id uuid.UUID
	err = r.db.QueryRowContext(ctx, query,
		newOrExisting(order.ID), order.StoreID, order.CustomerID, order.ExternalID,
		order.OrderNumber, order.Name, order.Email, order.Phone,
		order.FinancialStatus, order.FulfillmentStatus, order.Currency,
		order.TotalPrice.String(), order.SubtotalPrice.String(), order.TotalTax.String(),
		order.TotalDiscounts.String(), order.TotalWeight.String(),
		order.TaxesIncluded, order.Confirmed,
		nullTime(order.ProcessedAt), nullTime(order.CancelledAt), order.CancelReason, nullTime(order.ClosedAt),
		order.Test, tags, order.Note, order.SourceName,
		nullRaw(order.ShippingAddress), nullRaw(order.BillingAddress),
		nullTime(order.PlatformCreatedAt), nullTime(order.PlatformUpdatedAt),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert order %d: %w", order.ExternalID, err)
	}
	order.ID = id
	return id, nil
}

func (r *PostgresRecordStore) UpsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (
			id, order_id, product_id, external_id, variant_id, title, variant_title,
			sku, vendor, quantity, price, total_discount, grams,
			requires_shipping, taxable, gift_card, fulfillment_status, properties,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		ON CONFLICT (order_id, external_id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			variant_id = EXCLUDED.variant_id,
			title = EXCLUDED.title,
			variant_title = EXCLUDED.variant_title,
			sku = EXCLUDED.sku,
			vendor = EXCLUDED.vendor,
			quantity = EXCLUDED.quantity,
			price = EXCLUDED.price,
			total_discount = EXCLUDED.total_discount,
			grams = EXCLUDED.grams,
			requires_shipping = EXCLUDED.requires_shipping,
			taxable = EXCLUDED.taxable,
			gift_card = EXCLUDED.gift_card,
			fulfillment_status = EXCLUDED.fulfillment_status,
			properties = EXCLUDED.properties,
			updated_at = NOW()
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		newOrExisting(item.ID), item.OrderID, item.ProductID, item.ExternalID,
		item.VariantID, item.Title, item.VariantTitle,
		item.SKU, item.Vendor, item.Quantity,
		item.Price.String(), item.TotalDiscount.String(), item.Grams,
		item.RequiresShipping, item.Taxable, item.GiftCard,
		item.FulfillmentStatus, nullRaw(item.Properties),
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert order item %d: %w", item.ExternalID, err)
	}
	return nil
}

func (r *PostgresRecordStore) LookupCustomerID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error) {
	return r.lookupID(ctx, "customers", storeID, externalID)
}

func (r *PostgresRecordStore) LookupProductID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error) {
	return r.lookupID(ctx, "products", storeID, externalID)
}

func (r *PostgresRecordStore) lookupID(ctx context.Context, table string, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE store_id = $1 AND external_id = $2`, table)
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, storeID, externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.NullUUID{}, nil
	}
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("failed to look up %s %d: %w", table, externalID, err)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func (r *PostgresRecordStore) MarkOrderPaid(ctx context.Context, storeID uuid.UUID, externalID int64, processedAt time.Time, platformUpdatedAt *time.Time) error {
	query := `
		UPDATE orders
		SET financial_status = 'paid',
			processed_at = $3,
			platform_updated_at = COALESCE($4, platform_updated_at),
			updated_at = NOW()
		WHERE store_id = $1 AND external_id = $2`

	if _, err := r.db.ExecContext(ctx, query, storeID, externalID, processedAt, nullTime(platformUpdatedAt)); err != nil {
		return fmt.Errorf("failed to mark order %d paid: %w", externalID, err)
	}
	return nil
}

func (r *PostgresRecordStore) MarkOrderCancelled(ctx context.Context, storeID uuid.UUID, externalID int64, cancelledAt time.Time, reason string, platformUpdatedAt *time.Time) error {
	query := `
		UPDATE orders
		SET financial_status = 'voided',
			cancelled_at = $3,
			cancel_reason = $4,
			platform_updated_at = COALESCE($5, platform_updated_at),
			updated_at = NOW()
		WHERE store_id = $1 AND external_id = $2`

	if _, err := r.db.ExecContext(ctx, query, storeID, externalID, cancelledAt, reason, nullTime(platformUpdatedAt)); err != nil {
		return fmt.Errorf("failed to mark order %d cancelled: %w", externalID, err)
	}
	return nil
}

func (r *PostgresRecordStore) InsertEvent(ctx context.Context, event *domain.CustomEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	query := `
		INSERT INTO custom_events (
			id, store_id, event_type, event_name, event_data,
			session_id, user_id, anonymous_id, url, referrer, user_agent, ip_address,
			properties, context, traits, timestamp, received_at, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.StoreID, event.EventType, event.EventName, nullRaw(event.EventData),
		event.SessionID, event.UserID, event.AnonymousID,
		event.URL, event.Referrer, event.UserAgent, event.IPAddress,
		nullRaw(event.Properties), nullRaw(event.Context), nullRaw(event.Traits),
		event.Timestamp, event.ReceivedAt, event.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", event.EventType, err)
	}
	return nil
}

func newOrExisting(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
