package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer mirrors one platform customer, scoped to a store. The pair
// (StoreID, ExternalID) is the idempotency key for upserts.
type Customer struct {
	ID                uuid.UUID       `json:"id"`
	StoreID           uuid.UUID       `json:"storeId"`
	ExternalID        int64           `json:"externalId"`
	Email             string          `json:"email,omitempty"`
	FirstName         string          `json:"firstName,omitempty"`
	LastName          string          `json:"lastName,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	AcceptsMarketing  bool            `json:"acceptsMarketing"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	TotalOrders       int             `json:"totalOrders"`
	State             string          `json:"state,omitempty"`
	Note              string          `json:"note,omitempty"`
	Tags              []string        `json:"tags"`
	VerifiedEmail     bool            `json:"verifiedEmail"`
	TaxExempt         bool            `json:"taxExempt"`
	PlatformCreatedAt *time.Time      `json:"platformCreatedAt,omitempty"`
	PlatformUpdatedAt *time.Time      `json:"platformUpdatedAt,omitempty"`
}

// Product mirrors one platform product. Variants, options and images are
// carried as raw platform documents rather than normalized rows.
type Product struct {
	ID                uuid.UUID       `json:"id"`
	StoreID           uuid.UUID       `json:"storeId"`
	ExternalID        int64           `json:"externalId"`
	Title             string          `json:"title"`
	BodyHTML          string          `json:"bodyHtml,omitempty"`
	Vendor            string          `json:"vendor,omitempty"`
	ProductType       string          `json:"productType,omitempty"`
	Handle            string          `json:"handle,omitempty"`
	Status            string          `json:"status,omitempty"`
	PublishedScope    string          `json:"publishedScope,omitempty"`
	Tags              []string        `json:"tags"`
	Variants          json.RawMessage `json:"variants,omitempty"`
	Options           json.RawMessage `json:"options,omitempty"`
	Images            json.RawMessage `json:"images,omitempty"`
	PlatformCreatedAt *time.Time      `json:"platformCreatedAt,omitempty"`
	PlatformUpdatedAt *time.Time      `json:"platformUpdatedAt,omitempty"`
}

// Order mirrors one platform order. CustomerID is a local foreign key
// resolved from (StoreID, customer external ID) at upsert time; it stays
// null for guest checkouts or customers not yet synced.
type Order struct {
	ID                uuid.UUID       `json:"id"`
	StoreID           uuid.UUID       `json:"storeId"`
	CustomerID        uuid.NullUUID   `json:"customerId"`
	ExternalID        int64           `json:"externalId"`
	OrderNumber       int64           `json:"orderNumber,omitempty"`
	Name              string          `json:"name,omitempty"`
	Email             string          `json:"email,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	FinancialStatus   string          `json:"financialStatus,omitempty"`
	FulfillmentStatus string          `json:"fulfillmentStatus,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	SubtotalPrice     decimal.Decimal `json:"subtotalPrice"`
	TotalTax          decimal.Decimal `json:"totalTax"`
	TotalDiscounts    decimal.Decimal `json:"totalDiscounts"`
	TotalWeight       decimal.Decimal `json:"totalWeight"`
	TaxesIncluded     bool            `json:"taxesIncluded"`
	Confirmed         bool            `json:"confirmed"`
	ProcessedAt       *time.Time      `json:"processedAt,omitempty"`
	CancelledAt       *time.Time      `json:"cancelledAt,omitempty"`
	CancelReason      string          `json:"cancelReason,omitempty"`
	ClosedAt          *time.Time      `json:"closedAt,omitempty"`
	Test              bool            `json:"test"`
	Tags              []string        `json:"tags"`
	Note              string          `json:"note,omitempty"`
	SourceName        string          `json:"sourceName,omitempty"`
	ShippingAddress   json.RawMessage `json:"shippingAddress,omitempty"`
	BillingAddress    json.RawMessage `json:"billingAddress,omitempty"`
	PlatformCreatedAt *time.Time      `json:"platformCreatedAt,omitempty"`
	PlatformUpdatedAt *time.Time      `json:"platformUpdatedAt,omitempty"`
}

// OrderItem is one line of an order, keyed by (OrderID, ExternalID).
// ProductID is nullable: line items may reference products that were
// never synced or have since been removed from the catalog.
type OrderItem struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"orderId"`
	ProductID         uuid.NullUUID   `json:"productId"`
	ExternalID        int64           `json:"externalId"`
	VariantID         int64           `json:"variantId,omitempty"`
	Title             string          `json:"title,omitempty"`
	VariantTitle      string          `json:"variantTitle,omitempty"`
	SKU               string          `json:"sku,omitempty"`
	Vendor            string          `json:"vendor,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	TotalDiscount     decimal.Decimal `json:"totalDiscount"`
	Grams             int             `json:"grams,omitempty"`
	RequiresShipping  bool            `json:"requiresShipping"`
	Taxable           bool            `json:"taxable"`
	GiftCard          bool            `json:"giftCard"`
	FulfillmentStatus string          `json:"fulfillmentStatus,omitempty"`
	Properties        json.RawMessage `json:"properties,omitempty"`
}
