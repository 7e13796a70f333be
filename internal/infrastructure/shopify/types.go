package shopify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopify-sync-engine/internal/domain"
)

// Wire payloads for the platform's Admin REST resources. Field shapes
// follow the platform's snake_case JSON. Monetary amounts arrive as
// strings and are parsed as fixed-point decimals, defaulting to zero
// when absent.

// CustomerPayload is one customer as returned by the platform.
type CustomerPayload struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Phone            string     `json:"phone"`
	AcceptsMarketing bool       `json:"accepts_marketing"`
	TotalSpent       string     `json:"total_spent"`
	OrdersCount      int        `json:"orders_count"`
	State            string     `json:"state"`
	Note             string     `json:"note"`
	Tags             string     `json:"tags"`
	VerifiedEmail    bool       `json:"verified_email"`
	TaxExempt        bool       `json:"tax_exempt"`
	CreatedAt        *time.Time `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// ToCustomer maps the payload into the local schema for the given store.
func (p CustomerPayload) ToCustomer(storeID uuid.UUID) (*domain.Customer, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: customer missing id", domain.ErrMalformedRecord)
	}
	spent, err := parseAmount(p.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("%w: customer %d total_spent: %v", domain.ErrMalformedRecord, p.ID, err)
	}
	return &domain.Customer{
		ID:                uuid.New(),
		StoreID:           storeID,
		ExternalID:        p.ID,
		Email:             p.Email,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		Phone:             p.Phone,
		AcceptsMarketing:  p.AcceptsMarketing,
		TotalSpent:        spent,
		TotalOrders:       p.OrdersCount,
		State:             p.State,
		Note:              p.Note,
		Tags:              splitTags(p.Tags),
		VerifiedEmail:     p.VerifiedEmail,
		TaxExempt:         p.TaxExempt,
		PlatformCreatedAt: p.CreatedAt,
		PlatformUpdatedAt: p.UpdatedAt,
	}, nil
}

// ProductPayload is one product as returned by the platform. Variants,
// options and images are kept as raw documents.
type ProductPayload struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	BodyHTML       string          `json:"body_html"`
	Vendor         string          `json:"vendor"`
	ProductType    string          `json:"product_type"`
	Handle         string          `json:"handle"`
	Status         string          `json:"status"`
	PublishedScope string          `json:"published_scope"`
	Tags           string          `json:"tags"`
	Variants       json.RawMessage `json:"variants"`
	Options        json.RawMessage `json:"options"`
	Images         json.RawMessage `json:"images"`
	CreatedAt      *time.Time      `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at"`
}

// ToProduct maps the payload into the local schema for the given store.
func (p ProductPayload) ToProduct(storeID uuid.UUID) (*domain.Product, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: product missing id", domain.ErrMalformedRecord)
	}
	return &domain.Product{
		ID:                uuid.New(),
		StoreID:           storeID,
		ExternalID:        p.ID,
		Title:             p.Title,
		BodyHTML:          p.BodyHTML,
		Vendor:            p.Vendor,
		ProductType:       p.ProductType,
		Handle:            p.Handle,
		Status:            p.Status,
		PublishedScope:    p.PublishedScope,
		Tags:              splitTags(p.Tags),
		Variants:          p.Variants,
		Options:           p.Options,
		Images:            p.Images,
		PlatformCreatedAt: p.CreatedAt,
		PlatformUpdatedAt: p.UpdatedAt,
	}, nil
}

// LineItemPayload is one order line item as returned by the platform.
type LineItemPayload struct {
	ID                int64           `json:"id"`
	VariantID         int64           `json:"variant_id"`
	ProductID         int64           `json:"product_id"`
	Title             string          `json:"title"`
	VariantTitle      string          `json:"variant_title"`
	SKU               string          `json:"sku"`
	Vendor            string          `json:"vendor"`
	Quantity          int             `json:"quantity"`
	Price             string          `json:"price"`
	TotalDiscount     string          `json:"total_discount"`
	Grams             int             `json:"grams"`
	RequiresShipping  bool            `json:"requires_shipping"`
	Taxable           bool            `json:"taxable"`
	GiftCard          bool            `json:"gift_card"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	Properties        json.RawMessage `json:"properties"`
}

// ToOrderItem maps the payload into the local schema, attached to the
// local order row. The product reference stays null until resolved.
func (p LineItemPayload) ToOrderItem(orderID uuid.UUID) (*domain.OrderItem, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: line item missing id", domain.ErrMalformedRecord)
	}
	price, err := parseAmount(p.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: line item %d price: %v", domain.ErrMalformedRecord, p.ID, err)
	}
	discount, err := parseAmount(p.TotalDiscount)
	if err != nil {
		return nil, fmt.Errorf("%w: line item %d total_discount: %v", domain.ErrMalformedRecord, p.ID, err)
	}
	return &domain.OrderItem{
		ID:                uuid.New(),
		OrderID:           orderID,
		ExternalID:        p.ID,
		VariantID:         p.VariantID,
		Title:             p.Title,
		VariantTitle:      p.VariantTitle,
		SKU:               p.SKU,
		Vendor:            p.Vendor,
		Quantity:          p.Quantity,
		Price:             price,
		TotalDiscount:     discount,
		Grams:             p.Grams,
		RequiresShipping:  p.RequiresShipping,
		Taxable:           p.Taxable,
		GiftCard:          p.GiftCard,
		FulfillmentStatus: p.FulfillmentStatus,
		Properties:        p.Properties,
	}, nil
}

// OrderPayload is one order as returned by the platform, including its
// embedded customer reference and line items.
type OrderPayload struct {
	ID                int64             `json:"id"`
	OrderNumber       int64             `json:"order_number"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	Currency          string            `json:"currency"`
	TotalPrice        string            `json:"total_price"`
	SubtotalPrice     string            `json:"subtotal_price"`
	TotalTax          string            `json:"total_tax"`
	TotalDiscounts    string            `json:"total_discounts"`
	TotalWeight       float64           `json:"total_weight"`
	TaxesIncluded     bool              `json:"taxes_included"`
	Confirmed         bool              `json:"confirmed"`
	ProcessedAt       *time.Time        `json:"processed_at"`
	CancelledAt       *time.Time        `json:"cancelled_at"`
	CancelReason      string            `json:"cancel_reason"`
	ClosedAt          *time.Time        `json:"closed_at"`
	Test              bool              `json:"test"`
	Tags              string            `json:"tags"`
	Note              string            `json:"note"`
	SourceName        string            `json:"source_name"`
	Customer          *CustomerPayload  `json:"customer"`
	LineItems         []LineItemPayload `json:"line_items"`
	ShippingAddress   json.RawMessage   `json:"shipping_address"`
	BillingAddress    json.RawMessage   `json:"billing_address"`
	CreatedAt         *time.Time        `json:"created_at"`
	UpdatedAt         *time.Time        `json:"updated_at"`
}

// ToOrder maps the payload into the local schema. The customer foreign
// key is passed in by the caller, which resolves it against the local
// mirror; it stays null for guest checkouts.
func (p OrderPayload) ToOrder(storeID uuid.UUID, customerID uuid.NullUUID) (*domain.Order, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: order missing id", domain.ErrMalformedRecord)
	}
	amounts := make([]decimal.Decimal, 4)
	for i, raw := range []string{p.TotalPrice, p.SubtotalPrice, p.TotalTax, p.TotalDiscounts} {
		d, err := parseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d amount %q: %v", domain.ErrMalformedRecord, p.ID, raw, err)
		}
		amounts[i] = d
	}
	return &domain.Order{
		ID:                uuid.New(),
		StoreID:           storeID,
		CustomerID:        customerID,
		ExternalID:        p.ID,
		OrderNumber:       p.OrderNumber,
		Name:              p.Name,
		Email:             p.Email,
		Phone:             p.Phone,
		FinancialStatus:   p.FinancialStatus,
		FulfillmentStatus: p.FulfillmentStatus,
		Currency:          p.Currency,
		TotalPrice:        amounts[0],
		SubtotalPrice:     amounts[1],
		TotalTax:          amounts[2],
		TotalDiscounts:    amounts[3],
		TotalWeight:       decimal.NewFromFloat(p.TotalWeight),
		TaxesIncluded:     p.TaxesIncluded,
		Confirmed:         p.Confirmed,
		ProcessedAt:       p.ProcessedAt,
		CancelledAt:       p.CancelledAt,
		CancelReason:      p.CancelReason,
		ClosedAt:          p.ClosedAt,
		Test:              p.Test,
		Tags:              splitTags(p.Tags),
		Note:              p.Note,
		SourceName:        p.SourceName,
		ShippingAddress:   p.ShippingAddress,
		BillingAddress:    p.BillingAddress,
		PlatformCreatedAt: p.CreatedAt,
		PlatformUpdatedAt: p.UpdatedAt,
	}, nil
}

// parseAmount parses a platform monetary string, treating absence as zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// splitTags splits the platform's comma-separated tag string, trimming
// whitespace and dropping empty entries.
func splitTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
