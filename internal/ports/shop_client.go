package ports

import (
	"context"

	"shopify-sync-engine/internal/infrastructure/shopify"
)

// ShopClient defines the interface for paginated platform API access.
// Each call fetches one page and returns the continuation cursor for the
// next, empty when the collection is exhausted.
type ShopClient interface {
	ListCustomers(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]shopify.CustomerPayload, string, error)
	ListProducts(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]shopify.ProductPayload, string, error)
	ListOrders(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]shopify.OrderPayload, string, error)
}
