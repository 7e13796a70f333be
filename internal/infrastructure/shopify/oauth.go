package shopify

import (
	"context"
	"fmt"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// ShopInfo is the subset of shop metadata captured when a store connects.
type ShopInfo struct {
	ID       int64
	Name     string
	Email    string
	Domain   string
	Currency string
	Timezone string
}

// OAuthExchanger exchanges OAuth authorization codes for access tokens
// and fetches shop metadata during the store-connect flow.
type OAuthExchanger struct {
	app    goshopify.App
	logger zerolog.Logger
}

// NewOAuthExchanger creates an exchanger for the configured app credentials.
func NewOAuthExchanger(apiKey, apiSecret string, logger zerolog.Logger) *OAuthExchanger {
	return &OAuthExchanger{
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		logger: logger,
	}
}

// Configured reports whether app credentials are present; without them
// connect requests must carry an access token directly.
func (o *OAuthExchanger) Configured() bool {
	return o.app.ApiKey != "" && o.app.ApiSecret != ""
}

// ExchangeToken exchanges an authorization code for an access token.
func (o *OAuthExchanger) ExchangeToken(ctx context.Context, shop, code string) (string, error) {
	token, err := o.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// GetShopInfo fetches the shop resource for a freshly connected store.
func (o *OAuthExchanger) GetShopInfo(ctx context.Context, shopDomain, accessToken string) (*ShopInfo, error) {
	client, err := goshopify.NewClient(o.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	shop, err := client.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &ShopInfo{
		ID:       int64(shop.Id),
		Name:     shop.Name,
		Email:    shop.Email,
		Domain:   shop.Domain,
		Currency: shop.Currency,
		Timezone: shop.Timezone,
	}, nil
}
