package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/ports"
)

// DefaultStoreTTL bounds how stale a cached store may get. Webhook
// ingestion resolves stores by domain on every delivery, so the cache
// sits on that hot path.
const DefaultStoreTTL = 60 * time.Second

// CachedStoreDirectory decorates a StoreDirectory with a Redis
// read-through cache on domain lookups. Redis failures degrade to the
// underlying directory, never to request failures.
type CachedStoreDirectory struct {
	ports.StoreDirectory

	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedStoreDirectory wraps the given directory with a Redis cache.
func NewCachedStoreDirectory(inner ports.StoreDirectory, client *redis.Client, logger zerolog.Logger) *CachedStoreDirectory {
	return &CachedStoreDirectory{
		StoreDirectory: inner,
		client:         client,
		ttl:            DefaultStoreTTL,
		logger:         logger,
	}
}

func domainKey(shopDomain string) string {
	return "store:domain:" + shopDomain
}

// cachedStore is the cache wire format. The store's JSON encoding omits
// the access token, so the DTO carries it explicitly; a cache hit must
// hand back the same credentials as a database read.
type cachedStore struct {
	Store       domain.Store `json:"store"`
	AccessToken string       `json:"accessToken"`
}

func encodeStore(store *domain.Store) ([]byte, error) {
	return json.Marshal(cachedStore{Store: *store, AccessToken: store.AccessToken})
}

func decodeStore(raw []byte) (*domain.Store, error) {
	var entry cachedStore
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	store := entry.Store
	store.AccessToken = entry.AccessToken
	return &store, nil
}

func (c *CachedStoreDirectory) GetByDomain(ctx context.Context, shopDomain string) (*domain.Store, error) {
	key := domainKey(shopDomain)
	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if store, err := decodeStore(cached); err == nil {
			return store, nil
		}
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Str("shop", shopDomain).Msg("store cache read failed")
	}

	store, err := c.StoreDirectory.GetByDomain(ctx, shopDomain)
	if err != nil || store == nil {
		return store, err
	}

	if encoded, err := encodeStore(store); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("shop", shopDomain).Msg("store cache write failed")
		}
	}
	return store, nil
}

func (c *CachedStoreDirectory) UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.StoreSettings) error {
	if err := c.StoreDirectory.UpdateSettings(ctx, id, settings); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedStoreDirectory) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := c.StoreDirectory.Deactivate(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedStoreDirectory) invalidate(ctx context.Context, id uuid.UUID) {
	store, err := c.StoreDirectory.GetByID(ctx, id)
	if err != nil || store == nil {
		return
	}
	if err := c.client.Del(ctx, domainKey(store.Domain)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("shop", store.Domain).Msg("store cache invalidation failed")
	}
}
