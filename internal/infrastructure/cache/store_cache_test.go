package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"shopify-sync-engine/internal/domain"
)

func TestCacheEntryPreservesAccessToken(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	store := &domain.Store{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		Domain:      "acme.myshopify.com",
		AccessToken: "shpat_secret",
		IsActive:    true,
		SyncStatus:  domain.SyncCompleted,
		Settings:    domain.DefaultStoreSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The store's own JSON encoding strips the credential.
	direct, err := json.Marshal(store)
	if err != nil {
		t.Fatal(err)
	}
	var stripped domain.Store
	if err := json.Unmarshal(direct, &stripped); err != nil {
		t.Fatal(err)
	}
	if stripped.AccessToken != "" {
		t.Fatal("store JSON is expected to omit the access token")
	}

	encoded, err := encodeStore(store)
	if err != nil {
		t.Fatalf("encodeStore: %v", err)
	}
	decoded, err := decodeStore(encoded)
	if err != nil {
		t.Fatalf("decodeStore: %v", err)
	}
	if decoded.AccessToken != "shpat_secret" {
		t.Errorf("access token = %q after cache round trip, want shpat_secret", decoded.AccessToken)
	}
	if decoded.ID != store.ID || decoded.Domain != store.Domain {
		t.Errorf("identity fields changed: %s %s", decoded.ID, decoded.Domain)
	}
	if decoded.Settings != store.Settings {
		t.Errorf("settings changed: %+v", decoded.Settings)
	}
}

func TestDecodeStoreRejectsGarbage(t *testing.T) {
	if _, err := decodeStore([]byte("not json")); err == nil {
		t.Error("garbage cache entry should fail to decode")
	}
}
