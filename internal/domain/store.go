package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus tracks the lifecycle of a store's pull synchronization.
// pending -> syncing -> completed|failed, and back to syncing on the
// next run. Webhook ingestion never transitions this state.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncRunning   SyncStatus = "syncing"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// DefaultSyncIntervalSeconds is used when a store has no explicit interval.
const DefaultSyncIntervalSeconds = 3600

// StoreSettings holds the per-store sync configuration.
type StoreSettings struct {
	SyncCustomers       bool `json:"syncCustomers"`
	SyncProducts        bool `json:"syncProducts"`
	SyncOrders          bool `json:"syncOrders"`
	SyncEvents          bool `json:"syncEvents"`
	AutoSync            bool `json:"autoSync"`
	SyncIntervalSeconds int  `json:"syncIntervalSeconds"`
}

// DefaultStoreSettings returns the settings applied to a newly connected store.
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		SyncCustomers:       true,
		SyncProducts:        true,
		SyncOrders:          true,
		SyncEvents:          true,
		AutoSync:            true,
		SyncIntervalSeconds: DefaultSyncIntervalSeconds,
	}
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	SyncCustomers       *bool `json:"syncCustomers"`
	SyncProducts        *bool `json:"syncProducts"`
	SyncOrders          *bool `json:"syncOrders"`
	SyncEvents          *bool `json:"syncEvents"`
	AutoSync            *bool `json:"autoSync"`
	SyncIntervalSeconds *int  `json:"syncIntervalSeconds"`
}

// Apply merges a patch over the current settings and returns the result.
func (s StoreSettings) Apply(p SettingsPatch) StoreSettings {
	if p.SyncCustomers != nil {
		s.SyncCustomers = *p.SyncCustomers
	}
	if p.SyncProducts != nil {
		s.SyncProducts = *p.SyncProducts
	}
	if p.SyncOrders != nil {
		s.SyncOrders = *p.SyncOrders
	}
	if p.SyncEvents != nil {
		s.SyncEvents = *p.SyncEvents
	}
	if p.AutoSync != nil {
		s.AutoSync = *p.AutoSync
	}
	if p.SyncIntervalSeconds != nil {
		s.SyncIntervalSeconds = *p.SyncIntervalSeconds
	}
	return s
}

// Store is one connected external shop belonging to a tenant. Stores are
// soft-deactivated on disconnect, never hard-deleted.
type Store struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    uuid.UUID     `json:"tenantId"`
	Domain      string        `json:"shopDomain"`
	AccessToken string        `json:"-"`
	ShopID      int64         `json:"shopId"`
	Name        string        `json:"shopName"`
	Email       string        `json:"shopEmail,omitempty"`
	Currency    string        `json:"currency"`
	Timezone    string        `json:"timezone"`
	IsActive    bool          `json:"isActive"`
	SyncStatus  SyncStatus    `json:"syncStatus"`
	LastSyncAt  *time.Time    `json:"lastSyncAt,omitempty"`
	Settings    StoreSettings `json:"settings"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// SyncInterval returns the configured sync interval in seconds, falling
// back to the default when unset.
func (s *Store) SyncInterval() int {
	if s.Settings.SyncIntervalSeconds > 0 {
		return s.Settings.SyncIntervalSeconds
	}
	return DefaultSyncIntervalSeconds
}

// ResourceKind identifies one synchronized resource collection.
type ResourceKind string

const (
	ResourceCustomers ResourceKind = "customers"
	ResourceProducts  ResourceKind = "products"
	ResourceOrders    ResourceKind = "orders"
)

// ResourceResult is the outcome of syncing one resource kind in one run.
type ResourceResult struct {
	Synced int    `json:"synced"`
	Error  string `json:"error,omitempty"`
}

// SyncSummary maps each attempted resource kind to its result.
type SyncSummary map[ResourceKind]ResourceResult
