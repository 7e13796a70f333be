package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shopify-sync-engine/internal/domain"
)

// StoreDirectory defines the interface for store persistence. Lookups by
// domain only match active stores; GetByID and GetByDomain return
// (nil, nil) when nothing matches.
type StoreDirectory interface {
	Create(ctx context.Context, store *domain.Store) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Store, error)
	ListActive(ctx context.Context) ([]*domain.Store, error)

	// ClaimSync atomically transitions the store to syncing and stamps
	// last_sync_at, but only if no sync currently holds it. The claim is
	// the mutual-exclusion mechanism between overlapping runs.
	ClaimSync(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error)

	// FinishSync records the terminal status of a pull run.
	FinishSync(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error

	UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.StoreSettings) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
