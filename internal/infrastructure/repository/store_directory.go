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

const storeColumns = `id, tenant_id, shop_domain, access_token, shop_id, shop_name, shop_email,
	currency, timezone, is_active, sync_status, last_sync_at, settings, created_at, updated_at`

// PostgresStoreDirectory persists connected stores in the shopify_stores table.
type PostgresStoreDirectory struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresStoreDirectory creates a store directory backed by the given pool.
func NewPostgresStoreDirectory(db *sql.DB, logger zerolog.Logger) *PostgresStoreDirectory {
	return &PostgresStoreDirectory{db: db, logger: logger}
}

func (r *PostgresStoreDirectory) Create(ctx context.Context, store *domain.Store) error {
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	now := time.Now().UTC()
	store.CreatedAt = now
	store.UpdatedAt = now

	settings, err := json.Marshal(store.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode store settings: %w", err)
	}

	// Reconnecting a previously disconnected shop reactivates the row and
	// refreshes its credentials instead of violating the domain uniqueness.
	query := `
		INSERT INTO shopify_stores (
			id, tenant_id, shop_domain, access_token, shop_id, shop_name, shop_email,
			currency, timezone, is_active, sync_status, settings, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $11, $12, $12)
		ON CONFLICT (shop_domain) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			access_token = EXCLUDED.access_token,
			shop_id = EXCLUDED.shop_id,
			shop_name = EXCLUDED.shop_name,
			shop_email = EXCLUDED.shop_email,
			currency = EXCLUDED.currency,
			timezone = EXCLUDED.timezone,
			is_active = TRUE,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		store.ID, store.TenantID, store.Domain, store.AccessToken, store.ShopID,
		store.Name, store.Email, store.Currency, store.Timezone,
		string(domain.SyncPending), settings, now,
	).Scan(&store.ID, &store.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	store.IsActive = true
	store.SyncStatus = domain.SyncPending
	return nil
}

func (r *PostgresStoreDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM shopify_stores WHERE id = $1`
	return r.scanStore(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresStoreDirectory) GetByDomain(ctx context.Context, shopDomain string) (*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM shopify_stores WHERE shop_domain = $1 AND is_active = TRUE`
	return r.scanStore(r.db.QueryRowContext(ctx, query, shopDomain))
}

func (r *PostgresStoreDirectory) ListActive(ctx context.Context) ([]*domain.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM shopify_stores WHERE is_active = TRUE ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active stores: %w", err)
	}
	defer rows.Close()

	var stores []*domain.Store
	for rows.Next() {
		store, err := r.scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list active stores: %w", err)
	}
	return stores, nil
}

// ClaimSync is a compare-and-swap on sync_status: exactly one caller wins
// when runs overlap, everyone else observes rowsAffected == 0.
func (r *PostgresStoreDirectory) ClaimSync(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	query := `
		UPDATE shopify_stores
		SET sync_status = $2, last_sync_at = $3, updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE AND sync_status <> $2`

	result, err := r.db.ExecContext(ctx, query, id, string(domain.SyncRunning), startedAt)
	if err != nil {
		return false, fmt.Errorf("failed to claim sync for store %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim sync for store %s: %w", id, err)
	}
	return affected == 1, nil
}

func (r *PostgresStoreDirectory) FinishSync(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error {
	query := `UPDATE shopify_stores SET sync_status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, string(status)); err != nil {
		return fmt.Errorf("failed to finish sync for store %s: %w", id, err)
	}
	return nil
}

func (r *PostgresStoreDirectory) UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.StoreSettings) error {
	encoded, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode store settings: %w", err)
	}
	query := `UPDATE shopify_stores SET settings = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, encoded)
	if err != nil {
		return fmt.Errorf("failed to update settings for store %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}

func (r *PostgresStoreDirectory) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE shopify_stores SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate store %s: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrStoreNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresStoreDirectory) scanStore(row rowScanner) (*domain.Store, error) {
	var (
		store      domain.Store
		syncStatus string
		lastSyncAt sql.NullTime
		settings   []byte
	)
	err := row.Scan(
		&store.ID, &store.TenantID, &store.Domain, &store.AccessToken, &store.ShopID,
		&store.Name, &store.Email, &store.Currency, &store.Timezone,
		&store.IsActive, &syncStatus, &lastSyncAt, &settings,
		&store.CreatedAt, &store.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}

	store.SyncStatus = domain.SyncStatus(syncStatus)
	if lastSyncAt.Valid {
		t := lastSyncAt.Time
		store.LastSyncAt = &t
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &store.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings for store %s: %w", store.ID, err)
		}
	} else {
		store.Settings = domain.DefaultStoreSettings()
	}
	return &store, nil
}
