package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/metrics"
	"shopify-sync-engine/internal/infrastructure/shopify"
	"shopify-sync-engine/internal/ports"
)

// SyncService pulls a store's resources page by page and mirrors them
// into the record store. Malformed records are skipped and logged; the
// page loop keeps going so one bad record never aborts a run.
type SyncService struct {
	client   ports.ShopClient
	records  ports.RecordStore
	metrics  *metrics.SyncMetrics
	pageSize int
	logger   zerolog.Logger
}

// NewSyncService creates a sync service.
func NewSyncService(client ports.ShopClient, records ports.RecordStore, m *metrics.SyncMetrics, logger zerolog.Logger) *SyncService {
	return &SyncService{
		client:   client,
		records:  records,
		metrics:  m,
		pageSize: shopify.DefaultPageSize,
		logger:   logger,
	}
}

// SyncCustomers pulls every customer page for the store and upserts each
// record. Returns the number of records synced.
func (s *SyncService) SyncCustomers(ctx context.Context, store *domain.Store) (int, error) {
	synced := 0
	pageInfo := ""
	for {
		payloads, next, err := s.client.ListCustomers(ctx, store.Domain, store.AccessToken, pageInfo, s.pageSize)
		if err != nil {
			return synced, fmt.Errorf("failed to fetch customers page: %w", err)
		}
		for _, payload := range payloads {
			customer, err := payload.ToCustomer(store.ID)
			if err != nil {
				s.skipRecord(store, "customer", payload.ID, err)
				continue
			}
			if err := s.records.UpsertCustomer(ctx, customer); err != nil {
				return synced, err
			}
			synced++
		}
		if next == "" {
			break
		}
		pageInfo = next
	}
	s.metrics.RecordsSynced.WithLabelValues(string(domain.ResourceCustomers)).Add(float64(synced))
	return synced, nil
}

// SyncProducts pulls every product page for the store and upserts each
// record. Returns the number of records synced.
func (s *SyncService) SyncProducts(ctx context.Context, store *domain.Store) (int, error) {
	synced := 0
	pageInfo := ""
	for {
		payloads, next, err := s.client.ListProducts(ctx, store.Domain, store.AccessToken, pageInfo, s.pageSize)
		if err != nil {
			return synced, fmt.Errorf("failed to fetch products page: %w", err)
		}
		for _, payload := range payloads {
			product, err := payload.ToProduct(store.ID)
			if err != nil {
				s.skipRecord(store, "product", payload.ID, err)
				continue
			}
			if err := s.records.UpsertProduct(ctx, product); err != nil {
				return synced, err
			}
			synced++
		}
		if next == "" {
			break
		}
		pageInfo = next
	}
	s.metrics.RecordsSynced.WithLabelValues(string(domain.ResourceProducts)).Add(float64(synced))
	return synced, nil
}

// SyncOrders pulls every order page for the store, resolving customer
// and product references against the local mirror and upserting the
// order together with its line items.
func (s *SyncService) SyncOrders(ctx context.Context, store *domain.Store) (int, error) {
	synced := 0
	pageInfo := ""
	for {
		payloads, next, err := s.client.ListOrders(ctx, store.Domain, store.AccessToken, pageInfo, s.pageSize)
		if err != nil {
			return synced, fmt.Errorf("failed to fetch orders page: %w", err)
		}
		for _, payload := range payloads {
			if err := s.ApplyOrder(ctx, store.ID, payload); err != nil {
				if errors.Is(err, domain.ErrMalformedRecord) {
					s.skipRecord(store, "order", payload.ID, err)
					continue
				}
				return synced, err
			}
			synced++
		}
		if next == "" {
			break
		}
		pageInfo = next
	}
	s.metrics.RecordsSynced.WithLabelValues(string(domain.ResourceOrders)).Add(float64(synced))
	return synced, nil
}

// ApplyOrder mirrors one order payload: the order row, its customer
// reference, and its line items. Used by both the pull loop and webhook
// ingestion, so a webhook replay converges on the same rows as a pull.
func (s *SyncService) ApplyOrder(ctx context.Context, storeID uuid.UUID, payload shopify.OrderPayload) error {
	customerID := uuid.NullUUID{}
	if payload.Customer != nil && payload.Customer.ID != 0 {
		id, err := s.records.LookupCustomerID(ctx, storeID, payload.Customer.ID)
		if err != nil {
			return err
		}
		customerID = id
	}

	order, err := payload.ToOrder(storeID, customerID)
	if err != nil {
		return err
	}
	orderID, err := s.records.UpsertOrder(ctx, order)
	if err != nil {
		return err
	}

	for _, linePayload := range payload.LineItems {
		item, err := linePayload.ToOrderItem(orderID)
		if err != nil {
			s.logger.Warn().
				Int64("order", payload.ID).
				Int64("line_item", linePayload.ID).
				Err(err).
				Msg("skipping malformed line item")
			continue
		}
		if linePayload.ProductID != 0 {
			productID, err := s.records.LookupProductID(ctx, storeID, linePayload.ProductID)
			if err != nil {
				return err
			}
			item.ProductID = productID
		}
		if err := s.records.UpsertOrderItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) skipRecord(store *domain.Store, kind string, externalID int64, err error) {
	s.logger.Warn().
		Str("shop", store.Domain).
		Str("kind", kind).
		Int64("external_id", externalID).
		Err(err).
		Msg("skipping malformed record")
}
