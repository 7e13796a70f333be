package application

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/shopify"
)

// memDirectory is an in-memory StoreDirectory for tests.
type memDirectory struct {
	mu         sync.Mutex
	stores     map[uuid.UUID]*domain.Store
	lastStatus map[uuid.UUID]domain.SyncStatus
}

func newMemDirectory(stores ...*domain.Store) *memDirectory {
	d := &memDirectory{
		stores:     make(map[uuid.UUID]*domain.Store),
		lastStatus: make(map[uuid.UUID]domain.SyncStatus),
	}
	for _, s := range stores {
		copied := *s
		d.stores[s.ID] = &copied
	}
	return d
}

func (d *memDirectory) Create(ctx context.Context, store *domain.Store) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	store.IsActive = true
	copied := *store
	d.stores[store.ID] = &copied
	return nil
}

func (d *memDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	store, ok := d.stores[id]
	if !ok {
		return nil, nil
	}
	copied := *store
	return &copied, nil
}

func (d *memDirectory) GetByDomain(ctx context.Context, shopDomain string) (*domain.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, store := range d.stores {
		if store.Domain == shopDomain && store.IsActive {
			copied := *store
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *memDirectory) ListActive(ctx context.Context) ([]*domain.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*domain.Store
	for _, store := range d.stores {
		if store.IsActive {
			copied := *store
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (d *memDirectory) ClaimSync(ctx context.Context, id uuid.UUID, startedAt time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	store, ok := d.stores[id]
	if !ok || !store.IsActive || store.SyncStatus == domain.SyncRunning {
		return false, nil
	}
	store.SyncStatus = domain.SyncRunning
	store.LastSyncAt = &startedAt
	return true, nil
}

func (d *memDirectory) FinishSync(ctx context.Context, id uuid.UUID, status domain.SyncStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if store, ok := d.stores[id]; ok {
		store.SyncStatus = status
	}
	d.lastStatus[id] = status
	return nil
}

func (d *memDirectory) UpdateSettings(ctx context.Context, id uuid.UUID, settings domain.StoreSettings) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	store, ok := d.stores[id]
	if !ok {
		return domain.ErrStoreNotFound
	}
	store.Settings = settings
	return nil
}

func (d *memDirectory) Deactivate(ctx context.Context, id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	store, ok := d.stores[id]
	if !ok {
		return domain.ErrStoreNotFound
	}
	store.IsActive = false
	return nil
}

func (d *memDirectory) statusOf(id uuid.UUID) domain.SyncStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastStatus[id]
}

// memRecords is an in-memory RecordStore for tests. Upserts keep the
// first assigned id for a given external key, matching the database
// behaviour.
type memRecords struct {
	mu        sync.Mutex
	customers map[string]*domain.Customer
	products  map[string]*domain.Product
	orders    map[string]*domain.Order
	items     map[string]*domain.OrderItem
	events    []*domain.CustomEvent
}

func newMemRecords() *memRecords {
	return &memRecords{
		customers: make(map[string]*domain.Customer),
		products:  make(map[string]*domain.Product),
		orders:    make(map[string]*domain.Order),
		items:     make(map[string]*domain.OrderItem),
	}
}

func recordKey(parent uuid.UUID, externalID int64) string {
	return parent.String() + "/" + strconv.FormatInt(externalID, 10)
}

func (m *memRecords) UpsertCustomer(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(customer.StoreID, customer.ExternalID)
	if existing, ok := m.customers[key]; ok {
		customer.ID = existing.ID
	}
	copied := *customer
	m.customers[key] = &copied
	return nil
}

func (m *memRecords) UpsertProduct(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(product.StoreID, product.ExternalID)
	if existing, ok := m.products[key]; ok {
		product.ID = existing.ID
	}
	copied := *product
	m.products[key] = &copied
	return nil
}

func (m *memRecords) UpsertOrder(ctx context.Context, order *domain.Order) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(order.StoreID, order.ExternalID)
	if existing, ok := m.orders[key]; ok {
		order.ID = existing.ID
	}
	copied := *order
	m.orders[key] = &copied
	return order.ID, nil
}

func (m *memRecords) UpsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey(item.OrderID, item.ExternalID)
	if existing, ok := m.items[key]; ok {
		item.ID = existing.ID
	}
	copied := *item
	m.items[key] = &copied
	return nil
}

func (m *memRecords) LookupCustomerID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if customer, ok := m.customers[recordKey(storeID, externalID)]; ok {
		return uuid.NullUUID{UUID: customer.ID, Valid: true}, nil
	}
	return uuid.NullUUID{}, nil
}

func (m *memRecords) LookupProductID(ctx context.Context, storeID uuid.UUID, externalID int64) (uuid.NullUUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product, ok := m.products[recordKey(storeID, externalID)]; ok {
		return uuid.NullUUID{UUID: product.ID, Valid: true}, nil
	}
	return uuid.NullUUID{}, nil
}

func (m *memRecords) MarkOrderPaid(ctx context.Context, storeID uuid.UUID, externalID int64, processedAt time.Time, platformUpdatedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.orders[recordKey(storeID, externalID)]; ok {
		order.FinancialStatus = "paid"
		order.ProcessedAt = &processedAt
		if platformUpdatedAt != nil {
			order.PlatformUpdatedAt = platformUpdatedAt
		}
	}
	return nil
}

func (m *memRecords) MarkOrderCancelled(ctx context.Context, storeID uuid.UUID, externalID int64, cancelledAt time.Time, reason string, platformUpdatedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.orders[recordKey(storeID, externalID)]; ok {
		order.FinancialStatus = "voided"
		order.CancelledAt = &cancelledAt
		order.CancelReason = reason
		if platformUpdatedAt != nil {
			order.PlatformUpdatedAt = platformUpdatedAt
		}
	}
	return nil
}

func (m *memRecords) InsertEvent(ctx context.Context, event *domain.CustomEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *event
	m.events = append(m.events, &copied)
	return nil
}

func (m *memRecords) orderByExternalID(storeID uuid.UUID, externalID int64) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[recordKey(storeID, externalID)]
}

// pagedClient serves pre-built pages, using the page index as cursor.
type pagedClient struct {
	customerPages [][]shopify.CustomerPayload
	productPages  [][]shopify.ProductPayload
	orderPages    [][]shopify.OrderPayload
	calls         int
}

func cursorIndex(pageInfo string) (int, error) {
	if pageInfo == "" {
		return 0, nil
	}
	return strconv.Atoi(pageInfo)
}

func nextCursor(index, total int) string {
	if index+1 >= total {
		return ""
	}
	return strconv.Itoa(index + 1)
}

func (c *pagedClient) ListCustomers(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]shopify.CustomerPayload, string, error) {
	c.calls++
	index, err := cursorIndex(pageInfo)
	if err != nil || index >= len(c.customerPages) {
		return nil, "", fmt.Errorf("bad cursor %q", pageInfo)
	}
	return c.customerPages[index], nextCursor(index, len(c.customerPages)), nil
}

func (c *pagedClient) ListProducts(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]shopify.ProductPayload, string, error) {
	c.calls++
	index, err := cursorIndex(pageInfo)
	if err != nil || index >= len(c.productPages) {
		return nil, "", fmt.Errorf("bad cursor %q", pageInfo)
	}
	return c.productPages[index], nextCursor(index, len(c.productPages)), nil
}

func (c *pagedClient) ListOrders(ctx context.Context, shopDomain, accessToken, pageInfo string, limit int) ([]shopify.OrderPayload, string, error) {
	c.calls++
	index, err := cursorIndex(pageInfo)
	if err != nil || index >= len(c.orderPages) {
		return nil, "", fmt.Errorf("bad cursor %q", pageInfo)
	}
	return c.orderPages[index], nextCursor(index, len(c.orderPages)), nil
}

// fakeSyncer records which resources were pulled and can fail per kind.
type fakeSyncer struct {
	mu     sync.Mutex
	counts map[domain.ResourceKind]int
	fail   map[domain.ResourceKind]error
	synced int
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{
		counts: make(map[domain.ResourceKind]int),
		fail:   make(map[domain.ResourceKind]error),
	}
}

func (f *fakeSyncer) run(kind domain.ResourceKind) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[kind]++
	if err := f.fail[kind]; err != nil {
		return 0, err
	}
	return f.synced, nil
}

func (f *fakeSyncer) SyncCustomers(ctx context.Context, store *domain.Store) (int, error) {
	return f.run(domain.ResourceCustomers)
}

func (f *fakeSyncer) SyncProducts(ctx context.Context, store *domain.Store) (int, error) {
	return f.run(domain.ResourceProducts)
}

func (f *fakeSyncer) SyncOrders(ctx context.Context, store *domain.Store) (int, error) {
	return f.run(domain.ResourceOrders)
}

func (f *fakeSyncer) callCount(kind domain.ResourceKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[kind]
}
