package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/metrics"
	"shopify-sync-engine/internal/ports"
)

// reconcileInterval is how often the scheduler re-reads the store
// directory to pick up stores connected, disconnected or reconfigured
// outside this process.
const reconcileInterval = 5 * time.Minute

// ResourceSyncer pulls one resource collection for a store. Implemented
// by SyncService.
type ResourceSyncer interface {
	SyncCustomers(ctx context.Context, store *domain.Store) (int, error)
	SyncProducts(ctx context.Context, store *domain.Store) (int, error)
	SyncOrders(ctx context.Context, store *domain.Store) (int, error)
}

// SchedulerStatus is a snapshot of the scheduler's registered jobs.
type SchedulerStatus struct {
	Running    bool     `json:"running"`
	ActiveJobs int      `json:"activeJobs"`
	Jobs       []string `json:"jobs"`
}

// Scheduler maintains one recurring pull job per active store with auto
// sync enabled. Jobs fire on a constant delay derived from the store's
// configured interval; overlap protection lives in the directory's
// sync claim, not here.
type Scheduler struct {
	directory ports.StoreDirectory
	syncer    ResourceSyncer
	metrics   *metrics.SyncMetrics
	logger    zerolog.Logger

	mu          sync.Mutex
	cron        *cron.Cron
	jobs        map[string]cron.EntryID
	reconcileID cron.EntryID
	running     bool
}

// NewScheduler creates a scheduler. Call Start to begin running jobs.
func NewScheduler(directory ports.StoreDirectory, syncer ResourceSyncer, m *metrics.SyncMetrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		directory: directory,
		syncer:    syncer,
		metrics:   m,
		logger:    logger,
		cron:      cron.New(),
		jobs:      make(map[string]cron.EntryID),
	}
}

func jobKey(id uuid.UUID) string {
	return "store_" + id.String()
}

// Start registers a job for every schedulable store and begins firing.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.reconcile(ctx); err != nil {
		return fmt.Errorf("failed to initialize scheduled jobs: %w", err)
	}
	s.mu.Lock()
	s.reconcileID = s.cron.Schedule(cron.Every(reconcileInterval), cron.FuncJob(func() {
		if err := s.reconcile(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("scheduler reconcile failed")
		}
	}))
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
	return nil
}

// Stop halts the cron runner, waits for in-flight jobs to finish and
// clears the job registry, so a later Start rebuilds it from scratch.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()

	s.mu.Lock()
	for key, entryID := range s.jobs {
		s.cron.Remove(entryID)
		delete(s.jobs, key)
	}
	s.cron.Remove(s.reconcileID)
	s.metrics.ScheduledJobs.Set(0)
	s.mu.Unlock()
	s.logger.Info().Msg("scheduler stopped")
}

// reconcile aligns registered jobs with the store directory: stores that
// are active with auto sync enabled get a job, everything else is pruned.
func (s *Scheduler) reconcile(ctx context.Context) error {
	stores, err := s.directory.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active stores: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	desired := make(map[string]bool, len(stores))
	for _, store := range stores {
		if !store.Settings.AutoSync {
			continue
		}
		key := jobKey(store.ID)
		desired[key] = true
		if _, ok := s.jobs[key]; ok {
			continue
		}
		// A store mid-sync is picked up by a later pass, once the run
		// releases its claim.
		if store.SyncStatus == domain.SyncRunning {
			continue
		}
		s.scheduleLocked(store)
	}
	for key, entryID := range s.jobs {
		if !desired[key] {
			s.cron.Remove(entryID)
			delete(s.jobs, key)
			s.logger.Info().Str("job", key).Msg("removed sync job")
		}
	}
	s.metrics.ScheduledJobs.Set(float64(len(s.jobs)))
	return nil
}

// scheduleLocked registers the store's recurring job. Caller holds s.mu.
func (s *Scheduler) scheduleLocked(store *domain.Store) {
	cadence := IntervalToCadence(store.SyncInterval())
	id := store.ID
	entryID := s.cron.Schedule(cron.Every(cadence.Interval()), cron.FuncJob(func() {
		s.runStore(id)
	}))
	s.jobs[jobKey(store.ID)] = entryID
	s.logger.Info().
		Str("shop", store.Domain).
		Str("cadence", cadence.String()).
		Msg("scheduled sync job")
}

// runStore is the job body: it refetches the store so each firing sees
// current settings and credentials.
func (s *Scheduler) runStore(id uuid.UUID) {
	ctx := context.Background()
	store, err := s.directory.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Str("store", id.String()).Err(err).Msg("failed to load store for scheduled sync")
		return
	}
	if store == nil || !store.IsActive {
		return
	}
	if _, err := s.syncStoreData(ctx, store, enabledKinds(store.Settings)...); err != nil {
		s.logger.Error().Str("shop", store.Domain).Err(err).Msg("scheduled sync failed")
	}
}

// TriggerSync runs an on-demand pull for the store. When kinds is empty
// the store's enabled resources are synced. Returns ErrSyncInProgress
// when another run holds the claim.
func (s *Scheduler) TriggerSync(ctx context.Context, storeID uuid.UUID, kinds ...domain.ResourceKind) (domain.SyncSummary, error) {
	store, err := s.directory.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil || !store.IsActive {
		return nil, domain.ErrStoreNotFound
	}
	if len(kinds) == 0 {
		kinds = enabledKinds(store.Settings)
	}
	return s.syncStoreData(ctx, store, kinds...)
}

// syncStoreData claims the store, pulls each requested resource kind and
// records the terminal status. Individual kind failures are captured in
// the summary; the run still completes unless the whole run panics.
func (s *Scheduler) syncStoreData(ctx context.Context, store *domain.Store, kinds ...domain.ResourceKind) (summary domain.SyncSummary, err error) {
	claimed, err := s.directory.ClaimSync(ctx, store.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to claim sync for %s: %w", store.Domain, err)
	}
	if !claimed {
		return nil, domain.ErrSyncInProgress
	}

	started := time.Now()
	status := domain.SyncCompleted
	defer func() {
		if r := recover(); r != nil {
			status = domain.SyncFailed
			err = fmt.Errorf("sync panicked for %s: %v", store.Domain, r)
		}
		if finishErr := s.directory.FinishSync(context.Background(), store.ID, status); finishErr != nil {
			s.logger.Error().Str("shop", store.Domain).Err(finishErr).Msg("failed to record sync status")
		}
		s.metrics.SyncRuns.WithLabelValues(string(status)).Inc()
		s.metrics.SyncDuration.Observe(time.Since(started).Seconds())
	}()

	summary = domain.SyncSummary{}
	for _, kind := range kinds {
		result := domain.ResourceResult{}
		var syncErr error
		switch kind {
		case domain.ResourceCustomers:
			result.Synced, syncErr = s.syncer.SyncCustomers(ctx, store)
		case domain.ResourceProducts:
			result.Synced, syncErr = s.syncer.SyncProducts(ctx, store)
		case domain.ResourceOrders:
			result.Synced, syncErr = s.syncer.SyncOrders(ctx, store)
		default:
			syncErr = fmt.Errorf("unknown resource kind %q", kind)
		}
		if syncErr != nil {
			result.Error = syncErr.Error()
			s.logger.Error().
				Str("shop", store.Domain).
				Str("resource", string(kind)).
				Err(syncErr).
				Msg("resource sync failed")
		}
		summary[kind] = result
	}

	s.logger.Info().
		Str("shop", store.Domain).
		Dur("took", time.Since(started)).
		Interface("summary", summary).
		Msg("sync run finished")
	return summary, nil
}

// UpdateStoreSyncSettings applies a settings patch, persists it and
// reshapes the store's recurring job to match.
func (s *Scheduler) UpdateStoreSyncSettings(ctx context.Context, storeID uuid.UUID, patch domain.SettingsPatch) (*domain.Store, error) {
	store, err := s.directory.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil || !store.IsActive {
		return nil, domain.ErrStoreNotFound
	}

	store.Settings = store.Settings.Apply(patch)
	if err := s.directory.UpdateSettings(ctx, storeID, store.Settings); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := jobKey(storeID)
	if entryID, ok := s.jobs[key]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, key)
	}
	if s.running && store.Settings.AutoSync {
		s.scheduleLocked(store)
	}
	s.metrics.ScheduledJobs.Set(float64(len(s.jobs)))
	return store, nil
}

// ScheduleStore registers a recurring job for a newly connected store
// without waiting for the next reconcile.
func (s *Scheduler) ScheduleStore(ctx context.Context, storeID uuid.UUID) error {
	store, err := s.directory.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if store == nil || !store.IsActive {
		return domain.ErrStoreNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !store.Settings.AutoSync {
		return nil
	}
	if _, ok := s.jobs[jobKey(storeID)]; ok {
		return nil
	}
	s.scheduleLocked(store)
	s.metrics.ScheduledJobs.Set(float64(len(s.jobs)))
	return nil
}

// Unschedule removes the store's recurring job, if any. Used when a
// store is disconnected.
func (s *Scheduler) Unschedule(storeID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := jobKey(storeID)
	if entryID, ok := s.jobs[key]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, key)
		s.metrics.ScheduledJobs.Set(float64(len(s.jobs)))
	}
}

// Status reports the scheduler's registered jobs.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]string, 0, len(s.jobs))
	for key := range s.jobs {
		jobs = append(jobs, key)
	}
	return SchedulerStatus{
		Running:    s.running,
		ActiveJobs: len(jobs),
		Jobs:       jobs,
	}
}

// enabledKinds returns the resource kinds the store has opted into, in
// dependency order: customers and products first so order references
// resolve locally.
func enabledKinds(settings domain.StoreSettings) []domain.ResourceKind {
	var kinds []domain.ResourceKind
	if settings.SyncCustomers {
		kinds = append(kinds, domain.ResourceCustomers)
	}
	if settings.SyncProducts {
		kinds = append(kinds, domain.ResourceProducts)
	}
	if settings.SyncOrders {
		kinds = append(kinds, domain.ResourceOrders)
	}
	return kinds
}
