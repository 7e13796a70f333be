package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-sync-engine/internal/application"
	"shopify-sync-engine/internal/domain"
	"shopify-sync-engine/internal/infrastructure/metrics"
	shopifyinfra "shopify-sync-engine/internal/infrastructure/shopify"
	"shopify-sync-engine/internal/ports"
)

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// healthHandler reports process and database health.
func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// listStoresHandler returns all active stores.
func listStoresHandler(directory ports.StoreDirectory, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stores, err := directory.ListActive(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("Failed to list stores")
			respondError(w, http.StatusInternalServerError, "failed to list stores")
			return
		}
		if stores == nil {
			stores = []*domain.Store{}
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"stores": stores})
	}
}

// connectStoreHandler registers a shop for synchronization. The caller
// provides either an access token directly or an OAuth authorization
// code to exchange.
func connectStoreHandler(
	directory ports.StoreDirectory,
	scheduler *application.Scheduler,
	exchanger *shopifyinfra.OAuthExchanger,
	logger zerolog.Logger,
) http.HandlerFunc {
	type connectRequest struct {
		TenantID    uuid.UUID `json:"tenantId"`
		ShopDomain  string    `json:"shopDomain"`
		AccessToken string    `json:"accessToken"`
		Code        string    `json:"code"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req connectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ShopDomain == "" {
			respondError(w, http.StatusBadRequest, "shopDomain is required")
			return
		}
		if req.TenantID == uuid.Nil {
			respondError(w, http.StatusBadRequest, "tenantId is required")
			return
		}

		accessToken := req.AccessToken
		if accessToken == "" {
			if req.Code == "" || !exchanger.Configured() {
				respondError(w, http.StatusBadRequest, "accessToken or code is required")
				return
			}
			token, err := exchanger.ExchangeToken(ctx, req.ShopDomain, req.Code)
			if err != nil {
				logger.Error().Err(err).Str("shop", req.ShopDomain).Msg("OAuth token exchange failed")
				respondError(w, http.StatusBadGateway, "failed to exchange authorization code")
				return
			}
			accessToken = token
		}

		store := &domain.Store{
			TenantID:    req.TenantID,
			Domain:      req.ShopDomain,
			AccessToken: accessToken,
			Settings:    domain.DefaultStoreSettings(),
		}

		// Shop metadata is a nicety; connecting still succeeds if the
		// shop endpoint is unreachable.
		if info, err := exchanger.GetShopInfo(ctx, req.ShopDomain, accessToken); err != nil {
			logger.Warn().Err(err).Str("shop", req.ShopDomain).Msg("Failed to fetch shop metadata")
		} else {
			store.ShopID = info.ID
			store.Name = info.Name
			store.Email = info.Email
			store.Currency = info.Currency
			store.Timezone = info.Timezone
		}

		if err := directory.Create(ctx, store); err != nil {
			logger.Error().Err(err).Str("shop", req.ShopDomain).Msg("Failed to create store")
			respondError(w, http.StatusInternalServerError, "failed to connect store")
			return
		}
		if err := scheduler.ScheduleStore(ctx, store.ID); err != nil {
			logger.Error().Err(err).Str("shop", store.Domain).Msg("Failed to schedule sync job")
		}

		logger.Info().Str("shop", store.Domain).Str("store", store.ID.String()).Msg("Store connected")
		respondJSON(w, http.StatusCreated, store)
	}
}

// disconnectStoreHandler soft-deactivates a store and removes its job.
func disconnectStoreHandler(directory ports.StoreDirectory, scheduler *application.Scheduler, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid store id")
			return
		}
		if err := directory.Deactivate(r.Context(), storeID); err != nil {
			if errors.Is(err, domain.ErrStoreNotFound) {
				respondError(w, http.StatusNotFound, "store not found")
				return
			}
			logger.Error().Err(err).Str("store", storeID.String()).Msg("Failed to deactivate store")
			respondError(w, http.StatusInternalServerError, "failed to disconnect store")
			return
		}
		scheduler.Unschedule(storeID)
		respondJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
	}
}

// updateSettingsHandler applies a partial settings update and reshapes
// the store's recurring job.
func updateSettingsHandler(scheduler *application.Scheduler, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid store id")
			return
		}

		var patch domain.SettingsPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if patch.SyncIntervalSeconds != nil && *patch.SyncIntervalSeconds <= 0 {
			respondError(w, http.StatusBadRequest, "syncIntervalSeconds must be positive")
			return
		}

		store, err := scheduler.UpdateStoreSyncSettings(r.Context(), storeID, patch)
		if err != nil {
			if errors.Is(err, domain.ErrStoreNotFound) {
				respondError(w, http.StatusNotFound, "store not found")
				return
			}
			logger.Error().Err(err).Str("store", storeID.String()).Msg("Failed to update settings")
			respondError(w, http.StatusInternalServerError, "failed to update settings")
			return
		}
		respondJSON(w, http.StatusOK, store.Settings)
	}
}

// triggerSyncHandler runs an on-demand pull for a store. The optional
// dataType field narrows the run to one resource.
func triggerSyncHandler(scheduler *application.Scheduler, logger zerolog.Logger) http.HandlerFunc {
	type triggerRequest struct {
		DataType string `json:"dataType"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := uuid.Parse(chi.URLParam(r, "storeID"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid store id")
			return
		}

		var req triggerRequest
		if r.Body != nil {
			// An empty body means "sync everything the store enables".
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				respondError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		var kinds []domain.ResourceKind
		switch req.DataType {
		case "", "all":
		case "customers":
			kinds = []domain.ResourceKind{domain.ResourceCustomers}
		case "products":
			kinds = []domain.ResourceKind{domain.ResourceProducts}
		case "orders":
			kinds = []domain.ResourceKind{domain.ResourceOrders}
		default:
			respondError(w, http.StatusBadRequest, "dataType must be customers, products, orders or all")
			return
		}

		summary, err := scheduler.TriggerSync(r.Context(), storeID, kinds...)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrStoreNotFound):
				respondError(w, http.StatusNotFound, "store not found")
			case errors.Is(err, domain.ErrSyncInProgress):
				respondError(w, http.StatusConflict, "sync already in progress")
			default:
				logger.Error().Err(err).Str("store", storeID.String()).Msg("Manual sync failed")
				respondError(w, http.StatusInternalServerError, "sync failed")
			}
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
	}
}

// schedulerStatusHandler reports the scheduler's registered jobs.
func schedulerStatusHandler(scheduler *application.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, scheduler.Status())
	}
}

// shopifyWebhookHandler verifies and dispatches platform webhooks.
// Signature verification runs before anything else touches the payload.
func shopifyWebhookHandler(
	directory ports.StoreDirectory,
	verifier *shopifyinfra.WebhookVerifier,
	dispatcher *application.WebhookDispatcher,
	syncMetrics *metrics.SyncMetrics,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		defer r.Body.Close()

		if err := verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-Sha256")); err != nil {
			logger.Warn().Str("shop", r.Header.Get("X-Shopify-Shop-Domain")).Msg("Webhook signature verification failed")
			respondError(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			respondError(w, http.StatusBadRequest, "missing X-Shopify-Topic header")
			return
		}

		shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
		store, err := directory.GetByDomain(ctx, shopDomain)
		if err != nil {
			logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to resolve webhook store")
			respondError(w, http.StatusInternalServerError, "failed to resolve store")
			return
		}
		if store == nil {
			syncMetrics.WebhookEvents.WithLabelValues(topic, "unknown_store").Inc()
			respondError(w, http.StatusNotFound, "unknown store")
			return
		}

		event := &domain.WebhookEvent{
			StoreID:    store.ID,
			Topic:      topic,
			ShopDomain: shopDomain,
			Payload:    payload,
		}
		if err := dispatcher.Dispatch(ctx, event); err != nil {
			syncMetrics.WebhookEvents.WithLabelValues(topic, "error").Inc()
			logger.Error().Err(err).Str("topic", topic).Str("shop", shopDomain).Msg("Failed to dispatch webhook event")
			// 500 asks the platform to redeliver
			respondError(w, http.StatusInternalServerError, "failed to process webhook event")
			return
		}

		syncMetrics.WebhookEvents.WithLabelValues(topic, "ok").Inc()
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

// customEventHandler appends a custom analytics event.
func customEventHandler(events *application.EventService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input application.CustomEventInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if input.StoreID == uuid.Nil {
			respondError(w, http.StatusBadRequest, "storeId is required")
			return
		}
		if input.EventType == "" {
			respondError(w, http.StatusBadRequest, "eventType is required")
			return
		}

		event, err := events.Record(r.Context(), input)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrStoreNotFound):
				respondError(w, http.StatusNotFound, "store not found")
			case errors.Is(err, domain.ErrEventsDisabled):
				respondError(w, http.StatusForbidden, "event tracking disabled")
			default:
				logger.Error().Err(err).Msg("Failed to record custom event")
				respondError(w, http.StatusInternalServerError, "failed to record event")
			}
			return
		}
		respondJSON(w, http.StatusCreated, map[string]interface{}{"eventId": event.ID})
	}
}
