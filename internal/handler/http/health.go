package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"flyra-backend/internal/cache"
	"flyra-backend/internal/repository"
)

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	storage repository.Storage
	cache   cache.Cache
	log     *zap.Logger
}

func NewHealthHandler(storage repository.Storage, c cache.Cache, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		cache:   c,
		log:     log,
	}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	StoreStatus string    `json:"store_status"`
	CacheStatus string    `json:"cache_status"`
}

// Health probes the durable store and the cache. A degraded cache does not
// make the service unhealthy; an unreachable store does.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	_, err := h.storage.GetLink(ctx, "health-check-non-existent")
	if err != nil && !errors.Is(err, repository.ErrSlugNotFound) {
		storeStatus = "unhealthy"
		h.log.Error("store health check failed", zap.Error(err))
	}

	cacheStatus := "healthy"
	if _, err := h.cache.Get(ctx, "health-check-non-existent"); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		cacheStatus = "degraded"
		h.log.Warn("cache health check failed", zap.Error(err))
	}

	status := "healthy"
	statusCode := http.StatusOK
	if storeStatus == "unhealthy" {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		StoreStatus: storeStatus,
		CacheStatus: cacheStatus,
	})
}

// Ready reports readiness to take traffic.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.Health(w, r)
}
