package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/freelance-hub-api/shared/cache"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
)

// DatabasePinger is satisfied by *mongo.Client.
type DatabasePinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

type healthHTTPHandler struct {
	db     DatabasePinger
	cache  *cache.Cache
	logger *zerolog.Logger
}

func (h *healthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	cacheStatus := "disabled"
	if h.cache.Enabled() {
		cacheStatus = "enabled"
	}

	if err := h.db.Ping(ctx, readpref.Primary()); err != nil {
		h.logger.Error().Err(err).Msg("health check failed to ping database")
		response.JSON(w, http.StatusServiceUnavailable, payload.HealthResponse{
			Status:   "unavailable",
			Database: "down",
			Cache:    cacheStatus,
		})
		return
	}

	response.JSON(w, http.StatusOK, payload.HealthResponse{
		Status:   "ok",
		Database: "up",
		Cache:    cacheStatus,
	})
}
