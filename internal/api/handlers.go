package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/easyrent/scraper/internal/storage"
)

func (s *Server) handleCrawlRequest(w http.ResponseWriter, r *http.Request) {
	if s.crawler.IsRunning() {
		s.respondWithError(w, http.StatusConflict, "A crawl cycle is already in progress")
		return
	}

	go func() {
		if err := s.crawler.RunOnce(context.Background()); err != nil {
			s.logger.Error("manual crawl failed", zap.Error(err))
		}
	}()

	s.respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Crawl cycle started"})
}

func (s *Server) handleStatusRequest(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"running": s.crawler.IsRunning(),
	}
	if last := s.crawler.LastRun(); last != nil {
		status["lastRun"] = last
	}

	s.respondWithJSON(w, http.StatusOK, status)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		s.respondWithError(w, http.StatusBadRequest, "Listing id is required")
		return
	}

	listing, err := s.pgStore.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrListingNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Listing not found")
			return
		}
		s.logger.Error("failed to load listing", zap.String("id", id), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve listing")
		return
	}

	s.respondWithJSON(w, http.StatusOK, listing)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	// Check Postgres
	if err := s.pgStore.Ping(ctx); err != nil {
		healthStatus["postgres"] = "unhealthy"
		s.logger.Error("health check failed for postgres", zap.Error(err))
	} else {
		healthStatus["postgres"] = "healthy"
	}

	// Check Redis
	if err := s.redisStore.Ping(ctx); err != nil {
		healthStatus["redis"] = "unhealthy"
		s.logger.Error("health check failed for redis", zap.Error(err))
	} else {
		healthStatus["redis"] = "healthy"
	}

	isHealthy := healthStatus["postgres"] == "healthy" && healthStatus["redis"] == "healthy"
	if !isHealthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}

	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
