// Package ops serves the health and metrics endpoints next to the bot.
package ops

import (
	"allowlist-bot/metrics"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter builds the ops HTTP handler.
func NewRouter(store Pinger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		ready := map[string]any{"checked_at": time.Now().UTC().Format(time.RFC3339)}
		if err := store.Ping(ctx); err != nil {
			ready["status"] = "degraded"
			ready["store"] = map[string]any{"ok": false, "error": err.Error()}
			writeJSON(w, http.StatusServiceUnavailable, ready)
			return
		}
		ready["status"] = "ready"
		ready["store"] = map[string]any{"ok": true}
		writeJSON(w, http.StatusOK, ready)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// Start serves the ops endpoints on addr until ctx is cancelled.
func Start(ctx context.Context, addr string, store Pinger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(store),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Ops server shutdown failed")
		}
	}()

	go func() {
		log.Printf("Ops server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Ops server stopped")
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to write ops response")
	}
}
