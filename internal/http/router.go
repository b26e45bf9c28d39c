package http

import (
	"encoding/json"
	"net/http"
	"time"

	"ai-call-coordinator-service/internal/app"
	"ai-call-coordinator-service/internal/service/coordinator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// healthResponse is the aggregate health payload served at /v1/health.
type healthResponse struct {
	Status                string              `json:"status"`
	UptimeSeconds         float64             `json:"uptimeSeconds"`
	Conversation          coordinator.Summary `json:"conversation"`
	PendingFallbackTimers int                 `json:"pendingFallbackTimers"`
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application, coord *coordinator.Coordinator) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Aggregate health with conversation gating summary
	r.Get("/v1/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		summary, err := coord.Summary(req.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
			return
		}

		resp := healthResponse{
			Status:                "ok",
			Conversation:          summary,
			PendingFallbackTimers: coord.PendingTimerCount(),
		}
		if !application.StartupTime.IsZero() {
			resp.UptimeSeconds = time.Since(application.StartupTime).Seconds()
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})

	return r
}
