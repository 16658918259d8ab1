// Package introspect serves a read-only debug HTTP server exposing the
// Prometheus metrics endpoint and the sertype registry's program listings:
// a chi router with a RequestID/RealIP/Recoverer/Timeout middleware stack
// and a JSON response envelope, scaled down to cdrstream serve-debug's four
// routes (/health, /metrics, /debug/programs, /debug/programs/{type}).
package introspect

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ddsx/cdrstream/internal/logger"
	"github.com/ddsx/cdrstream/pkg/registry"
)

// NewRouter builds the introspection HTTP handler.
//
// Routes:
//   - GET /health          - liveness probe
//   - GET /metrics         - Prometheus exposition format
//   - GET /debug/programs  - list registered sertype names
//   - GET /debug/programs/{type} - disassembled program listing for one type
func NewRouter(reg *registry.Registry, promReg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", handleHealth)

	if promReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	}

	h := &programsHandler{registry: reg}
	r.Route("/debug/programs", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{type}", h.Describe)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, Response{Status: "healthy", Timestamp: time.Now().UTC()})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("introspect request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("introspect request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
