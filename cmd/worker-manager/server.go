// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"enrichment-workers/internal/common/logger"
)

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

func newServer(addr string, checks []readinessCheck, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(checks, log))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// readyHandler answers 503 while any backend check fails.
func readyHandler(checks []readinessCheck, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failing := map[string]string{}
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				failing[c.name] = err.Error()
			}
		}

		if len(failing) > 0 {
			log.Warn("readiness check failed", map[string]interface{}{"failing": failing})
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "not_ready",
				"failing": failing,
				"time":    time.Now().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
