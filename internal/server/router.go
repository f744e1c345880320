// Package server wires up all HTTP routes and applies the middleware chain
// (RequestID → CORS → RateLimit → Metrics → Timeout).
package server

import (
	"encoding/json"
	"net/http"
	"time"

	answerhandler "github.com/policydocs/harvester/internal/answer/handler"
	harvesthandler "github.com/policydocs/harvester/internal/harvest/handler"
	srvmw "github.com/policydocs/harvester/internal/server/middleware"
	"github.com/policydocs/harvester/pkg/config"
	"github.com/policydocs/harvester/pkg/health"
	"github.com/policydocs/harvester/pkg/metrics"
	pkgmw "github.com/policydocs/harvester/pkg/middleware"
)

// New builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /api/v1/harvest     → run a harvest batch
//	GET    /api/v1/documents   → list catalogued documents
//	POST   /api/v1/query       → answer a policy question
//	POST   /api/v1/feedback    → record answer feedback
//	POST   /api/v1/refine      → refine a previous answer
//	GET    /api/v1/status      → service status
//	GET    /health             → liveness
//	GET    /health/ready       → readiness (dependency probes)
//	GET    /metrics            → Prometheus scrape (when metrics are enabled)
//
// Unknown routes get a JSON 404 envelope.
func New(
	cfg *config.Config,
	hh *harvesthandler.Handler,
	ah *answerhandler.Handler,
	checker *health.Checker,
	m *metrics.Metrics,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/harvest", hh.Harvest)
	mux.HandleFunc("GET /api/v1/documents", hh.ListDocuments)

	mux.HandleFunc("POST /api/v1/query", ah.Query)
	mux.HandleFunc("POST /api/v1/feedback", ah.Feedback)
	mux.HandleFunc("POST /api/v1/refine", ah.Refine)

	mux.HandleFunc("GET /api/v1/status", statusHandler(cfg))
	mux.HandleFunc("GET /health", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if m != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	mux.HandleFunc("/", notFoundHandler)

	// Middleware chain — applied inside-out:
	// request → RequestID → CORS → RateLimit → Metrics → Timeout → mux
	var chain http.Handler = mux
	chain = pkgmw.Timeout(cfg.Server.RequestTimeout)(chain)
	if m != nil {
		chain = pkgmw.Metrics(m)(chain)
	}
	if cfg.Server.RateLimitPerMin > 0 {
		limiter := srvmw.NewLimiter(time.Minute)
		chain = srvmw.RateLimit(limiter, cfg.Server.RateLimitPerMin)(chain)
	}
	chain = srvmw.CORS(srvmw.DefaultCORSConfig())(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}

// statusHandler reports the service identity and the effective non-secret
// configuration.
func statusHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service": "policy-document-harvester",
			"status":  "running",
			"config": map[string]any{
				"storageBackend": cfg.Storage.Backend,
				"keyPrefix":      cfg.Storage.KeyPrefix,
				"fetchTimeout":   cfg.Harvest.FetchTimeout.String(),
				"maxPayloadSize": cfg.Harvest.MaxPayloadSize,
				"kafkaEnabled":   cfg.Kafka.Enabled,
			},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "route not found",
		"path":    r.URL.Path,
	})
}
