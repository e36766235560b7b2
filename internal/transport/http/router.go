package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ledgerhandler "proofgate/internal/ledger/handler"
	orchhandler "proofgate/internal/orchestrator/handler"
	"proofgate/internal/platform/health"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/platform/middleware"
	verifierhandler "proofgate/internal/verifier/handler"
	adminmw "proofgate/pkg/platform/middleware/admin"
	requesttime "proofgate/pkg/platform/middleware/requesttime"
)

// Deps collects everything the router mounts. The transport layer stays a
// thin shell: handlers delegate to domain services, and all business rules
// live below this package.
type Deps struct {
	Orchestrator *orchhandler.Handler
	Verifier     *verifierhandler.Handler
	Ledger       *ledgerhandler.Handler
	Health       *health.Handler

	AdminAuth adminmw.Config
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Timeout   time.Duration
}

// NewRouter wires all endpoints with the middleware stack. Admin routes
// sit behind token or JWT auth; everything else is open.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(deps.Logger))
	if deps.Timeout > 0 {
		r.Use(middleware.Timeout(deps.Timeout))
	}
	r.Use(middleware.ContentTypeJSON)
	if deps.Metrics != nil {
		r.Use(latency(deps.Metrics))
	}

	r.Route("/v1", func(r chi.Router) {
		deps.Orchestrator.Register(r)
		deps.Verifier.Register(r)
		deps.Ledger.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(adminmw.Require(deps.AdminAuth, deps.Logger))
			deps.Orchestrator.RegisterAdmin(r)
			deps.Verifier.RegisterAdmin(r)
		})
	})

	deps.Health.Register(r)
	r.Get("/healthz", deps.Health.HandleLiveness)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// latency observes per-endpoint request duration using the chi route
// pattern, so path parameters do not explode the label space.
func latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.EndpointLatency.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
		})
	}
}
