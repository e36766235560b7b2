package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the issuance service.
type Metrics struct {
	// Issuance outcomes, labeled by path ("proof" or "admin_direct").
	CredentialsIssued *prometheus.CounterVec
	// Proof verification outcomes, labeled by result
	// ("verified", "rejected", "replayed", "malformed").
	ProofsVerified *prometheus.CounterVec
	// Mint failures observed after a successful verification. This is the
	// partial-failure path that requires manual reconciliation, so it gets
	// its own counter rather than a label.
	MintFailedAfterVerify prometheus.Counter
	KeysRegistered        prometheus.Counter
	TransfersTotal        prometheus.Counter
	EndpointLatency       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_credentials_issued_total",
			Help: "Total credentials minted, labeled by issuance path",
		}, []string{"path"}),
		ProofsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proofgate_proofs_verified_total",
			Help: "Total proof verification attempts, labeled by result",
		}, []string{"result"}),
		MintFailedAfterVerify: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_mint_failed_after_verify_total",
			Help: "Mints that failed after the proof had been verified and reserved",
		}),
		KeysRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_verification_keys_registered_total",
			Help: "Total verification key registrations (including rotations)",
		}),
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proofgate_credential_transfers_total",
			Help: "Total credential ownership transfers",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proofgate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
