package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Component state (admin
// principal, component addresses) is initialized through the orchestrator's
// admin plane, not through the environment; only wiring-level settings live
// here so main stays lean.
type Server struct {
	Addr             string
	Environment      string
	AdminPrincipal   string
	AdminSigningKey  string
	AdminToken       string
	VerifierAddr     string
	LedgerAddr       string
	OrchestratorAddr string
	CollectionName   string
	CollectionSymbol string
	CollectionURI    string
	RequestTimeout   time.Duration
	KafkaBrokers     string
	KafkaAuditTopic  string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:             getenv("PROOFGATE_ADDR", ":8080"),
		Environment:      getenv("PROOFGATE_ENV", "dev"),
		AdminPrincipal:   getenv("PROOFGATE_ADMIN", "GPROOFGATEADMIN"),
		AdminSigningKey:  getenv("PROOFGATE_ADMIN_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:       os.Getenv("PROOFGATE_ADMIN_TOKEN"),
		VerifierAddr:     getenv("PROOFGATE_VERIFIER_ADDR", "component:verifier"),
		LedgerAddr:       getenv("PROOFGATE_LEDGER_ADDR", "component:ledger"),
		OrchestratorAddr: getenv("PROOFGATE_ORCHESTRATOR_ADDR", "component:orchestrator"),
		CollectionName:   getenv("PROOFGATE_COLLECTION_NAME", "Identity Credential"),
		CollectionSymbol: getenv("PROOFGATE_COLLECTION_SYMBOL", "IDC"),
		CollectionURI:    getenv("PROOFGATE_COLLECTION_URI", ""),
		RequestTimeout:   30 * time.Second,
		KafkaBrokers:     os.Getenv("PROOFGATE_KAFKA_BROKERS"),
		KafkaAuditTopic:  getenv("PROOFGATE_KAFKA_AUDIT_TOPIC", "proofgate.audit"),
	}

	if raw := os.Getenv("PROOFGATE_REQUEST_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.RequestTimeout = d
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
