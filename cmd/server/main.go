package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"proofgate/internal/audit"
	ledgerhandler "proofgate/internal/ledger/handler"
	ledgermodels "proofgate/internal/ledger/models"
	ledgerservice "proofgate/internal/ledger/service"
	ledgerstore "proofgate/internal/ledger/store"
	orchhandler "proofgate/internal/orchestrator/handler"
	orchservice "proofgate/internal/orchestrator/service"
	orchstore "proofgate/internal/orchestrator/store"
	"proofgate/internal/platform/config"
	"proofgate/internal/platform/health"
	"proofgate/internal/platform/kafka/producer"
	"proofgate/internal/platform/logger"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/platform/tracer"
	httptransport "proofgate/internal/transport/http"
	verifierhandler "proofgate/internal/verifier/handler"
	verifierservice "proofgate/internal/verifier/service"
	verifierstore "proofgate/internal/verifier/store"
	"proofgate/pkg/domain"
	adminmw "proofgate/pkg/platform/middleware/admin"
)

const auditBufferSize = 256

// main wires the components and keeps the server lifecycle small. The
// verifier and ledger never talk to each other; only the orchestrator
// spans both.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing proofgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	m := metrics.New()

	auditOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(auditBufferSize),
		audit.WithPublisherLogger(log),
	}
	if cfg.KafkaBrokers != "" {
		kp, err := producer.New(producer.Config{
			Brokers:         cfg.KafkaBrokers,
			DeliveryTimeout: 10 * time.Second,
		}, log)
		if err != nil {
			log.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer kp.Close()
		auditOpts = append(auditOpts, audit.WithSink(audit.NewKafkaSink(kp, cfg.KafkaAuditTopic)))
		log.Info("audit events will be delivered to kafka", "topic", cfg.KafkaAuditTopic)
	}
	auditStore := audit.NewInMemoryStore()
	auditor := audit.NewPublisher(auditStore, auditOpts...)
	defer auditor.Close()

	admin := domain.Address(cfg.AdminPrincipal)
	orchestratorPrincipal := domain.Address(cfg.OrchestratorAddr)

	verifierSvc := verifierservice.NewService(verifierstore.NewInMemoryStore(), admin,
		verifierservice.WithPrincipal(domain.Address(cfg.VerifierAddr)),
		verifierservice.WithAuditor(auditor),
		verifierservice.WithMetrics(m),
		verifierservice.WithLogger(log),
	)

	ledgerSvc := ledgerservice.NewService(ledgerstore.NewInMemoryStore(),
		ledgerservice.WithAuditor(auditor),
		ledgerservice.WithMetrics(m),
		ledgerservice.WithLogger(log),
	)

	orchSvc := orchservice.NewService(
		orchstore.NewInMemoryStore(),
		verifierSvc,
		orchservice.NewLedgerAdapter(ledgerSvc, orchestratorPrincipal),
		orchservice.WithAuditor(auditor),
		orchservice.WithMetrics(m),
		orchservice.WithTracer(tracer.NewOTel()),
		orchservice.WithLogger(log),
	)

	// One-time setup: the ledger is owned by the orchestrator's own
	// principal, so nothing else can mint around the protocol.
	ctx := context.Background()
	if err := ledgerSvc.Initialize(ctx, orchestratorPrincipal, ledgermodels.Metadata{
		Name:    cfg.CollectionName,
		Symbol:  cfg.CollectionSymbol,
		BaseURI: cfg.CollectionURI,
	}); err != nil {
		log.Error("failed to initialize ledger", "error", err)
		os.Exit(1)
	}
	if err := orchSvc.Initialize(ctx, orchstore.Config{
		Admin:    admin,
		Verifier: domain.Address(cfg.VerifierAddr),
		Ledger:   domain.Address(cfg.LedgerAddr),
	}); err != nil {
		log.Error("failed to initialize orchestrator", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Orchestrator: orchhandler.New(orchSvc, auditStore, log),
		Verifier:     verifierhandler.New(verifierSvc, log),
		Ledger:       ledgerhandler.New(ledgerSvc, log),
		Health:       health.New(cfg.Environment),
		AdminAuth: adminmw.Config{
			SigningKey:  []byte(cfg.AdminSigningKey),
			StaticToken: cfg.AdminToken,
			Principal:   admin,
		},
		Metrics: m,
		Logger:  log,
		Timeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
