package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"relief/internal/application"
	"relief/internal/decision"
	"relief/internal/draft"
	"relief/internal/fund"
	"relief/internal/identity"
	jwttoken "relief/internal/jwt_token"
	"relief/internal/ledger"
	"relief/internal/platform/config"
	"relief/internal/platform/httpserver"
	"relief/internal/platform/logger"
	"relief/internal/platform/metrics"
	platformredis "relief/internal/platform/redis"
	"relief/internal/profile"
	"relief/internal/session"
	"relief/internal/submission"
	httptransport "relief/internal/transport/http"
	"relief/internal/verification"
	"relief/pkg/platform/audit"
)

// main wires dependencies and owns the process lifecycle. Every concern that
// has both a durable and an in-process implementation picks based on config,
// so a bare `go run` serves the full API against in-memory stores.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores.
	var (
		profileStore     profile.Store
		identityStore    identity.Store
		applicationStore application.Store
		rosterStore      verification.RosterStore
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			log.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("pinging postgres", "error", err)
			os.Exit(1)
		}
		profileStore = profile.NewPostgresStore(db)
		identityStore = identity.NewPostgresStore(db)
		applicationStore = application.NewPostgresStore(db)
		rosterStore = verification.NewPostgresRosterStore(db)
	} else {
		profileStore = profile.NewInMemoryStore()
		identityStore = identity.NewInMemoryStore()
		applicationStore = application.NewInMemoryStore()
		rosterStore = verification.NewInMemoryRosterStore()
		log.Info("postgres not configured, using in-memory stores")
	}
	profiles := profile.NewFeedStore(profileStore)

	fundStore := fund.NewInMemoryStore(fund.SeedDemoFunds()...)
	catalog := fund.NewCatalog(fundStore)

	// Draft scratch storage.
	var kv draft.KV = draft.NewInMemoryKV()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		kv = draft.NewRedisKV(redisClient.Client)
	} else {
		log.Info("redis not configured, drafts held in process")
	}
	drafts, err := draft.NewCache(kv)
	if err != nil {
		log.Error("building draft cache", "error", err)
		os.Exit(1)
	}

	// Audit pipeline: services write to a buffered recorder, a worker
	// persists and forwards compliance events to Kafka when configured.
	auditStore := audit.NewInMemoryStore()
	recorder := audit.NewChannelRecorder(1024, log)
	var publisher audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connecting to kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
	}
	worker := audit.NewWorker(auditStore, publisher, recorder.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Domain services.
	identitySvc, err := identity.New(identityStore, profiles,
		identity.WithLogger(log),
		identity.WithMetrics(m),
		identity.WithAuditRecorder(recorder),
	)
	if err != nil {
		log.Error("building identity service", "error", err)
		os.Exit(1)
	}
	verificationSvc, err := verification.New(catalog, identitySvc, rosterStore,
		verification.WithLogger(log),
		verification.WithMetrics(m),
	)
	if err != nil {
		log.Error("building verification service", "error", err)
		os.Exit(1)
	}
	grantLedger, err := ledger.New(applicationStore)
	if err != nil {
		log.Error("building ledger", "error", err)
		os.Exit(1)
	}
	finalizer := decision.NewHTTPFinalizer(cfg.Decision.BaseURL, cfg.Decision.Timeout)
	submissionSvc, err := submission.New(catalog, profiles, identityStore, applicationStore, grantLedger, finalizer,
		submission.WithLogger(log),
		submission.WithMetrics(m),
		submission.WithAuditRecorder(recorder),
		submission.WithDraftCache(drafts),
	)
	if err != nil {
		log.Error("building submission service", "error", err)
		os.Exit(1)
	}
	hydrator := session.NewHydrator(session.Deps{
		Profiles:   profiles,
		Feed:       profiles,
		Identities: identityStore,
		Drafts:     drafts,
	},
		session.WithLogger(log),
		session.WithMetrics(m),
		session.WithAuditRecorder(recorder),
		session.WithProvisioningGrace(cfg.Auth.ProvisioningGrace),
	)

	// Transport.
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	handler := httptransport.NewHandler(httptransport.Services{
		Verification: verificationSvc,
		Identities:   identitySvc,
		Hydrator:     hydrator,
		Submissions:  submissionSvc,
		Applications: applicationStore,
		Profiles:     profiles,
		Drafts:       drafts,
		Catalog:      catalog,
	}, log)

	healthcheck := func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
	router := httptransport.NewRouter(handler, validator, healthcheck)

	srv := httpserver.New(cfg.Server.Addr, router)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
