package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"heirloom/internal/audit"
	audithandler "heirloom/internal/audit/handler"
	authhandler "heirloom/internal/auth/handler"
	authmetrics "heirloom/internal/auth/metrics"
	authservice "heirloom/internal/auth/service"
	userstore "heirloom/internal/auth/store/user"
	estatehandler "heirloom/internal/estate/handler"
	estatemetrics "heirloom/internal/estate/metrics"
	estateservice "heirloom/internal/estate/service"
	assetstore "heirloom/internal/estate/store/asset"
	beneficiarystore "heirloom/internal/estate/store/beneficiary"
	inheritancehandler "heirloom/internal/inheritance/handler"
	inheritancemetrics "heirloom/internal/inheritance/metrics"
	inheritanceservice "heirloom/internal/inheritance/service"
	allocationstore "heirloom/internal/inheritance/store/allocation"
	rulestore "heirloom/internal/inheritance/store/rule"
	"heirloom/internal/jwttoken"
	onboardingcache "heirloom/internal/onboarding/cache"
	onboardinghandler "heirloom/internal/onboarding/handler"
	onboardingmetrics "heirloom/internal/onboarding/metrics"
	onboardingservice "heirloom/internal/onboarding/service"
	onboardingstore "heirloom/internal/onboarding/store"
	"heirloom/internal/platform/config"
	"heirloom/internal/platform/httpserver"
	"heirloom/internal/platform/logger"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/platform/postgres"
	platformredis "heirloom/internal/platform/redis"
	httptransport "heirloom/internal/transport/http"
	"heirloom/pkg/platform/tx"
)

// assetStore is the union of what the estate CRUD and the allocation engine
// need from one asset store implementation.
type assetStore interface {
	estateservice.AssetStore
	inheritanceservice.AssetStore
}

type beneficiaryStore interface {
	estateservice.BeneficiaryStore
	inheritanceservice.BeneficiaryStore
}

// stores groups the per-vertical persistence layer so memory and Postgres
// wiring stay symmetric.
type stores struct {
	users         authservice.UserStore
	onboarding    onboardingservice.Store
	assets        assetStore
	beneficiaries beneficiaryStore
	rules         inheritanceservice.RuleStore
	allocations   inheritanceservice.AllocationStore
	audit         audit.Store
	runner        tx.Runner
	health        func(ctx context.Context) error
}

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := buildStores(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis())
	if err != nil {
		// The cache is optional; run without it rather than refuse to start.
		log.Warn("redis unavailable, status cache disabled", "error", err)
	}
	statusCache := onboardingcache.New(redisClient, config.StatusCacheTTL, log)

	publisher := audit.NewPublisher(256, log)
	worker := audit.NewWorker(st.audit, publisher.Inbox(), log)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "heirloom", "heirloom")
	platformMetrics := metrics.New()

	onboardingSvc := onboardingservice.New(st.onboarding,
		onboardingservice.WithLogger(log),
		onboardingservice.WithAuditPublisher(publisher),
		onboardingservice.WithMetrics(onboardingmetrics.New()),
		onboardingservice.WithStatusCache(statusCache),
	)
	authSvc := authservice.New(st.users, st.onboarding, tokens, cfg.TokenTTL,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
		authservice.WithMetrics(authmetrics.New()),
	)
	estateSvc := estateservice.New(st.assets, st.beneficiaries,
		estateservice.WithLogger(log),
		estateservice.WithAuditPublisher(publisher),
		estateservice.WithMetrics(estatemetrics.New()),
	)
	inheritanceSvc := inheritanceservice.New(st.rules, st.allocations, st.assets, st.beneficiaries, st.runner,
		inheritanceservice.WithLogger(log),
		inheritanceservice.WithAuditPublisher(publisher),
		inheritanceservice.WithMetrics(inheritancemetrics.New()),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   platformMetrics,
		Validator: tokens,
		Health:    st.health,
		Public: []httptransport.Registrar{
			authhandler.New(authSvc, log),
		},
		Protected: []httptransport.Registrar{
			onboardinghandler.New(onboardingSvc, log),
			estatehandler.New(estateSvc, log),
			inheritancehandler.New(inheritanceSvc, log),
			audithandler.New(st.audit, log),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting heirloom", "addr", cfg.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info("shutdown complete")
}

// buildStores selects Postgres when DATABASE_URL is set and in-process
// memory stores otherwise, so the binary runs without any infrastructure.
func buildStores(ctx context.Context, cfg config.Server) (*stores, error) {
	if cfg.PostgresURL == "" {
		return &stores{
			users:         userstore.NewInMemory(),
			onboarding:    onboardingstore.NewInMemory(),
			assets:        assetstore.NewInMemory(),
			beneficiaries: beneficiarystore.NewInMemory(),
			rules:         rulestore.NewInMemory(),
			allocations:   allocationstore.NewInMemory(),
			audit:         audit.NewInMemoryStore(),
			runner:        &tx.Serial{},
		}, nil
	}

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &stores{
		users:         userstore.NewPostgres(db),
		onboarding:    onboardingstore.NewPostgres(db),
		assets:        assetstore.NewPostgres(db),
		beneficiaries: beneficiarystore.NewPostgres(db),
		rules:         rulestore.NewPostgres(db),
		allocations:   allocationstore.NewPostgres(db),
		audit:         audit.NewPostgresStore(db),
		runner:        tx.SQL{DB: db},
		health:        db.PingContext,
	}, nil
}
