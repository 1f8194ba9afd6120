package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bulletinhq/bulletin/pkg/api"
	"github.com/bulletinhq/bulletin/pkg/audit"
	"github.com/bulletinhq/bulletin/pkg/auth"
	"github.com/bulletinhq/bulletin/pkg/authz"
	"github.com/bulletinhq/bulletin/pkg/config"
	"github.com/bulletinhq/bulletin/pkg/middleware"
	"github.com/bulletinhq/bulletin/pkg/observability"
	"github.com/bulletinhq/bulletin/pkg/posts"
	"github.com/bulletinhq/bulletin/pkg/users"
)

func main() {
	startupLog := logrus.New()
	startupLog.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		startupLog.WithError(err).Fatal("failed to load configuration")
	}

	logger := observability.NewLogger(cfg.LogLevel(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracing, err := observability.InitOTel(ctx, cfg.OTelConfig(), logger)
	if err != nil {
		startupLog.WithError(err).Fatal("failed to initialize tracing")
	}

	// Metrics
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	// Audit trail: structured log always, file and database sinks when
	// configured.
	sinks := []audit.Sink{audit.NewLoggerSink(logger)}

	if cfg.Audit.LogDir != "" {
		fileSink, err := audit.NewFileSink(audit.FileSinkConfig{
			BasePath: cfg.Audit.LogDir,
			MaxSize:  cfg.Audit.MaxFileSize,
			MaxFiles: cfg.Audit.MaxFiles,
		})
		if err != nil {
			startupLog.WithError(err).Fatal("failed to open audit log")
		}
		sinks = append(sinks, fileSink)
	}

	var auditDB *sql.DB
	var retention *audit.Retention
	if cfg.Audit.PostgresURL != "" {
		auditDB, err = sql.Open("postgres", cfg.Audit.PostgresURL)
		if err != nil {
			startupLog.WithError(err).Fatal("failed to open audit database")
		}
		dbSink := audit.NewDBSink(auditDB)
		if err := dbSink.Migrate(ctx); err != nil {
			startupLog.WithError(err).Fatal("failed to migrate audit schema")
		}
		sinks = append(sinks, dbSink)

		retention = audit.NewRetention(dbSink, audit.RetentionPolicy{
			RetentionDays: cfg.Audit.RetentionDays,
			Schedule:      cfg.Audit.RetentionSchedule,
		}, logger)
		if err := retention.Start(); err != nil {
			startupLog.WithError(err).Fatal("failed to schedule audit retention")
		}
	}

	// Persistent sinks write off the request path
	sink := audit.NewAsyncSink(audit.NewMultiSink(sinks...), logger, audit.AsyncSinkConfig{})
	defer sink.Close()

	// Redis (distributed rate limiting, readiness probe)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	// Identity: OIDC when configured, API tokens otherwise
	tokens := auth.NewTokenVerifier()
	var verifier auth.Verifier = tokens
	if cfg.Auth.OIDCIssuerURL != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, auth.OIDCConfig{
			IssuerURL:    cfg.Auth.OIDCIssuerURL,
			ClientID:     cfg.Auth.OIDCClientID,
			ClientSecret: cfg.Auth.OIDCClientSecret,
			RedirectURL:  cfg.Auth.OIDCRedirectURL,
		})
		if err != nil {
			startupLog.WithError(err).Fatal("failed to initialize OIDC")
		}
		verifier = oidcVerifier
	}

	userStore := users.NewStore()
	postStore := posts.NewStore()

	if cfg.Auth.BootstrapAdminToken != "" {
		claim := auth.IdentityClaim{ID: "admin", Role: authz.RoleAdmin, DisplayName: "Bootstrap Admin"}
		if _, err := userStore.Create(claim.ID, "admin", claim.DisplayName, claim.Role); err != nil {
			startupLog.WithError(err).Fatal("failed to create bootstrap admin")
		}
		if err := tokens.Register(cfg.Auth.BootstrapAdminToken, claim); err != nil {
			startupLog.WithError(err).Fatal("failed to register bootstrap admin token")
		}
		logger.Info("bootstrap admin token registered")
	}

	// Decision gate over the static permission matrix
	var gate authz.Decider = authz.NewGate(authz.DefaultMatrix())
	if cfg.Auth.DecisionCacheSize > 0 {
		cached, err := authz.NewCachedGate(authz.NewGate(authz.DefaultMatrix()), cfg.Auth.DecisionCacheSize)
		if err != nil {
			startupLog.WithError(err).Fatal("failed to create decision cache")
		}
		gate = cached
	}

	coordinator := users.NewCoordinator(userStore, gate, sink, metrics)

	var rateLimit func(http.Handler) http.Handler
	if redisClient != nil {
		rateLimit = middleware.NewDistributedRateLimitMiddleware(redisClient, metrics).Handler
	} else {
		inMemory := middleware.NewRateLimitMiddleware(metrics)
		rateLimit = inMemory.Handler
	}

	opts := []api.Option{api.WithLogger(logger), api.WithRateLimit(rateLimit)}
	if metrics != nil {
		opts = append(opts, api.WithMetrics(metrics))
	}
	if cfg.Observability.OTelEnabled {
		opts = append(opts, api.WithTracing())
	}
	server := api.NewServer(postStore, userStore, coordinator, verifier, gate, sink, opts...)

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes
	health := observability.NewHealthChecker(auditDB, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		logger.Infof("health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if retention != nil {
			retention.Stop()
		}
		if shutdownTracing != nil {
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.WithError(err).Warn("tracing shutdown failed")
			}
		}
		healthServer.Shutdown(shutdownCtx)
		return apiServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		startupLog.WithError(err).Fatal("server exited with error")
	}
	logger.Info("shutdown complete")
}
