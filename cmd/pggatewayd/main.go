package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibbank/pggateway/internal/application/usecase"
	"github.com/bibbank/pggateway/internal/domain/port"
	"github.com/bibbank/pggateway/internal/domain/service"
	"github.com/bibbank/pggateway/internal/infrastructure/cache"
	"github.com/bibbank/pggateway/internal/infrastructure/config"
	"github.com/bibbank/pggateway/internal/infrastructure/messaging"
	"github.com/bibbank/pggateway/internal/infrastructure/persistence/memory"
	infraPG "github.com/bibbank/pggateway/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/pggateway/internal/infrastructure/provider"
	"github.com/bibbank/pggateway/internal/infrastructure/provider/mockpg"
	"github.com/bibbank/pggateway/internal/infrastructure/provider/testpg"
	"github.com/bibbank/pggateway/internal/infrastructure/provider/toss"
	grpcPresentation "github.com/bibbank/pggateway/internal/presentation/grpc"
	"github.com/bibbank/pggateway/internal/presentation/rest"
	"github.com/bibbank/pggateway/pkg/auth"
	kafkapkg "github.com/bibbank/pggateway/pkg/kafka"
	"github.com/bibbank/pggateway/pkg/money"
	"github.com/bibbank/pggateway/pkg/observability"
	pgpkg "github.com/bibbank/pggateway/pkg/postgres"
	"github.com/bibbank/pggateway/pkg/tlsutil"
)

const shutdownTimeout = 15 * time.Second

type repositories struct {
	partners port.PartnerRepository
	policies port.FeePolicyRepository
	payments port.PaymentRepository
}

func main() {
	if err := run(); err != nil {
		slog.Error("pggatewayd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("starting pggatewayd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"backend", cfg.Backend,
		"dotenv", cfg.DotEnvLoaded,
	)

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.Insecure,
		SampleRatio:  1,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	metrics, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		SetGlobal:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	checks := map[string]rest.ReadinessCheck{}
	var repos repositories
	var relay *messaging.OutboxRelay

	switch cfg.Backend {
	case config.BackendPostgres:
		pgCfg := pgpkg.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Name,
			SSLMode:  cfg.DB.SSLMode,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		}
		pool, err := pgpkg.NewPool(ctx, pgCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		if err := pgpkg.RunMigrations(pgCfg.DSN(), infraPG.Migrations, infraPG.MigrationsDir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		checks["postgres"] = func(ctx context.Context) error { return pgpkg.HealthCheck(ctx, pool) }

		repos = repositories{
			partners: infraPG.NewPartnerRepo(pool),
			policies: infraPG.NewFeePolicyRepo(pool),
			payments: infraPG.NewPaymentRepo(pool, cfg.Kafka.Topic),
		}

		if len(cfg.Kafka.Brokers) > 0 {
			producer, err := kafkapkg.NewProducer(kafkapkg.Config{
				Brokers:       cfg.Kafka.Brokers,
				SASLEnabled:   cfg.Kafka.SASLEnabled,
				SASLMechanism: cfg.Kafka.SASLMechanism,
				SASLUsername:  cfg.Kafka.SASLUsername,
				SASLPassword:  cfg.Kafka.SASLPassword,
				TLS:           cfg.Kafka.TLS,
			})
			if err != nil {
				return fmt.Errorf("failed to create kafka producer: %w", err)
			}
			defer producer.Close()

			relay = messaging.NewOutboxRelay(
				infraPG.NewOutboxRepo(pool),
				messaging.NewKafkaPublisher(producer, logger),
				cfg.Kafka.RelayInterval,
				cfg.Kafka.RelayBatch,
				logger,
			)
		} else {
			logger.Warn("no kafka brokers configured, payment events stay in the outbox")
		}
	case config.BackendMemory:
		repos = repositories{
			partners: memory.NewPartnerRepo(memory.SeedPartners()...),
			policies: memory.NewFeePolicyRepo(memory.SeedFeePolicies()...),
			payments: memory.NewPaymentRepo(),
		}
	}

	if cfg.Redis.Addr != "" {
		rdb := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		repos.partners = cache.NewPartnerRepository(repos.partners, rdb, cfg.Redis.PartnerTTL, logger)
	}

	clients, err := newProviders(cfg.Providers, metrics, logger)
	if err != nil {
		return err
	}
	router := service.NewProviderRouter(clients...)

	createPayment := usecase.NewCreatePayment(repos.partners, repos.policies, repos.payments, router, money.KRW, logger)
	queryPayments := usecase.NewQueryPayments(repos.payments)
	getPayment := usecase.NewGetPayment(repos.payments)

	jwtService, err := newJWTService(cfg.Auth)
	if err != nil {
		return err
	}
	if jwtService == nil {
		logger.Warn("JWT authentication disabled")
	}

	var limiter *rest.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = rest.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: rest.NewRouter(rest.RouterConfig{
			Payments:       rest.NewPaymentHandler(createPayment, queryPayments, getPayment, logger),
			Health:         rest.NewHealthHandler(cfg.Telemetry.ServiceName, checks, logger),
			Metrics:        metrics.Handler,
			JWT:            jwtService,
			RateLimiter:    limiter,
			RequestTimeout: cfg.Providers.ConnectTimeout + cfg.Providers.ReadTimeout + 5*time.Second,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcCfg := grpcPresentation.ServerConfig{JWT: jwtService, Reflection: true}
	if cfg.TLS.Enabled() {
		tlsConfig, err := tlsutil.ServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS config: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		if grpcCfg.Creds, err = tlsutil.GRPCServerCredentials(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("failed to load gRPC TLS credentials: %w", err)
		}
	}
	grpcServer := grpcPresentation.NewServer(
		grpcPresentation.NewPaymentHandler(createPayment, queryPayments, getPayment),
		grpcCfg,
		logger,
	)

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	relayDone := make(chan struct{})
	if relay != nil {
		go func() {
			defer close(relayDone)
			relay.Run(relayCtx)
		}()
	} else {
		close(relayDone)
	}

	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Serve(fmt.Sprintf(":%d", cfg.GRPCPort)); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort, "tls", cfg.TLS.Enabled())
		var err error
		if cfg.TLS.Enabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	stopRelay()
	<-relayDone

	if err := metrics.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown failed", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", "error", err)
	}

	logger.Info("pggatewayd stopped")
	return runErr
}

// newProviders builds the provider adapters in routing priority order.
func newProviders(cfg config.ProvidersConfig, metrics *observability.Metrics, logger *slog.Logger) ([]port.ProviderClient, error) {
	httpClient := provider.NewHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)
	matcher := func(remainder int64) provider.ModuloMatcher {
		return provider.ModuloMatcher{Divisor: cfg.RoutingDivisor, Remainder: remainder}
	}

	testPG, err := testpg.NewClient(testpg.Config{
		BaseURL: cfg.TestPG.BaseURL,
		APIKey:  cfg.TestPG.APIKey,
		IV:      cfg.TestPG.IV,
	}, httpClient, matcher(cfg.TestPGRemainder))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", testpg.Name, err)
	}

	raw := []port.ProviderClient{
		mockpg.NewClient(matcher(cfg.MockRemainder)),
		testPG,
		toss.NewClient(toss.Config{
			BaseURL:   cfg.Toss.BaseURL,
			SecretKey: cfg.Toss.SecretKey,
		}, httpClient, matcher(cfg.TossRemainder)),
	}

	meter := metrics.Provider.Meter("github.com/bibbank/pggateway/internal/infrastructure/provider")
	clients := make([]port.ProviderClient, 0, len(raw))
	for _, c := range raw {
		instrumented, err := provider.NewInstrumented(c, meter, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to instrument %s client: %w", c.Name(), err)
		}
		clients = append(clients, instrumented)
	}
	return clients, nil
}

// newJWTService returns nil when authentication is not configured.
func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	jwtCfg := auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}
	if cfg.JWTPublicKeyFile != "" {
		pem, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load JWT public key: %w", err)
		}
		jwtCfg.PublicKeyPEM = string(pem)
	}
	svc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	return svc, nil
}
