// package service provides functions and methods
// for creating and running the api of the bundle gateway
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kava-labs/bundle-gateway/clients/counters"
	"github.com/kava-labs/bundle-gateway/clients/database"
	"github.com/kava-labs/bundle-gateway/clients/database/noop"
	"github.com/kava-labs/bundle-gateway/clients/database/postgres"
	"github.com/kava-labs/bundle-gateway/clients/database/postgres/migrations"
	"github.com/kava-labs/bundle-gateway/clients/upstream"
	"github.com/kava-labs/bundle-gateway/config"
	"github.com/kava-labs/bundle-gateway/logging"
	"github.com/kava-labs/bundle-gateway/service/bundlemdw"
)

const (
	HealthcheckPath    = "/healthcheck"
	ServicecheckPath   = "/servicecheck"
	DatabaseStatusPath = "/status/database"
	UpstreamStatsPath  = "/status/upstreams"
)

// BundleService represents an instance of the bundle gateway API
type BundleService struct {
	Database database.MetricsDatabase
	// nil when upstream stats are disabled
	Counters counters.Counters
	Router   *UpstreamRouter
	server   *http.Server
	closers  []io.Closer
	config   config.Config
	*logging.ServiceLogger
}

// New returns a new BundleService with the specified config and error (if any)
func New(ctx context.Context, config config.Config, serviceLogger *logging.ServiceLogger) (BundleService, error) {
	service := BundleService{
		Router:        NewUpstreamRouter(config.UpstreamHostURLMapParsed, config.UpstreamDefaultURLParsed),
		config:        config,
		ServiceLogger: serviceLogger,
	}

	db, err := createMetricsDatabase(ctx, config, serviceLogger)
	if err != nil {
		return BundleService{}, err
	}
	service.Database = db
	if closer, ok := db.(io.Closer); ok {
		service.closers = append(service.closers, closer)
	}

	if config.UpstreamStatsEnabled {
		service.Counters = createCounters(config, serviceLogger)
	}

	upstreamClient := upstream.New(upstream.ClientConfig{
		Timeout: time.Duration(config.UpstreamTimeoutSeconds) * time.Second,
		Logger:  serviceLogger,
	})

	bundleHandler, err := bundlemdw.CreateBundleProcessingMiddleware(bundlemdw.BundleMiddlewareConfig{
		ServiceLogger:    serviceLogger,
		IsURLAcceptable:  service.Router.IsURLAcceptable,
		ResolveURL:       service.Router.ResolveURL,
		MaxRequests:      config.BundleMaxRequests,
		Transport:        upstreamClient,
		PropagateHeaders: propagateHeaders,
		Hooks: &metricsHooks{
			database:    service.Database,
			counters:    service.Counters,
			statsPrefix: config.UpstreamStatsPrefix,
			statsWindow: time.Duration(config.UpstreamStatsWindowSeconds) * time.Second,
			logger:      serviceLogger,
		},
	})
	if err != nil {
		return BundleService{}, err
	}

	// create an http router for registering handlers for a given route
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return createRequestLoggingMiddleware(next, serviceLogger)
	})

	r.Get(HealthcheckPath, createHealthcheckHandler(&service))
	r.Get(ServicecheckPath, createServicecheckHandler(&service))
	r.Get(DatabaseStatusPath, createDatabaseStatusHandler(&service))
	if service.Counters != nil {
		r.Get(UpstreamStatsPath, createUpstreamStatsHandler(&service))
	}

	// the gateway entry point accepts every method
	r.HandleFunc(config.BundleRoutePath, createBundleContextMiddleware(bundleHandler))

	serviceLogger.Debug().Strs("hosts", service.Router.Hosts()).Msg("bundle upstream hosts")

	// create an http server for the caller to start at their own discretion
	service.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", config.BundleServicePort),
		Handler: r,
	}

	return service, nil
}

// Handler returns the root handler of the service's routes
func (s *BundleService) Handler() http.Handler {
	return s.server.Handler
}

// Run runs the bundle gateway, returning error (if any) in the event
// the bundle gateway stops
func (s *BundleService) Run() error {
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in flight bundles
// and closes the connections of the service's clients
func (s *BundleService) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)

	for _, closer := range s.closers {
		if closeErr := closer.Close(); closeErr != nil {
			s.Error().Msg(fmt.Sprintf("error %s closing client", closeErr))
		}
	}

	return err
}

// createMetricsDatabase returns the noop database when metrics are disabled,
// otherwise a postgres client once the database answers, running migrations if configured
func createMetricsDatabase(ctx context.Context, config config.Config, logger *logging.ServiceLogger) (database.MetricsDatabase, error) {
	if !config.MetricDatabaseEnabled {
		logger.Info().Msg("bundle request metrics are disabled")
		return noop.New(), nil
	}

	client, err := postgres.NewClient(postgres.DatabaseConfig{
		DatabaseName:                     config.DatabaseName,
		DatabaseEndpointURL:              config.DatabaseEndpointURL,
		DatabaseUsername:                 config.DatabaseUserName,
		DatabasePassword:                 config.DatabasePassword,
		ReadTimeoutSeconds:               config.DatabaseReadTimeoutSeconds,
		DatabaseMaxIdleConnections:       config.DatabaseMaxIdleConnections,
		DatabaseConnectionMaxIdleSeconds: config.DatabaseConnectionMaxIdleSeconds,
		DatabaseMaxOpenConnections:       config.DatabaseMaxOpenConnections,
		SSLEnabled:                       config.DatabaseSSLEnabled,
		QueryLoggingEnabled:              config.DatabaseQueryLoggingEnabled,
		Logger:                           logger,
	})
	if err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Duration(config.DatabaseConnectMaxElapsedSeconds) * time.Second

	err = backoff.Retry(func() error {
		err := client.HealthCheck()
		if err != nil {
			logger.Debug().Msg(fmt.Sprintf("error %s connecting to database, retrying", err))
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if config.RunDatabaseMigrations {
		migrationStatus, err := client.Migrate(ctx, migrations.Migrations)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("error running migrations: %w", err)
		}

		logger.Debug().Msg(fmt.Sprintf("run migrations result %+v", migrationStatus))
	}

	return client, nil
}

// createCounters returns redis backed counters when a redis endpoint
// is configured, in memory counters otherwise
func createCounters(config config.Config, logger *logging.ServiceLogger) counters.Counters {
	if config.RedisEndpointURL == "" {
		logger.Info().Msg("upstream stats kept in memory")
		return counters.NewInMemoryCounters()
	}

	return counters.NewRedisCounters(&counters.RedisConfig{
		Address:  config.RedisEndpointURL,
		Password: config.RedisPassword,
	}, logger)
}
