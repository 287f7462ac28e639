// package main reads & validates configuration for the bundle gateway
// and if the config is valid starts and monitors an instance of the bundle gateway
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kava-labs/bundle-gateway/config"
	"github.com/kava-labs/bundle-gateway/logging"
	"github.com/kava-labs/bundle-gateway/routines"
	"github.com/kava-labs/bundle-gateway/service"
)

const shutdownTimeout = 30 * time.Second

var (
	serviceConfig config.Config
	serviceLogger logging.ServiceLogger
)

// loadConfig reads and validates the service config and creates the logger
// configured by it, panicking if either is invalid
func loadConfig() {
	serviceConfig = config.ReadConfig()

	err := config.Validate(serviceConfig)

	if err != nil {
		panic(err)
	}

	serviceLogger, err = logging.New(serviceConfig.LogLevel)

	if err != nil {
		panic(err)
	}
}

func startMetricPruningRoutine(ctx context.Context, bundleService *service.BundleService) {
	if !serviceConfig.MetricPruningEnabled {
		serviceLogger.Info().Msg("skipping starting metric pruning routine since it is disabled via config")

		return
	}

	metricPruningRoutine, err := routines.NewMetricPruningRoutine(routines.MetricPruningRoutineConfig{
		Interval:                    time.Duration(serviceConfig.MetricPruningRoutineInterval) * time.Second,
		StartDelay:                  time.Duration(serviceConfig.MetricPruningRoutineDelayFirstRun) * time.Second,
		MaxRequestMetricHistoryDays: serviceConfig.MetricPruningMaxRequestMetricsHistoryDays,
		Database:                    bundleService.Database,
		Logger:                      &serviceLogger,
	})

	if err != nil {
		serviceLogger.Error().Msg(fmt.Sprintf("%v", err))
		panic(err)
	}

	errChan, err := metricPruningRoutine.Run(ctx)

	if err != nil {
		serviceLogger.Error().Msg(fmt.Sprintf("%v", err))
		panic(err)
	}

	go func() {
		for routineErr := range errChan {
			serviceLogger.Error().Msg(fmt.Sprintf("metric pruning routine encountered error %s", routineErr))
		}
	}()
}

func main() {
	loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serviceLogger.Debug().Msg(fmt.Sprintf("initial config: %+v", serviceConfig))

	bundleService, err := service.New(ctx, serviceConfig, &serviceLogger)

	if err != nil {
		serviceLogger.Panic().Msg(fmt.Sprintf("%v", err))
	}

	startMetricPruningRoutine(ctx, &bundleService)

	shutdownComplete := make(chan struct{})

	go func() {
		defer close(shutdownComplete)

		<-ctx.Done()

		serviceLogger.Info().Msg("shutting down bundle gateway")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := bundleService.Shutdown(shutdownCtx); err != nil {
			serviceLogger.Error().Msg(fmt.Sprintf("error %s shutting down bundle gateway", err))
		}
	}()

	serviceLogger.Info().Msg(fmt.Sprintf("bundle gateway listening on port %s", serviceConfig.BundleServicePort))

	err = bundleService.Run()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		serviceLogger.Panic().Msg(fmt.Sprintf("%v", err))
	}

	// wait for in flight bundles to be served
	<-shutdownComplete
}
