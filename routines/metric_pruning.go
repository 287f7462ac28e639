// package routines provides configuration and logic
// for running background routines such as metric pruning
// for removing historical bundle request metrics
package routines

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kava-labs/bundle-gateway/clients/database"
	"github.com/kava-labs/bundle-gateway/logging"
)

// MetricPruningRoutineConfig wraps values used
// for creating a new metric pruning routine
type MetricPruningRoutineConfig struct {
	Interval                    time.Duration
	StartDelay                  time.Duration
	MaxRequestMetricHistoryDays int64
	Database                    database.MetricsDatabase
	Logger                      *logging.ServiceLogger
}

// MetricPruningRoutine can be used to
// run a background routine on a configurable interval
// to prune historical bundle request metrics
type MetricPruningRoutine struct {
	id                          string
	interval                    time.Duration
	startDelay                  time.Duration
	maxRequestMetricHistoryDays int64
	db                          database.MetricsDatabase
	*logging.ServiceLogger
}

// Run starts pruning metrics older than the configured history after the
// configured delay and then on every interval until ctx is done.
// Errors encountered while running are sent on the returned channel,
// and dropped when nothing is receiving them.
func (mpr *MetricPruningRoutine) Run(ctx context.Context) (<-chan error, error) {
	errorChannel := make(chan error, 1)

	go func() {
		defer close(errorChannel)

		select {
		case <-ctx.Done():
			return
		case <-time.After(mpr.startDelay):
		}

		mpr.prune(ctx, errorChannel)

		ticker := time.NewTicker(mpr.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				mpr.Trace().Msg(fmt.Sprintf("%s tick at %+v", mpr.id, tick))

				mpr.prune(ctx, errorChannel)
			}
		}
	}()

	return errorChannel, nil
}

func (mpr *MetricPruningRoutine) prune(ctx context.Context, errorChannel chan<- error) {
	err := mpr.db.DeleteBundleRequestMetricsOlderThanNDays(ctx, mpr.maxRequestMetricHistoryDays)
	if err == nil {
		mpr.Debug().Msg(fmt.Sprintf("%s pruned bundle request metrics older than %d days", mpr.id, mpr.maxRequestMetricHistoryDays))
		return
	}

	mpr.Error().Msg(fmt.Sprintf("%s error %s pruning bundle request metrics", mpr.id, err))

	select {
	case errorChannel <- err:
	default:
	}
}

// NewMetricPruningRoutine creates a new metric pruning routine
// using the provided config, returning the routine and error (if any)
func NewMetricPruningRoutine(config MetricPruningRoutineConfig) (*MetricPruningRoutine, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("metric pruning interval must be positive, got %s", config.Interval)
	}

	if config.Database == nil {
		return nil, fmt.Errorf("metric pruning requires a database")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &MetricPruningRoutine{
		id:                          uuid.New().String(),
		interval:                    config.Interval,
		startDelay:                  config.StartDelay,
		maxRequestMetricHistoryDays: config.MaxRequestMetricHistoryDays,
		db:                          config.Database,
		ServiceLogger:               logger,
	}, nil
}
