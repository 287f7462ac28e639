package noop

import (
	"context"

	"github.com/kava-labs/bundle-gateway/clients/database"
)

// Noop is a database client that does nothing,
// used when the metric database is disabled
type Noop struct{}

var _ database.MetricsDatabase = (*Noop)(nil)

func New() *Noop {
	return &Noop{}
}

func (e *Noop) SaveBundleRequestMetric(ctx context.Context, metric *database.BundleRequestMetric) error {
	return nil
}

func (e *Noop) ListBundleRequestMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*database.BundleRequestMetric, int64, error) {
	return []*database.BundleRequestMetric{}, 0, nil
}

func (e *Noop) CountBundleRequestMetrics(ctx context.Context) (int64, error) {
	return 0, nil
}

func (e *Noop) DeleteBundleRequestMetricsOlderThanNDays(ctx context.Context, n int64) error {
	return nil
}

func (e *Noop) HealthCheck() error {
	return nil
}
