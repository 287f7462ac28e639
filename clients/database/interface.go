package database

import "context"

// MetricsDatabase stores one metric per served bundle
type MetricsDatabase interface {
	SaveBundleRequestMetric(ctx context.Context, metric *BundleRequestMetric) error
	ListBundleRequestMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*BundleRequestMetric, int64, error)
	CountBundleRequestMetrics(ctx context.Context) (int64, error)
	DeleteBundleRequestMetricsOlderThanNDays(ctx context.Context, n int64) error
	HealthCheck() error
}
