package postgres

import (
	"context"
	"fmt"

	"github.com/kava-labs/bundle-gateway/clients/database"
)

const (
	BundleRequestMetricsTableName = "bundle_request_metrics"
)

// SaveBundleRequestMetric saves the metric to the database,
// returning error (if any)
func (c *Client) SaveBundleRequestMetric(ctx context.Context, metric *database.BundleRequestMetric) error {
	brm := convertBundleRequestMetric(metric)
	_, err := c.db.NewInsert().Model(brm).Exec(ctx)

	if err == nil {
		metric.ID = brm.ID
	}

	return err
}

// ListBundleRequestMetricsWithPagination returns a page of max
// `limit` BundleRequestMetrics from the offset specified by`cursor`
// error (if any) along with a cursor to use to fetch the next page
// if the cursor is 0 no more pages exists.
func (c *Client) ListBundleRequestMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*database.BundleRequestMetric, int64, error) {
	var bundleRequestMetrics []BundleRequestMetric
	var nextCursor int64

	err := c.db.NewSelect().Model(&bundleRequestMetrics).Where("id > ?", cursor).Order("id ASC").Limit(limit).Scan(ctx)

	// look up the id of the last
	if len(bundleRequestMetrics) == limit && limit > 0 {
		nextCursor = bundleRequestMetrics[limit-1].ID
	}

	metrics := make([]*database.BundleRequestMetric, 0, len(bundleRequestMetrics))
	for _, metric := range bundleRequestMetrics {
		metrics = append(metrics, metric.ToBundleRequestMetric())
	}

	// otherwise leave nextCursor as 0 to signal no more rows
	return metrics, nextCursor, err
}

// CountBundleRequestMetrics returns the number of stored metrics
func (c *Client) CountBundleRequestMetrics(ctx context.Context) (int64, error) {
	count, err := c.db.NewSelect().Model((*BundleRequestMetric)(nil)).Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("error %s counting %s", err, BundleRequestMetricsTableName)
	}

	return int64(count), nil
}

// DeleteBundleRequestMetricsOlderThanNDays deletes
// all bundle request metrics older than the specified
// days, returning error (if any).
// Used during pruning process.
func (c *Client) DeleteBundleRequestMetricsOlderThanNDays(ctx context.Context, n int64) error {
	_, err := c.db.NewDelete().Model((*BundleRequestMetric)(nil)).Where("request_time < now() - make_interval(days => ?)", n).Exec(ctx)

	return err
}
