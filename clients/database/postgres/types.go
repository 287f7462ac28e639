package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/kava-labs/bundle-gateway/clients/database"
)

// BundleRequestMetric is the row stored for
// a single bundle served by the bundle gateway
type BundleRequestMetric struct {
	bun.BaseModel `bun:"table:bundle_request_metrics,alias:brm"`

	ID                          int64 `bun:",pk,autoincrement"`
	BundleID                    string
	Hostname                    string
	RequestIP                   string `bun:"request_ip"`
	UserAgent                   *string
	Referer                     *string
	Origin                      *string
	ItemCount                   int64
	FailedItemCount             int64
	ResponseLatencyMilliseconds int64
	RequestTime                 time.Time
}

func (brm *BundleRequestMetric) ToBundleRequestMetric() *database.BundleRequestMetric {
	return &database.BundleRequestMetric{
		ID:                          brm.ID,
		BundleID:                    brm.BundleID,
		Hostname:                    brm.Hostname,
		RequestIP:                   brm.RequestIP,
		UserAgent:                   brm.UserAgent,
		Referer:                     brm.Referer,
		Origin:                      brm.Origin,
		ItemCount:                   brm.ItemCount,
		FailedItemCount:             brm.FailedItemCount,
		ResponseLatencyMilliseconds: brm.ResponseLatencyMilliseconds,
		RequestTime:                 brm.RequestTime,
	}
}

func convertBundleRequestMetric(metric *database.BundleRequestMetric) *BundleRequestMetric {
	return &BundleRequestMetric{
		ID:                          metric.ID,
		BundleID:                    metric.BundleID,
		Hostname:                    metric.Hostname,
		RequestIP:                   metric.RequestIP,
		UserAgent:                   metric.UserAgent,
		Referer:                     metric.Referer,
		Origin:                      metric.Origin,
		ItemCount:                   metric.ItemCount,
		FailedItemCount:             metric.FailedItemCount,
		ResponseLatencyMilliseconds: metric.ResponseLatencyMilliseconds,
		RequestTime:                 metric.RequestTime,
	}
}
