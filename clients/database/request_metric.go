package database

import (
	"time"
)

// BundleRequestMetric contains request metrics for
// a single bundle served by the bundle gateway
type BundleRequestMetric struct {
	ID                          int64
	BundleID                    string
	Hostname                    string
	RequestIP                   string
	UserAgent                   *string
	Referer                     *string
	Origin                      *string
	ItemCount                   int64
	FailedItemCount             int64
	ResponseLatencyMilliseconds int64
	RequestTime                 time.Time
}
