package service

// DatabaseStatusResponse wraps values
// returned by calls to /status/database
type DatabaseStatusResponse struct {
	TotalBundleRequestMetrics int64 `json:"total_bundle_request_metrics"` // number of stored bundle request metrics
}

// UpstreamStatsResponse wraps values
// returned by calls to /status/upstreams
type UpstreamStatsResponse struct {
	Host          string `json:"host"`
	Success       int64  `json:"success"`        // items answered by the host's backend within the window
	Failure       int64  `json:"failure"`        // items sent to the host's backend that failed within the window
	WindowSeconds int64  `json:"window_seconds"` // seconds a counter lives after its last increment
}
