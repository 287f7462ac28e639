package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ValidLogLevels = [4]string{"TRACE", "DEBUG", "INFO", "ERROR"}
	// bundles larger than this would let a single inbound request
	// open an unreasonable number of concurrent upstream connections
	MaxBundleMaxRequests = 1000
)

// Validate validates the provided config
// returning a list of errors that can be unwrapped with `errors.Unwrap`
// or nil if the config is valid
func Validate(config Config) error {
	var validLogLevel bool
	var allErrs error

	for _, validLevel := range ValidLogLevels {
		if config.LogLevel == validLevel {
			validLogLevel = true
			break
		}
	}

	if !validLogLevel {
		allErrs = fmt.Errorf("invalid %s specified %s, supported values are %v", LOG_LEVEL_ENVIRONMENT_KEY, config.LogLevel, ValidLogLevels)
	}

	_, err := strconv.Atoi(config.BundleServicePort)

	if err != nil {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s", BUNDLE_SERVICE_PORT_ENVIRONMENT_KEY, config.BundleServicePort))
	}

	if !strings.HasPrefix(config.BundleRoutePath, "/") {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must start with /", BUNDLE_ROUTE_PATH_ENVIRONMENT_KEY, config.BundleRoutePath))
	}

	if config.BundleMaxRequests < 1 || config.BundleMaxRequests > MaxBundleMaxRequests {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be between 1 and %d", BUNDLE_MAX_REQUESTS_ENVIRONMENT_KEY, config.BundleMaxRequests, MaxBundleMaxRequests))
	}

	// an empty host map is allowed as long as relative urls have somewhere to go
	_, err = ParseRawUpstreamHostURLMap(config.UpstreamHostURLMapRaw)

	if err != nil && !(errors.Is(err, ErrEmptyHostMap) && config.UpstreamDefaultURLRaw != "") {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s: %w", BUNDLE_UPSTREAM_HOST_URL_MAP_ENVIRONMENT_KEY, config.UpstreamHostURLMapRaw, err))
	}

	_, err = ParseUpstreamDefaultURL(config.UpstreamDefaultURLRaw)

	if err != nil {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s: %w", BUNDLE_UPSTREAM_DEFAULT_URL_ENVIRONMENT_KEY, config.UpstreamDefaultURLRaw, err))
	}

	if config.UpstreamTimeoutSeconds <= 0 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", BUNDLE_UPSTREAM_TIMEOUT_SECONDS_ENVIRONMENT_KEY, config.UpstreamTimeoutSeconds))
	}

	if config.MetricDatabaseEnabled && config.DatabaseEndpointURL == "" {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty when %s is true", DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY, config.DatabaseEndpointURL, METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY))
	}

	if config.MetricPruningEnabled && !config.MetricDatabaseEnabled {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified true, requires %s", METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY, METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY))
	}

	if config.MetricPruningEnabled && config.MetricPruningMaxRequestMetricsHistoryDays < 1 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY, config.MetricPruningMaxRequestMetricsHistoryDays))
	}

	if config.MetricPruningEnabled && config.MetricPruningRoutineInterval < 1 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY, config.MetricPruningRoutineInterval))
	}

	if config.UpstreamStatsEnabled {
		if strings.Contains(config.UpstreamStatsPrefix, ":") {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not contain colon symbol", UPSTREAM_STATS_PREFIX_ENVIRONMENT_KEY, config.UpstreamStatsPrefix))
		}
		if config.UpstreamStatsPrefix == "" {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty", UPSTREAM_STATS_PREFIX_ENVIRONMENT_KEY, config.UpstreamStatsPrefix))
		}
		if config.UpstreamStatsWindowSeconds <= 0 {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", UPSTREAM_STATS_WINDOW_SECONDS_ENVIRONMENT_KEY, config.UpstreamStatsWindowSeconds))
		}
	}

	return allErrs
}
