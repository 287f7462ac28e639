// package config provides functions and values
// for reading and validating bundle gateway configuration
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	LogLevel string

	BundleServicePort        string
	BundleRoutePath          string
	BundleMaxRequests        int
	UpstreamHostURLMapRaw    string
	UpstreamHostURLMapParsed map[string]url.URL
	UpstreamDefaultURLRaw    string
	UpstreamDefaultURLParsed *url.URL
	UpstreamTimeoutSeconds   int64

	MetricDatabaseEnabled                     bool
	DatabaseName                              string
	DatabaseEndpointURL                       string
	DatabaseUserName                          string
	DatabasePassword                          string
	DatabaseSSLEnabled                        bool
	DatabaseQueryLoggingEnabled               bool
	DatabaseReadTimeoutSeconds                int64
	DatabaseMaxIdleConnections                int64
	DatabaseConnectionMaxIdleSeconds          int64
	DatabaseMaxOpenConnections                int64
	RunDatabaseMigrations                     bool
	DatabaseConnectMaxElapsedSeconds          int64
	MetricPruningEnabled                      bool
	MetricPruningRoutineInterval              int64
	MetricPruningRoutineDelayFirstRun         int64
	MetricPruningMaxRequestMetricsHistoryDays int64

	UpstreamStatsEnabled       bool
	RedisEndpointURL           string
	RedisPassword              string
	UpstreamStatsPrefix        string
	UpstreamStatsWindowSeconds int64
}

const (
	LOG_LEVEL_ENVIRONMENT_KEY                                       = "LOG_LEVEL"
	DEFAULT_LOG_LEVEL                                               = "INFO"
	BUNDLE_SERVICE_PORT_ENVIRONMENT_KEY                             = "BUNDLE_SERVICE_PORT"
	DEFAULT_BUNDLE_SERVICE_PORT                                     = "7777"
	BUNDLE_ROUTE_PATH_ENVIRONMENT_KEY                               = "BUNDLE_ROUTE_PATH"
	DEFAULT_BUNDLE_ROUTE_PATH                                       = "/bundle"
	BUNDLE_MAX_REQUESTS_ENVIRONMENT_KEY                             = "BUNDLE_MAX_REQUESTS"
	DEFAULT_BUNDLE_MAX_REQUESTS                                     = 20
	BUNDLE_UPSTREAM_HOST_URL_MAP_ENVIRONMENT_KEY                    = "BUNDLE_UPSTREAM_HOST_URL_MAP"
	BUNDLE_UPSTREAM_DEFAULT_URL_ENVIRONMENT_KEY                     = "BUNDLE_UPSTREAM_DEFAULT_URL"
	BUNDLE_UPSTREAM_TIMEOUT_SECONDS_ENVIRONMENT_KEY                 = "BUNDLE_UPSTREAM_TIMEOUT_SECONDS"
	DEFAULT_BUNDLE_UPSTREAM_TIMEOUT_SECONDS                         = 30
	METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY                         = "METRIC_DATABASE_ENABLED"
	DEFAULT_METRIC_DATABASE_ENABLED                                 = false
	DATABASE_NAME_ENVIRONMENT_KEY                                   = "DATABASE_NAME"
	DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY                           = "DATABASE_ENDPOINT_URL"
	DATABASE_USERNAME_ENVIRONMENT_KEY                               = "DATABASE_USERNAME"
	DATABASE_PASSWORD_ENVIRONMENT_KEY                               = "DATABASE_PASSWORD"
	DATABASE_SSL_ENABLED_ENVIRONMENT_KEY                            = "DATABASE_SSL_ENABLED"
	DATABASE_QUERY_LOGGING_ENABLED_ENVIRONMENT_KEY                  = "DATABASE_QUERY_LOGGING_ENABLED"
	DATABASE_READ_TIMEOUT_SECONDS_ENVIRONMENT_KEY                   = "DATABASE_READ_TIMEOUT_SECONDS"
	DEFAULT_DATABASE_READ_TIMEOUT_SECONDS                           = 60
	DATABASE_MAX_IDLE_CONNECTIONS_ENVIRONMENT_KEY                   = "DATABASE_MAX_IDLE_CONNECTIONS"
	DEFAULT_DATABASE_MAX_IDLE_CONNECTIONS                           = 5
	DATABASE_CONNECTION_MAX_IDLE_SECONDS_ENVIRONMENT_KEY            = "DATABASE_CONNECTION_MAX_IDLE_SECONDS"
	DEFAULT_DATABASE_CONNECTION_MAX_IDLE_SECONDS                    = 5
	DATABASE_MAX_OPEN_CONNECTIONS_ENVIRONMENT_KEY                   = "DATABASE_MAX_OPEN_CONNECTIONS"
	DEFAULT_DATABASE_MAX_OPEN_CONNECTIONS                           = 20
	RUN_DATABASE_MIGRATIONS_ENVIRONMENT_KEY                         = "RUN_DATABASE_MIGRATIONS"
	DATABASE_CONNECT_MAX_ELAPSED_SECONDS_ENVIRONMENT_KEY            = "DATABASE_CONNECT_MAX_ELAPSED_SECONDS"
	DEFAULT_DATABASE_CONNECT_MAX_ELAPSED_SECONDS                    = 30
	METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY                          = "METRIC_PRUNING_ROUTINE_ENABLED"
	DEFAULT_METRIC_PRUNING_ENABLED                                  = false
	METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY         = "METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS"
	DEFAULT_METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS                 = 3600
	METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS_ENVIRONMENT_KEY  = "METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS"
	DEFAULT_METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS          = 10
	METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY = "METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS"
	DEFAULT_METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS         = 45
	UPSTREAM_STATS_ENABLED_ENVIRONMENT_KEY                          = "UPSTREAM_STATS_ENABLED"
	DEFAULT_UPSTREAM_STATS_ENABLED                                  = false
	REDIS_ENDPOINT_URL_ENVIRONMENT_KEY                              = "REDIS_ENDPOINT_URL"
	REDIS_PASSWORD_ENVIRONMENT_KEY                                  = "REDIS_PASSWORD"
	UPSTREAM_STATS_PREFIX_ENVIRONMENT_KEY                           = "UPSTREAM_STATS_PREFIX"
	DEFAULT_UPSTREAM_STATS_PREFIX                                   = "bundle"
	UPSTREAM_STATS_WINDOW_SECONDS_ENVIRONMENT_KEY                   = "UPSTREAM_STATS_WINDOW_SECONDS"
	DEFAULT_UPSTREAM_STATS_WINDOW_SECONDS                           = 3600
)

var ErrEmptyHostMap = errors.New("backend host url map is empty")

// EnvOrDefault fetches an environment variable value, or if not set returns the fallback value
func EnvOrDefault(key string, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// EnvOrDefaultInt fetches an environment variable value, or if not set
// or not parseable as an integer returns the fallback value
func EnvOrDefaultInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		intVal, err := strconv.Atoi(val)
		if err == nil {
			return intVal
		}
	}
	return fallback
}

// EnvOrDefaultInt64 fetches an environment variable value, or if not set
// or not parseable as an integer returns the fallback value
func EnvOrDefaultInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		intVal, err := strconv.ParseInt(val, 10, 64)
		if err == nil {
			return intVal
		}
	}
	return fallback
}

// EnvOrDefaultBool fetches an environment variable value, or if not set
// or not parseable as a boolean returns the fallback value
func EnvOrDefaultBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		boolVal, err := strconv.ParseBool(val)
		if err == nil {
			return boolVal
		}
	}
	return fallback
}

// ParseRawUpstreamHostURLMap attempts to parse mappings of hostname to
// upstream backend urls from the comma separated list format
// `foo.kava.io>http://backend:3000,bar.kava.io>https://other:443`
// returning the mapping and error (if any)
func ParseRawUpstreamHostURLMap(raw string) (map[string]url.URL, error) {
	hostURLMap := make(map[string]url.URL)
	var combinedErr error

	entries := strings.Split(raw, ",")

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		hostAndURL := strings.Split(entry, ">")

		if len(hostAndURL) != 2 {
			combinedErr = errors.Join(combinedErr, fmt.Errorf("expected <host>'>'<backend url> entry, got %s", entry))
			continue
		}

		host, rawBackendURL := hostAndURL[0], hostAndURL[1]

		backendURL, err := url.Parse(rawBackendURL)

		if err != nil {
			combinedErr = errors.Join(combinedErr, fmt.Errorf("invalid backend url %s for host %s: %w", rawBackendURL, host, err))
			continue
		}

		if backendURL.Scheme != "http" && backendURL.Scheme != "https" {
			combinedErr = errors.Join(combinedErr, fmt.Errorf("backend url %s for host %s must use http or https", rawBackendURL, host))
			continue
		}

		hostURLMap[host] = *backendURL
	}

	if combinedErr != nil {
		return hostURLMap, combinedErr
	}

	if len(hostURLMap) == 0 {
		return hostURLMap, ErrEmptyHostMap
	}

	return hostURLMap, nil
}

// ParseUpstreamDefaultURL parses the optional backend used for relative item urls,
// returning nil for an empty value
func ParseUpstreamDefaultURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}

	defaultURL, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	if defaultURL.Scheme != "http" && defaultURL.Scheme != "https" {
		return nil, fmt.Errorf("default upstream url %s must use http or https", raw)
	}

	return defaultURL, nil
}

// ReadConfig attempts to parse service config from environment values
// the returned config may be invalid and should be validated via the `Validate`
// function of the Config package before use
func ReadConfig() Config {
	rawUpstreamHostURLMap := os.Getenv(BUNDLE_UPSTREAM_HOST_URL_MAP_ENVIRONMENT_KEY)
	// best effort to parse, callers are responsible for validating
	// before using any values read
	parsedUpstreamHostURLMap, _ := ParseRawUpstreamHostURLMap(rawUpstreamHostURLMap)

	rawUpstreamDefaultURL := os.Getenv(BUNDLE_UPSTREAM_DEFAULT_URL_ENVIRONMENT_KEY)
	parsedUpstreamDefaultURL, _ := ParseUpstreamDefaultURL(rawUpstreamDefaultURL)

	return Config{
		LogLevel:                 EnvOrDefault(LOG_LEVEL_ENVIRONMENT_KEY, DEFAULT_LOG_LEVEL),
		BundleServicePort:        EnvOrDefault(BUNDLE_SERVICE_PORT_ENVIRONMENT_KEY, DEFAULT_BUNDLE_SERVICE_PORT),
		BundleRoutePath:          EnvOrDefault(BUNDLE_ROUTE_PATH_ENVIRONMENT_KEY, DEFAULT_BUNDLE_ROUTE_PATH),
		BundleMaxRequests:        EnvOrDefaultInt(BUNDLE_MAX_REQUESTS_ENVIRONMENT_KEY, DEFAULT_BUNDLE_MAX_REQUESTS),
		UpstreamHostURLMapRaw:    rawUpstreamHostURLMap,
		UpstreamHostURLMapParsed: parsedUpstreamHostURLMap,
		UpstreamDefaultURLRaw:    rawUpstreamDefaultURL,
		UpstreamDefaultURLParsed: parsedUpstreamDefaultURL,
		UpstreamTimeoutSeconds:   EnvOrDefaultInt64(BUNDLE_UPSTREAM_TIMEOUT_SECONDS_ENVIRONMENT_KEY, DEFAULT_BUNDLE_UPSTREAM_TIMEOUT_SECONDS),

		MetricDatabaseEnabled:            EnvOrDefaultBool(METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY, DEFAULT_METRIC_DATABASE_ENABLED),
		DatabaseName:                     os.Getenv(DATABASE_NAME_ENVIRONMENT_KEY),
		DatabaseEndpointURL:              os.Getenv(DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY),
		DatabaseUserName:                 os.Getenv(DATABASE_USERNAME_ENVIRONMENT_KEY),
		DatabasePassword:                 os.Getenv(DATABASE_PASSWORD_ENVIRONMENT_KEY),
		DatabaseSSLEnabled:               EnvOrDefaultBool(DATABASE_SSL_ENABLED_ENVIRONMENT_KEY, false),
		DatabaseQueryLoggingEnabled:      EnvOrDefaultBool(DATABASE_QUERY_LOGGING_ENABLED_ENVIRONMENT_KEY, false),
		DatabaseReadTimeoutSeconds:       EnvOrDefaultInt64(DATABASE_READ_TIMEOUT_SECONDS_ENVIRONMENT_KEY, DEFAULT_DATABASE_READ_TIMEOUT_SECONDS),
		DatabaseMaxIdleConnections:       EnvOrDefaultInt64(DATABASE_MAX_IDLE_CONNECTIONS_ENVIRONMENT_KEY, DEFAULT_DATABASE_MAX_IDLE_CONNECTIONS),
		DatabaseConnectionMaxIdleSeconds: EnvOrDefaultInt64(DATABASE_CONNECTION_MAX_IDLE_SECONDS_ENVIRONMENT_KEY, DEFAULT_DATABASE_CONNECTION_MAX_IDLE_SECONDS),
		DatabaseMaxOpenConnections:       EnvOrDefaultInt64(DATABASE_MAX_OPEN_CONNECTIONS_ENVIRONMENT_KEY, DEFAULT_DATABASE_MAX_OPEN_CONNECTIONS),
		RunDatabaseMigrations:            EnvOrDefaultBool(RUN_DATABASE_MIGRATIONS_ENVIRONMENT_KEY, false),
		DatabaseConnectMaxElapsedSeconds: EnvOrDefaultInt64(DATABASE_CONNECT_MAX_ELAPSED_SECONDS_ENVIRONMENT_KEY, DEFAULT_DATABASE_CONNECT_MAX_ELAPSED_SECONDS),

		MetricPruningEnabled:                      EnvOrDefaultBool(METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ENABLED),
		MetricPruningRoutineInterval:              EnvOrDefaultInt64(METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS),
		MetricPruningRoutineDelayFirstRun:         EnvOrDefaultInt64(METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS),
		MetricPruningMaxRequestMetricsHistoryDays: EnvOrDefaultInt64(METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS),

		UpstreamStatsEnabled:       EnvOrDefaultBool(UPSTREAM_STATS_ENABLED_ENVIRONMENT_KEY, DEFAULT_UPSTREAM_STATS_ENABLED),
		RedisEndpointURL:           os.Getenv(REDIS_ENDPOINT_URL_ENVIRONMENT_KEY),
		RedisPassword:              os.Getenv(REDIS_PASSWORD_ENVIRONMENT_KEY),
		UpstreamStatsPrefix:        EnvOrDefault(UPSTREAM_STATS_PREFIX_ENVIRONMENT_KEY, DEFAULT_UPSTREAM_STATS_PREFIX),
		UpstreamStatsWindowSeconds: EnvOrDefaultInt64(UPSTREAM_STATS_WINDOW_SECONDS_ENVIRONMENT_KEY, DEFAULT_UPSTREAM_STATS_WINDOW_SECONDS),
	}
}
