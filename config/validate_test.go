package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kava-labs/bundle-gateway/config"
	"github.com/stretchr/testify/assert"
)

func init() {
	setDefaultEnv()
}

var (
	defaultConfig = func() config.Config {
		setDefaultEnv()
		return config.ReadConfig()
	}()
)

func TestUnitTestValidateConfigReturnsNilErrorForValidConfig(t *testing.T) {
	err := config.Validate(defaultConfig)

	assert.Nil(t, err)
}

func TestUnitTestValidateConfigReturnsErrorIfInvalidLogLevel(t *testing.T) {
	testConfig := defaultConfig
	testConfig.LogLevel = "whisper"

	err := config.Validate(testConfig)

	assert.NotNil(t, err)
}

func TestUnitTestValidateConfigReturnsErrorIfInvalidBundleServicePort(t *testing.T) {
	testConfig := defaultConfig
	testConfig.BundleServicePort = "abc"

	err := config.Validate(testConfig)

	assert.NotNil(t, err)
}

func TestUnitTestValidateConfigReturnsErrorIfInvalidRoutePath(t *testing.T) {
	testConfig := defaultConfig
	testConfig.BundleRoutePath = "bundle"

	err := config.Validate(testConfig)

	assert.NotNil(t, err)
}

func TestUnitTestValidateConfigBundleMaxRequests(t *testing.T) {
	for _, tc := range []struct {
		name        string
		maxRequests int
		expectErr   bool
	}{
		{name: "zero", maxRequests: 0, expectErr: true},
		{name: "negative", maxRequests: -1, expectErr: true},
		{name: "one", maxRequests: 1, expectErr: false},
		{name: "default", maxRequests: config.DEFAULT_BUNDLE_MAX_REQUESTS, expectErr: false},
		{name: "ceiling", maxRequests: config.MaxBundleMaxRequests, expectErr: false},
		{name: "above ceiling", maxRequests: config.MaxBundleMaxRequests + 1, expectErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			testConfig := defaultConfig
			testConfig.BundleMaxRequests = tc.maxRequests

			err := config.Validate(testConfig)

			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUnitTestValidateConfigReturnsErrorIfInvalidUpstreamHostURLMap(t *testing.T) {
	testConfig := defaultConfig
	testConfig.UpstreamHostURLMapRaw = "localhost:7777,localhost:7778>http://kava:8545$^,localhost:7777>http://kava:8545"

	err := config.Validate(testConfig)

	assert.NotNil(t, err)
}

func TestUnitTestValidateConfigAllowsEmptyHostMapWithDefaultURL(t *testing.T) {
	testConfig := defaultConfig
	testConfig.UpstreamHostURLMapRaw = ""

	err := config.Validate(testConfig)
	require.NoError(t, err)

	testConfig.UpstreamDefaultURLRaw = ""

	err = config.Validate(testConfig)
	require.Error(t, err)
}

func TestUnitTestValidateConfigReturnsErrorIfInvalidDefaultURL(t *testing.T) {
	testConfig := defaultConfig
	testConfig.UpstreamDefaultURLRaw = "backend:3000"

	err := config.Validate(testConfig)

	assert.NotNil(t, err)
}

func TestUnitTestValidateConfigReturnsErrorIfInvalidUpstreamTimeout(t *testing.T) {
	testConfig := defaultConfig
	testConfig.UpstreamTimeoutSeconds = 0

	err := config.Validate(testConfig)

	assert.NotNil(t, err)
}

func TestUnitTestValidateConfigMetricDatabase(t *testing.T) {
	testConfig := defaultConfig
	testConfig.MetricDatabaseEnabled = true
	testConfig.DatabaseEndpointURL = ""

	err := config.Validate(testConfig)
	require.Error(t, err)

	testConfig.DatabaseEndpointURL = "localhost:5432"
	err = config.Validate(testConfig)
	require.NoError(t, err)
}

func TestUnitTestValidateConfigMetricPruningRequiresDatabase(t *testing.T) {
	testConfig := defaultConfig
	testConfig.MetricPruningEnabled = true
	testConfig.MetricDatabaseEnabled = false

	err := config.Validate(testConfig)
	require.Error(t, err)

	testConfig.MetricDatabaseEnabled = true
	testConfig.DatabaseEndpointURL = "localhost:5432"
	testConfig.MetricPruningMaxRequestMetricsHistoryDays = 0
	err = config.Validate(testConfig)
	require.Error(t, err)

	testConfig.MetricPruningMaxRequestMetricsHistoryDays = 45
	err = config.Validate(testConfig)
	require.NoError(t, err)
}

func TestUnitTestValidateConfigUpstreamStats(t *testing.T) {
	testConfig := defaultConfig
	testConfig.UpstreamStatsEnabled = true
	testConfig.UpstreamStatsPrefix = "bundle:stats"

	err := config.Validate(testConfig)
	require.Error(t, err)

	testConfig.UpstreamStatsPrefix = ""
	err = config.Validate(testConfig)
	require.Error(t, err)

	testConfig.UpstreamStatsPrefix = "bundle"
	testConfig.UpstreamStatsWindowSeconds = 0
	err = config.Validate(testConfig)
	require.Error(t, err)

	testConfig.UpstreamStatsWindowSeconds = 60
	err = config.Validate(testConfig)
	require.NoError(t, err)
}
