package config_test

import (
	"os"
	"testing"

	"github.com/kava-labs/bundle-gateway/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	bundleServicePort            = "7777"
	randomEnvironmentVariableKey = "TEST_BUNDLE_RANDOM_VALUE"
	upstreamHostURLMap           = "localhost:3000>http://backend:3000,api.kava.io>https://internal-api:8443/v1"
)

func TestUnitTestEnvODefaultReturnsDefaultIfEnvironmentVariableNotSet(t *testing.T) {
	err := os.Unsetenv(randomEnvironmentVariableKey)

	assert.Nil(t, err, "error clearing environment variable")

	defaultValue := "default"

	value := config.EnvOrDefault(randomEnvironmentVariableKey, defaultValue)

	assert.Equal(t, defaultValue, value)
}

func TestUnitTestEnvODefaultReturnsSetValue(t *testing.T) {
	setValue := "default"
	err := os.Setenv(randomEnvironmentVariableKey, setValue)

	assert.Nil(t, err, "error settting environment variable")

	value := config.EnvOrDefault(randomEnvironmentVariableKey, "")

	assert.Equal(t, setValue, value)
}

func TestUnitTestEnvOrDefaultTypedHelpers(t *testing.T) {
	t.Setenv(randomEnvironmentVariableKey, "42")
	assert.Equal(t, 42, config.EnvOrDefaultInt(randomEnvironmentVariableKey, 1))
	assert.Equal(t, int64(42), config.EnvOrDefaultInt64(randomEnvironmentVariableKey, 1))

	t.Setenv(randomEnvironmentVariableKey, "not-a-number")
	assert.Equal(t, 1, config.EnvOrDefaultInt(randomEnvironmentVariableKey, 1))
	assert.Equal(t, int64(1), config.EnvOrDefaultInt64(randomEnvironmentVariableKey, 1))

	t.Setenv(randomEnvironmentVariableKey, "true")
	assert.True(t, config.EnvOrDefaultBool(randomEnvironmentVariableKey, false))

	t.Setenv(randomEnvironmentVariableKey, "maybe")
	assert.False(t, config.EnvOrDefaultBool(randomEnvironmentVariableKey, false))
}

func TestUnitTestReadConfigReturnsConfigWithValuesFromEnv(t *testing.T) {
	setDefaultEnv()

	readConfig := config.ReadConfig()

	assert.Equal(t, config.DEFAULT_LOG_LEVEL, readConfig.LogLevel)
	assert.Equal(t, bundleServicePort, readConfig.BundleServicePort)
	assert.Equal(t, config.DEFAULT_BUNDLE_ROUTE_PATH, readConfig.BundleRoutePath)
	assert.Equal(t, config.DEFAULT_BUNDLE_MAX_REQUESTS, readConfig.BundleMaxRequests)
	assert.Len(t, readConfig.UpstreamHostURLMapParsed, 2)
}

func TestUnitTestParseHostMapReturnsErrEmptyHostMapWhenEmpty(t *testing.T) {
	_, err := config.ParseRawUpstreamHostURLMap("")
	assert.ErrorIs(t, err, config.ErrEmptyHostMap)
}

func TestUnitTestParseRawUpstreamHostURLMap(t *testing.T) {
	parsed, err := config.ParseRawUpstreamHostURLMap(upstreamHostURLMap)
	require.NoError(t, err)

	backend, found := parsed["localhost:3000"]
	require.True(t, found)
	require.Equal(t, "http://backend:3000", backend.String())

	backend, found = parsed["api.kava.io"]
	require.True(t, found)
	require.Equal(t, "https", backend.Scheme)
	require.Equal(t, "internal-api:8443", backend.Host)
	require.Equal(t, "/v1", backend.Path)

	for _, invalid := range []string{
		"localhost:3000",
		"localhost:3000>http://one>http://two",
		"localhost:3000>ftp://backend",
		"localhost:3000>http://kava:8545$^",
	} {
		_, err := config.ParseRawUpstreamHostURLMap(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestUnitTestParseUpstreamDefaultURL(t *testing.T) {
	parsed, err := config.ParseUpstreamDefaultURL("")
	require.NoError(t, err)
	require.Nil(t, parsed)

	parsed, err = config.ParseUpstreamDefaultURL("http://backend:3000")
	require.NoError(t, err)
	require.Equal(t, "backend:3000", parsed.Host)

	_, err = config.ParseUpstreamDefaultURL("backend:3000")
	require.Error(t, err)
}

func setDefaultEnv() {
	os.Setenv(config.BUNDLE_SERVICE_PORT_ENVIRONMENT_KEY, bundleServicePort)
	os.Setenv(config.BUNDLE_UPSTREAM_HOST_URL_MAP_ENVIRONMENT_KEY, upstreamHostURLMap)
	os.Setenv(config.BUNDLE_UPSTREAM_DEFAULT_URL_ENVIRONMENT_KEY, "http://backend:3000")
	os.Setenv(config.LOG_LEVEL_ENVIRONMENT_KEY, config.DEFAULT_LOG_LEVEL)
	os.Unsetenv(config.BUNDLE_ROUTE_PATH_ENVIRONMENT_KEY)
	os.Unsetenv(config.BUNDLE_MAX_REQUESTS_ENVIRONMENT_KEY)
	os.Unsetenv(config.METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY)
	os.Unsetenv(config.METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY)
	os.Unsetenv(config.UPSTREAM_STATS_ENABLED_ENVIRONMENT_KEY)
}
