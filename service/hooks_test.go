package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kava-labs/bundle-gateway/clients/counters"
	"github.com/kava-labs/bundle-gateway/clients/database"
	"github.com/kava-labs/bundle-gateway/clients/database/noop"
	"github.com/kava-labs/bundle-gateway/logging"
	"github.com/kava-labs/bundle-gateway/service/bundlemdw"
)

// recordingDatabase keeps saved metrics in memory
type recordingDatabase struct {
	noop.Noop
	mu      sync.Mutex
	metrics []*database.BundleRequestMetric
}

func (db *recordingDatabase) SaveBundleRequestMetric(ctx context.Context, metric *database.BundleRequestMetric) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.metrics = append(db.metrics, metric)
	return nil
}

func (db *recordingDatabase) saved() []*database.BundleRequestMetric {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]*database.BundleRequestMetric(nil), db.metrics...)
}

func newTalliedRequest(t *testing.T) (*http.Request, *bundleTally) {
	t.Helper()

	var tallied *http.Request
	handler := createBundleContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tallied = r
	}))

	request := httptest.NewRequest(http.MethodPost, "http://gateway.test/bundle", nil)
	request.Header.Set("User-Agent", "hooks-test")
	request.Header.Set(ForwardedForHeaderKey, "203.0.113.7, 10.0.0.1")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.NotNil(t, tallied)
	tally := bundleTallyFromContext(tallied.Context())
	require.NotNil(t, tally)
	assert.Equal(t, tally.id, recorder.Header().Get(BundleIDHeaderKey))

	return tallied, tally
}

func compiledOutcome(resolvedURL string, failed bool) bundlemdw.Outcome {
	outcome := bundlemdw.Outcome{
		Request:  &bundlemdw.CompiledRequest{URL: resolvedURL, Method: http.MethodGet},
		Response: &bundlemdw.Response{StatusCode: http.StatusOK},
	}
	if failed {
		outcome.Response = nil
		outcome.Err = &bundlemdw.ItemError{Name: bundlemdw.TimeoutErrorName, Message: "timed out"}
	}
	return outcome
}

func TestUnitTestMetricsHooksSaveOneMetricPerBundle(t *testing.T) {
	db := &recordingDatabase{}
	hooks := &metricsHooks{
		database: db,
		logger:   logging.NewNop(),
	}

	request, tally := newTalliedRequest(t)
	payload := []bundlemdw.ItemSpec{{URL: "/a"}, {URL: "/b"}, {URL: "http://evil.test"}}

	hooks.OnBundleStart(request)
	for i, item := range payload {
		hooks.OnItemStart(request, item, i, payload)
	}
	hooks.OnItemFinish(request, compiledOutcome("http://backend:3000/a", false), 0, payload)
	hooks.OnItemFinish(request, compiledOutcome("http://backend:3000/b", true), 1, payload)
	hooks.OnItemFinish(request, bundlemdw.Outcome{Err: &bundlemdw.ItemError{Name: bundlemdw.UnacceptableURLErrorName}}, 2, payload)
	hooks.OnBundleFinish(request)

	require.Eventually(t, func() bool {
		return len(db.saved()) == 1
	}, time.Second, 5*time.Millisecond)

	metric := db.saved()[0]
	assert.Equal(t, tally.id, metric.BundleID)
	assert.Equal(t, "gateway.test", metric.Hostname)
	assert.Equal(t, "203.0.113.7", metric.RequestIP)
	require.NotNil(t, metric.UserAgent)
	assert.Equal(t, "hooks-test", *metric.UserAgent)
	assert.Nil(t, metric.Referer)
	assert.Nil(t, metric.Origin)
	assert.Equal(t, int64(3), metric.ItemCount)
	assert.Equal(t, int64(2), metric.FailedItemCount)
	assert.Equal(t, tally.startedAt, metric.RequestTime)
}

func TestUnitTestMetricsHooksCountOnlyItemsThatReachedABackend(t *testing.T) {
	store := counters.NewInMemoryCounters()
	hooks := &metricsHooks{
		database:    noop.New(),
		counters:    store,
		statsPrefix: "bundle",
		statsWindow: time.Minute,
		logger:      logging.NewNop(),
	}

	request, _ := newTalliedRequest(t)

	hooks.OnItemFinish(request, compiledOutcome("http://backend:3000/a", false), 0, nil)
	hooks.OnItemFinish(request, compiledOutcome("http://backend:3000/b", false), 1, nil)
	hooks.OnItemFinish(request, compiledOutcome("http://backend:3000/c", true), 2, nil)
	hooks.OnItemFinish(request, bundlemdw.Outcome{Err: &bundlemdw.ItemError{Name: bundlemdw.UnacceptableURLErrorName}}, 3, nil)

	ctx := context.Background()
	require.Eventually(t, func() bool {
		success, _ := store.Get(ctx, "bundle:upstream:backend:3000:success")
		failure, _ := store.Get(ctx, "bundle:upstream:backend:3000:failure")
		return success == 2 && failure == 1
	}, time.Second, 5*time.Millisecond)
}

// failingCounters rejects every increment
type failingCounters struct {
	counters.InMemoryCounters
}

func (*failingCounters) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("counters unavailable")
}

func TestUnitTestMetricsHooksToleratesFailingSinks(t *testing.T) {
	hooks := &metricsHooks{
		database:    noop.New(),
		counters:    &failingCounters{},
		statsPrefix: "bundle",
		statsWindow: time.Minute,
		logger:      logging.NewNop(),
	}

	request, _ := newTalliedRequest(t)

	assert.NotPanics(t, func() {
		hooks.OnItemFinish(request, compiledOutcome("http://backend:3000/a", false), 0, nil)
		hooks.OnBundleFinish(request)
	})
}

func TestUnitTestMetricsHooksIgnoreRequestsWithoutTally(t *testing.T) {
	db := &recordingDatabase{}
	hooks := &metricsHooks{
		database: db,
		logger:   logging.NewNop(),
	}

	request := httptest.NewRequest(http.MethodPost, "/bundle", nil)

	hooks.OnItemStart(request, bundlemdw.ItemSpec{}, 0, nil)
	hooks.OnItemFinish(request, compiledOutcome("http://backend:3000/a", true), 0, nil)
	hooks.OnBundleFinish(request)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, db.saved())
}

func TestUnitTestRequestIP(t *testing.T) {
	testCases := []struct {
		name         string
		forwardedFor string
		remoteAddr   string
		expected     string
	}{
		{"first forwarded address", "198.51.100.1, 10.0.0.2", "10.0.0.3:5000", "198.51.100.1"},
		{"remote address host", "", "192.0.2.10:5000", "192.0.2.10"},
		{"remote address without port", "", "192.0.2.10", "192.0.2.10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tc.remoteAddr
			if tc.forwardedFor != "" {
				request.Header.Set(ForwardedForHeaderKey, tc.forwardedFor)
			}

			assert.Equal(t, tc.expected, requestIP(request))
		})
	}
}
