package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/negroni"

	"github.com/kava-labs/bundle-gateway/logging"
	"github.com/kava-labs/bundle-gateway/service/bundlemdw"
)

type contextKey string

const (
	BundleTallyContextKey contextKey = "X-BUNDLE-GATEWAY-BUNDLE-TALLY"

	BundleIDHeaderKey     = "X-Bundle-Id"
	ForwardedForHeaderKey = "X-Forwarded-For"
)

// bundleTally accumulates the outcome of one bundle
// while its items settle concurrently
type bundleTally struct {
	id        string
	startedAt time.Time
	items     atomic.Int64
	failed    atomic.Int64
}

// bundleTallyFromContext returns the tally of the request's bundle,
// nil when the request was not routed through createBundleContextMiddleware
func bundleTallyFromContext(ctx context.Context) *bundleTally {
	tally, _ := ctx.Value(BundleTallyContextKey).(*bundleTally)
	return tally
}

// createBundleContextMiddleware returns a handler that assigns the request
// a bundle id, echoed in the response headers, and a tally the bundle
// hooks record into
func createBundleContextMiddleware(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tally := &bundleTally{
			id:        uuid.New().String(),
			startedAt: time.Now(),
		}

		w.Header().Set(BundleIDHeaderKey, tally.id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), BundleTallyContextKey, tally)))
	}
}

// propagateHeaders copies the headers of successful sub-responses onto the
// bundle response, keeping the bundle id assigned by createBundleContextMiddleware
func propagateHeaders(w http.ResponseWriter, outcomes []bundlemdw.Outcome) {
	bundleID := w.Header().Get(BundleIDHeaderKey)

	bundlemdw.PropagateSuccessHeaders(w, outcomes)

	if bundleID != "" {
		w.Header().Set(BundleIDHeaderKey, bundleID)
	}
}

// createRequestLoggingMiddleware returns a handler that logs every request
// with the status and size of its response once it has been served
func createRequestLoggingMiddleware(next http.Handler, serviceLogger *logging.ServiceLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()

		lrw := negroni.NewResponseWriter(w)

		next.ServeHTTP(lrw, r)

		serviceLogger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", requestIP(r)).
			Int("status", lrw.Status()).
			Int("size", lrw.Size()).
			Dur("duration", time.Since(startedAt)).
			Msg(fmt.Sprintf("served %s %s", r.Method, r.URL.Path))
	})
}

// requestIP returns the first address of X-Forwarded-For,
// falling back to the host of the connection's remote address
func requestIP(r *http.Request) string {
	if forwardedFor := r.Header.Get(ForwardedForHeaderKey); forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
