package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"

	"github.com/kava-labs/bundle-gateway/clients/counters"
	"github.com/kava-labs/bundle-gateway/clients/database"
	"github.com/kava-labs/bundle-gateway/logging"
	"github.com/kava-labs/bundle-gateway/service/bundlemdw"
)

const (
	UpstreamStatsSuccess = "success"
	UpstreamStatsFailure = "failure"

	sinkTimeout = 5 * time.Second
)

// UpstreamStatsKey returns the key of the counter tracking
// item outcomes of kind for the backend host
func UpstreamStatsKey(prefix string, host string, outcome string) string {
	return fmt.Sprintf("%s:upstream:%s:%s", prefix, host, outcome)
}

// metricsHooks records bundle request metrics and upstream outcome counters.
// Both sinks are written in the background and never change a bundle's results.
type metricsHooks struct {
	bundlemdw.NoopHooks

	database database.MetricsDatabase
	// nil when upstream stats are disabled
	counters    counters.Counters
	statsPrefix string
	statsWindow time.Duration
	logger      *logging.ServiceLogger
}

var _ bundlemdw.Hooks = (*metricsHooks)(nil)

func (h *metricsHooks) OnItemStart(r *http.Request, _ bundlemdw.ItemSpec, _ int, _ []bundlemdw.ItemSpec) {
	if tally := bundleTallyFromContext(r.Context()); tally != nil {
		tally.items.Add(1)
	}
}

func (h *metricsHooks) OnItemFinish(r *http.Request, outcome bundlemdw.Outcome, _ int, _ []bundlemdw.ItemSpec) {
	if tally := bundleTallyFromContext(r.Context()); tally != nil && outcome.Failed() {
		tally.failed.Add(1)
	}

	// only items that passed the security gate reached a backend
	if h.counters == nil || outcome.Request == nil {
		return
	}

	resolved, err := url.Parse(outcome.Request.URL)
	if err != nil || resolved.Host == "" {
		return
	}

	key := UpstreamStatsKey(h.statsPrefix, resolved.Host, lo.Ternary(outcome.Failed(), UpstreamStatsFailure, UpstreamStatsSuccess))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		if _, err := h.counters.Increment(ctx, key, h.statsWindow); err != nil {
			h.logger.Error().Err(err).Str("key", key).Msg("error incrementing upstream stats")
		}
	}()
}

func (h *metricsHooks) OnBundleFinish(r *http.Request) {
	tally := bundleTallyFromContext(r.Context())
	if tally == nil {
		return
	}

	metric := &database.BundleRequestMetric{
		BundleID:                    tally.id,
		Hostname:                    r.Host,
		RequestIP:                   requestIP(r),
		UserAgent:                   optionalHeader(r, "User-Agent"),
		Referer:                     optionalHeader(r, "Referer"),
		Origin:                      optionalHeader(r, "Origin"),
		ItemCount:                   tally.items.Load(),
		FailedItemCount:             tally.failed.Load(),
		ResponseLatencyMilliseconds: time.Since(tally.startedAt).Milliseconds(),
		RequestTime:                 tally.startedAt,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		if err := h.database.SaveBundleRequestMetric(ctx, metric); err != nil {
			h.logger.Error().Err(err).Str("bundleID", metric.BundleID).Msg("error saving bundle request metric")
			return
		}

		h.logger.Trace().Str("bundleID", metric.BundleID).Msg("saved bundle request metric")
	}()
}

func optionalHeader(r *http.Request, name string) *string {
	value := r.Header.Get(name)
	if value == "" {
		return nil
	}
	return &value
}
