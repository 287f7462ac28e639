package bundlemdw

import (
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/kava-labs/bundle-gateway/logging"
)

const (
	DefaultMaxRequests = 20

	NoPayloadMessage    = "No payload"
	WrongPayloadMessage = "Wrong payload"
	LargePayloadMessage = "Large payload"

	textContentType     = "text/plain; charset=utf-8"
	envelopeContentType = "application/json; charset=utf-8"
)

var emptyEnvelope = []byte(`{"bundle":"bundle","results":[]}`)

type BundleMiddlewareConfig struct {
	ServiceLogger *logging.ServiceLogger

	// IsURLAcceptable is required, items whose url it rejects are never sent
	IsURLAcceptable func(url string) bool
	// ResolveURL rewrites accepted urls before they are sent, identity when nil
	ResolveURL func(url string) string
	// MaxRequests caps the items of one bundle, DefaultMaxRequests when zero
	MaxRequests int

	Transport        Transport
	Hooks            Hooks
	PropagateHeaders HeaderPropagator
}

// CreateBundleProcessingMiddleware returns the handler serving bundle requests,
// or an error if config lacks the url acceptability check or the transport
func CreateBundleProcessingMiddleware(config BundleMiddlewareConfig) (http.HandlerFunc, error) {
	if config.IsURLAcceptable == nil {
		return nil, ErrMissingURLAcceptor
	}

	if config.Transport == nil {
		return nil, ErrMissingTransport
	}

	logger := config.ServiceLogger
	if logger == nil {
		logger = logging.NewNop()
	}

	maxRequests := config.MaxRequests
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}

	hooks := config.Hooks
	if hooks == nil {
		hooks = NoopHooks{}
	}

	propagateHeaders := config.PropagateHeaders
	if propagateHeaders == nil {
		propagateHeaders = PropagateSuccessHeaders
	}

	d := &dispatcher{
		compiler: &Compiler{
			IsURLAcceptable: config.IsURLAcceptable,
			ResolveURL:      config.ResolveURL,
		},
		transport: config.Transport,
		hooks:     hooks,
		logger:    logger,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error().Err(err).Msg("error reading bundle payload")
			body = nil
		}

		logger.Info().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Int("length", len(body)).
			Str("contentType", r.Header.Get(ContentTypeHeaderKey)).
			Msgf("=> %s %s", r.Method, r.URL.String())

		payload, err := ParsePayload(body)
		switch {
		case errors.Is(err, ErrNoPayload):
			logger.Error().Msg("no payload")
			writeText(w, http.StatusBadRequest, NoPayloadMessage)
			return
		case err != nil:
			logger.Error().Msg("wrong payload")
			writeText(w, http.StatusBadRequest, WrongPayloadMessage)
			return
		case len(payload) == 0:
			logger.Warn().Msg("empty payload")
			writeEnvelope(w, emptyEnvelope)
			return
		case len(payload) > maxRequests:
			logger.Error().Int("length", len(payload)).Int("maxRequests", maxRequests).Msg("large payload")
			writeText(w, http.StatusBadRequest, LargePayloadMessage)
			return
		}

		urls := lo.Map(payload, func(item ItemSpec, _ int) string {
			return item.label()
		})
		logger.Info().Int("length", len(payload)).Strs("urls", urls).Msgf("=> RECEIVED bundle of %d", len(payload))

		bundleStart := time.Now()
		hooks.OnBundleStart(r)

		outcomes := d.dispatch(r, payload)
		propagateHeaders(w, outcomes)
		results := aggregate(r, hooks, payload, outcomes)

		hooks.OnBundleFinish(r)
		bundleTime := time.Since(bundleStart).Milliseconds()

		logger.Info().Int("length", len(results)).Int64("time", bundleTime).Msgf("<= RETURNED bundle of %d in %dms", len(results), bundleTime)

		envelope := hooks.ProcessBundle(r, Envelope{
			Bundle:  BundleName,
			Results: results,
			Time:    bundleTime,
		})

		encoded, err := marshalJSON(envelope)
		if err != nil {
			logger.Error().Err(err).Msg("error encoding bundle envelope")
			writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			return
		}

		writeEnvelope(w, encoded)
	}, nil
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set(ContentTypeHeaderKey, textContentType)
	w.WriteHeader(status)
	w.Write([]byte(message))
}

func writeEnvelope(w http.ResponseWriter, encoded []byte) {
	w.Header().Set(ContentTypeHeaderKey, envelopeContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(encoded)
}
