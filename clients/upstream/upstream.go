// package upstream provides the http transport used to send bundle items
// to the backends they resolve to
package upstream

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kava-labs/bundle-gateway/logging"
	"github.com/kava-labs/bundle-gateway/service/bundlemdw"
)

// ClientConfig wraps values used to create a Client
type ClientConfig struct {
	// Timeout bounds every request sent by the client, zero for none
	Timeout time.Duration
	Logger  *logging.ServiceLogger
	// HTTPClient overrides the traced client built from Timeout
	HTTPClient *http.Client
}

// Client sends compiled bundle items over http
type Client struct {
	httpClient *http.Client
	logger     *logging.ServiceLogger
}

var _ bundlemdw.Transport = (*Client)(nil)

// NewHTTPClient creates an http client whose requests are traced with otel
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}

// New creates a Client from config
func New(config ClientConfig) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(config.Timeout)
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// acceptAnyStatus reports upstream error statuses as responses rather than errors
func acceptAnyStatus(*http.Response) error {
	return nil
}

// Send implements bundlemdw.Transport
func (c *Client) Send(ctx context.Context, req *bundlemdw.CompiledRequest) (*bundlemdw.Response, error) {
	var response bundlemdw.Response

	builder := requests.
		URL(req.URL).
		Client(c.httpClient).
		Method(req.Method).
		AddValidator(acceptAnyStatus).
		Handle(func(res *http.Response) error {
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			if err != nil {
				return errors.Wrap(err, "reading upstream response body")
			}

			// net/http exposes headers as a map with canonical names, so they
			// are reported sorted by name, not in the order they were received
			response = bundlemdw.Response{
				StatusCode: res.StatusCode,
				StatusText: statusText(res),
				Header:     bundlemdw.HeaderFromHTTP(res.Header),
				Body:       body,
			}

			return nil
		})

	for _, field := range req.Header {
		builder.Header(field.Name, field.Value)
	}

	if len(req.Body) > 0 {
		builder.BodyBytes(req.Body)
	}

	start := time.Now()
	err := builder.Fetch(ctx)

	c.logger.Trace().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", response.StatusCode).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("upstream request settled")

	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL)
	}

	return &response, nil
}

// statusText extracts the reason phrase of a response's status line
func statusText(res *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if text == "" {
		return http.StatusText(res.StatusCode)
	}
	return text
}
