package bundlemdw

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kava-labs/bundle-gateway/logging"
)

// Response is a settled sub-response as returned by a Transport
type Response struct {
	StatusCode int
	StatusText string
	Header     Header
	Body       []byte
}

// Transport sends compiled requests upstream.
// A response with a non-2xx status is still a response, not an error.
type Transport interface {
	Send(ctx context.Context, req *CompiledRequest) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface
type TransportFunc func(ctx context.Context, req *CompiledRequest) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *CompiledRequest) (*Response, error) {
	return f(ctx, req)
}

// Outcome is the settled result of one bundle item
type Outcome struct {
	// Request is nil when the item never compiled
	Request  *CompiledRequest
	Response *Response
	Err      *ItemError
	Elapsed  time.Duration
}

// Failed reports whether the item settled with an error
func (o Outcome) Failed() bool {
	return o.Err != nil
}

type dispatcher struct {
	compiler  *Compiler
	transport Transport
	hooks     Hooks
	logger    *logging.ServiceLogger
}

// dispatch settles every item of payload concurrently and returns once all
// of them have settled, each outcome at the index of its item
func (d *dispatcher) dispatch(r *http.Request, payload []ItemSpec) []Outcome {
	outcomes := make([]Outcome, len(payload))
	cookie := strings.Join(r.Header.Values(CookieHeaderKey), "; ")

	var wg sync.WaitGroup
	for i := range payload {
		wg.Add(1)

		go func(index int) {
			defer wg.Done()
			outcomes[index] = d.settle(r, cookie, index, payload)
		}(i)
	}

	wg.Wait()

	return outcomes
}

func (d *dispatcher) settle(r *http.Request, cookie string, index int, payload []ItemSpec) Outcome {
	start := time.Now()

	outcome := d.run(r, cookie, index, payload)
	outcome.Elapsed = time.Since(start)

	d.finish(r, &outcome, index, payload)

	return outcome
}

// run starts, compiles and sends the item, a panic on the way
// settling it as a failure
func (d *dispatcher) run(r *http.Request, cookie string, index int, payload []ItemSpec) (outcome Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error().Int("index", index).Any("panic", recovered).Msg("recovered panic settling bundle item")

			outcome = Outcome{
				Request: outcome.Request,
				Err:     panicItemError(recovered),
			}
		}
	}()

	item := payload[index]
	d.hooks.OnItemStart(r, item, index, payload)

	req, err := d.compiler.Compile(item, cookie)
	if err != nil {
		d.logger.Debug().Int("index", index).Err(err).Msg("bundle item rejected")
		outcome.Err = toItemError(err)
		return outcome
	}

	d.logRequest(req)
	outcome.Request = req
	outcome.Response, outcome.Err = d.send(r.Context(), req)

	return outcome
}

// finish runs OnItemFinish exactly once for every settled item.
// A panicking hook turns the outcome into a failure.
func (d *dispatcher) finish(r *http.Request, outcome *Outcome, index int, payload []ItemSpec) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error().Int("index", index).Any("panic", recovered).Msg("recovered panic finishing bundle item")

			outcome.Response = nil
			outcome.Err = panicItemError(recovered)
		}
	}()

	d.hooks.OnItemFinish(r, *outcome, index, payload)
}

func (d *dispatcher) send(ctx context.Context, req *CompiledRequest) (*Response, *ItemError) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	res, err := d.transport.Send(ctx, req)
	if err != nil {
		return nil, toItemError(err)
	}

	if res == nil {
		return nil, &ItemError{Name: TransportErrorName, Message: "transport returned no response"}
	}

	return res, nil
}

func (d *dispatcher) logRequest(req *CompiledRequest) {
	msg := "<= " + req.Method + " " + req.RequestedURL
	if req.URL != req.RequestedURL {
		msg += " => " + req.URL
	}

	d.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("length", len(req.Body)).
		Str("contentType", req.Header.Get(ContentTypeHeaderKey)).
		Msg(msg)
}
