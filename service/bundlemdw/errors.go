package bundlemdw

import (
	"context"
	"fmt"
	"net"

	"github.com/cockroachdb/errors"
)

const (
	UnacceptableURLErrorName  = "UnacceptableURL"
	TransportErrorName        = "TransportError"
	TimeoutErrorName          = "TimeoutError"
	PanicErrorName            = "Panic"
	diagnosticPrefix          = "bundler encountered an error: "
	unspecifiedErrorMessage   = "(unspecified)"
	failureResponseHeaderLine = "Content-Type: text/plain; charset=utf-8"
)

var (
	ErrMissingURLAcceptor = errors.New("bundle middleware requires a url acceptability check")
	ErrMissingTransport   = errors.New("bundle middleware requires a transport")
)

// ItemError is the settled failure of a single bundle item.
// It is reported in the item's result and never aborts the bundle.
type ItemError struct {
	Name    string
	Message string
}

func (e *ItemError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// Diagnostic renders the text reported as the response body of a failed item
func (e *ItemError) Diagnostic() string {
	diagnostic := diagnosticPrefix
	if e.Name != "" {
		diagnostic += "[" + e.Name + "] "
	}
	if e.Message == "" {
		return diagnostic + unspecifiedErrorMessage
	}
	return diagnostic + e.Message
}

func newUnacceptableURLError(url string) *ItemError {
	return &ItemError{
		Name:    UnacceptableURLErrorName,
		Message: "Unacceptable URL: " + url,
	}
}

// toItemError converts an error returned by a Transport into an ItemError,
// keeping any ItemError the transport chose to return itself
func toItemError(err error) *ItemError {
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		return itemErr
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ItemError{Name: TimeoutErrorName, Message: err.Error()}
	}

	return &ItemError{Name: TransportErrorName, Message: err.Error()}
}

func panicItemError(recovered any) *ItemError {
	return &ItemError{Name: PanicErrorName, Message: fmt.Sprint(recovered)}
}
