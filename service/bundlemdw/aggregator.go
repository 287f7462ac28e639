package bundlemdw

import (
	"bytes"
	"encoding/json"
	"net/http"
)

const BundleName = "bundle"

// ItemResponse is the response reported for one item
type ItemResponse struct {
	Status       int    `json:"status"`
	StatusText   string `json:"statusText"`
	ResponseType string `json:"responseType"`
	ResponseText string `json:"responseText"`
	// Headers holds `Name: value` lines joined by CRLF
	Headers string `json:"headers"`
}

// ItemResult is the entry of a bundle response for one item
type ItemResult struct {
	Options json.RawMessage `json:"options"`
	// Time is the milliseconds the item took to settle
	Time     int64        `json:"time"`
	Response ItemResponse `json:"response"`
}

// Envelope is the body of a bundle response.
// Results hold ItemResult values unless a hook replaced them.
type Envelope struct {
	Bundle  string `json:"bundle"`
	Results []any  `json:"results"`
	Time    int64  `json:"time"`
}

// HeaderPropagator copies headers of settled sub-responses onto the bundle response
type HeaderPropagator func(w http.ResponseWriter, outcomes []Outcome)

// headers owned by the bundle response itself
var unpropagatedHeaders = []string{
	"Connection",
	"Content-Encoding",
	"Content-Length",
	"Keep-Alive",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// PropagateSuccessHeaders copies every header of every successful sub-response,
// later items overwriting same named headers of earlier ones
func PropagateSuccessHeaders(w http.ResponseWriter, outcomes []Outcome) {
	for _, outcome := range outcomes {
		if outcome.Failed() || outcome.Response == nil {
			continue
		}

		for _, field := range outcome.Response.Header {
			if isUnpropagated(field.Name) {
				continue
			}
			w.Header().Set(field.Name, field.Value)
		}
	}
}

func isUnpropagated(name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for _, unpropagated := range unpropagatedHeaders {
		if canonical == unpropagated {
			return true
		}
	}
	return false
}

// newItemResult converts a settled outcome into the result reported for item
func newItemResult(item ItemSpec, outcome Outcome) ItemResult {
	result := ItemResult{
		Options: item.Options,
		Time:    outcome.Elapsed.Milliseconds(),
	}

	if outcome.Failed() {
		result.Response = ItemResponse{
			Status:       http.StatusInternalServerError,
			StatusText:   outcome.Err.Message,
			ResponseType: "",
			ResponseText: outcome.Err.Diagnostic(),
			Headers:      failureResponseHeaderLine,
		}
		return result
	}

	result.Response = ItemResponse{
		Status:       outcome.Response.StatusCode,
		StatusText:   outcome.Response.StatusText,
		ResponseType: item.ResponseType,
		ResponseText: string(outcome.Response.Body),
		Headers:      responseHeaders(outcome.Response.Header, item.Mime),
	}

	return result
}

// responseHeaders serializes a sub-response's headers, replacing its
// content type with mime when one was requested
func responseHeaders(header Header, mime string) string {
	if mime == "" {
		return header.String()
	}

	overridden := header.Clone()
	overridden.Del(ContentTypeHeaderKey)
	overridden = append(overridden, HeaderField{Name: ContentTypeHeaderKey, Value: mime})

	return overridden.String()
}

func aggregate(r *http.Request, hooks Hooks, payload []ItemSpec, outcomes []Outcome) []any {
	results := make([]any, len(outcomes))
	for i, outcome := range outcomes {
		result := newItemResult(payload[i], outcome)
		if outcome.Failed() {
			results[i] = hooks.ProcessFailure(r, result)
		} else {
			results[i] = hooks.ProcessResult(r, result)
		}
	}
	return results
}

// marshalJSON encodes v without escaping HTML characters
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
