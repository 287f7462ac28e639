package bundlemdw

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

const defaultMethod = "GET"

var (
	ErrNoPayload    = errors.New("No payload")
	ErrWrongPayload = errors.New("Wrong payload")
)

// ItemSpec is one sub-request descriptor of a bundle, normalized from either
// a bare url string or an object.
// Query and Data keep the raw JSON so that key order survives serialization.
type ItemSpec struct {
	URL          string
	Method       string
	Query        gjson.Result
	Data         gjson.Result
	Headers      Header
	Timeout      time.Duration
	Mime         string
	ResponseType string

	// Options is the item as reported back in its result
	Options json.RawMessage
}

// ParsePayload parses a bundle request body into its item specs,
// returning ErrNoPayload for an empty body and ErrWrongPayload for
// anything that is not a JSON array
func ParsePayload(body []byte) ([]ItemSpec, error) {
	if len(body) == 0 {
		return nil, ErrNoPayload
	}

	if !gjson.ValidBytes(body) {
		return nil, ErrWrongPayload
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, ErrWrongPayload
	}

	elements := parsed.Array()
	items := make([]ItemSpec, 0, len(elements))
	for _, element := range elements {
		items = append(items, NewItemSpec(element))
	}

	return items, nil
}

// NewItemSpec normalizes one element of a bundle payload.
// Elements that are neither strings nor objects produce an item with no url,
// which the url acceptability check is expected to reject.
func NewItemSpec(element gjson.Result) ItemSpec {
	if element.Type == gjson.String {
		options, _ := marshalJSON(struct {
			URL    string `json:"url"`
			Method string `json:"method"`
		}{URL: element.Str, Method: defaultMethod})

		return ItemSpec{
			URL:     element.Str,
			Method:  defaultMethod,
			Options: options,
		}
	}

	item := ItemSpec{
		Method:  defaultMethod,
		Options: json.RawMessage(element.Raw),
	}

	if !element.IsObject() {
		return item
	}

	if url := element.Get("url"); url.Type == gjson.String {
		item.URL = url.Str
	}

	if method := element.Get("method"); method.Type == gjson.String && method.Str != "" {
		item.Method = strings.ToUpper(method.Str)
	}

	item.Query = element.Get("query")
	item.Data = element.Get("data")

	if headers := element.Get("headers"); headers.IsObject() {
		headers.ForEach(func(name, value gjson.Result) bool {
			item.Headers.Set(name.String(), StringValue(value))
			return true
		})
	}

	if timeout := element.Get("timeout"); timeout.Type == gjson.Number && timeout.Num > 0 {
		item.Timeout = time.Duration(timeout.Num * float64(time.Millisecond))
	}

	if mime := element.Get("mime"); mime.Type == gjson.String {
		item.Mime = mime.Str
	}

	if responseType := element.Get("responseType"); responseType.Type == gjson.String {
		item.ResponseType = responseType.Str
	}

	return item
}

// label is how an item is named in log events
func (item ItemSpec) label() string {
	if item.URL != "" {
		return item.URL
	}
	return string(item.Options)
}
