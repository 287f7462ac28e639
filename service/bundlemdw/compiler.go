package bundlemdw

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	ContentTypeHeaderKey = "Content-Type"
	AcceptHeaderKey      = "Accept"
	CookieHeaderKey      = "Cookie"
	JSONContentType      = "application/json"
)

var jsonContentTypeRegex = regexp.MustCompile(`(?i)^application/json\b`)

// CompiledRequest is the outbound request a Transport sends for one item
type CompiledRequest struct {
	// URL is the outbound url after resolution
	URL string
	// RequestedURL is the url checked for acceptability, before resolution
	RequestedURL string
	Method       string
	Header       Header
	Body         []byte
	// Timeout bounds this request only, zero means no per-item limit
	Timeout time.Duration
}

// Compiler turns item specs into outbound requests
type Compiler struct {
	// IsURLAcceptable gates every url before it can be dispatched
	IsURLAcceptable func(url string) bool
	// ResolveURL rewrites accepted urls before egress, identity when nil
	ResolveURL func(url string) string
}

// Compile builds the outbound request for item, forwarding cookie as the
// Cookie header. The only failure is an unacceptable url, reported as an *ItemError.
func (c *Compiler) Compile(item ItemSpec, cookie string) (*CompiledRequest, error) {
	method := item.Method
	if method == "" {
		method = defaultMethod
	}

	data := item.Data
	var query string
	if truthy(item.Query) {
		query = MakeQuery(item.Query)
		if query == "" && !item.Query.IsObject() && !item.Query.IsArray() {
			query = StringValue(item.Query)
		}
	} else if method == defaultMethod && truthy(data) {
		query = MakeQuery(data)
		// sent as the query, never also as a body
		data = gjson.Result{}
	}

	url := item.URL
	if query != "" {
		if strings.Contains(url, "?") {
			url += "&" + query
		} else {
			url += "?" + query
		}
	}

	if c.IsURLAcceptable == nil || !c.IsURLAcceptable(url) {
		return nil, newUnacceptableURLError(url)
	}

	resolvedURL := url
	if c.ResolveURL != nil {
		resolvedURL = c.ResolveURL(url)
	}

	compiled := &CompiledRequest{
		URL:          resolvedURL,
		RequestedURL: url,
		Method:       method,
		Header:       item.Headers.Clone(),
		Timeout:      item.Timeout,
	}

	if method != defaultMethod {
		contentType := compiled.Header.Get(ContentTypeHeaderKey)
		if contentType == "" {
			if truthy(data) {
				compiled.Header.Set(ContentTypeHeaderKey, JSONContentType)
				compiled.Body = compactJSON(data)
			}
		} else if jsonContentTypeRegex.MatchString(contentType) && data.Exists() {
			compiled.Body = compactJSON(data)
		}
	}

	if compiled.Header.Get(AcceptHeaderKey) == "" {
		compiled.Header.Set(AcceptHeaderKey, JSONContentType)
	}

	if cookie != "" {
		compiled.Header.Set(CookieHeaderKey, cookie)
	} else {
		compiled.Header.Del(CookieHeaderKey)
	}

	return compiled, nil
}

func compactJSON(value gjson.Result) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(value.Raw)); err != nil {
		return []byte(value.Raw)
	}
	return buf.Bytes()
}
