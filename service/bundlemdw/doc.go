// Package bundlemdw is responsible for the handler used to serve bundle requests.

// The primary export is CreateBundleProcessingMiddleware which accepts a JSON array of
// sub-request descriptors, dispatches every descriptor concurrently through a Transport
// and answers with a single envelope whose results mirror the order of the input array.

// Each item is either a bare url string or an object of the form
//
//	{"url": "/api", "method": "POST", "query": {"a": [1, 2]}, "data": {"x": 1},
//	 "headers": {"X-Key": "v"}, "timeout": 500, "mime": "text/plain", "responseType": "text"}
//
// Every item settles on its own: a url rejected by the configured acceptability check or a
// failed transport call is reported as a status 500 result for that item only.

// The response headers of every successful sub-response are copied onto the bundle response
// by default, later items overwriting earlier ones. Content-Length and hop-by-hop headers are
// never copied.
package bundlemdw
