package bundlemdw

import "net/http"

// Hooks are the lifecycle callbacks run around a bundle.
// Item hooks run on the item's own goroutine and must be safe for concurrent use.
// The Process hooks may replace the value that is serialized in the response.
type Hooks interface {
	OnBundleStart(r *http.Request)
	OnItemStart(r *http.Request, item ItemSpec, index int, payload []ItemSpec)
	OnItemFinish(r *http.Request, outcome Outcome, index int, payload []ItemSpec)
	OnBundleFinish(r *http.Request)
	ProcessResult(r *http.Request, result ItemResult) any
	ProcessFailure(r *http.Request, result ItemResult) any
	ProcessBundle(r *http.Request, envelope Envelope) any
}

// NoopHooks implements Hooks doing nothing and returning values unchanged.
// Embed it to override only some of the hooks.
type NoopHooks struct{}

var _ Hooks = NoopHooks{}

func (NoopHooks) OnBundleStart(*http.Request) {}

func (NoopHooks) OnItemStart(*http.Request, ItemSpec, int, []ItemSpec) {}

func (NoopHooks) OnItemFinish(*http.Request, Outcome, int, []ItemSpec) {}

func (NoopHooks) OnBundleFinish(*http.Request) {}

func (NoopHooks) ProcessResult(_ *http.Request, result ItemResult) any { return result }

func (NoopHooks) ProcessFailure(_ *http.Request, result ItemResult) any { return result }

func (NoopHooks) ProcessBundle(_ *http.Request, envelope Envelope) any { return envelope }
