package httpclient

import "net/http"

// Doer sends a single HTTP request.
//
// Deadlines and cancellation travel on the request context; implementations must
// return once that context is done.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
