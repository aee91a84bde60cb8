package httpclient

import "errors"

// ErrCircuitOpen is returned by a Doer that refuses to send because its upstream is
// considered unhealthy.
var ErrCircuitOpen = errors.New("upstream circuit open")
