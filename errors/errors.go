// Package errors collects the sentinel errors shared across the engine, in
// the same flat, non-hierarchical style the rest of this corpus uses for
// HTTP-adjacent error values.
package errors

import "errors"

var (
	// ErrServiceUnavailable is set on the client response when an origin
	// connect attempt (synchronous or asynchronous) fails outright.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInternalServerError is set on the client response when the origin
	// sent a response MessageParser could not parse.
	ErrInternalServerError = errors.New("internal server error")

	// ErrClientAborted signals that the client gave up before the proxied
	// response was fully forwarded; it never reaches the client, since there's
	// no client left to tell.
	ErrClientAborted = errors.New("client aborted")

	// ErrConnectThrottled is returned by a proxy Connection's connect step
	// when its ratelimit.Throttle rejects a connect attempt to an origin
	// through that origin's per-host token bucket.
	ErrConnectThrottled = errors.New("origin connect rate exceeded")

	// ErrTimeout is used for connect/read/write deadlines firing on a
	// ProxyConnection.
	ErrTimeout = errors.New("i/o timeout")
)
