package proxy

// ClientRequest is the interface the embedding HTTP server satisfies so a
// Connection can pull a request out of it and push a response back in
// (spec §4.2 "Client-request collaborator interface", §6). No HTTP server
// ships in this repository — tests drive Connection against a fake.
type ClientRequest interface {
	// Method and URI return the request-line tokens to forward, as raw
	// bytes (the same borrowed-slice shape message.BufferRef produces).
	Method() []byte
	URI() []byte

	// Headers enumerates the request headers to forward, in wire order.
	Headers() *HeaderList

	// OnAbort registers the hook Connection destroys itself from if the
	// client gives up before the response finishes forwarding.
	OnAbort(func())

	// HasBody reports whether a body follows the request head.
	HasBody() bool

	// NextBodyChunk asynchronously requests the next request body chunk.
	// done is invoked with the chunk once available; a zero-length chunk
	// with a nil error signals end of body.
	NextBodyChunk(done func(chunk []byte, err error))

	// WriteResponse writes a slice of the origin's response body to the
	// client. done is invoked once the write has drained to the client
	// socket — the signal Connection waits on before resuming origin reads
	// (spec §4.2 "Response forwarding": "this is the backpressure
	// mechanism: origin reads are paced by client write-completion").
	WriteResponse(p []byte, done func(err error))

	// SetStatus records the status code parsed from the origin's status
	// line; the reason phrase is discarded per spec §4.2.
	SetStatus(code int)

	// AddHeader appends a forwarded response header.
	AddHeader(name, value string)

	// Finish completes the client response. err is nil on a clean forward
	// (and when the origin closed mid-message), or one of
	// errors.ErrServiceUnavailable / errors.ErrInternalServerError /
	// errors.ErrClientAborted / errors.ErrTimeout /
	// errors.ErrConnectThrottled.
	Finish(err error)
}
