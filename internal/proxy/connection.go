// Package proxy implements the reverse-proxy connection state machine
// (spec §4.2): open an origin connection, forward a filtered form of the
// client request onto it, parse the origin's response with a RESPONSE-mode
// message.Parser, and stream it back to the client.
package proxy

import (
	stderrors "errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/indigo-web/utils/strcomp"
	"github.com/relayhttp/engine/config"
	"github.com/relayhttp/engine/errors"
	"github.com/relayhttp/engine/logging"
	"github.com/relayhttp/engine/message"
	"github.com/relayhttp/engine/metrics"
	"github.com/relayhttp/engine/ratelimit"
)

// dialer abstracts net.Dial for tests; production callers get net.Dial via
// Connection's default.
type dialer func(network, address string, timeout time.Duration) (net.Conn, error)

func dialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(network, address, timeout)
}

// Connection is a single per-request reverse-proxy state machine (spec
// §3 "ProxyConnection state", §4.2). It is used once and discarded; the
// teacher's blocking-net.Conn-per-goroutine idiom (internal/tcp.Client)
// replaces the original's non-blocking reactor, one goroutine per
// Connection standing in for one epoll-driven callback chain. Every named
// state and transition is preserved as a State value, driven by the same
// triggers (connect done, write drained, read drained, timeout, abort) —
// only the scheduling mechanism differs.
type Connection struct {
	id     uuid.UUID
	origin Origin
	cloak  bool
	client   ClientRequest
	logger   logging.Logger
	metrics  *metrics.Proxy
	throttle *ratelimit.Throttle
	dial     dialer

	connectTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	conn  net.Conn
	state State

	parser *message.Parser
	status int
	done   bool
	failed error
}

// Option configures a Connection at construction.
type Option func(*Connection)

// WithLogger overrides the default logging.Nop sink.
func WithLogger(l logging.Logger) Option {
	return func(c *Connection) { c.logger = l }
}

// WithDialer overrides the origin dial function; used by tests to connect
// to an in-process listener without touching DNS.
func WithDialer(d dialer) Option {
	return func(c *Connection) { c.dial = d }
}

// WithMetrics attaches a metrics.Proxy instance; without this option
// Connection simply skips instrumentation.
func WithMetrics(m *metrics.Proxy) Option {
	return func(c *Connection) { c.metrics = m }
}

// WithThrottle attaches a per-origin connect throttle; without this option
// Connect is never rate-limited.
func WithThrottle(t *ratelimit.Throttle) Option {
	return func(c *Connection) { c.throttle = t }
}

// NewConnection builds a Connection for one client request against origin,
// with the three independent phase deadlines (spec §4.2 "Timeouts").
func NewConnection(origin Origin, cloak bool, client ClientRequest, connectTimeout, readTimeout, writeTimeout time.Duration, opts ...Option) *Connection {
	c := &Connection{
		id:             uuid.New(),
		origin:         origin,
		cloak:          cloak,
		client:         client,
		logger:         logging.Nop{},
		dial:           dialTimeout,
		connectTimeout: connectTimeout,
		readTimeout:    readTimeout,
		writeTimeout:   writeTimeout,
		state:          Disconnected,
		status:         -1,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.parser = message.NewParser(message.Response, c)

	return c
}

// NewFromSettings builds a Connection the way an embedding server
// typically would: origin, cloak, and the three timeouts come straight
// from a config.Settings value (spec §6's "config.Settings is constructed
// by the embedder" external-collaborator note).
func NewFromSettings(settings config.Settings, client ClientRequest, opts ...Option) *Connection {
	return NewConnection(
		ParseOrigin(settings.Origin),
		settings.Cloak,
		client,
		settings.ConnectTimeout,
		settings.ReadTimeout,
		settings.WriteTimeout,
		opts...,
	)
}

// ID returns this connection's UUID, stamped at construction for log
// correlation (spec §9's "enrich from the rest of the pack" path).
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// State reports the current lifecycle stage.
func (c *Connection) State() State {
	return c.state
}

// Status reports the origin status code once the status line has been
// parsed, or -1 before that.
func (c *Connection) Status() int {
	return c.status
}

// Run drives the connection to completion: connect, write the forwarded
// request, read and forward the response, then finish the client request.
// It returns only once the client request has been finished (spec §4.2's
// "destroyed when response fully forwarded, origin closes, an error
// occurs, or the client aborts" — here, Finish plays the role of
// destruction).
func (c *Connection) Run() {
	aborted := make(chan struct{}, 1)
	c.client.OnAbort(func() {
		select {
		case aborted <- struct{}{}:
		default:
		}

		if c.conn != nil {
			// wakes any blocking Read/Write in the goroutine running Run,
			// mirroring the original's "close the origin fd" abort path.
			c.conn.Close()
		}
	})

	if err := c.connect(); err != nil {
		c.logger.Printf("proxy[%s]: connect to %s failed: %v", c.id, c.origin.Address(), err)
		c.client.Finish(statusForDialError(err))
		return
	}
	defer c.conn.Close()

	if err := c.writeRequest(); err != nil {
		select {
		case <-aborted:
			c.client.Finish(errors.ErrClientAborted)
		default:
			// spec §7: "errors during request-to-origin writing simply
			// close the origin fd and destroy (the client already has no
			// response bytes)" — no response was ever parsed, so this is
			// reported the same way a failed connect is.
			c.logger.Printf("proxy[%s]: write to origin failed: %v", c.id, err)
			c.client.Finish(statusForIOError(err))
		}
		return
	}

	err := c.readResponse()
	switch {
	case err == nil:
		c.client.Finish(nil)
	case isAborted(aborted):
		c.client.Finish(errors.ErrClientAborted)
	case stderrors.Is(err, errClosedMidMessage):
		// spec §7: "closes the connection without status mutation" — no
		// error is reported to the client beyond whatever was already set.
		c.logger.Printf("proxy[%s]: origin closed mid-message", c.id)
		c.client.Finish(nil)
	case stderrors.Is(err, errSyntaxError):
		c.logger.Printf("proxy[%s]: origin sent an unparseable response", c.id)
		c.client.Finish(errors.ErrInternalServerError)
	default:
		c.logger.Printf("proxy[%s]: origin read failed: %v", c.id, err)

		if isTimeout(err) {
			c.client.Finish(errors.ErrTimeout)
		} else {
			c.client.Finish(errors.ErrInternalServerError)
		}
	}
}

// statusForDialError reports errors.ErrConnectThrottled as itself and a
// dial deadline firing as errors.ErrTimeout; anything else is a generic
// connect failure.
func statusForDialError(err error) error {
	if stderrors.Is(err, errors.ErrConnectThrottled) {
		return err
	}

	return statusForIOError(err)
}

// statusForIOError maps a timed-out net.Conn operation to errors.ErrTimeout
// (spec §4.2 "Timeouts"), and anything else to errors.ErrServiceUnavailable.
func statusForIOError(err error) error {
	if isTimeout(err) {
		return errors.ErrTimeout
	}

	return errors.ErrServiceUnavailable
}

// isTimeout reports whether err is a net.Error whose deadline fired —
// connect/read/write deadlines are all plain context-free time.Time
// deadlines set via SetXDeadline, so they all surface this way.
func isTimeout(err error) bool {
	var netErr net.Error

	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func isAborted(aborted chan struct{}) bool {
	select {
	case <-aborted:
		return true
	default:
		return false
	}
}

// connect implements spec §4.2's "Connect algorithm", collapsed onto a
// single blocking dial: DialTimeout plays both openUnix's synchronous
// connect and openTcp's address-loop-until-Established role, since Go's
// resolver+dial already tries every resolved address internally.
func (c *Connection) connect() error {
	c.state = AboutToConnect

	if c.throttle != nil && !c.throttle.Allow(c.origin.Address()) {
		return errors.ErrConnectThrottled
	}

	start := time.Now()

	if c.metrics != nil {
		c.metrics.ConnectAttempts.Inc(1)
	}

	c.state = Connecting
	conn, err := c.dial(c.origin.Network(), c.origin.Address(), c.connectTimeout)

	if c.metrics != nil {
		c.metrics.ConnectDuration.UpdateSince(start)
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.ConnectFailures.Inc(1)
		}

		return err
	}

	c.conn = conn
	c.state = Connected

	return nil
}

// writeRequest implements spec §4.2's "Request serialization": the
// request line and filtered headers, then the client's body chunks if any
// (ProxyConnection.start / onRequestChunk in original_source).
func (c *Connection) writeRequest() error {
	c.state = Writing

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.WriteDuration.UpdateSince(start)
		}
	}()

	head := serializeRequest(c.client)

	if err := c.writeDeadline(); err != nil {
		return err
	}

	n, err := c.conn.Write(head)
	c.countBytesWritten(n)
	if err != nil {
		return err
	}

	for c.client.HasBody() {
		chunk, err := c.pullBodyChunk()
		if err != nil {
			return err
		}

		if len(chunk) == 0 {
			break
		}

		if err := c.writeDeadline(); err != nil {
			return err
		}

		n, err := c.conn.Write(chunk)
		c.countBytesWritten(n)
		if err != nil {
			return err
		}
	}

	return nil
}

func (c *Connection) countBytesWritten(n int) {
	if c.metrics != nil && n > 0 {
		c.metrics.BytesWritten.Inc(int64(n))
	}
}

// serializeRequest builds the origin-facing request head: method, URI,
// "HTTP/1.1", and every client header except Content-Transfer, Expect and
// Connection (spec §4.2, §6; original_source/plugins/proxy.cpp::start()).
func serializeRequest(client ClientRequest) []byte {
	var buf []byte

	buf = append(buf, client.Method()...)
	buf = append(buf, ' ')
	buf = append(buf, client.URI()...)
	buf = append(buf, " HTTP/1.1\r\n"...)

	headers := client.Headers()
	if headers != nil {
		it := headers.Iter()
		for it.Next() {
			h := it.Value()
			if isExcludedRequestHeader(h.Name) {
				continue
			}

			buf = append(buf, h.Name...)
			buf = append(buf, ':', ' ')
			buf = append(buf, h.Value...)
			buf = append(buf, '\r', '\n')
		}
	}

	buf = append(buf, '\r', '\n')

	return buf
}

func isExcludedRequestHeader(name string) bool {
	return strcomp.EqualFold(name, "Content-Transfer") ||
		strcomp.EqualFold(name, "Expect") ||
		strcomp.EqualFold(name, "Connection")
}

// pullBodyChunk turns ClientRequest's asynchronous NextBodyChunk into a
// blocking call for this goroutine — the "token handed between the state
// machine and the downstream write sink" spec §9 describes, realized here
// as a channel handoff instead of an event-loop callback re-arm.
func (c *Connection) pullBodyChunk() ([]byte, error) {
	type result struct {
		chunk []byte
		err   error
	}

	ch := make(chan result, 1)
	c.client.NextBodyChunk(func(chunk []byte, err error) {
		ch <- result{chunk: chunk, err: err}
	})

	r := <-ch

	return r.chunk, r.err
}

// writeToClient blocks this goroutine until ClientRequest has drained p to
// the client socket — the backpressure mechanism spec §4.2 describes
// ("origin reads are paced by client write-completion").
func (c *Connection) writeToClient(p []byte) error {
	ch := make(chan error, 1)
	c.client.WriteResponse(p, func(err error) {
		ch <- err
	})

	return <-ch
}

func (c *Connection) writeDeadline() error {
	if c.writeTimeout <= 0 {
		return nil
	}

	return c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
}

func (c *Connection) readDeadline() error {
	if c.readTimeout <= 0 {
		return nil
	}

	return c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
}

// errSyntaxError and errClosedMidMessage are internal sentinels readResponse
// returns to Run; they are never handed to the client request directly.
var (
	errSyntaxError      = stderrors.New("origin sent an unparseable response")
	errClosedMidMessage = stderrors.New("origin closed the connection mid-message")
)

// readBufInitialCap is the starting capacity of readResponse's accumulation
// buffer (original_source/plugins/proxy.cpp::readSome grows by a fixed 4096
// per read; this is sized well above one read so a typical status line plus
// headers never forces a grow at all).
const readBufInitialCap = 16384

// readResponse implements spec §4.2's "Read loop": read into a growable
// buffer, feed the RESPONSE-mode parser, and react to its outcome. Every
// message.Parser accumulator is snapshotted onto its own owned storage
// before Process returns (message/bufferref.go's accum.snapshot), so a grow
// here never invalidates a BufferRef the parser is still holding onto — the
// grow below still doubles rather than appending a fixed 4 KiB so a large
// response head costs O(log n) copies instead of O(n).
func (c *Connection) readResponse() error {
	c.state = Reading

	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ReadDuration.UpdateSince(start)
		}
	}()

	buf := make([]byte, readBufInitialCap)
	filled := 0
	cursor := 0

	for {
		if filled == len(buf) {
			grown := make([]byte, len(buf)*2)
			copy(grown, buf[:filled])
			buf = grown
		}

		if err := c.readDeadline(); err != nil {
			return err
		}

		n, err := c.conn.Read(buf[filled:])
		if n > 0 {
			if c.metrics != nil {
				c.metrics.BytesRead.Inc(int64(n))
			}

			filled += n

			c.parser.Process(message.Chunk{Data: buf[:filled], Offset: 0}, &cursor)

			switch c.parser.Status() {
			case message.SyntaxErrorKind:
				return errSyntaxError
			case message.Aborted:
				// a Callbacks method (OnBody, via writeToClient) returned
				// false; c.failed carries the reason.
				return c.failed
			case message.Success:
				return nil
			}
		}

		if err != nil {
			if isEOF(err) {
				// RESPONSE mode never uses endless framing (spec §4.1's
				// CONTENT_ENDLESS is MESSAGE-mode only): a clean close with
				// c.done already set is message completion racing EOF;
				// any other close mid-message is reported without status
				// mutation (spec §7), distinct from a genuine origin error.
				if c.done {
					return nil
				}

				return errClosedMidMessage
			}

			return err
		}
	}
}

func isEOF(err error) bool {
	return stderrors.Is(err, io.EOF)
}

// --- message.Callbacks: the forwarding side of Response forwarding (spec
// §4.2). Every method mirrors one of ProxyConnection::messageBegin/
// messageHeader/messageContent/messageEnd in original_source/plugins/proxy.cpp.

func (c *Connection) OnRequestLine(_, _ message.BufferRef, _, _ int) bool {
	// never reached: this Connection's parser is always Response mode.
	return false
}

func (c *Connection) OnStatusLine(versionMajor, versionMinor, code int, _ message.BufferRef) bool {
	c.status = code
	c.client.SetStatus(code)

	return true
}

func (c *Connection) OnMessageBeginBare() bool {
	return false
}

func (c *Connection) OnHeader(name, value message.BufferRef) bool {
	// name/value are parser-owned BufferRefs, valid only for this call
	// (spec §5, §9): the filter check can use the zero-copy view, but
	// anything handed to client.AddHeader for later use must be a real
	// copy, via the string(...) conversion rather than BufferRef.String().
	n := name.String()

	if strcomp.EqualFold(n, "Connection") || strcomp.EqualFold(n, "Transfer-Encoding") {
		return true
	}

	if c.cloak && strcomp.EqualFold(n, "Server") {
		return true
	}

	c.client.AddHeader(string(name.Bytes()), string(value.Bytes()))

	return true
}

func (c *Connection) OnHeaderEnd() bool {
	c.logger.Printf("proxy[%s]: origin %d, content-length=%d chunked=%t",
		c.id, c.status, c.parser.ContentLength(), c.parser.Chunked())

	return true
}

func (c *Connection) OnBody(chunk message.BufferRef) bool {
	if err := c.writeToClient(chunk.Bytes()); err != nil {
		c.failed = err
		return false
	}

	return true
}

func (c *Connection) OnMessageEnd() bool {
	c.done = true
	return true
}

