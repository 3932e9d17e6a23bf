package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	NopCallbacks

	method, uri       string
	versionMajor      int
	versionMinor      int
	code              int
	reason            string
	headers           [][2]string
	body              []byte
	headerEndCalls    int
	messageEndCalls   int
	messageBeginCalls int
}

func (r *recorder) OnRequestLine(method, uri BufferRef, versionMajor, versionMinor int) bool {
	r.method = method.String()
	r.uri = uri.String()
	r.versionMajor = versionMajor
	r.versionMinor = versionMinor

	return true
}

func (r *recorder) OnStatusLine(versionMajor, versionMinor, code int, reason BufferRef) bool {
	r.versionMajor = versionMajor
	r.versionMinor = versionMinor
	r.code = code
	r.reason = reason.String()

	return true
}

func (r *recorder) OnMessageBeginBare() bool {
	r.messageBeginCalls++

	return true
}

func (r *recorder) OnHeader(name, value BufferRef) bool {
	r.headers = append(r.headers, [2]string{name.String(), value.String()})

	return true
}

func (r *recorder) OnHeaderEnd() bool {
	r.headerEndCalls++

	return true
}

func (r *recorder) OnBody(chunk BufferRef) bool {
	r.body = append(r.body, chunk.Bytes()...)

	return true
}

func (r *recorder) OnMessageEnd() bool {
	r.messageEndCalls++

	return true
}

// scenario A: a simple GET request, fed in one shot.
func TestParser_SimpleGET(t *testing.T) {
	raw := "GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"
	rec := &recorder{}
	p := NewParser(Request, rec)

	cursor := 0
	n := p.Process(Chunk{Data: []byte(raw)}, &cursor)

	require.False(t, p.SyntaxError())
	assert.Equal(t, len(raw), n)
	assert.Equal(t, "GET", rec.method)
	assert.Equal(t, "/index.html", rec.uri)
	assert.Equal(t, 1, rec.versionMajor)
	assert.Equal(t, 1, rec.versionMinor)
	assert.Equal(t, [][2]string{{"Host", "example.com"}}, rec.headers)
	assert.Equal(t, 1, rec.headerEndCalls)
	assert.Equal(t, 1, rec.messageEndCalls)
	assert.Empty(t, rec.body)
}

// scenario B: the same request split at every possible byte offset, across
// two Process calls with a running cursor and chunk offsets (spec §8,
// property 1, "for every byte-split") — including splits that fall inside a
// single token (method, URI, header name/value), which must not panic by
// extending a BufferRef against a chunk the next call replaces.
func TestParser_FragmentedGET(t *testing.T) {
	raw := "GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"

	for split := 1; split < len(raw); split++ {
		first, second := raw[:split], raw[split:]
		rec := &recorder{}
		p := NewParser(Request, rec)

		cursor := 0
		n1 := p.Process(Chunk{Data: []byte(first), Offset: 0}, &cursor)
		assert.Equal(t, len(first), n1, "split=%d", split)
		assert.Equal(t, len(first), cursor, "split=%d", split)

		n2 := p.Process(Chunk{Data: []byte(second), Offset: split}, &cursor)

		require.False(t, p.SyntaxError(), "split=%d", split)
		assert.Equal(t, len(second), n2, "split=%d", split)
		assert.Equal(t, "GET", rec.method, "split=%d", split)
		assert.Equal(t, "/index.html", rec.uri, "split=%d", split)
		assert.Equal(t, [][2]string{{"Host", "example.com"}}, rec.headers, "split=%d", split)
		assert.Equal(t, 1, rec.messageEndCalls, "split=%d", split)
	}
}

// scenario C: a fixed-length POST body delivered in a single chunk.
func TestParser_FixedLengthPOST(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"
	rec := &recorder{}
	p := NewParser(Request, rec)

	cursor := 0
	n := p.Process(Chunk{Data: []byte(raw)}, &cursor)

	require.False(t, p.SyntaxError())
	assert.Equal(t, len(raw), n)
	assert.Equal(t, "POST", rec.method)
	assert.Equal(t, []byte("hello"), rec.body)
	assert.Equal(t, 1, rec.messageEndCalls)
}

// scenario D: a chunked RESPONSE, across multiple chunk fragments.
func TestParser_ChunkedResponse(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n" +
		"6\r\n world\r\n" +
		"0\r\n\r\n"
	rec := &recorder{}
	p := NewParser(Response, rec)

	cursor := 0
	const step = 7
	data := []byte(raw)

	for off := 0; off < len(data); off += step {
		end := off + step
		if end > len(data) {
			end = len(data)
		}

		p.Process(Chunk{Data: data[off:end], Offset: off}, &cursor)
		require.False(t, p.SyntaxError())
	}

	assert.Equal(t, 200, rec.code)
	assert.Equal(t, "OK", rec.reason)
	assert.Equal(t, []byte("hello world"), rec.body)
	assert.Equal(t, 1, rec.messageEndCalls)
}

// scenario E: a folded header value spanning a continuation line.
func TestParser_FoldedHeader(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nX-Long: first\r\n second\r\n\r\n"
	rec := &recorder{}
	p := NewParser(Request, rec)

	cursor := 0
	p.Process(Chunk{Data: []byte(raw)}, &cursor)

	require.False(t, p.SyntaxError())
	require.Len(t, rec.headers, 1)
	assert.Equal(t, "X-Long", rec.headers[0][0])
	// the CRLF fold terminator is dropped outright and the confirming SP
	// becomes the sole separator between the two segments.
	assert.Equal(t, "first second", rec.headers[0][1])
}

// scenario E, fragmented: the fold must also survive when the chunk
// boundary falls inside either physical segment of the value, on top of the
// line fold itself forcing the owned-buffer path.
func TestParser_FoldedHeaderFragmented(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nX-Long: first\r\n second\r\n\r\n"

	for split := 1; split < len(raw); split++ {
		first, second := raw[:split], raw[split:]
		rec := &recorder{}
		p := NewParser(Request, rec)

		cursor := 0
		p.Process(Chunk{Data: []byte(first), Offset: 0}, &cursor)
		p.Process(Chunk{Data: []byte(second), Offset: split}, &cursor)

		require.False(t, p.SyntaxError(), "split=%d", split)
		require.Len(t, rec.headers, 1, "split=%d", split)
		assert.Equal(t, "X-Long", rec.headers[0][0], "split=%d", split)
		assert.Equal(t, "first second", rec.headers[0][1], "split=%d", split)
	}
}

// scenario F: a syntactically invalid request-line. The parser must reach
// SyntaxErrorKind and stop consuming, reporting the exact byte offset at
// which it gave up.
func TestParser_SyntaxError(t *testing.T) {
	raw := "GET /index.html HTTP/x.1\r\n"
	rec := &recorder{}
	p := NewParser(Request, rec)

	cursor := 0
	n := p.Process(Chunk{Data: []byte(raw)}, &cursor)

	assert.True(t, p.SyntaxError())
	// the offending 'x' is left unconsumed.
	assert.Equal(t, len("GET /index.html HTTP/"), n)

	cursorBefore := cursor
	n2 := p.Process(Chunk{Data: []byte("more"), Offset: cursor}, &cursor)
	assert.Zero(t, n2, "a parser stuck in SyntaxErrorKind must consume nothing more")
	assert.Equal(t, cursorBefore, cursor)
}

func TestParser_BareLFLeniency(t *testing.T) {
	raw := "GET / HTTP/1.1\nHost: example.com\n\n"
	rec := &recorder{}
	p := NewParser(Request, rec)

	cursor := 0
	p.Process(Chunk{Data: []byte(raw)}, &cursor)

	require.False(t, p.SyntaxError())
	assert.Equal(t, "GET", rec.method)
	assert.Equal(t, [][2]string{{"Host", "example.com"}}, rec.headers)
}

func TestParser_StrictLineEndingsRejectsBareLF(t *testing.T) {
	raw := "GET / HTTP/1.1\nHost: example.com\n\n"
	rec := &recorder{}
	p := NewParser(Request, rec, WithStrictLineEndings())

	cursor := 0
	p.Process(Chunk{Data: []byte(raw)}, &cursor)

	assert.True(t, p.SyntaxError())
}

// a callback returning false must halt processing immediately, mid-chunk.
func TestParser_CallbackAbort(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"

	type abortOnHeader struct {
		recorder
	}

	rec := &abortOnHeader{}
	p := NewParser(Request, &headerAborter{rec: &rec.recorder})

	cursor := 0
	n := p.Process(Chunk{Data: []byte(raw)}, &cursor)

	assert.Less(t, n, len(raw))
	assert.Equal(t, "GET", rec.method)
	assert.Empty(t, rec.headers, "the aborting header must not be recorded")
}

type headerAborter struct {
	rec *recorder
}

func (h *headerAborter) OnRequestLine(method, uri BufferRef, major, minor int) bool {
	return h.rec.OnRequestLine(method, uri, major, minor)
}

func (h *headerAborter) OnStatusLine(major, minor, code int, reason BufferRef) bool {
	return h.rec.OnStatusLine(major, minor, code, reason)
}

func (h *headerAborter) OnMessageBeginBare() bool { return h.rec.OnMessageBeginBare() }

func (h *headerAborter) OnHeader(name, value BufferRef) bool {
	return false
}

func (h *headerAborter) OnHeaderEnd() bool { return h.rec.OnHeaderEnd() }

func (h *headerAborter) OnBody(chunk BufferRef) bool { return h.rec.OnBody(chunk) }

func (h *headerAborter) OnMessageEnd() bool { return h.rec.OnMessageEnd() }

// pipelined requests: after the first message completes with no body,
// Process must be ready to parse a second message starting at the next byte
// in the same chunk.
func TestParser_Pipelining(t *testing.T) {
	raw := "GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"
	var seen []string
	p := NewParser(Request, &pipelineRecorder{seen: &seen})

	cursor := 0
	n := p.Process(Chunk{Data: []byte(raw)}, &cursor)

	require.False(t, p.SyntaxError())
	assert.Equal(t, len(raw), n)
	assert.Equal(t, []string{"/a", "/b"}, seen)
}

type pipelineRecorder struct {
	NopCallbacks
	seen *[]string
}

func (r *pipelineRecorder) OnRequestLine(_, uri BufferRef, _, _ int) bool {
	*r.seen = append(*r.seen, uri.String())

	return true
}
