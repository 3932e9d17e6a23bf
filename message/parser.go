package message

import "github.com/indigo-web/utils/strcomp"

// Parser is an incremental, zero-copy HTTP/1.1 message parser. It is
// mode-parameterized (Request, Response, Message) and emits events through
// the Callbacks contract, borrowing slices of the caller-provided Chunk.
//
// A Parser is not safe for concurrent use; it belongs to exactly one
// connection, fed in arrival order (spec §5).
type Parser struct {
	mode  Mode
	state state

	// lws continuation points: where to resume after the LWS sub-FSM
	// depending on whether it found fold whitespace or a bare terminator.
	lwsNext state
	lwsNull state

	method  accum
	entity  accum
	name    accum
	value   accum
	message accum // status-line reason phrase

	versionMajor int
	versionMinor int
	code         int

	contentLength int
	chunked       bool

	// shortLF mirrors the X0_HTTP_SUPPORT_SHORT_LF compile-time switch: when
	// true (the default), a bare LF is accepted wherever CRLF is expected.
	shortLF bool

	// aborted is set for the duration of one Process call when a Callbacks
	// method returned false, so Status can distinguish that exit from a
	// plain Partial (spec §6, §7).
	aborted bool

	cb Callbacks
}

// Option configures a Parser at construction.
type Option func(*Parser)

// WithStrictLineEndings disables the SUPPORT_SHORT_LF leniency (spec §4.1):
// only CRLF terminates lines, never a bare LF.
func WithStrictLineEndings() Option {
	return func(p *Parser) { p.shortLF = false }
}

// NewParser builds a Parser for the given mode and callback sink.
func NewParser(mode Mode, cb Callbacks, opts ...Option) *Parser {
	p := &Parser{
		mode:    mode,
		state:   stateMessageBegin,
		shortLF: true,
		cb:      cb,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// SyntaxError reports whether the parser has reached the terminal
// syntax-error state. Once true, every subsequent Process call consumes zero bytes and
// returns the same state (spec §8, property 3).
func (p *Parser) SyntaxError() bool {
	return p.state == stateSyntaxError
}

// ContentLength returns the value recognized from a Content-Length header
// for the message currently being parsed, or -1 if none was seen. Once body
// parsing starts the same field counts down the bytes remaining in the body
// (or, for chunked bodies, in the current chunk), so the header's value is
// only reported until the first body byte is consumed.
func (p *Parser) ContentLength() int {
	return p.contentLength
}

// Chunked reports whether Transfer-Encoding: chunked was recognized for the
// message currently being parsed.
func (p *Parser) Chunked() bool {
	return p.chunked
}

// Status reports the outcome of the most recent Process call, per spec §6's
// caller-facing error surface (Success=0, Partial=1, Aborted=2,
// SyntaxError=3): SyntaxErrorKind once the parser is stuck there permanently;
// Aborted if a Callbacks method returned false during that call; Success if
// a message was completed during that call (the parser is sitting at a fresh
// message boundary); Partial otherwise, meaning Process needs more bytes.
func (p *Parser) Status() ErrorKind {
	switch {
	case p.state == stateSyntaxError:
		return SyntaxErrorKind
	case p.aborted:
		return Aborted
	case p.state == stateMessageBegin:
		return Success
	default:
		return Partial
	}
}

// Process consumes bytes from chunk starting at cursor (converted to a
// chunk-relative index via chunk.Offset), emitting callbacks for completed
// syntactic elements, and returns the number of bytes consumed from this
// chunk. cursor is advanced in place so the caller can resume on the next
// chunk.
//
// Process returns when the chunk is exhausted, a callback returned false, or
// SyntaxErrorKind is reached. It never blocks, never allocates per byte, and
// never retains a reference to chunk.Data past return.
func (p *Parser) Process(chunk Chunk, cursor *int) int {
	data := chunk.Data
	i := *cursor - chunk.Offset
	start := i
	n := len(data)
	p.aborted = false

	ref := func(off, length int) BufferRef { return bufferRef(data, off, length) }

	for i < n {
		switch p.state {
		case stateMessageBegin:
			p.contentLength = -1
			p.chunked = false

			switch p.mode {
			case Request:
				p.state = stateRequestLineBegin
				p.versionMajor = 0
				p.versionMinor = 0
			case Response:
				p.state = stateStatusLineBegin
				p.code = 0
			case Message:
				p.state = stateHeaderNameBegin

				if !p.cb.OnMessageBeginBare() {
					p.aborted = true
					goto done
				}
			}

		case stateRequestLineBegin:
			if isToken(data[i]) {
				p.state = stateRequestMethod
				p.method.begin(data, i)
				i++
			} else {
				p.state = stateSyntaxError
			}

		case stateRequestMethod:
			switch {
			case data[i] == sp:
				p.state = stateRequestEntityBegin
				i++
			case !isToken(data[i]):
				p.state = stateSyntaxError
			default:
				p.method.extend(data[i])
				i++
			}

		case stateRequestEntityBegin:
			if isPrint(data[i]) {
				p.entity.begin(data, i)
				p.state = stateRequestEntity
				i++
			} else {
				p.state = stateSyntaxError
			}

		case stateRequestEntity:
			switch {
			case data[i] == sp:
				p.state = stateRequestProtocolBegin
				i++
			case isPrint(data[i]):
				p.entity.extend(data[i])
				i++
			default:
				p.state = stateSyntaxError
			}

		case stateRequestProtocolBegin:
			if data[i] != 'H' {
				p.state = stateSyntaxError
			} else {
				p.state = stateRequestProtocolT1
				i++
			}

		case stateRequestProtocolT1:
			if data[i] != 'T' {
				p.state = stateSyntaxError
			} else {
				p.state = stateRequestProtocolT2
				i++
			}

		case stateRequestProtocolT2:
			if data[i] != 'T' {
				p.state = stateSyntaxError
			} else {
				p.state = stateRequestProtocolP
				i++
			}

		case stateRequestProtocolP:
			if data[i] != 'P' {
				p.state = stateSyntaxError
			} else {
				p.state = stateRequestProtocolSlash
				i++
			}

		case stateRequestProtocolSlash:
			if data[i] != '/' {
				p.state = stateSyntaxError
			} else {
				p.state = stateRequestProtocolVersionMajor
				i++
			}

		case stateRequestProtocolVersionMajor:
			switch {
			case data[i] == '.':
				p.state = stateRequestProtocolVersionMinor
				i++
			case !isDigit(data[i]):
				p.state = stateSyntaxError
			default:
				p.versionMajor = p.versionMajor*10 + int(data[i]-'0')
				i++
			}

		case stateRequestProtocolVersionMinor:
			switch {
			case data[i] == cr:
				p.state = stateRequestLineLF
				i++
			case p.shortLF && data[i] == lf:
				p.state = stateHeaderNameBegin
				i++

				if !p.cb.OnRequestLine(p.method.bufferRef(), p.entity.bufferRef(), p.versionMajor, p.versionMinor) {
					p.aborted = true
					goto done
				}
			case !isDigit(data[i]):
				p.state = stateSyntaxError
			default:
				p.versionMinor = p.versionMinor*10 + int(data[i]-'0')
				i++
			}

		case stateRequestLineLF:
			if data[i] != lf {
				p.state = stateSyntaxError
				break
			}

			p.state = stateHeaderNameBegin
			i++

			if !p.cb.OnRequestLine(p.method.bufferRef(), p.entity.bufferRef(), p.versionMajor, p.versionMinor) {
				p.aborted = true
				goto done
			}

		case stateStatusLineBegin, stateStatusProtocolBegin:
			if data[i] != 'H' {
				p.state = stateSyntaxError
			} else {
				p.state = stateStatusProtocolT1
				i++
			}

		case stateStatusProtocolT1:
			if data[i] != 'T' {
				p.state = stateSyntaxError
			} else {
				p.state = stateStatusProtocolT2
				i++
			}

		case stateStatusProtocolT2:
			if data[i] != 'T' {
				p.state = stateSyntaxError
			} else {
				p.state = stateStatusProtocolP
				i++
			}

		case stateStatusProtocolP:
			if data[i] != 'P' {
				p.state = stateSyntaxError
			} else {
				p.state = stateStatusProtocolSlash
				i++
			}

		case stateStatusProtocolSlash:
			if data[i] != '/' {
				p.state = stateSyntaxError
			} else {
				p.state = stateStatusProtocolVersionMajor
				i++
			}

		case stateStatusProtocolVersionMajor:
			switch {
			case data[i] == '.':
				p.state = stateStatusProtocolVersionMinor
				i++
			case !isDigit(data[i]):
				p.state = stateSyntaxError
			default:
				p.versionMajor = p.versionMajor*10 + int(data[i]-'0')
				i++
			}

		case stateStatusProtocolVersionMinor:
			switch {
			case data[i] == sp:
				p.state = stateStatusCodeBegin
				i++
			case !isDigit(data[i]):
				p.state = stateSyntaxError
			default:
				p.versionMinor = p.versionMinor*10 + int(data[i]-'0')
				i++
			}

		case stateStatusCodeBegin:
			if !isDigit(data[i]) {
				// spec §9, first Open Question: a bad first digit must not
				// clobber code with the error-state tag. Only state moves.
				p.state = stateSyntaxError
				break
			}

			p.state = stateStatusCode
			fallthrough

		case stateStatusCode:
			switch {
			case isDigit(data[i]):
				p.code = p.code*10 + int(data[i]-'0')
				i++
			case data[i] == sp:
				p.state = stateStatusMessageBegin
				i++
			case data[i] == cr:
				p.state = stateStatusMessageLF
				i++
			default:
				p.state = stateSyntaxError
			}

		case stateStatusMessageBegin:
			if isText(data[i]) {
				p.state = stateStatusMessage
				p.message.begin(data, i)
				i++
			} else {
				p.state = stateSyntaxError
			}

		case stateStatusMessage:
			switch {
			case isText(data[i]) && data[i] != cr && data[i] != lf:
				p.message.extend(data[i])
				i++
			case data[i] == cr:
				p.state = stateStatusMessageLF
				i++
			default:
				p.state = stateSyntaxError
			}

		case stateStatusMessageLF:
			if data[i] != lf {
				p.state = stateSyntaxError
				break
			}

			p.state = stateHeaderNameBegin
			i++

			if !p.cb.OnStatusLine(p.versionMajor, p.versionMinor, p.code, p.message.bufferRef()) {
				p.aborted = true
				goto done
			}

		case stateHeaderNameBegin:
			switch {
			case isToken(data[i]):
				p.name.begin(data, i)
				p.state = stateHeaderName
				i++
			case data[i] == cr:
				p.state = stateHeaderEndLF
				i++
			case p.shortLF && data[i] == lf:
				p.state = stateHeaderEndLF
				// note: LF not consumed here, mirroring the original: the
				// state machine re-enters HEADER_END_LF which itself expects
				// to consume the LF.
			default:
				p.state = stateSyntaxError
			}

		case stateHeaderName:
			switch {
			case isToken(data[i]):
				p.name.extend(data[i])
				i++
			case data[i] == ':':
				p.state = stateLWSBegin
				p.lwsNext = stateHeaderValueBegin
				p.lwsNull = stateHeaderValueEnd
				i++
			case data[i] == cr:
				p.state = stateLWSLF
				p.lwsNext = stateHeaderColon
				p.lwsNull = stateSyntaxError
				i++
			default:
				p.state = stateSyntaxError
			}

		case stateHeaderColon:
			if data[i] == ':' {
				p.state = stateLWSBegin
				p.lwsNext = stateHeaderValueBegin
				p.lwsNull = stateHeaderValueEnd
				i++
			} else {
				p.state = stateSyntaxError
			}

		case stateLWSBegin:
			switch {
			case data[i] == cr:
				p.state = stateLWSLF
				i++
			case p.shortLF && data[i] == lf:
				p.state = stateLWSSPHTBegin
				i++
			case data[i] == sp || data[i] == ht:
				p.state = stateLWSSPHT
				i++
			case isPrint(data[i]):
				p.state = p.lwsNext
			default:
				p.state = stateSyntaxError
			}

		case stateLWSLF:
			if data[i] != lf {
				p.state = stateSyntaxError
				break
			}

			p.state = stateLWSSPHTBegin
			i++

		case stateLWSSPHTBegin:
			if data[i] == sp || data[i] == ht {
				if !p.value.Empty() {
					// a genuine fold: CR LF (and any leniency substitute)
					// are dropped, and this confirming SP/HT becomes the
					// sole separator between the two physical segments —
					// switch value onto its owned buffer, since that
					// concatenation can no longer be expressed as one
					// contiguous borrow.
					p.value.ownAppend(data[i])
				}

				p.state = stateLWSSPHT
				i++
			} else {
				// only the terminator was seen, no fold whitespace follows:
				// resume at lwsNull with no byte consumed.
				p.state = p.lwsNull
			}

		case stateLWSSPHT:
			if data[i] == sp || data[i] == ht {
				// further fold whitespace beyond the first collapses away.
				i++
			} else {
				p.state = p.lwsNext
			}

		case stateHeaderValueBegin:
			switch {
			case isText(data[i]):
				p.value.begin(data, i)
				p.state = stateHeaderValue
				i++
			case data[i] == cr:
				p.state = stateHeaderValueLF
				i++
			case p.shortLF && data[i] == lf:
				p.state = stateHeaderValueEnd
				i++
			default:
				p.state = stateSyntaxError
			}

		case stateHeaderValue:
			switch {
			case data[i] == cr:
				p.state = stateLWSLF
				p.lwsNext = stateHeaderValue
				p.lwsNull = stateHeaderValueEnd
				i++
			case p.shortLF && data[i] == lf:
				p.state = stateLWSSPHTBegin
				p.lwsNext = stateHeaderValue
				p.lwsNull = stateHeaderValueEnd
				i++
			case isText(data[i]):
				p.value.extend(data[i])
				i++
			default:
				p.state = stateSyntaxError
			}

		case stateHeaderValueLF:
			if data[i] != lf {
				p.state = stateSyntaxError
			} else {
				p.state = stateHeaderValueEnd
				i++
			}

		case stateHeaderValueEnd:
			name := p.name.bufferRef()
			value := p.value.bufferRef()

			applyHeaderSideEffects(p, name, value)

			if !p.cb.OnHeader(name, value) {
				p.name.reset()
				p.value.reset()
				p.state = stateHeaderNameBegin
				p.aborted = true
				goto done
			}

			p.name.reset()
			p.value.reset()
			p.state = stateHeaderNameBegin

		case stateHeaderEndLF:
			if data[i] != lf {
				p.state = stateSyntaxError
				break
			}

			contentExpected := p.contentLength > 0 || p.chunked || p.mode == Message

			if contentExpected {
				p.state = stateContentBegin
			} else {
				p.state = stateMessageBegin
			}

			i++

			if !p.cb.OnHeaderEnd() {
				p.aborted = true
				goto done
			}

			if !contentExpected {
				if !p.cb.OnMessageEnd() {
					p.aborted = true
					goto done
				}
			}

		case stateContentBegin:
			switch {
			case p.chunked:
				p.state = stateContentChunkSizeBegin
			case p.contentLength >= 0:
				p.state = stateContent
			default:
				p.state = stateContentEndless
			}

		case stateContentEndless:
			c := ref(i, n-i)
			i = n

			if !p.cb.OnBody(c) {
				p.aborted = true
				goto done
			}

		case stateContent:
			size := p.contentLength
			if remaining := n - i; size > remaining {
				size = remaining
			}

			c := ref(i, size)
			p.contentLength -= size
			i += size

			if p.contentLength == 0 {
				p.state = stateMessageBegin
			}

			if !p.cb.OnBody(c) {
				p.aborted = true
				goto done
			}

			if p.state == stateMessageBegin {
				if !p.cb.OnMessageEnd() {
					p.aborted = true
					goto done
				}
			}

		case stateContentChunkSizeBegin:
			if !isHexDigit(data[i]) {
				p.state = stateSyntaxError
				break
			}

			p.state = stateContentChunkSize
			p.contentLength = 0
			fallthrough

		case stateContentChunkSize:
			switch {
			case data[i] == cr:
				p.state = stateContentChunkLF1
				i++
			case isHexDigit(data[i]):
				p.contentLength = p.contentLength*16 + hexVal(data[i])
				i++
			default:
				p.state = stateSyntaxError
			}

		case stateContentChunkLF1:
			if data[i] != lf {
				p.state = stateSyntaxError
				break
			}

			if p.contentLength != 0 {
				p.state = stateContentChunkBody
			} else {
				p.state = stateContentChunkCR3
			}

			i++

		case stateContentChunkBody:
			if p.contentLength > 0 {
				size := p.contentLength
				if remaining := n - i; size > remaining {
					size = remaining
				}

				c := ref(i, size)
				p.contentLength -= size
				i += size

				if !p.cb.OnBody(c) {
					p.aborted = true
					goto done
				}
			} else if data[i] == cr {
				p.state = stateContentChunkLF2
				i++
			}

		case stateContentChunkLF2:
			if data[i] != lf {
				p.state = stateSyntaxError
			} else {
				p.state = stateContentChunkSize
				i++
			}

		case stateContentChunkCR3:
			if data[i] != cr {
				p.state = stateSyntaxError
			} else {
				p.state = stateContentChunkLF3
				i++
			}

		case stateContentChunkLF3:
			if data[i] != lf {
				p.state = stateSyntaxError
			} else {
				i++

				if !p.cb.OnMessageEnd() {
					p.aborted = true
					goto done
				}

				p.state = stateMessageBegin
			}

		case stateSyntaxError:
			goto done
		}
	}

	// End of chunk. If we've just parsed all headers but have no framing and
	// no body is coming (non-Message mode), the message is already complete
	// — emit end-of-message now so pipelined requests can be parsed from
	// subsequent chunks (spec §4.1, "Tail handling").
	if p.state == stateContentBegin && p.contentLength < 0 && !p.chunked && p.mode != Message {
		if !p.cb.OnMessageEnd() {
			p.aborted = true
			goto done
		}

		p.state = stateMessageBegin
	}

done:
	// A chunk boundary (or this Process call returning early) must never
	// leave an in-progress token's BufferRef aliasing a backing array the
	// caller is free to replace or reuse before the next call — copy
	// whatever each token has gathered so far onto its own owned buffer
	// (spec §9; spec §8 property 1, "for every byte-split").
	p.method.snapshot()
	p.entity.snapshot()
	p.name.snapshot()
	p.value.snapshot()
	p.message.snapshot()

	*cursor = chunk.Offset + i

	return i - start
}

// applyHeaderSideEffects recognizes the two header names the parser itself
// gives meaning to (spec §4.1, "Header side-effects"). All other headers are
// opaque to the parser.
func applyHeaderSideEffects(p *Parser, name, value BufferRef) {
	n := name.String()

	switch {
	case strcomp.EqualFold(n, "Content-Length"):
		p.contentLength = parseDecimal(value.String())
	case strcomp.EqualFold(n, "Transfer-Encoding"):
		if strcomp.EqualFold(value.String(), "chunked") {
			p.chunked = true
		}
	}
}

// parseDecimal parses a non-negative decimal integer from s, stopping at the
// first non-digit and returning 0 if s has no leading digits — matching the
// original's permissive atoi-style parse of the Content-Length value.
func parseDecimal(s string) int {
	n := 0

	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			break
		}

		n = n*10 + int(s[i]-'0')
	}

	return n
}
