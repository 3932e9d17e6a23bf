package message

// Callbacks is the hook contract Process drives synchronously while parsing.
// Every method returns a bool; false halts Process immediately and no
// further callback fires in that call. Before returning, Process still
// records the abort for Status and copies any in-progress tokens onto
// parser-owned storage; it does not leave its member state untouched.
//
// Exactly one of OnRequestLine, OnStatusLine, OnMessageBeginBare fires per
// message, matching the Parser's Mode.
type Callbacks interface {
	// OnRequestLine fires once the request-line has been fully parsed.
	// Request mode only.
	OnRequestLine(method, uri BufferRef, versionMajor, versionMinor int) bool

	// OnStatusLine fires once the status-line has been fully parsed.
	// Response mode only. The reason phrase may be empty.
	OnStatusLine(versionMajor, versionMinor, code int, reason BufferRef) bool

	// OnMessageBeginBare fires immediately upon entering Message mode, since
	// there is no start-line to report.
	OnMessageBeginBare() bool

	// OnHeader fires for each fully parsed header, in wire order.
	OnHeader(name, value BufferRef) bool

	// OnHeaderEnd fires once all headers have been parsed, before any body
	// callback.
	OnHeaderEnd() bool

	// OnBody fires for each content chunk, in byte order, with no overlap.
	OnBody(chunk BufferRef) bool

	// OnMessageEnd fires once the full message (headers + body, if any) has
	// been parsed.
	OnMessageEnd() bool
}

// NopCallbacks is a Callbacks implementation that accepts everything,
// useful for tests that only exercise a subset of hooks by embedding and
// overriding.
type NopCallbacks struct{}

func (NopCallbacks) OnRequestLine(_, _ BufferRef, _, _ int) bool     { return true }
func (NopCallbacks) OnStatusLine(_, _, _ int, _ BufferRef) bool      { return true }
func (NopCallbacks) OnMessageBeginBare() bool                        { return true }
func (NopCallbacks) OnHeader(_, _ BufferRef) bool                    { return true }
func (NopCallbacks) OnHeaderEnd() bool                               { return true }
func (NopCallbacks) OnBody(_ BufferRef) bool                         { return true }
func (NopCallbacks) OnMessageEnd() bool                              { return true }
