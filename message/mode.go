package message

// Mode selects which grammar Process parses: a full Request, a full
// Response, or a generic Message with no start-line (headers + body only, no
// start-line). Immutable for the lifetime of a Parser.
type Mode uint8

const (
	// Request parses Method SP Request-URI SP HTTP-Version CRLF, then headers
	// and body.
	Request Mode = iota
	// Response parses HTTP-Version SP Status-Code SP Reason-Phrase CRLF, then
	// headers and body.
	Response
	// Message parses headers and body only; OnMessageBeginBare is invoked
	// immediately, with no arguments, since there is no start-line to report.
	Message
)

func (m Mode) String() string {
	switch m {
	case Request:
		return "request"
	case Response:
		return "response"
	case Message:
		return "message"
	default:
		return "unknown"
	}
}
