package message

// state is the parser's current position in the HTTP/1.1 grammar. It is a
// tagged value dispatched over by a flat switch in Process, never a class
// hierarchy — see spec §9 Design Notes.
type state uint8

const (
	stateMessageBegin state = iota

	// request-line
	stateRequestLineBegin
	stateRequestMethod
	stateRequestEntityBegin
	stateRequestEntity
	stateRequestProtocolBegin
	stateRequestProtocolT1
	stateRequestProtocolT2
	stateRequestProtocolP
	stateRequestProtocolSlash
	stateRequestProtocolVersionMajor
	stateRequestProtocolVersionMinor
	stateRequestLineLF

	// status-line
	stateStatusLineBegin
	stateStatusProtocolBegin
	stateStatusProtocolT1
	stateStatusProtocolT2
	stateStatusProtocolP
	stateStatusProtocolSlash
	stateStatusProtocolVersionMajor
	stateStatusProtocolVersionMinor
	stateStatusCodeBegin
	stateStatusCode
	stateStatusMessageBegin
	stateStatusMessage
	stateStatusMessageLF

	// headers
	stateHeaderNameBegin
	stateHeaderName
	stateHeaderColon
	stateHeaderValueBegin
	stateHeaderValue
	stateHeaderValueLF
	stateHeaderValueEnd
	stateHeaderEndLF

	// LWS sub-FSM
	stateLWSBegin
	stateLWSLF
	stateLWSSPHTBegin
	stateLWSSPHT

	// body
	stateContentBegin
	stateContent
	stateContentEndless
	stateContentChunkSizeBegin
	stateContentChunkSize
	stateContentChunkLF1
	stateContentChunkBody
	stateContentChunkLF2
	stateContentChunkCR3
	stateContentChunkLF3

	// terminal
	stateSyntaxError
)

func (s state) String() string {
	switch s {
	case stateMessageBegin:
		return "message-begin"
	case stateRequestLineBegin:
		return "request-line-begin"
	case stateRequestMethod:
		return "request-method"
	case stateRequestEntityBegin:
		return "request-entity-begin"
	case stateRequestEntity:
		return "request-entity"
	case stateRequestProtocolBegin:
		return "request-protocol-begin"
	case stateRequestProtocolT1:
		return "request-protocol-t1"
	case stateRequestProtocolT2:
		return "request-protocol-t2"
	case stateRequestProtocolP:
		return "request-protocol-p"
	case stateRequestProtocolSlash:
		return "request-protocol-slash"
	case stateRequestProtocolVersionMajor:
		return "request-protocol-version-major"
	case stateRequestProtocolVersionMinor:
		return "request-protocol-version-minor"
	case stateRequestLineLF:
		return "request-line-lf"
	case stateStatusLineBegin:
		return "status-line-begin"
	case stateStatusProtocolBegin:
		return "status-protocol-begin"
	case stateStatusProtocolT1:
		return "status-protocol-t1"
	case stateStatusProtocolT2:
		return "status-protocol-t2"
	case stateStatusProtocolP:
		return "status-protocol-p"
	case stateStatusProtocolSlash:
		return "status-protocol-slash"
	case stateStatusProtocolVersionMajor:
		return "status-protocol-version-major"
	case stateStatusProtocolVersionMinor:
		return "status-protocol-version-minor"
	case stateStatusCodeBegin:
		return "status-code-begin"
	case stateStatusCode:
		return "status-code"
	case stateStatusMessageBegin:
		return "status-message-begin"
	case stateStatusMessage:
		return "status-message"
	case stateStatusMessageLF:
		return "status-message-lf"
	case stateHeaderNameBegin:
		return "header-name-begin"
	case stateHeaderName:
		return "header-name"
	case stateHeaderColon:
		return "header-colon"
	case stateHeaderValueBegin:
		return "header-value-begin"
	case stateHeaderValue:
		return "header-value"
	case stateHeaderValueLF:
		return "header-value-lf"
	case stateHeaderValueEnd:
		return "header-value-end"
	case stateHeaderEndLF:
		return "header-end-lf"
	case stateLWSBegin:
		return "lws-begin"
	case stateLWSLF:
		return "lws-lf"
	case stateLWSSPHTBegin:
		return "lws-sp-ht-begin"
	case stateLWSSPHT:
		return "lws-sp-ht"
	case stateContentBegin:
		return "content-begin"
	case stateContent:
		return "content"
	case stateContentEndless:
		return "content-endless"
	case stateContentChunkSizeBegin:
		return "content-chunk-size-begin"
	case stateContentChunkSize:
		return "content-chunk-size"
	case stateContentChunkLF1:
		return "content-chunk-lf1"
	case stateContentChunkBody:
		return "content-chunk-body"
	case stateContentChunkLF2:
		return "content-chunk-lf2"
	case stateContentChunkCR3:
		return "content-chunk-cr3"
	case stateContentChunkLF3:
		return "content-chunk-lf3"
	case stateSyntaxError:
		return "syntax-error"
	default:
		return "unknown"
	}
}
