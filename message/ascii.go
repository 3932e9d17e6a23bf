package message

const (
	cr byte = 0x0D
	lf byte = 0x0A
	sp byte = 0x20
	ht byte = 0x09
)

func isChar(b byte) bool {
	return b <= 127
}

func isCtl(b byte) bool {
	return b <= 31 || b == 127
}

func isSeparator(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}', sp, ht:
		return true
	default:
		return false
	}
}

// isToken reports whether b may extend a token (method name, header name):
// printable ASCII minus controls and the separator set.
func isToken(b byte) bool {
	return isChar(b) && !isCtl(b) && !isSeparator(b)
}

// isText reports whether b is legal inside a header value or reason phrase:
// any octet except controls, but including SP/HT (LWS).
func isText(b byte) bool {
	return !isCtl(b) || b == sp || b == ht
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isPrint(b byte) bool {
	return b >= 0x20 && b < 0x7f
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	default:
		return int(b-'A') + 10
	}
}
