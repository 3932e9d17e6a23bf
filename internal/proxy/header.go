package proxy

import (
	"github.com/indigo-web/iter"
	"github.com/indigo-web/utils/strcomp"
)

// Header is a single name/value pair, forwarded either from the client
// request to the origin, or from the origin response to the client.
type Header struct {
	Name, Value string
}

// HeaderList is an ordered, duplicate-preserving header collection exposed
// to callers without revealing the backing slice, the same shape as the
// teacher's internal/datastruct.KeyValue.Iter().
type HeaderList struct {
	pairs []Header
}

// NewHeaderList builds a HeaderList pre-sized for n entries.
func NewHeaderList(n int) *HeaderList {
	return &HeaderList{pairs: make([]Header, 0, n)}
}

// Add appends a header pair, preserving wire order.
func (h *HeaderList) Add(name, value string) *HeaderList {
	h.pairs = append(h.pairs, Header{Name: name, Value: value})
	return h
}

// Has reports whether name is present, case-insensitively.
func (h *HeaderList) Has(name string) bool {
	for _, pair := range h.pairs {
		if strcomp.EqualFold(pair.Name, name) {
			return true
		}
	}

	return false
}

// Iter returns an iterator over the header pairs, in wire order.
func (h *HeaderList) Iter() iter.Iterator[Header] {
	return iter.Slice(h.pairs)
}

// Len reports the number of header pairs.
func (h *HeaderList) Len() int {
	return len(h.pairs)
}
