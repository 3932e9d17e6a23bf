package message

import "github.com/indigo-web/utils/uf"

// BufferRef is a non-owning borrow of a contiguous byte range over a backing
// buffer. Every value a Parser hands to a callback is a BufferRef; it is
// valid only for the duration of the Process call that produced it. Callbacks
// that need to retain the bytes past return must copy them.
type BufferRef struct {
	base   []byte
	offset int
	length int
}

// bufferRef builds a BufferRef over base starting at offset, length bytes
// long. Both offset and length are relative to base.
func bufferRef(base []byte, offset, length int) BufferRef {
	return BufferRef{base: base, offset: offset, length: length}
}

// Empty reports whether the ref carries zero bytes. A BufferRef constructed
// with the zero value is always empty.
func (r BufferRef) Empty() bool {
	return r.length == 0
}

// Len returns the number of bytes the ref spans.
func (r BufferRef) Len() int {
	return r.length
}

// Bytes returns the referenced byte range. The returned slice aliases the
// backing buffer and must not be retained past the owning Process call.
func (r BufferRef) Bytes() []byte {
	if r.base == nil {
		return nil
	}

	return r.base[r.offset : r.offset+r.length]
}

// String returns the referenced range as a string via an unsafe, zero-copy
// conversion. Same lifetime caveat as Bytes.
func (r BufferRef) String() string {
	return uf.B2S(r.Bytes())
}

// shr returns a copy of the ref extended by n bytes (1 by default); the
// receiver itself is not modified, so callers assign the result back. The caller is
// responsible for ensuring the backing buffer actually has that many more
// bytes available at the tail of the ref — Process always calls shr
// immediately after consuming the extending byte from the same chunk.
func (r BufferRef) shr(n ...int) BufferRef {
	d := 1
	if len(n) > 0 {
		d = n[0]
	}

	r.length += d

	return r
}

// accum accumulates a token across Process calls. It starts as a zero-copy
// BufferRef view into the chunk that started the token (the fast path: the
// whole token arrived in one chunk), but switches to an owned, appended
// buffer the moment that view would otherwise have to survive past the
// Process call that produced it — a chunk boundary splitting the token, or a
// header-value line fold — since a future chunk may reuse or replace the
// backing array the view aliases (spec §9, "copy the partial token into a
// small per-parser owned buffer"; spec §8 property 1, "for every byte-split").
type accum struct {
	ref   BufferRef
	buf   []byte
	owned bool
}

// begin starts a new token at offset off of base, discarding any previous
// owned buffer.
func (a *accum) begin(base []byte, off int) {
	a.ref = bufferRef(base, off, 1)
	a.buf = a.buf[:0]
	a.owned = false
}

// extend appends b to the token, taking the zero-copy or owned path
// depending on which one the token is currently using.
func (a *accum) extend(b byte) {
	if a.owned {
		a.buf = append(a.buf, b)
	} else {
		a.ref = a.ref.shr()
	}
}

// own copies whatever the token has gathered so far onto the owned buffer,
// if it isn't there already. Idempotent.
func (a *accum) own() {
	if a.owned {
		return
	}

	a.buf = append(a.buf[:0], a.ref.Bytes()...)
	a.owned = true
}

// ownAppend forces the token onto its owned buffer and appends b — used by
// the line-fold sub-FSM, which must drop the CRLF it skipped and substitute
// this single confirming byte as the separator.
func (a *accum) ownAppend(b byte) {
	a.own()
	a.buf = append(a.buf, b)
}

// snapshot moves a still zero-copy, non-empty token onto its owned buffer.
// Process calls this on every accumulator before returning, so a chunk
// boundary never leaves a BufferRef aliasing a slice the caller is free to
// replace or reuse before the next call.
func (a *accum) snapshot() {
	if !a.owned && !a.ref.Empty() {
		a.own()
	}
}

// Empty reports whether the token carries zero bytes.
func (a accum) Empty() bool {
	if a.owned {
		return len(a.buf) == 0
	}

	return a.ref.Empty()
}

// Bytes returns the token's bytes, from whichever storage currently backs
// it.
func (a accum) Bytes() []byte {
	if a.owned {
		return a.buf
	}

	return a.ref.Bytes()
}

// bufferRef returns a BufferRef view of the token suitable for handing to a
// Callbacks method.
func (a accum) bufferRef() BufferRef {
	if a.owned {
		return bufferRef(a.buf, 0, len(a.buf))
	}

	return a.ref
}

// reset clears the token, ready for reuse by a future begin.
func (a *accum) reset() {
	a.ref = BufferRef{}
	a.buf = a.buf[:0]
	a.owned = false
}
