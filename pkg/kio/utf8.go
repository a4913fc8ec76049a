package kio

import (
	"context"
	"strings"
)

// ReplacementPolicy controls how a lone (unpaired) surrogate code point
// is encoded. The open question of whether to emit the single legacy
// '?' byte or the proper three-byte U+FFFD sequence is resolved per
// call site via this type; DefaultReplacementPolicy is the package
// default (see DESIGN.md).
type ReplacementPolicy int

const (
	// ReplacementQuestionMark emits a single 0x3F byte, this
	// implementation's longstanding convention for a lone surrogate.
	ReplacementQuestionMark ReplacementPolicy = iota
	// ReplacementFFFD emits the standard three-byte U+FFFD encoding.
	ReplacementFFFD
)

// DefaultReplacementPolicy is used by callers that don't need a
// per-call override.
var DefaultReplacementPolicy = ReplacementQuestionMark

// WriteCodePoint encodes r into buf as 1-4 UTF-8 bytes. A lone
// surrogate is replaced per policy. Code points outside
// [0, U+10FFFF] fail with InvalidInput.
func WriteCodePoint(buf *Buffer, r rune, policy ReplacementPolicy) error {
	if r < 0 || r > 0x10FFFF {
		return newErr(KindInvalidInput, "code point out of range", nil)
	}
	if r >= 0xD800 && r <= 0xDFFF {
		writeReplacement(buf, policy)
		return nil
	}
	switch {
	case r <= 0x7F:
		_ = buf.WriteByte(byte(r))
	case r <= 0x7FF:
		_ = buf.WriteByte(byte(0xC0 | (r >> 6)))
		_ = buf.WriteByte(byte(0x80 | (r & 0x3F)))
	case r <= 0xFFFF:
		_ = buf.WriteByte(byte(0xE0 | (r >> 12)))
		_ = buf.WriteByte(byte(0x80 | ((r >> 6) & 0x3F)))
		_ = buf.WriteByte(byte(0x80 | (r & 0x3F)))
	default:
		_ = buf.WriteByte(byte(0xF0 | (r >> 18)))
		_ = buf.WriteByte(byte(0x80 | ((r >> 12) & 0x3F)))
		_ = buf.WriteByte(byte(0x80 | ((r >> 6) & 0x3F)))
		_ = buf.WriteByte(byte(0x80 | (r & 0x3F)))
	}
	return nil
}

func writeReplacement(buf *Buffer, policy ReplacementPolicy) {
	if policy == ReplacementFFFD {
		_ = buf.WriteByte(0xEF)
		_ = buf.WriteByte(0xBF)
		_ = buf.WriteByte(0xBD)
		return
	}
	_ = buf.WriteByte(0x3F)
}

// UTF8SizeOf computes the exact encoded byte length of codePoints under
// policy, without encoding them.
func UTF8SizeOf(codePoints []rune, policy ReplacementPolicy) int64 {
	var n int64
	for _, r := range codePoints {
		n += int64(codePointSize(r, policy))
	}
	return n
}

func codePointSize(r rune, policy ReplacementPolicy) int {
	if r >= 0xD800 && r <= 0xDFFF {
		if policy == ReplacementFFFD {
			return 3
		}
		return 1
	}
	switch {
	case r <= 0x7F:
		return 1
	case r <= 0x7FF:
		return 2
	case r <= 0xFFFF:
		return 3
	default:
		return 4
	}
}

// utf8LeadLen classifies a leading byte into the expected total
// sequence length, or 0 if it cannot start a sequence at all
// (a continuation byte, or one of the always-invalid 0xF8-0xFF lead
// patterns).
func utf8LeadLen(b byte) int {
	switch {
	case b&0x80 == 0:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

// decodeSequence decodes exactly len(data) bytes (len(data) must equal
// utf8LeadLen(data[0])) into a code point. ok is false for any
// structural violation: a bad continuation byte, overlong encoding,
// encoded surrogate, or an out-of-range four-byte value — the caller
// is responsible for the one-byte-replacement recovery in that case.
func decodeSequence(data []byte) (r rune, size int, ok bool) {
	switch len(data) {
	case 1:
		return rune(data[0]), 1, true
	case 2:
		if data[1]&0xC0 != 0x80 {
			return 0, 0, false
		}
		r = rune(data[0]&0x1F)<<6 | rune(data[1]&0x3F)
		if r < 0x80 {
			return 0, 0, false
		}
		return r, 2, true
	case 3:
		if data[1]&0xC0 != 0x80 || data[2]&0xC0 != 0x80 {
			return 0, 0, false
		}
		r = rune(data[0]&0x0F)<<12 | rune(data[1]&0x3F)<<6 | rune(data[2]&0x3F)
		if r < 0x800 || (r >= 0xD800 && r <= 0xDFFF) {
			return 0, 0, false
		}
		return r, 3, true
	case 4:
		if data[1]&0xC0 != 0x80 || data[2]&0xC0 != 0x80 || data[3]&0xC0 != 0x80 {
			return 0, 0, false
		}
		r = rune(data[0]&0x07)<<18 | rune(data[1]&0x3F)<<12 | rune(data[2]&0x3F)<<6 | rune(data[3]&0x3F)
		if r < 0x10000 || r > 0x10FFFF {
			return 0, 0, false
		}
		return r, 4, true
	default:
		return 0, 0, false
	}
}

func validPrefix(data []byte) bool {
	for i := 1; i < len(data); i++ {
		if data[i]&0xC0 != 0x80 {
			return false
		}
	}
	return true
}

// decodeUTF8Bytes decodes a fully materialised byte slice, substituting
// U+FFFD for any malformed or truncated-at-the-end sequence. Used by
// the ByteString family's Utf8() method, where there is no upstream to
// await further continuation bytes from.
func decodeUTF8Bytes(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	i := 0
	for i < len(data) {
		lead := data[i]
		n := utf8LeadLen(lead)
		if n == 0 || i+n > len(data) {
			sb.WriteRune(0xFFFD)
			i++
			continue
		}
		r, size, ok := decodeSequence(data[i : i+n])
		if !ok {
			sb.WriteRune(0xFFFD)
			i++
			continue
		}
		sb.WriteRune(r)
		i += size
	}
	return sb.String()
}

// ReadUTF8CodePoint consumes one code point from br. A malformed
// sequence yields U+FFFD and consumes exactly the one leading byte. If
// a well-formed prefix is waiting on continuation bytes that upstream
// can no longer supply, the operation fails with EndOfInput and no
// bytes are consumed.
func (br *BufferedReader) ReadUTF8CodePoint(ctx context.Context) (rune, error) {
	if err := br.checkOpen(); err != nil {
		return 0, err
	}
	ok, err := br.Request(ctx, 1)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, newErr(KindEndOfInput, "no bytes available", nil)
	}

	lead := br.buf.byteAt(0)
	n := utf8LeadLen(lead)
	if n == 0 {
		_, _ = br.buf.ReadByte()
		br.totalConsumed++
		return 0xFFFD, nil
	}

	ok, err = br.Request(ctx, int64(n))
	if err != nil {
		return 0, err
	}
	if !ok {
		avail := br.buf.Len()
		buffered := make([]byte, avail)
		for i := int64(0); i < avail; i++ {
			buffered[i] = br.buf.byteAt(i)
		}
		if validPrefix(buffered) {
			return 0, newErr(KindEndOfInput, "well-formed utf-8 prefix awaiting continuation bytes", nil)
		}
		_, _ = br.buf.ReadByte()
		br.totalConsumed++
		return 0xFFFD, nil
	}

	seq := make([]byte, n)
	for i := 0; i < n; i++ {
		seq[i] = br.buf.byteAt(int64(i))
	}
	r, size, wellFormed := decodeSequence(seq)
	if !wellFormed {
		_, _ = br.buf.ReadByte()
		br.totalConsumed++
		return 0xFFFD, nil
	}
	for i := 0; i < size; i++ {
		_, _ = br.buf.ReadByte()
	}
	br.totalConsumed += int64(size)
	return r, nil
}
