package kio

import (
	"math"
	"strconv"
)

// RawReader is the upstream transport a buffered reader pulls segments
// from. Implementations (files, sockets, gzip inflate, …) are external
// collaborators; the core only depends on this contract.
type RawReader interface {
	// ReadAtMostTo places at most byteCount bytes into dst's tail,
	// returning the count, or -1 on end of input. Must never return 0
	// for a positive byteCount.
	ReadAtMostTo(dst *Buffer, byteCount int64) (int64, error)
	Close() error
}

// RawWriter is the downstream transport a buffered writer flushes
// segments to.
type RawWriter interface {
	// WriteFrom drains exactly byteCount bytes from src's head.
	WriteFrom(src *Buffer, byteCount int64) error
	Flush() error
	Close() error
}

// Buffer is an ordered, owned list of segments acting as both a
// RawReader and a RawWriter. It is the core currency moved between
// buffered readers/writers and the byte-string family: transfers
// between buffers move or split segments rather than copying bytes
// whenever segment alignment allows it.
//
// A Buffer is exclusively owned by one logical holder at a time; it is
// not safe for concurrent use by multiple goroutines, though
// segment pages it shares via snapshot/clone may be read concurrently.
type Buffer struct {
	head *segment
	tail *segment
	size int64

	cursorHeld bool
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer { return &Buffer{} }

// Len reports the number of unread bytes currently buffered.
func (b *Buffer) Len() int64 { return b.size }

func (b *Buffer) appendSegment(s *segment) {
	s.prev = b.tail
	s.next = nil
	if b.tail != nil {
		b.tail.next = s
	} else {
		b.head = s
	}
	b.tail = s
	b.size += int64(s.len())
}

func (b *Buffer) removeHead() *segment {
	s := b.head
	if s == nil {
		return nil
	}
	b.size -= int64(s.len())
	b.head = s.next
	if b.head != nil {
		b.head.prev = nil
	} else {
		b.tail = nil
	}
	s.next = nil
	s.prev = nil
	return s
}

// prepareTailForAppend ensures the tail segment is owned, unique, and has
// at least minRoom writable bytes, allocating a fresh segment from the
// pool when needed. A shared tail is copied first (copy-on-write).
func (b *Buffer) prepareTailForAppend(minRoom int) *segment {
	if b.tail != nil && b.tail.shared {
		b.tail.unshare()
	}
	if b.tail == nil || b.tail.writableTail() < minRoom {
		b.appendSegment(defaultPool.take())
	}
	return b.tail
}

// completeSegmentByteCount is the amount of buffered data safe to hand
// off to a downstream writer without splitting the tail: everything
// except a tail segment that is still writable and not yet full.
func (b *Buffer) completeSegmentByteCount() int64 {
	if b.tail == nil {
		return 0
	}
	if b.tail.owner && b.tail.limit < segmentSize {
		return b.size - int64(b.tail.len())
	}
	return b.size
}

// Write appends p to the buffer, allocating segments from the shared
// pool as needed. It never fails and always writes every byte, matching
// bytes.Buffer's io.Writer contract.
func (b *Buffer) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		tail := b.prepareTailForAppend(1)
		n := copy(tail.data[tail.limit:], p)
		tail.limit += n
		b.size += int64(n)
		p = p[n:]
		written += n
	}
	return written, nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	tail := b.prepareTailForAppend(1)
	tail.data[tail.limit] = c
	tail.limit++
	b.size++
	return nil
}

// Read drains up to len(p) bytes into p, returning io.EOF-style
// semantics is intentionally avoided here: this is not io.Reader (the
// core uses explicit byteCount contracts, see ReadAtMostTo); Read is a
// convenience for callers that already know bytesAvailable.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.size == 0 {
		return 0, newErr(KindEndOfInput, "read from empty buffer", nil)
	}
	read := 0
	for len(p) > 0 && b.head != nil {
		s := b.head
		n := copy(p, s.data[s.pos:s.limit])
		s.pos += n
		b.size -= int64(n)
		p = p[n:]
		read += n
		if s.pos == s.limit {
			b.removeHead()
			defaultPool.recycle(s)
		}
	}
	return read, nil
}

// ReadByte removes and returns a single byte.
func (b *Buffer) ReadByte() (byte, error) {
	if b.head == nil {
		return 0, newErr(KindEndOfInput, "read byte from empty buffer", nil)
	}
	s := b.head
	c := s.data[s.pos]
	s.pos++
	b.size--
	if s.pos == s.limit {
		b.removeHead()
		defaultPool.recycle(s)
	}
	return c, nil
}

// peekByte returns the next unread byte without consuming it.
func (b *Buffer) peekByte() (byte, bool) {
	if b.head == nil {
		return 0, false
	}
	return b.head.data[b.head.pos], true
}

// ReadAtMostTo implements the RawReader half of the contract: it drains
// up to byteCount bytes of b into dst, returning -1 only when b is
// empty.
func (b *Buffer) ReadAtMostTo(dst *Buffer, byteCount int64) (int64, error) {
	if byteCount < 0 {
		return 0, newErr(KindInvalidInput, "negative byteCount", nil)
	}
	if b.size == 0 {
		return -1, nil
	}
	if byteCount > b.size {
		byteCount = b.size
	}
	if byteCount == 0 {
		return 0, nil
	}
	moveBytes(dst, b, byteCount)
	return byteCount, nil
}

// WriteFrom implements the RawWriter half of the contract: it appends
// exactly byteCount bytes from src's head into b.
func (b *Buffer) WriteFrom(src *Buffer, byteCount int64) error {
	if byteCount < 0 || byteCount > src.size {
		return newErr(KindInvalidInput, "byteCount out of range", nil)
	}
	moveBytes(b, src, byteCount)
	return nil
}

// Flush is a no-op: an in-memory Buffer has nothing downstream of
// itself to flush. Present so *Buffer satisfies RawWriter directly.
func (b *Buffer) Flush() error { return nil }

// Close is a no-op for the same reason Flush is.
func (b *Buffer) Close() error { return nil }

// moveBytes transfers exactly n bytes from src's head into dst,
// detaching whole segments when they fit entirely within the remaining
// count and splitting the head segment otherwise. This is the only
// place bytes move between buffers; it never copies except inside
// segment.split when sharing would be uneconomic.
func moveBytes(dst, src *Buffer, n int64) {
	remaining := n
	for remaining > 0 {
		head := src.head
		segLen := int64(head.len())
		if segLen <= remaining {
			src.removeHead()
			dst.appendSegment(head)
			remaining -= segLen
			prev := head.prev
			if compact(head) {
				dst.tail = prev
			}
		} else {
			prefix := head.split(int(remaining))
			src.size -= remaining
			dst.appendSegment(prefix)
			remaining = 0
		}
	}
}

// locate returns the segment containing absolute offset and the index
// within that segment's data array, for 0 <= offset <= size.
func (b *Buffer) locate(offset int64) (*segment, int) {
	s := b.head
	pos := offset
	for s != nil {
		l := int64(s.len())
		if pos < l || (pos == l && s.next == nil) {
			return s, s.pos + int(pos)
		}
		pos -= l
		s = s.next
	}
	return nil, 0
}

func (b *Buffer) byteAt(offset int64) byte {
	s, idx := b.locate(offset)
	return s.data[idx]
}

// CopyTo appends shared (zero-copy) views of b's segments covering
// [offset, offset+byteCount) onto dst, without consuming from b. Source
// and destination may be the same buffer: the copy is appended at dst's
// tail while b's existing head remains readable unchanged.
func (b *Buffer) CopyTo(dst *Buffer, offset, byteCount int64) error {
	if offset < 0 || byteCount < 0 || offset+byteCount > b.size {
		return newErr(KindInvalidInput, "copyTo range out of bounds", nil)
	}
	if byteCount == 0 {
		return nil
	}
	s, idx := b.locate(offset)
	remaining := byteCount
	for remaining > 0 {
		avail := int64(s.limit - idx)
		take := avail
		if take > remaining {
			take = remaining
		}
		view := s.sharedView()
		view.pos = idx
		view.limit = idx + int(take)
		dst.appendSegment(view)
		remaining -= take
		idx = s.pos
		s = s.next
	}
	return nil
}

// Snapshot returns an immutable, segmented ByteString sharing every
// segment currently in b, frozen at the ranges they hold right now.
// Subsequent mutation of b never changes the bytes the snapshot
// observes: any segment about to be written in place is first copied
// (segment.unshare), per the share-on-write discipline.
func (b *Buffer) Snapshot() ByteString {
	segs := make([]*segment, 0, segmentCountHint(b))
	for s := b.head; s != nil; s = s.next {
		segs = append(segs, s.sharedView())
	}
	return newSegmentedByteString(segs)
}

func segmentCountHint(b *Buffer) int {
	n := 0
	for s := b.head; s != nil; s = s.next {
		n++
	}
	return n
}

// Clone returns a new buffer sharing data with b; each side may later
// mutate independently thanks to copy-on-write.
func (b *Buffer) Clone() *Buffer {
	clone := &Buffer{}
	for s := b.head; s != nil; s = s.next {
		clone.appendSegment(s.sharedView())
	}
	return clone
}

// IndexOfByte returns the least i in [from, to) with byte(i) == c, or -1.
// If from >= to, the result is -1.
func (b *Buffer) IndexOfByte(c byte, from, to int64) int64 {
	if to > b.size {
		to = b.size
	}
	if from < 0 {
		from = 0
	}
	if from >= to {
		return -1
	}
	s, idx := b.locate(from)
	offset := from
	for s != nil && offset < to {
		limit := s.limit
		if int64(limit-idx) > to-offset {
			limit = idx + int(to-offset)
		}
		for i := idx; i < limit; i++ {
			if s.data[i] == c {
				return offset + int64(i-idx)
			}
		}
		offset += int64(limit - idx)
		idx = s.pos
		s = s.next
	}
	return -1
}

// IndexOf returns the least i >= from such that the bytes at [i, i+len)
// equal needle, or -1 if no such i < size exists. For an empty needle
// the result is max(0, from). The search clamps fromIndex for
// negativity only; fromIndex > size yields -1.
func (b *Buffer) IndexOf(needle []byte, from int64) int64 {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 {
		if from > b.size {
			return -1
		}
		return from
	}
	if from > b.size-int64(len(needle)) {
		return -1
	}

	shift := horspoolShiftTable(needle)
	n := int64(len(needle))
	i := from
	last := b.size - n
	for i <= last {
		j := n - 1
		for j >= 0 && b.byteAt(i+j) == needle[j] {
			j--
		}
		if j < 0 {
			return i
		}
		c := b.byteAt(i + n - 1)
		i += shift[c]
	}
	return -1
}

func horspoolShiftTable(needle []byte) [256]int64 {
	var table [256]int64
	n := int64(len(needle))
	for i := range table {
		table[i] = n
	}
	for i := int64(0); i < n-1; i++ {
		table[needle[i]] = n - 1 - i
	}
	return table
}

// ReadLineStrict returns the bytes up to, but not including, \n or
// \r\n, consuming the terminator. It fails with EndOfInput if no
// terminator is found within limit bytes (or the whole buffer when
// limit < 0).
func (b *Buffer) ReadLineStrict(limit int64) ([]byte, error) {
	scanLimit := b.size
	if limit >= 0 && limit < scanLimit {
		scanLimit = limit
	}
	nl := b.IndexOfByte('\n', 0, scanLimit+1)
	if nl == -1 {
		return nil, newErr(KindEndOfInput, "no line terminator within limit", nil)
	}
	lineEnd := nl
	hasCR := lineEnd > 0 && b.byteAt(lineEnd-1) == '\r'
	if hasCR {
		lineEnd--
	}
	line := make([]byte, lineEnd)
	_, _ = b.Read(line)
	if hasCR {
		_, _ = b.ReadByte() // \r
	}
	_, _ = b.ReadByte() // \n
	return line, nil
}

// ReadLine is the lenient variant of ReadLineStrict: when the buffer is
// exhausted with no newline, it returns the remaining bytes instead of
// failing.
func (b *Buffer) ReadLine() ([]byte, bool) {
	nl := b.IndexOfByte('\n', 0, b.size)
	if nl == -1 {
		if b.size == 0 {
			return nil, false
		}
		line := make([]byte, b.size)
		_, _ = b.Read(line)
		return line, true
	}
	lineEnd := nl
	hasCR := lineEnd > 0 && b.byteAt(lineEnd-1) == '\r'
	if hasCR {
		lineEnd--
	}
	line := make([]byte, lineEnd)
	_, _ = b.Read(line)
	if hasCR {
		_, _ = b.ReadByte()
	}
	_, _ = b.ReadByte()
	return line, true
}

// ---- Fixed-width integers, BE/LE ----

func (b *Buffer) readUint(n int, be bool) (uint64, error) {
	if b.size < int64(n) {
		return 0, newErr(KindEndOfInput, "not enough bytes for integer read", nil)
	}
	var v uint64
	for i := 0; i < n; i++ {
		c, _ := b.ReadByte()
		if be {
			v = v<<8 | uint64(c)
		} else {
			v |= uint64(c) << (8 * uint(i))
		}
	}
	return v, nil
}

func (b *Buffer) writeUint(v uint64, n int, be bool) {
	for i := 0; i < n; i++ {
		var c byte
		if be {
			c = byte(v >> (8 * uint(n-1-i)))
		} else {
			c = byte(v >> (8 * uint(i)))
		}
		_ = b.WriteByte(c)
	}
}

func (b *Buffer) ReadByteBE() (byte, error)  { v, err := b.readUint(1, true); return byte(v), err }
func (b *Buffer) ReadShortBE() (int16, error) { v, err := b.readUint(2, true); return int16(v), err }
func (b *Buffer) ReadShortLE() (int16, error) { v, err := b.readUint(2, false); return int16(v), err }
func (b *Buffer) ReadIntBE() (int32, error)   { v, err := b.readUint(4, true); return int32(v), err }
func (b *Buffer) ReadIntLE() (int32, error)   { v, err := b.readUint(4, false); return int32(v), err }
func (b *Buffer) ReadLongBE() (int64, error)  { v, err := b.readUint(8, true); return int64(v), err }
func (b *Buffer) ReadLongLE() (int64, error)  { v, err := b.readUint(8, false); return int64(v), err }

func (b *Buffer) WriteByteBE(v byte)      { b.writeUint(uint64(v), 1, true) }
func (b *Buffer) WriteShortBE(v int16)    { b.writeUint(uint64(uint16(v)), 2, true) }
func (b *Buffer) WriteShortLE(v int16)    { b.writeUint(uint64(uint16(v)), 2, false) }
func (b *Buffer) WriteIntBE(v int32)      { b.writeUint(uint64(uint32(v)), 4, true) }
func (b *Buffer) WriteIntLE(v int32)      { b.writeUint(uint64(uint32(v)), 4, false) }
func (b *Buffer) WriteLongBE(v int64)     { b.writeUint(uint64(v), 8, true) }
func (b *Buffer) WriteLongLE(v int64)     { b.writeUint(uint64(v), 8, false) }

// ---- Decimal / hexadecimal ----

// ReadDecimalLong parses a base-10 signed integer, stopping at the
// first non-digit (and at '-' only as the first character). Overflow
// past math.MinInt64/MaxInt64 is reported as InvalidInput.
func (b *Buffer) ReadDecimalLong() (int64, error) {
	const overflowLimit = math.MinInt64 / 10 // accumulate negative to allow MinInt64

	negative := false
	if c, ok := b.peekByte(); ok && c == '-' {
		negative = true
		_, _ = b.ReadByte()
	}

	var value int64
	digits := 0
	for {
		c, ok := b.peekByte()
		if !ok || c < '0' || c > '9' {
			break
		}
		digit := int64(c - '0')
		if value < overflowLimit || (value == overflowLimit && digit > 8) {
			return 0, newErr(KindInvalidInput, "decimal literal overflow", nil)
		}
		value = value*10 - digit
		_, _ = b.ReadByte()
		digits++
	}
	if digits == 0 {
		return 0, newErr(KindInvalidInput, "no digits in decimal literal", nil)
	}
	if !negative {
		if value == math.MinInt64 {
			return 0, newErr(KindInvalidInput, "decimal literal overflow", nil)
		}
		value = -value
	}
	return value, nil
}

// WriteDecimalLong writes v formatted in base 10.
func (b *Buffer) WriteDecimalLong(v int64) {
	_, _ = b.Write([]byte(strconv.FormatInt(v, 10)))
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ReadHexadecimalUnsignedLong parses an unsigned hexadecimal literal of
// at most 16 significant digits.
func (b *Buffer) ReadHexadecimalUnsignedLong() (uint64, error) {
	var value uint64
	count := 0
	for {
		c, ok := b.peekByte()
		if !ok {
			break
		}
		d, valid := hexDigit(c)
		if !valid {
			break
		}
		if count == 16 {
			return 0, newErr(KindInvalidInput, "hexadecimal literal too long", nil)
		}
		value = value<<4 | uint64(d)
		_, _ = b.ReadByte()
		count++
	}
	if count == 0 {
		return 0, newErr(KindInvalidInput, "no digits in hexadecimal literal", nil)
	}
	return value, nil
}

// WriteHexadecimalUnsignedLong writes v formatted as lowercase hex with
// no leading zero-padding.
func (b *Buffer) WriteHexadecimalUnsignedLong(v uint64) {
	_, _ = b.Write([]byte(strconv.FormatUint(v, 16)))
}
