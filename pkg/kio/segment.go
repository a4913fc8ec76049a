package kio

// segmentSize is the fixed capacity of every segment's backing page.
const segmentSize = 8192

// shareMinimum is the smallest split size at which a prefix is shared
// (zero-copy) rather than copied into a freshly allocated page.
const shareMinimum = 1024

// segment is a fixed-capacity byte page plus the bookkeeping needed to
// share it safely between buffers: pos/limit bound the readable range,
// shared marks that other segments reference the same data, and owner
// marks that this segment may write into data in place.
//
// A segment is only ever reachable from a single buffer's linked list at
// a time (next/prev); data may be referenced by many segments at once.
type segment struct {
	data   []byte
	pos    int
	limit  int
	shared bool
	owner  bool
	prev   *segment
	next   *segment
}

func newOwnedSegment() *segment {
	return &segment{data: make([]byte, segmentSize), owner: true}
}

// len is the number of unread bytes in the segment.
func (s *segment) len() int { return s.limit - s.pos }

// writableTail is the number of bytes that may still be appended to data
// without reallocating. Only valid when the segment is owner and unique.
func (s *segment) writableTail() int {
	if !s.owner || s.shared {
		return 0
	}
	return segmentSize - s.limit
}

// sharedView returns a new segment that shares this one's data array over
// the same [pos,limit) range, marking both the original and the copy as
// shared and non-owner. Used by snapshot/clone/copyTo.
func (s *segment) sharedView() *segment {
	s.shared = true
	s.owner = false
	return &segment{
		data:   s.data,
		pos:    s.pos,
		limit:  s.limit,
		shared: true,
		owner:  false,
	}
}

// unshare makes s safe to write into, copying its page first if it was
// shared. Must be called before any in-place mutation of a segment that
// might be observed elsewhere.
func (s *segment) unshare() {
	if !s.shared {
		s.owner = true
		return
	}
	buf := make([]byte, segmentSize)
	n := copy(buf, s.data[s.pos:s.limit])
	s.data = buf
	s.pos = 0
	s.limit = n
	s.shared = false
	s.owner = true
}

// split produces a new segment holding the first byteCount bytes of s,
// leaving the remainder in s. byteCount must be in (0, s.len()].
//
// When byteCount is large enough to amortise a reference rather than a
// copy (shareMinimum), the prefix shares s's data array and both halves
// are marked shared, whatever s's owner/shared state was; otherwise a
// fresh page is allocated and the prefix bytes are copied. This mirrors the real implementation's
// rationale: small splits stay copy-based so writers can keep extending
// their own page cheaply, large splits stay zero-copy.
func (s *segment) split(byteCount int) *segment {
	if byteCount <= 0 || byteCount > s.len() {
		panic("kio: split: byteCount out of range")
	}

	if byteCount >= shareMinimum {
		prefix := &segment{
			data:   s.data,
			pos:    s.pos,
			limit:  s.pos + byteCount,
			shared: true,
			owner:  false,
		}
		s.shared = true
		s.owner = false
		s.pos += byteCount
		return prefix
	}

	prefix := newOwnedSegment()
	n := copy(prefix.data, s.data[s.pos:s.pos+byteCount])
	prefix.limit = n
	s.pos += byteCount
	return prefix
}

// compact folds s's payload into s.prev when s.prev has room, then
// unlinks and recycles s. Must not be called on a shared segment: the
// move is an in-place write into s.prev's page.
func compact(s *segment) bool {
	if s.prev == nil || s.shared {
		return false
	}
	prev := s.prev
	if !prev.owner || prev.shared {
		return false
	}
	available := prev.writableTail() + prev.pos
	if available < s.len() {
		return false
	}
	if prev.pos > 0 {
		n := copy(prev.data, prev.data[prev.pos:prev.limit])
		prev.limit = n
		prev.pos = 0
	}
	n := copy(prev.data[prev.limit:], s.data[s.pos:s.limit])
	prev.limit += n
	unlink(s)
	defaultPool.recycle(s)
	return true
}

// unlink removes s from its buffer's doubly linked list.
func unlink(s *segment) {
	if s.prev != nil {
		s.prev.next = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	}
	s.prev = nil
	s.next = nil
}
