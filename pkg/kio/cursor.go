package kio

// CursorMode selects whether an UnsafeCursor may mutate the buffer it is
// bound to.
type CursorMode int

const (
	// CursorReadOnly permits seek/next but rejects resize/expand.
	CursorReadOnly CursorMode = iota
	// CursorReadWrite additionally permits ResizeBuffer and ExpandBuffer.
	CursorReadWrite
)

// UnsafeCursor is a scoped, raw view over a Buffer's segments, enabling
// zero-copy bulk reads/writes by exposing segment internals directly.
// It moves through three states: Unbound (zero value, or after Close),
// BoundRead, and BoundReadWrite — tracked here by `bound` plus `mode`.
//
// Exactly one cursor may be open on a Buffer at a time; a cursor must be
// closed on every exit path from the scope that acquired it.
type UnsafeCursor struct {
	buf   *Buffer
	mode  CursorMode
	bound bool

	seg    *segment
	Offset int64
	Data   []byte
	Pos    int
	Limit  int
}

// Cursor acquires an UnsafeCursor over b in the given mode. It fails
// with State if b already has an open cursor.
func (b *Buffer) Cursor(mode CursorMode) (*UnsafeCursor, error) {
	if b.cursorHeld {
		return nil, newErr(KindState, "buffer already has an open cursor", nil)
	}
	b.cursorHeld = true
	c := &UnsafeCursor{buf: b, mode: mode, bound: true}
	c.clearBeforeFirst()
	return c, nil
}

func (c *UnsafeCursor) bind(s *segment, pos int, segStart int64) {
	c.seg = s
	c.Data = s.data
	c.Pos = pos
	c.Limit = s.limit
	c.Offset = segStart
}

func (c *UnsafeCursor) clearBeforeFirst() {
	c.seg = nil
	c.Data = nil
	c.Pos = -1
	c.Limit = -1
	c.Offset = -1
}

func (c *UnsafeCursor) clearAfterLast(size int64) {
	c.seg = nil
	c.Data = nil
	c.Pos = -1
	c.Limit = -1
	c.Offset = size
}

// Seek positions the cursor over the segment containing offset. offset
// == -1 clears to the "before first" sentinel; offset >= the buffer's
// size clears to "after last" with Offset set to the buffer's size.
// A call on an unbound cursor fails with State.
func (c *UnsafeCursor) Seek(offset int64) error {
	if !c.bound {
		return newErr(KindState, "seek on unbound cursor", nil)
	}
	size := c.buf.Len()
	switch {
	case offset <= -1:
		c.clearBeforeFirst()
	case offset >= size:
		c.clearAfterLast(size)
	default:
		s, idx := c.buf.locate(offset)
		segStart := offset - int64(idx-s.pos)
		c.bind(s, idx, segStart)
	}
	return nil
}

// Next advances to the next segment, returning its byte length, or -1
// if there are no more segments.
func (c *UnsafeCursor) Next() (int, error) {
	if !c.bound {
		return 0, newErr(KindState, "next on unbound cursor", nil)
	}
	if c.seg == nil {
		if c.Offset == -1 {
			head := c.buf.head
			if head == nil {
				return -1, nil
			}
			c.bind(head, head.pos, 0)
			return head.len(), nil
		}
		return -1, nil
	}
	nxt := c.seg.next
	if nxt == nil {
		c.clearAfterLast(c.buf.Len())
		return -1, nil
	}
	segStart := c.Offset + int64(c.seg.limit-c.seg.pos)
	c.bind(nxt, nxt.pos, segStart)
	return nxt.len(), nil
}

// ResizeBuffer grows or shrinks the underlying buffer to exactly
// newSize bytes, returning the buffer's previous size. On grow, the new
// tail bytes are uninitialised and the cursor is left positioned at the
// previous end. On shrink, the tail is truncated; if the cursor's prior
// position falls beyond the new tail it is moved to "after last".
// BoundReadWrite only.
func (c *UnsafeCursor) ResizeBuffer(newSize int64) (int64, error) {
	if !c.bound || c.mode != CursorReadWrite {
		return 0, newErr(KindState, "resizeBuffer requires a bound read-write cursor", nil)
	}
	if newSize < 0 {
		return 0, newErr(KindInvalidInput, "negative newSize", nil)
	}
	old := c.buf.Len()
	switch {
	case newSize == old:
		_ = c.Seek(old)
	case newSize > old:
		c.buf.growTo(newSize)
		_ = c.Seek(old)
	default:
		c.buf.shrinkTo(newSize)
		pos := c.Offset
		if pos > newSize {
			pos = newSize
		}
		_ = c.Seek(pos)
	}
	return old, nil
}

// ExpandBuffer ensures the tail has at least minByteCount contiguous
// writable bytes, allocating a fresh segment if needed, immediately
// appending that capacity to the buffer's size, and positioning the
// cursor over the newly added window. Returns the number of bytes
// added (which may exceed minByteCount up to one full segment).
// BoundReadWrite only.
func (c *UnsafeCursor) ExpandBuffer(minByteCount int) (int, error) {
	if !c.bound || c.mode != CursorReadWrite {
		return 0, newErr(KindState, "expandBuffer requires a bound read-write cursor", nil)
	}
	if minByteCount <= 0 || minByteCount > segmentSize {
		return 0, newErr(KindInvalidInput, "minByteCount out of range", nil)
	}
	tail := c.buf.prepareTailForAppend(minByteCount)
	added := tail.writableTail()
	startPos := tail.limit
	segStart := c.buf.Len() - int64(tail.len())
	tail.limit += added
	c.buf.size += int64(added)
	c.bind(tail, startPos, segStart)
	return added, nil
}

// Close returns the cursor to Unbound. Double-close or closing a cursor
// that was never acquired fails with State.
func (c *UnsafeCursor) Close() error {
	if !c.bound {
		return newErr(KindState, "double close or close without acquire", nil)
	}
	c.bound = false
	if c.buf != nil {
		c.buf.cursorHeld = false
	}
	c.buf = nil
	c.Data = nil
	c.seg = nil
	return nil
}

func (b *Buffer) growTo(newSize int64) {
	need := newSize - b.size
	for need > 0 {
		tail := b.prepareTailForAppend(1)
		add := int64(tail.writableTail())
		if add > need {
			add = need
		}
		tail.limit += int(add)
		b.size += add
		need -= add
	}
}

func (b *Buffer) shrinkTo(newSize int64) {
	excess := b.size - newSize
	for excess > 0 {
		tail := b.tail
		tailLen := int64(tail.len())
		if tailLen <= excess {
			b.tail = tail.prev
			if b.tail != nil {
				b.tail.next = nil
			} else {
				b.head = nil
			}
			b.size -= tailLen
			excess -= tailLen
			defaultPool.recycle(tail)
		} else {
			tail.limit -= int(excess)
			b.size -= excess
			excess = 0
		}
	}
}
