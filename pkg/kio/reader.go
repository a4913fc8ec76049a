package kio

import (
	"context"
	"io"
	"log/slog"
)

// BufferedReader wraps a RawReader upstream, pulling whole segments on
// demand and exposing typed reads, line parsing, numeric parsing, peek,
// and index-of against its own buffer.
//
// Like Buffer, a BufferedReader is exclusively owned by one goroutine at
// a time.
type BufferedReader struct {
	upstream RawReader
	buf      *Buffer
	closed   bool

	// totalConsumed is the count of bytes ever removed from buf by this
	// reader's own operations. Outstanding peeks anchor against it to
	// detect invalidation.
	totalConsumed int64
}

// NewBufferedReader wraps upstream.
func NewBufferedReader(upstream RawReader) *BufferedReader {
	return &BufferedReader{upstream: upstream, buf: NewBuffer()}
}

func pollContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return newErr(KindTimeout, "cancellation scope expired", ctx.Err())
		}
		return newErr(KindCancelled, "cancellation scope cancelled", ctx.Err())
	default:
		return nil
	}
}

func (br *BufferedReader) checkOpen() error {
	if br.closed {
		return newErr(KindClosed, "reader is closed", nil)
	}
	return nil
}

// refill pulls one segment's worth from upstream. It reports false once
// upstream signals end of input, never an error in that case.
func (br *BufferedReader) refill(ctx context.Context) (bool, error) {
	if err := br.checkOpen(); err != nil {
		return false, err
	}
	if err := pollContext(ctx); err != nil {
		return false, err
	}
	n, err := br.upstream.ReadAtMostTo(br.buf, segmentSize)
	if err != nil {
		return false, newErr(KindIO, "upstream read failed", err)
	}
	if n == -1 {
		return false, nil
	}
	return true, nil
}

// Exhausted reports whether the buffer is empty and a refill attempt
// confirms upstream has nothing left.
func (br *BufferedReader) Exhausted(ctx context.Context) (bool, error) {
	if br.buf.Len() > 0 {
		return false, nil
	}
	ok, err := br.refill(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Request ensures at least n bytes are buffered, pulling from upstream
// as needed. It returns false if upstream exhausts before n bytes are
// available.
func (br *BufferedReader) Request(ctx context.Context, n int64) (bool, error) {
	if err := br.checkOpen(); err != nil {
		return false, err
	}
	for br.buf.Len() < n {
		ok, err := br.refill(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Require is Request, but raises EndOfInput rather than returning false.
func (br *BufferedReader) Require(ctx context.Context, n int64) error {
	ok, err := br.Request(ctx, n)
	if err != nil {
		return err
	}
	if !ok {
		return newErr(KindEndOfInput, "fewer than the required bytes are available", nil)
	}
	return nil
}

// ReadAtMostTo refills from upstream if the buffer is empty, then moves
// up to min(byteCount, bytesAvailable) bytes to dst.
func (br *BufferedReader) ReadAtMostTo(ctx context.Context, dst *Buffer, byteCount int64) (int64, error) {
	if err := br.checkOpen(); err != nil {
		return 0, err
	}
	if br.buf.Len() == 0 {
		ok, err := br.refill(ctx)
		if err != nil {
			return 0, err
		}
		if !ok {
			return -1, nil
		}
	}
	n := byteCount
	if avail := br.buf.Len(); n > avail {
		n = avail
	}
	if n <= 0 {
		return 0, nil
	}
	if err := dst.WriteFrom(br.buf, n); err != nil {
		return 0, err
	}
	br.totalConsumed += n
	return n, nil
}

// TransferTo drains the entire reader into dst, returning the total
// bytes transferred.
func (br *BufferedReader) TransferTo(ctx context.Context, dst RawWriter) (int64, error) {
	if err := br.checkOpen(); err != nil {
		return 0, err
	}
	var total int64
	for {
		if br.buf.Len() == 0 {
			ok, err := br.refill(ctx)
			if err != nil {
				return total, err
			}
			if !ok {
				break
			}
		}
		n := br.buf.Len()
		if err := dst.WriteFrom(br.buf, n); err != nil {
			return total, err
		}
		br.totalConsumed += n
		total += n
	}
	return total, nil
}

// Read implements io.Reader against a background context, for
// interop with stdlib and third-party code (e.g. compress/flate)
// that expects a plain io.Reader. Callers needing cancellation or a
// deadline should use ReadAtMostTo directly instead.
func (br *BufferedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	dst := NewBuffer()
	n, err := br.ReadAtMostTo(context.Background(), dst, int64(len(p)))
	if err != nil {
		return 0, err
	}
	if n == -1 {
		return 0, io.EOF
	}
	_, _ = dst.Read(p[:n])
	return int(n), nil
}

// Close closes the reader and its upstream. It is idempotent: a second
// call is a no-op returning nil rather than closing upstream again.
func (br *BufferedReader) Close() error {
	if br.closed {
		return nil
	}
	br.closed = true
	return br.upstream.Close()
}

// ---- Peek ----

// PeekReader is a forward-only view anchored at the reader's position
// at the time Peek was called. It shares the reader's buffer and pulls
// further bytes from upstream transparently, but becomes permanently
// Invalidated if the owning reader is consumed past the peek's current
// offset.
type PeekReader struct {
	br     *BufferedReader
	anchor int64
	pos    int64
	closed bool
}

// Peek returns a new forward view anchored at br's current position.
// Multiple independent peeks over the same reader are allowed.
func (br *BufferedReader) Peek() *PeekReader {
	return &PeekReader{br: br, anchor: br.totalConsumed}
}

func (p *PeekReader) checkValid() error {
	if p.closed {
		return newErr(KindClosed, "peek is closed", nil)
	}
	if p.br.totalConsumed > p.anchor+p.pos {
		slog.Debug("peek invalidated by upstream consume", "anchor", p.anchor, "peek_pos", p.pos, "total_consumed", p.br.totalConsumed)
		return newErr(KindInvalidated, "peek invalidated by upstream consume", nil)
	}
	return nil
}

// ReadAtMostTo implements RawReader for the peek view: it reads without
// consuming bytes from the owning reader's perspective, advancing only
// this peek's own offset.
func (p *PeekReader) ReadAtMostTo(dst *Buffer, byteCount int64) (int64, error) {
	if err := p.checkValid(); err != nil {
		return 0, err
	}
	rel := p.anchor + p.pos - p.br.totalConsumed
	for p.br.buf.Len() <= rel {
		ok, err := p.br.refill(context.Background())
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
	}
	avail := p.br.buf.Len() - rel
	if avail <= 0 {
		return -1, nil
	}
	n := byteCount
	if n > avail {
		n = avail
	}
	if err := p.br.buf.CopyTo(dst, rel, n); err != nil {
		return 0, err
	}
	p.pos += n
	return n, nil
}

// Close releases the peek view. The owning reader is unaffected.
func (p *PeekReader) Close() error {
	p.closed = true
	return nil
}

// ---- Numeric, text, and search delegation ----

func (br *BufferedReader) delegateFixed(ctx context.Context, n int64, fn func() (uint64, error)) (uint64, error) {
	if err := br.Require(ctx, n); err != nil {
		return 0, err
	}
	before := br.buf.Len()
	v, err := fn()
	br.totalConsumed += before - br.buf.Len()
	return v, err
}

func (br *BufferedReader) ReadByte(ctx context.Context) (byte, error) {
	v, err := br.delegateFixed(ctx, 1, func() (uint64, error) { b, e := br.buf.ReadByte(); return uint64(b), e })
	return byte(v), err
}
func (br *BufferedReader) ReadShortBE(ctx context.Context) (int16, error) {
	v, err := br.delegateFixed(ctx, 2, func() (uint64, error) { b, e := br.buf.ReadShortBE(); return uint64(uint16(b)), e })
	return int16(v), err
}
func (br *BufferedReader) ReadShortLE(ctx context.Context) (int16, error) {
	v, err := br.delegateFixed(ctx, 2, func() (uint64, error) { b, e := br.buf.ReadShortLE(); return uint64(uint16(b)), e })
	return int16(v), err
}
func (br *BufferedReader) ReadIntBE(ctx context.Context) (int32, error) {
	v, err := br.delegateFixed(ctx, 4, func() (uint64, error) { b, e := br.buf.ReadIntBE(); return uint64(uint32(b)), e })
	return int32(v), err
}
func (br *BufferedReader) ReadIntLE(ctx context.Context) (int32, error) {
	v, err := br.delegateFixed(ctx, 4, func() (uint64, error) { b, e := br.buf.ReadIntLE(); return uint64(uint32(b)), e })
	return int32(v), err
}
func (br *BufferedReader) ReadLongBE(ctx context.Context) (int64, error) {
	v, err := br.delegateFixed(ctx, 8, func() (uint64, error) { b, e := br.buf.ReadLongBE(); return uint64(b), e })
	return int64(v), err
}
func (br *BufferedReader) ReadLongLE(ctx context.Context) (int64, error) {
	v, err := br.delegateFixed(ctx, 8, func() (uint64, error) { b, e := br.buf.ReadLongLE(); return uint64(b), e })
	return int64(v), err
}

// fillNumericLiteral keeps pulling from upstream while the buffer's
// tail byte still belongs to the literal being scanned, so the delegate
// call below never truncates a number at a segment boundary.
func (br *BufferedReader) fillNumericLiteral(ctx context.Context, isLiteralByte func(byte) bool) error {
	for {
		n := br.buf.Len()
		if n == 0 {
			ok, err := br.refill(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			continue
		}
		if !isLiteralByte(br.buf.byteAt(n - 1)) {
			return nil
		}
		ok, err := br.refill(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// ReadDecimalLong parses a base-10 signed integer, pulling from
// upstream as long as the buffered tail still looks like a digit.
func (br *BufferedReader) ReadDecimalLong(ctx context.Context) (int64, error) {
	if err := br.checkOpen(); err != nil {
		return 0, err
	}
	isDigit := func(c byte) bool { return c == '-' || (c >= '0' && c <= '9') }
	if err := br.fillNumericLiteral(ctx, isDigit); err != nil {
		return 0, err
	}
	before := br.buf.Len()
	v, err := br.buf.ReadDecimalLong()
	br.totalConsumed += before - br.buf.Len()
	return v, err
}

// ReadHexadecimalUnsignedLong parses an unsigned hex literal, pulling
// from upstream as long as the buffered tail still looks like a hex
// digit.
func (br *BufferedReader) ReadHexadecimalUnsignedLong(ctx context.Context) (uint64, error) {
	if err := br.checkOpen(); err != nil {
		return 0, err
	}
	isHex := func(c byte) bool { _, ok := hexDigit(c); return ok }
	if err := br.fillNumericLiteral(ctx, isHex); err != nil {
		return 0, err
	}
	before := br.buf.Len()
	v, err := br.buf.ReadHexadecimalUnsignedLong()
	br.totalConsumed += before - br.buf.Len()
	return v, err
}

// ReadLineStrict returns the bytes up to, but not including, a line
// terminator, pulling from upstream until one is found or limit bytes
// have been buffered without one.
func (br *BufferedReader) ReadLineStrict(ctx context.Context, limit int64) ([]byte, error) {
	if err := br.checkOpen(); err != nil {
		return nil, err
	}
	for {
		scanLimit := br.buf.Len()
		if limit >= 0 && limit < scanLimit {
			scanLimit = limit
		}
		if br.buf.IndexOfByte('\n', 0, scanLimit+1) != -1 {
			break
		}
		if limit >= 0 && br.buf.Len() > limit {
			break
		}
		ok, err := br.refill(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
	}
	before := br.buf.Len()
	line, err := br.buf.ReadLineStrict(limit)
	br.totalConsumed += before - br.buf.Len()
	return line, err
}

// ReadLine is the lenient variant: it returns the remaining bytes
// without a terminator once upstream is exhausted with no newline.
func (br *BufferedReader) ReadLine(ctx context.Context) ([]byte, bool, error) {
	if err := br.checkOpen(); err != nil {
		return nil, false, err
	}
	for br.buf.IndexOfByte('\n', 0, br.buf.Len()) == -1 {
		ok, err := br.refill(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			break
		}
	}
	before := br.buf.Len()
	line, ok := br.buf.ReadLine()
	br.totalConsumed += before - br.buf.Len()
	return line, ok, nil
}

// IndexOfByte scans for c starting at from, pulling from upstream until
// found or upstream is exhausted.
func (br *BufferedReader) IndexOfByte(ctx context.Context, c byte, from int64) (int64, error) {
	if err := br.checkOpen(); err != nil {
		return -1, err
	}
	for {
		if idx := br.buf.IndexOfByte(c, from, br.buf.Len()); idx != -1 {
			return idx, nil
		}
		ok, err := br.refill(ctx)
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, nil
		}
	}
}

// IndexOf scans for needle starting at from, pulling from upstream
// until found or upstream is exhausted.
func (br *BufferedReader) IndexOf(ctx context.Context, needle []byte, from int64) (int64, error) {
	if err := br.checkOpen(); err != nil {
		return -1, err
	}
	for {
		if idx := br.buf.IndexOf(needle, from); idx != -1 {
			return idx, nil
		}
		ok, err := br.refill(ctx)
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, nil
		}
	}
}
