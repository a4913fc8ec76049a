package kioadapter

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jayo-projects/gokio/pkg/kio"
)

// ConnReader adapts the read half of a net.Conn as a kio.RawReader.
type ConnReader struct {
	c net.Conn
}

// ConnWriter adapts the write half of a net.Conn as a kio.RawWriter.
type ConnWriter struct {
	c net.Conn
}

// DialOptions configures DialRetry's connection-establishment retries.
// They govern only the dial itself; once connected, reads and writes
// fail straight through with no retry.
type DialOptions struct {
	Attempts uint
	Delay    time.Duration
}

func (o DialOptions) withDefaults() DialOptions {
	if o.Attempts == 0 {
		o.Attempts = 3
	}
	if o.Delay == 0 {
		o.Delay = 200 * time.Millisecond
	}
	return o
}

// DialRetry dials network/address, retrying the dial itself (not any
// subsequent read or write) per opts, and returns both transport ends.
func DialRetry(ctx context.Context, network, address string, opts DialOptions) (*ConnReader, *ConnWriter, error) {
	opts = opts.withDefaults()
	var d net.Dialer
	var conn net.Conn
	err := retry.Do(
		func() error {
			c, err := d.DialContext(ctx, network, address)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.Delay),
	)
	if err != nil {
		return nil, nil, kio.NewError(kio.KindIO, "dialing "+network+" "+address, err)
	}
	return &ConnReader{c: conn}, &ConnWriter{c: conn}, nil
}

// WrapConn adapts an already-established net.Conn, for servers that
// accept connections rather than dial them.
func WrapConn(c net.Conn) (*ConnReader, *ConnWriter) {
	return &ConnReader{c: c}, &ConnWriter{c: c}
}

func (r *ConnReader) ReadAtMostTo(dst *kio.Buffer, byteCount int64) (int64, error) {
	if byteCount <= 0 {
		return 0, kio.NewError(kio.KindInvalidInput, "non-positive byteCount", nil)
	}
	tmp := make([]byte, byteCount)
	n, err := r.c.Read(tmp)
	if n > 0 {
		if _, werr := dst.Write(tmp[:n]); werr != nil {
			return 0, kio.NewError(kio.KindIO, "buffering conn read", werr)
		}
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			if n > 0 {
				return int64(n), nil
			}
			return -1, nil
		}
		return int64(n), kio.NewError(kio.KindIO, "reading conn", err)
	}
	return int64(n), nil
}

func (r *ConnReader) Close() error {
	if err := r.c.Close(); err != nil {
		return kio.NewError(kio.KindIO, "closing conn", err)
	}
	return nil
}

func (w *ConnWriter) WriteFrom(src *kio.Buffer, byteCount int64) error {
	if byteCount == 0 {
		return nil
	}
	buf := make([]byte, byteCount)
	n, err := src.Read(buf)
	if err != nil {
		return kio.NewError(kio.KindIO, "draining buffer for conn write", err)
	}
	if int64(n) != byteCount {
		return kio.NewError(kio.KindIO, "short read from source buffer", nil)
	}
	if _, err := w.c.Write(buf); err != nil {
		return kio.NewError(kio.KindIO, "writing conn", err)
	}
	return nil
}

// Flush is a no-op: net.Conn writes are unbuffered at this layer.
func (w *ConnWriter) Flush() error { return nil }

func (w *ConnWriter) Close() error {
	if err := w.c.Close(); err != nil {
		return kio.NewError(kio.KindIO, "closing conn", err)
	}
	return nil
}
