package kioadapter

import (
	"hash"

	"github.com/jayo-projects/gokio/pkg/kio"
)

// DigestWriter is a kio.RawWriter that feeds every byte written through
// it into an external hash.Hash collaborator (sha256.New, crc32.NewIEEE,
// an Hmac digest) before forwarding to downstream. The digest and the
// transport are independent; Sum can be read at any point, not only
// after Close.
type DigestWriter struct {
	downstream kio.RawWriter
	h          hash.Hash
	closed     bool
}

// NewDigestWriter wraps downstream, mirroring every written byte into h.
func NewDigestWriter(downstream kio.RawWriter, h hash.Hash) *DigestWriter {
	return &DigestWriter{downstream: downstream, h: h}
}

func (w *DigestWriter) WriteFrom(src *kio.Buffer, byteCount int64) error {
	if w.closed {
		return kio.NewError(kio.KindClosed, "digest writer already closed", nil)
	}
	if byteCount == 0 {
		return nil
	}
	buf := make([]byte, byteCount)
	n, err := src.Read(buf)
	if err != nil {
		return kio.NewError(kio.KindIO, "draining buffer for digest write", err)
	}
	if int64(n) != byteCount {
		return kio.NewError(kio.KindIO, "short read from source buffer", nil)
	}
	w.h.Write(buf)
	mirror := kio.NewBuffer()
	if _, err := mirror.Write(buf); err != nil {
		return kio.NewError(kio.KindIO, "re-buffering digested payload", err)
	}
	return w.downstream.WriteFrom(mirror, byteCount)
}

func (w *DigestWriter) Flush() error {
	return w.downstream.Flush()
}

func (w *DigestWriter) Close() error {
	if w.closed {
		return kio.NewError(kio.KindClosed, "digest writer already closed", nil)
	}
	w.closed = true
	return w.downstream.Close()
}

// Sum returns the digest of every byte written so far, appended to b.
func (w *DigestWriter) Sum(b []byte) []byte {
	return w.h.Sum(b)
}
