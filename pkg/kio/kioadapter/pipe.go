package kioadapter

import (
	"sync"

	"github.com/jayo-projects/gokio/pkg/kio"
)

// Pipe connects a PipeWriter to a PipeReader through a single-slot
// handoff: the producer blocks when the slot is occupied, the consumer
// blocks when it is empty. This is the in-process stand-in for the
// async buffered variant's backpressure contract, built directly as a
// RawReader/RawWriter pair rather than layered on the buffered types.
type pipeCore struct {
	data      chan *kio.Buffer
	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewPipe returns the two ends of a fresh in-memory pipe.
func NewPipe() (*PipeReader, *PipeWriter) {
	core := &pipeCore{data: make(chan *kio.Buffer, 1), closeCh: make(chan struct{})}
	return &PipeReader{core: core}, &PipeWriter{core: core}
}

func (c *pipeCore) close() {
	c.closeOnce.Do(func() { close(c.closeCh) })
}

// PipeWriter is the RawWriter half of a Pipe.
type PipeWriter struct {
	core *pipeCore
}

// WriteFrom hands exactly byteCount bytes off to the reader, blocking
// until the single slot is free.
func (w *PipeWriter) WriteFrom(src *kio.Buffer, byteCount int64) error {
	chunk := kio.NewBuffer()
	if err := chunk.WriteFrom(src, byteCount); err != nil {
		return err
	}
	select {
	case w.core.data <- chunk:
		return nil
	case <-w.core.closeCh:
		return kio.NewError(kio.KindClosed, "pipe closed", nil)
	}
}

// Flush is a no-op: WriteFrom already hands bytes to the reader
// synchronously.
func (w *PipeWriter) Flush() error { return nil }

// Close signals end of input to the reader. Idempotent.
func (w *PipeWriter) Close() error {
	w.core.close()
	return nil
}

// PipeReader is the RawReader half of a Pipe.
type PipeReader struct {
	core    *pipeCore
	pending *kio.Buffer
}

// ReadAtMostTo blocks until a chunk is available or the writer closes,
// then moves up to byteCount bytes from the held chunk into dst.
func (r *PipeReader) ReadAtMostTo(dst *kio.Buffer, byteCount int64) (int64, error) {
	if r.pending == nil || r.pending.Len() == 0 {
		select {
		case chunk := <-r.core.data:
			r.pending = chunk
		default:
			select {
			case chunk := <-r.core.data:
				r.pending = chunk
			case <-r.core.closeCh:
				// A chunk handed off just before Close is still delivered.
				select {
				case chunk := <-r.core.data:
					r.pending = chunk
				default:
					return -1, nil
				}
			}
		}
	}
	n := r.pending.Len()
	if n > byteCount {
		n = byteCount
	}
	if err := dst.WriteFrom(r.pending, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the reader's held pending chunk, if any.
func (r *PipeReader) Close() error {
	r.pending = nil
	return nil
}
