package kio

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

const asyncChunkSize = segmentSize

// AsyncReader prefetches from an upstream RawReader on a single helper
// goroutine, handing completed chunks back through a single-slot
// channel so the consumer overlaps decoding work with the next
// upstream read instead of serializing them.
type AsyncReader struct {
	upstream RawReader
	pool     *pool.Pool
	slot     chan *Buffer
	errc     chan error
	pending  *Buffer
	cancel   context.CancelFunc
}

// NewAsyncReader starts the prefetch goroutine against upstream. ctx
// governs the prefetch loop; it is not polled per-call the way the
// synchronous BufferedReader is, since the helper goroutine runs ahead
// of the consumer.
func NewAsyncReader(ctx context.Context, upstream RawReader) *AsyncReader {
	ctx, cancel := context.WithCancel(ctx)
	r := &AsyncReader{
		upstream: upstream,
		pool:     pool.New().WithMaxGoroutines(1),
		slot:     make(chan *Buffer, 1),
		errc:     make(chan error, 1),
		cancel:   cancel,
	}
	r.pool.Go(func() { r.pump(ctx) })
	return r
}

func (r *AsyncReader) pump(ctx context.Context) {
	defer close(r.slot)
	for {
		chunk := NewBuffer()
		n, err := r.upstream.ReadAtMostTo(chunk, asyncChunkSize)
		if err != nil {
			r.errc <- err
			return
		}
		if n == -1 {
			return
		}
		select {
		case r.slot <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// ReadAtMostTo implements RawReader, serving from the most recently
// prefetched chunk and pulling the next one off the slot once it
// drains.
func (r *AsyncReader) ReadAtMostTo(dst *Buffer, byteCount int64) (int64, error) {
	if r.pending == nil || r.pending.Len() == 0 {
		chunk, ok := <-r.slot
		if !ok {
			select {
			case err := <-r.errc:
				return 0, err
			default:
				return -1, nil
			}
		}
		r.pending = chunk
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

// Close stops the prefetch goroutine and closes the upstream reader.
func (r *AsyncReader) Close() error {
	r.cancel()
	r.pool.Wait()
	return r.upstream.Close()
}

type asyncWork struct {
	buf   *Buffer
	n     int64
	flush bool
	done  chan error
}

// AsyncWriter hands writes off to a single helper goroutine so the
// caller's WriteFrom returns once the payload is queued rather than
// once it has reached downstream. Flush/Close block until the helper
// has drained its queue, giving the caller a synchronous barrier when
// it actually needs one.
type AsyncWriter struct {
	downstream RawWriter
	pool       *pool.Pool
	queue      chan asyncWork
	errc       chan error
	closed     bool
}

// NewAsyncWriter starts the drain goroutine writing to downstream.
func NewAsyncWriter(downstream RawWriter) *AsyncWriter {
	w := &AsyncWriter{
		downstream: downstream,
		pool:       pool.New().WithMaxGoroutines(1),
		queue:      make(chan asyncWork, 1),
		errc:       make(chan error, 1),
	}
	w.pool.Go(w.drain)
	return w
}

func (w *AsyncWriter) drain() {
	for item := range w.queue {
		var err error
		if item.buf != nil {
			err = w.downstream.WriteFrom(item.buf, item.n)
		}
		if err == nil && item.flush {
			err = w.downstream.Flush()
		}
		if err != nil {
			select {
			case w.errc <- err:
			default:
			}
		}
		if item.done != nil {
			item.done <- err
		}
	}
}

func (w *AsyncWriter) checkOpen() error {
	if w.closed {
		return newErr(KindClosed, "async writer already closed", nil)
	}
	select {
	case err := <-w.errc:
		return err
	default:
		return nil
	}
}

// WriteFrom queues byteCount bytes from src for the drain goroutine
// and returns without waiting for downstream to accept them.
func (w *AsyncWriter) WriteFrom(src *Buffer, byteCount int64) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	chunk := NewBuffer()
	if err := chunk.WriteFrom(src, byteCount); err != nil {
		return err
	}
	w.queue <- asyncWork{buf: chunk, n: byteCount}
	return nil
}

// Flush blocks until every queued write has reached downstream and
// downstream itself has flushed.
func (w *AsyncWriter) Flush() error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.flush()
}

// flush queues a flush marker and waits for the drain goroutine to
// process it, without the checkOpen guard Flush uses — Close needs to
// drain downstream before it marks the writer closed.
func (w *AsyncWriter) flush() error {
	done := make(chan error, 1)
	w.queue <- asyncWork{flush: true, done: done}
	return <-done
}

// Close drains the queue, closes downstream, and stops the helper
// goroutine. Idempotent.
func (w *AsyncWriter) Close() error {
	if w.closed {
		return newErr(KindClosed, "async writer already closed", nil)
	}
	flushErr := w.flush()
	w.closed = true
	close(w.queue)
	w.pool.Wait()
	closeErr := w.downstream.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
