package kio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWriter captures everything written to it, for asserting on
// what a BufferedWriter actually flushes downstream and when.
type recordingWriter struct {
	data        []byte
	flushCount  int
	closed      bool
}

func (w *recordingWriter) WriteFrom(src *Buffer, byteCount int64) error {
	buf := make([]byte, byteCount)
	_, err := src.Read(buf)
	if err != nil {
		return err
	}
	w.data = append(w.data, buf...)
	return nil
}

func (w *recordingWriter) Flush() error { w.flushCount++; return nil }
func (w *recordingWriter) Close() error { w.closed = true; return nil }

func TestBufferedWriterEmitFlushesCompleteSegmentsOnly(t *testing.T) {
	down := &recordingWriter{}
	bw := NewBufferedWriter(down)

	_, err := bw.Write([]byte("partial"))
	require.NoError(t, err)

	require.NoError(t, bw.Emit())
	assert.Empty(t, down.data, "a single partial segment is never flushed by Emit")

	require.NoError(t, bw.Close())
	assert.Equal(t, "partial", string(down.data))
}

func TestBufferedWriterFlushSendsEverythingAndCallsDownstreamFlush(t *testing.T) {
	down := &recordingWriter{}
	bw := NewBufferedWriter(down)

	_, err := bw.Write([]byte("flush-me"))
	require.NoError(t, err)

	require.NoError(t, bw.Flush())
	assert.Equal(t, "flush-me", string(down.data))
	assert.Equal(t, 1, down.flushCount)
}

func TestBufferedWriterCloseFlushesThenClosesDownstream(t *testing.T) {
	down := &recordingWriter{}
	bw := NewBufferedWriter(down)

	_, err := bw.Write([]byte("closing"))
	require.NoError(t, err)

	require.NoError(t, bw.Close())
	assert.Equal(t, "closing", string(down.data))
	assert.True(t, down.closed)

	require.NoError(t, bw.Close())
}

func TestBufferedWriterRejectsWriteAfterClose(t *testing.T) {
	down := &recordingWriter{}
	bw := NewBufferedWriter(down)
	require.NoError(t, bw.Close())

	_, err := bw.Write([]byte("too-late"))
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindClosed, kind)
}

func TestBufferedWriterFixedWidthHelpers(t *testing.T) {
	down := &recordingWriter{}
	bw := NewBufferedWriter(down)

	require.NoError(t, bw.WriteIntBE(0x01020304))
	require.NoError(t, bw.WriteDecimalLong(-99))
	require.NoError(t, bw.Close())

	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, down.data[:4])
	assert.Equal(t, "-99", string(down.data[4:]))
}
