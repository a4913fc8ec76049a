package kio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncReaderTransfersAllBytes(t *testing.T) {
	up := newChunkedReader(strings.Repeat("q", segmentSize*3+41), 97)
	ar := NewAsyncReader(context.Background(), up)
	defer ar.Close()

	dst := NewBuffer()
	for {
		n, err := ar.ReadAtMostTo(dst, 4096)
		require.NoError(t, err)
		if n == -1 {
			break
		}
	}
	assert.EqualValues(t, segmentSize*3+41, dst.Len())
}

func TestAsyncWriterDeliversInOrder(t *testing.T) {
	downstream := NewBuffer()
	aw := NewAsyncWriter(downstream)

	payload := []byte(strings.Repeat("m", segmentSize*2+13))
	src := NewBuffer()
	_, _ = src.Write(payload)

	require.NoError(t, aw.WriteFrom(src, int64(len(payload))))
	require.NoError(t, aw.Close())

	got := make([]byte, len(payload))
	_, _ = downstream.Read(got)
	assert.Equal(t, payload, got)
}
