package kio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorOnlyOneOpenAtATime(t *testing.T) {
	b := NewBuffer()
	c1, err := b.Cursor(CursorReadOnly)
	require.NoError(t, err)

	_, err = b.Cursor(CursorReadOnly)
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindState, kind)

	require.NoError(t, c1.Close())

	c2, err := b.Cursor(CursorReadOnly)
	require.NoError(t, err)
	require.NoError(t, c2.Close())
}

func TestCursorDoubleCloseFails(t *testing.T) {
	b := NewBuffer()
	c, err := b.Cursor(CursorReadOnly)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	err = c.Close()
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindState, kind)
}

func TestCursorSeekAndNext(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte(strings.Repeat("a", segmentSize) + strings.Repeat("b", segmentSize)))

	c, err := b.Cursor(CursorReadOnly)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Seek(0))
	assert.Equal(t, byte('a'), c.Data[c.Pos])

	n, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, segmentSize, n)
	assert.Equal(t, byte('b'), c.Data[c.Pos])

	n, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, -1, n)
}

func TestCursorSeekBeforeFirstAndAfterLast(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("hello"))
	c, err := b.Cursor(CursorReadOnly)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Seek(-1))
	assert.EqualValues(t, -1, c.Offset)

	require.NoError(t, c.Seek(100))
	assert.EqualValues(t, 5, c.Offset)
}

func TestCursorResizeBufferGrowAndShrink(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("0123456789"))

	c, err := b.Cursor(CursorReadWrite)
	require.NoError(t, err)
	defer c.Close()

	old, err := c.ResizeBuffer(20)
	require.NoError(t, err)
	assert.EqualValues(t, 10, old)
	assert.EqualValues(t, 20, b.Len())

	old, err = c.ResizeBuffer(5)
	require.NoError(t, err)
	assert.EqualValues(t, 20, old)
	assert.EqualValues(t, 5, b.Len())
}

func TestCursorResizeBufferRejectsReadOnly(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("x"))
	c, err := b.Cursor(CursorReadOnly)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.ResizeBuffer(10)
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindState, kind)
}

func TestCursorExpandBuffer(t *testing.T) {
	b := NewBuffer()
	c, err := b.Cursor(CursorReadWrite)
	require.NoError(t, err)
	defer c.Close()

	added, err := c.ExpandBuffer(100)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, added, 100)
	assert.EqualValues(t, added, b.Len())

	for i := 0; i < 100; i++ {
		c.Data[c.Pos+i] = byte(i)
	}

	out := make([]byte, 100)
	_, err = b.Read(out)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		assert.Equal(t, byte(i), out[i])
	}
}
