package kio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWriteReadRoundTrip(t *testing.T) {
	b := NewBuffer()
	n, err := b.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.EqualValues(t, 11, b.Len())

	out := make([]byte, 11)
	n, err = b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello world", string(out))
	assert.EqualValues(t, 0, b.Len())
}

func TestBufferReadFromEmptyFails(t *testing.T) {
	b := NewBuffer()
	_, err := b.Read(make([]byte, 4))
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindEndOfInput, kind)
}

func TestBufferReadEmptyRequestIsNoop(t *testing.T) {
	b := NewBuffer()
	n, err := b.Read(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBufferWriteSpansMultipleSegments(t *testing.T) {
	b := NewBuffer()
	payload := strings.Repeat("x", segmentSize*3+17)
	_, err := b.Write([]byte(payload))
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), b.Len())

	out := make([]byte, len(payload))
	n, err := b.Read(out)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, string(out))
}

func TestBufferReadAtMostToMovesSegments(t *testing.T) {
	src := NewBuffer()
	_, _ = src.Write([]byte(strings.Repeat("a", segmentSize*2)))

	dst := NewBuffer()
	n, err := src.ReadAtMostTo(dst, segmentSize)
	require.NoError(t, err)
	assert.EqualValues(t, segmentSize, n)
	assert.EqualValues(t, segmentSize, dst.Len())
	assert.EqualValues(t, segmentSize, src.Len())
}

func TestBufferReadAtMostToEmptyReturnsEndOfInputSentinel(t *testing.T) {
	src := NewBuffer()
	dst := NewBuffer()
	n, err := src.ReadAtMostTo(dst, 10)
	require.NoError(t, err)
	assert.EqualValues(t, -1, n)
}

func TestBufferSnapshotIsImmutable(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("immutable"))
	snap := b.Snapshot()

	_, _ = b.Write([]byte("-mutated"))
	_, _ = b.ReadByte()

	assert.Equal(t, "immutable", snap.Utf8())
}

func TestBufferCloneIsIndependent(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("clone-me"))
	clone := b.Clone()

	_, _ = b.Write([]byte("-extra"))

	out := make([]byte, 8)
	_, err := clone.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "clone-me", string(out))
}

func TestBufferIndexOfByte(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("abcdefg"))
	assert.EqualValues(t, 3, b.IndexOfByte('d', 0, b.Len()))
	assert.EqualValues(t, -1, b.IndexOfByte('z', 0, b.Len()))
}

func TestBufferIndexOfNeedle(t *testing.T) {
	b := NewBuffer()
	payload := strings.Repeat("filler-", 2000) + "needle-in-haystack" + strings.Repeat("-more", 500)
	_, _ = b.Write([]byte(payload))

	want := int64(strings.Index(payload, "needle-in-haystack"))
	got := b.IndexOf([]byte("needle-in-haystack"), 0)
	assert.Equal(t, want, got)
	assert.EqualValues(t, -1, b.IndexOf([]byte("not-present"), 0))
}

func TestBufferIndexOfEmptyNeedle(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("abc"))
	assert.EqualValues(t, 0, b.IndexOf(nil, 0))
	assert.EqualValues(t, 2, b.IndexOf(nil, 2))
	assert.EqualValues(t, -1, b.IndexOf(nil, 10))
}

func TestBufferReadLineStrict(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("first\r\nsecond\nthird"))

	line, err := b.ReadLineStrict(-1)
	require.NoError(t, err)
	assert.Equal(t, "first", string(line))

	line, err = b.ReadLineStrict(-1)
	require.NoError(t, err)
	assert.Equal(t, "second", string(line))

	_, err = b.ReadLineStrict(-1)
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindEndOfInput, kind)
}

func TestBufferReadLineLenient(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("only-line-no-terminator"))
	line, ok := b.ReadLine()
	assert.True(t, ok)
	assert.Equal(t, "only-line-no-terminator", string(line))

	_, ok = b.ReadLine()
	assert.False(t, ok)
}

func TestBufferFixedWidthIntegersRoundTrip(t *testing.T) {
	b := NewBuffer()
	b.WriteIntBE(0x01020304)
	b.WriteIntLE(0x01020304)
	b.WriteLongBE(-42)

	v1, err := b.ReadIntBE()
	require.NoError(t, err)
	assert.EqualValues(t, 0x01020304, v1)

	v2, err := b.ReadIntLE()
	require.NoError(t, err)
	assert.EqualValues(t, 0x01020304, v2)

	v3, err := b.ReadLongBE()
	require.NoError(t, err)
	assert.EqualValues(t, -42, v3)
}

func TestBufferDecimalLongRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 123456789, -123456789} {
		b := NewBuffer()
		b.WriteDecimalLong(v)
		got, err := b.ReadDecimalLong()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestBufferDecimalLongOverflow(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("99999999999999999999"))
	_, err := b.ReadDecimalLong()
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidInput, kind)
}

func TestBufferHexadecimalUnsignedRoundTrip(t *testing.T) {
	b := NewBuffer()
	b.WriteHexadecimalUnsignedLong(0xdeadbeef)
	got, err := b.ReadHexadecimalUnsignedLong()
	require.NoError(t, err)
	assert.EqualValues(t, 0xdeadbeef, got)
}

func TestBufferHexadecimalTooLong(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("123456789abcdef012")) // 18 digits
	_, err := b.ReadHexadecimalUnsignedLong()
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidInput, kind)
}

func TestBufferCopyToSharesWithoutConsuming(t *testing.T) {
	b := NewBuffer()
	_, _ = b.Write([]byte("0123456789"))
	dst := NewBuffer()
	err := b.CopyTo(dst, 2, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 10, b.Len())

	out := make([]byte, 5)
	_, _ = dst.Read(out)
	assert.Equal(t, "23456", string(out))
}
