package kio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func TestWriteReadCodePointRoundTrip(t *testing.T) {
	for _, r := range []rune{'a', 0x7F, 0x80, 0x7FF, 0x800, 0xFFFF - 1, 0x10000, 0x10FFFF} {
		b := NewBuffer()
		require.NoError(t, WriteCodePoint(b, r, ReplacementQuestionMark))
		decoded := decodeUTF8Bytes(b.Snapshot().Bytes())
		assert.Equal(t, string(r), decoded)
	}
}

func TestWriteCodePointRejectsOutOfRange(t *testing.T) {
	b := NewBuffer()
	err := WriteCodePoint(b, 0x110000, ReplacementQuestionMark)
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindInvalidInput, kind)
}

func TestWriteCodePointLoneSurrogatePolicy(t *testing.T) {
	b := NewBuffer()
	require.NoError(t, WriteCodePoint(b, 0xD800, ReplacementQuestionMark))
	assert.Equal(t, []byte{0x3F}, b.Snapshot().Bytes())

	b2 := NewBuffer()
	require.NoError(t, WriteCodePoint(b2, 0xD800, ReplacementFFFD))
	assert.Equal(t, []byte{0xEF, 0xBF, 0xBD}, b2.Snapshot().Bytes())
}

// scenario B of spec.md §8: "təˈranəˌsôr" encodes to 16 bytes, hex
// 74c999cb8872616ec999cb8c73c3b472.
func TestUTF8SizeOfMatchesKnownEncoding(t *testing.T) {
	s := "təˈranəˌsôr"
	runes := []rune(s)

	size := UTF8SizeOf(runes, ReplacementQuestionMark)
	assert.EqualValues(t, 16, size)

	b := NewBuffer()
	for _, r := range runes {
		require.NoError(t, WriteCodePoint(b, r, ReplacementQuestionMark))
	}
	assert.EqualValues(t, size, b.Len())
	assert.Equal(t, "74c999cb8872616ec999cb8c73c3b472", b.Snapshot().Hex())
}

func TestUTF8LeadLenClassification(t *testing.T) {
	assert.Equal(t, 1, utf8LeadLen(0x41))
	assert.Equal(t, 2, utf8LeadLen(0xC2))
	assert.Equal(t, 3, utf8LeadLen(0xE0))
	assert.Equal(t, 4, utf8LeadLen(0xF0))
	assert.Equal(t, 0, utf8LeadLen(0x80)) // bare continuation byte
	assert.Equal(t, 0, utf8LeadLen(0xFF)) // always-invalid lead
}

func TestDecodeSequenceRejectsOverlong(t *testing.T) {
	// 0xC0 0x80 is an overlong encoding of NUL.
	_, _, ok := decodeSequence([]byte{0xC0, 0x80})
	assert.False(t, ok)
}

func TestDecodeSequenceRejectsEncodedSurrogate(t *testing.T) {
	// 0xED 0xA0 0x80 would decode to U+D800, a surrogate.
	_, _, ok := decodeSequence([]byte{0xED, 0xA0, 0x80})
	assert.False(t, ok)
}

// TestWriteCodePointMatchesGolangXTextUTF8 cross-checks the hand-rolled
// encoder against golang.org/x/text/encoding/unicode's validating UTF-8
// encoder for well-formed scalar values, where both must agree
// byte-for-byte; the package's own codec stays hand-rolled at runtime
// because golang.org/x/text has no equivalent for this spec's
// lone-surrogate '?' convention (see DESIGN.md).
func TestWriteCodePointMatchesGolangXTextUTF8(t *testing.T) {
	for _, s := range []string{"təˈranəˌsôr", "hello, world", "日本語", "emoji: \U0001F600"} {
		want, _, err := transform.String(unicode.UTF8.NewEncoder(), s)
		require.NoError(t, err)

		b := NewBuffer()
		for _, r := range s {
			require.NoError(t, WriteCodePoint(b, r, ReplacementQuestionMark))
		}
		assert.Equal(t, want, string(b.Snapshot().Bytes()))
	}
}
