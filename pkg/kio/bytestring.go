package kio

import (
	"encoding/hex"
	"hash"
	"hash/fnv"
	"sort"
	"sync"
	"unicode/utf8"
)

// ByteString is an immutable byte sequence. It has three concrete
// representations — Plain (contiguous), Utf8Validated, and Segmented
// (a read-only borrow of buffer segments) — but callers operate against
// this single polymorphic contract: indexed access,
// substring, caching hash, equality independent of representation, hex,
// UTF-8 decode, copy-into, and write-to-sink.
type ByteString interface {
	// Len returns the number of bytes.
	Len() int
	// At returns the byte at index i. Panics if i is out of range.
	At(i int) byte
	// Sub returns the byte string covering [start, end).
	Sub(start, end int) ByteString
	// Bytes materializes a defensive copy of the full contents.
	Bytes() []byte
	// Hex renders the contents as lowercase hexadecimal.
	Hex() string
	// Utf8 decodes the contents as UTF-8, replacing each byte that does
	// not begin a well-formed sequence with U+FFFD (see decodeUTF8Bytes
	// in utf8.go); ReplacementPolicy applies to encoding only.
	Utf8() string
	// Hash returns a cached, representation-independent content hash.
	Hash() uint64
	// Equal compares byte-by-byte, regardless of the concrete
	// representation on either side.
	Equal(other ByteString) bool
	// CopyInto copies b's bytes into dst starting at dst[offset].
	CopyInto(offset int, dst []byte)
	// WriteTo appends b's bytes onto dst.
	WriteTo(dst *Buffer)
}

// Hmac computes the HMAC of b's contents using newHash as the digest
// collaborator (e.g. sha256.New). Digest/HMAC algorithms are external
// collaborators the core only wires through, never implements.
func Hmac(b ByteString, newHash func() hash.Hash, key []byte) ByteString {
	mac := newMacFunc(newHash, key)
	mac.Write(b.Bytes())
	return Plain(mac.Sum(nil))
}

// --- Plain: contiguous owned array ---

type plainByteString struct {
	data     []byte
	hashOnce sync.Once
	hashVal  uint64
}

// Plain wraps data as a contiguous, immutable byte string. data is
// defensively copied.
func Plain(data []byte) ByteString {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &plainByteString{data: cp}
}

func (p *plainByteString) Len() int              { return len(p.data) }
func (p *plainByteString) At(i int) byte         { return p.data[i] }
func (p *plainByteString) Bytes() []byte         { out := make([]byte, len(p.data)); copy(out, p.data); return out }
func (p *plainByteString) Hex() string           { return hex.EncodeToString(p.data) }
func (p *plainByteString) Utf8() string          { return decodeUTF8Bytes(p.data) }
func (p *plainByteString) CopyInto(offset int, dst []byte) { copy(dst[offset:], p.data) }
func (p *plainByteString) WriteTo(dst *Buffer)   { _, _ = dst.Write(p.data) }

func (p *plainByteString) Sub(start, end int) ByteString {
	return Plain(p.data[start:end])
}

func (p *plainByteString) Hash() uint64 {
	p.hashOnce.Do(func() { p.hashVal = fnvHash(p.data) })
	return p.hashVal
}

func (p *plainByteString) Equal(other ByteString) bool { return equalByteStrings(p, other) }

// --- Utf8Validated: plain bytes plus cached metadata ---

type utf8ByteString struct {
	plainByteString
	codePoints int
	ascii      bool
}

// Utf8 decodes s at construction time and caches its code-point count
// and an all-ASCII flag. Invalid input is not rejected: each byte that
// does not start a valid sequence counts as one code point.
func Utf8(s string) ByteString {
	data := []byte(s)
	ascii := true
	count := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r >= utf8.RuneSelf {
			ascii = false
		}
		count++
		i += size
	}
	u := &utf8ByteString{codePoints: count, ascii: ascii}
	u.data = data
	return u
}

// CodePointCount returns the number of Unicode scalar values.
func (u *utf8ByteString) CodePointCount() int { return u.codePoints }

// IsASCII reports whether every byte is < 0x80.
func (u *utf8ByteString) IsASCII() bool { return u.ascii }

func (u *utf8ByteString) Sub(start, end int) ByteString {
	return Utf8(string(u.data[start:end]))
}

func (u *utf8ByteString) Equal(other ByteString) bool { return equalByteStrings(u, other) }

// --- Segmented: borrowed, shared segments ---

type segmentedByteString struct {
	segs      []*segment
	directory []int64 // directory[i] = absolute end offset of segs[i]
	size      int64
	hashOnce  sync.Once
	hashVal   uint64
}

func newSegmentedByteString(segs []*segment) ByteString {
	directory := make([]int64, len(segs))
	var total int64
	for i, s := range segs {
		total += int64(s.len())
		directory[i] = total
	}
	return &segmentedByteString{segs: segs, directory: directory, size: total}
}

func (s *segmentedByteString) Len() int { return int(s.size) }

// locate finds the segment index and intra-segment offset for absolute
// index i using a binary search over the offset directory, giving
// O(log k) random access over k segments.
func (s *segmentedByteString) locate(i int64) (int, int) {
	idx := sort.Search(len(s.directory), func(k int) bool { return s.directory[k] > i })
	var base int64
	if idx > 0 {
		base = s.directory[idx-1]
	}
	seg := s.segs[idx]
	return idx, seg.pos + int(i-base)
}

func (s *segmentedByteString) At(i int) byte {
	segIdx, offset := s.locate(int64(i))
	return s.segs[segIdx].data[offset]
}

func (s *segmentedByteString) Bytes() []byte {
	out := make([]byte, s.size)
	n := 0
	for _, seg := range s.segs {
		n += copy(out[n:], seg.data[seg.pos:seg.limit])
	}
	return out
}

func (s *segmentedByteString) Hex() string  { return hex.EncodeToString(s.Bytes()) }
func (s *segmentedByteString) Utf8() string { return decodeUTF8Bytes(s.Bytes()) }

func (s *segmentedByteString) CopyInto(offset int, dst []byte) {
	n := offset
	for _, seg := range s.segs {
		n += copy(dst[n:], seg.data[seg.pos:seg.limit])
	}
}

// WriteTo appends shared (zero-copy) views of this byte string's
// segments onto dst, rather than materializing and copying Bytes().
func (s *segmentedByteString) WriteTo(dst *Buffer) {
	for _, seg := range s.segs {
		dst.appendSegment(seg.sharedView())
	}
}

func (s *segmentedByteString) Sub(start, end int) ByteString {
	return Plain(s.Bytes()[start:end])
}

func (s *segmentedByteString) Hash() uint64 {
	s.hashOnce.Do(func() { s.hashVal = fnvHash(s.Bytes()) })
	return s.hashVal
}

func (s *segmentedByteString) Equal(other ByteString) bool { return equalByteStrings(s, other) }

// --- shared helpers ---

func equalByteStrings(a, b ByteString) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Hash() != b.Hash() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			return false
		}
	}
	return true
}

func fnvHash(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}
