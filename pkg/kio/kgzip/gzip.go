// Package kgzip implements the gzip member header/trailer framing layer
// around compress/flate, as the one externally visible protocol example
// a raw reader/writer pair is wrapped in.
package kgzip

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"

	"github.com/klauspost/compress/flate"

	"github.com/jayo-projects/gokio/pkg/kio"
)

// Gzip flag bits (RFC 1952 §2.3.1).
const (
	FHCRC    = 0x02
	FEXTRA   = 0x04
	FNAME    = 0x08
	FCOMMENT = 0x10
)

const magic0, magic1, deflateMethod = 0x1f, 0x8b, 0x08

// Options configures the optional header fields written by NewWriter.
type Options struct {
	Name      string
	Comment   string
	Extra     []byte
	HeaderCRC bool
	Level     int // compress/flate level; 0 means flate.DefaultCompression
}

func framingError(field string, actual, expected uint32) error {
	slog.Warn("gzip framing mismatch", "field", field, "actual", fmt.Sprintf("%08x", actual), "expected", fmt.Sprintf("%08x", expected))
	return kio.NewError(kio.KindIO, fmt.Sprintf("%s mismatch: actual=%08x expected=%08x", field, actual, expected), nil)
}

// Writer frames a deflate stream with a gzip header and trailer on top
// of a kio.RawWriter downstream.
type Writer struct {
	bw     *kio.BufferedWriter
	fw     *flate.Writer
	crc    uint32
	size   uint32
	closed bool
}

// NewWriter writes the gzip header to downstream immediately and
// returns a Writer ready to accept the uncompressed payload.
func NewWriter(downstream kio.RawWriter, opts Options) (*Writer, error) {
	bw := kio.NewBufferedWriter(downstream)
	if err := writeHeader(bw, opts); err != nil {
		return nil, err
	}
	level := opts.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	fw, err := flate.NewWriter(bw, level)
	if err != nil {
		return nil, kio.NewError(kio.KindIO, "opening deflate stream", err)
	}
	return &Writer{bw: bw, fw: fw}, nil
}

func writeHeader(bw *kio.BufferedWriter, opts Options) error {
	hdr := headerBytes(opts)
	_, err := bw.Write(hdr)
	return err
}

func headerBytes(opts Options) []byte {
	var flags byte
	if len(opts.Extra) > 0 {
		flags |= FEXTRA
	}
	if opts.Name != "" {
		flags |= FNAME
	}
	if opts.Comment != "" {
		flags |= FCOMMENT
	}
	if opts.HeaderCRC {
		flags |= FHCRC
	}

	hdr := make([]byte, 0, 10)
	hdr = append(hdr, magic0, magic1, deflateMethod, flags, 0, 0, 0, 0, 0, 0)
	if flags&FEXTRA != 0 {
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(opts.Extra)))
		hdr = append(hdr, lenBuf[:]...)
		hdr = append(hdr, opts.Extra...)
	}
	if flags&FNAME != 0 {
		hdr = append(hdr, []byte(opts.Name)...)
		hdr = append(hdr, 0)
	}
	if flags&FCOMMENT != 0 {
		hdr = append(hdr, []byte(opts.Comment)...)
		hdr = append(hdr, 0)
	}
	if flags&FHCRC != 0 {
		sum := crc32.ChecksumIEEE(hdr)
		var crcBuf [2]byte
		binary.LittleEndian.PutUint16(crcBuf[:], uint16(sum&0xFFFF))
		hdr = append(hdr, crcBuf[:]...)
	}
	return hdr
}

// Write compresses and frames p, tracking the running CRC-32 and
// uncompressed size needed for the trailer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, kio.NewError(kio.KindClosed, "gzip writer is closed", nil)
	}
	n, err := w.fw.Write(p)
	if n > 0 {
		w.crc = crc32.Update(w.crc, crc32.IEEETable, p[:n])
		w.size += uint32(n)
	}
	if err != nil {
		return n, kio.NewError(kio.KindIO, "deflating payload", err)
	}
	return n, nil
}

// Close flushes the deflate stream, writes the trailer, and closes
// downstream.
func (w *Writer) Close() error {
	if w.closed {
		return kio.NewError(kio.KindClosed, "gzip writer already closed", nil)
	}
	w.closed = true
	if err := w.fw.Close(); err != nil {
		return kio.NewError(kio.KindIO, "closing deflate stream", err)
	}
	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], w.crc)
	binary.LittleEndian.PutUint32(trailer[4:8], w.size)
	if _, err := w.bw.Write(trailer[:]); err != nil {
		return err
	}
	return w.bw.Close()
}

// Reader deframes a gzip member read from a kio.RawReader upstream,
// exposing the decompressed payload through Read and validating the
// trailer against the bytes actually produced once the stream ends.
type Reader struct {
	br      *kio.BufferedReader
	fr      io.ReadCloser
	crc     uint32
	size    uint32
	Name    string
	Comment string
	Extra   []byte
}

// NewReader parses the gzip header from upstream and prepares the
// inflate stream.
func NewReader(ctx context.Context, upstream kio.RawReader) (*Reader, error) {
	r := &Reader{br: kio.NewBufferedReader(upstream)}
	if err := r.readHeader(ctx); err != nil {
		return nil, err
	}
	r.fr = flate.NewReader(byteReader{r.br})
	return r, nil
}

// byteReader gives the inflater an io.ByteReader over br, so it consumes
// exactly the deflate stream and leaves the trailer in br for checkTrailer.
type byteReader struct {
	*kio.BufferedReader
}

func (b byteReader) ReadByte() (byte, error) {
	c, err := b.BufferedReader.ReadByte(context.Background())
	if kind, ok := kio.KindOf(err); ok && kind == kio.KindEndOfInput {
		return 0, io.EOF
	}
	return c, err
}

func (r *Reader) readHeader(ctx context.Context) error {
	var hdr [10]byte
	if _, err := io.ReadFull(r.br, hdr[:]); err != nil {
		return kio.NewError(kio.KindIO, "reading gzip header", err)
	}
	if hdr[0] != magic0 || hdr[1] != magic1 || hdr[2] != deflateMethod {
		return kio.NewError(kio.KindIO, "not a recognised gzip member", nil)
	}
	flags := hdr[3]

	// consumed accumulates every header byte read so far (excluding the
	// two FHCRC bytes themselves), since FHCRC is a CRC-16 of the actual
	// bytes on the wire, not of a field set reconstructed afterwards.
	consumed := append([]byte(nil), hdr[:]...)

	if flags&FEXTRA != 0 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(r.br, lenBuf[:]); err != nil {
			return kio.NewError(kio.KindIO, "reading FEXTRA length", err)
		}
		consumed = append(consumed, lenBuf[:]...)
		n := binary.LittleEndian.Uint16(lenBuf[:])
		extra := make([]byte, n)
		if _, err := io.ReadFull(r.br, extra); err != nil {
			return kio.NewError(kio.KindIO, "reading FEXTRA payload", err)
		}
		consumed = append(consumed, extra...)
		r.Extra = extra
	}
	if flags&FNAME != 0 {
		name, raw, err := r.readCString(ctx)
		if err != nil {
			return err
		}
		r.Name = name
		consumed = append(consumed, raw...)
	}
	if flags&FCOMMENT != 0 {
		comment, raw, err := r.readCString(ctx)
		if err != nil {
			return err
		}
		r.Comment = comment
		consumed = append(consumed, raw...)
	}
	if flags&FHCRC != 0 {
		var crcBuf [2]byte
		if _, err := io.ReadFull(r.br, crcBuf[:]); err != nil {
			return kio.NewError(kio.KindIO, "reading FHCRC", err)
		}
		expected := uint32(binary.LittleEndian.Uint16(crcBuf[:]))
		actual := crc32.ChecksumIEEE(consumed) & 0xFFFF
		if actual != expected {
			return framingError("FHCRC", actual, expected)
		}
	}
	return nil
}

// readCString reads a NUL-terminated header field, returning both the
// decoded string and the raw bytes consumed (terminator included) so
// the caller can fold them into the FHCRC accumulator.
func (r *Reader) readCString(ctx context.Context) (string, []byte, error) {
	var buf []byte
	for {
		b, err := r.br.ReadByte(ctx)
		if err != nil {
			return "", nil, kio.NewError(kio.KindIO, "reading zero-terminated header field", err)
		}
		buf = append(buf, b)
		if b == 0 {
			break
		}
	}
	return string(buf[:len(buf)-1]), buf, nil
}

// Read decompresses into p. Once the deflate stream ends it validates
// the trailer's CRC-32 and ISIZE against the bytes actually produced.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.fr.Read(p)
	if n > 0 {
		r.crc = crc32.Update(r.crc, crc32.IEEETable, p[:n])
		r.size += uint32(n)
	}
	if err == io.EOF {
		if trailerErr := r.checkTrailer(); trailerErr != nil {
			return n, trailerErr
		}
	}
	return n, err
}

func (r *Reader) checkTrailer() error {
	var trailer [8]byte
	if _, err := io.ReadFull(r.br, trailer[:]); err != nil {
		return kio.NewError(kio.KindIO, "truncated gzip trailer", err)
	}
	expectedCRC := binary.LittleEndian.Uint32(trailer[0:4])
	expectedSize := binary.LittleEndian.Uint32(trailer[4:8])
	if r.crc != expectedCRC {
		return framingError("CRC", r.crc, expectedCRC)
	}
	if r.size != expectedSize {
		return framingError("ISIZE", r.size, expectedSize)
	}
	return nil
}

// Close releases the inflate stream and the underlying reader.
func (r *Reader) Close() error {
	_ = r.fr.Close()
	return r.br.Close()
}
