// Package kioadapter provides RawReader/RawWriter implementations over
// files, an in-memory pipe, and net.Conn transports, plus a
// digest-writing sink. These are the external collaborators the core
// buffer/reader/writer package only depends on through its RawReader/
// RawWriter contract.
package kioadapter

import (
	"io"
	"os"

	"github.com/jayo-projects/gokio/pkg/kio"
)

// FileReader adapts an *os.File as a kio.RawReader.
type FileReader struct {
	f *os.File
}

// OpenFile opens path for reading.
func OpenFile(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kio.NewError(kio.KindIO, "opening file", err)
	}
	return &FileReader{f: f}, nil
}

func (r *FileReader) ReadAtMostTo(dst *kio.Buffer, byteCount int64) (int64, error) {
	if byteCount <= 0 {
		return 0, kio.NewError(kio.KindInvalidInput, "non-positive byteCount", nil)
	}
	tmp := make([]byte, byteCount)
	n, err := r.f.Read(tmp)
	if n > 0 {
		if _, werr := dst.Write(tmp[:n]); werr != nil {
			return 0, kio.NewError(kio.KindIO, "buffering file read", werr)
		}
	}
	switch {
	case err == io.EOF:
		if n == 0 {
			return -1, nil
		}
		return int64(n), nil
	case err != nil:
		return int64(n), kio.NewError(kio.KindIO, "reading file", err)
	default:
		return int64(n), nil
	}
}

func (r *FileReader) Close() error {
	if err := r.f.Close(); err != nil {
		return kio.NewError(kio.KindIO, "closing file", err)
	}
	return nil
}

// FileWriter adapts an *os.File as a kio.RawWriter.
type FileWriter struct {
	f *os.File
}

// CreateFile creates or truncates path for writing.
func CreateFile(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, kio.NewError(kio.KindIO, "creating file", err)
	}
	return &FileWriter{f: f}, nil
}

func (w *FileWriter) WriteFrom(src *kio.Buffer, byteCount int64) error {
	if byteCount == 0 {
		return nil
	}
	buf := make([]byte, byteCount)
	n, err := src.Read(buf)
	if err != nil {
		return kio.NewError(kio.KindIO, "draining buffer for file write", err)
	}
	if int64(n) != byteCount {
		return kio.NewError(kio.KindIO, "short read from source buffer", nil)
	}
	if _, err := w.f.Write(buf); err != nil {
		return kio.NewError(kio.KindIO, "writing file", err)
	}
	return nil
}

func (w *FileWriter) Flush() error {
	if err := w.f.Sync(); err != nil {
		return kio.NewError(kio.KindIO, "syncing file", err)
	}
	return nil
}

func (w *FileWriter) Close() error {
	if err := w.f.Close(); err != nil {
		return kio.NewError(kio.KindIO, "closing file", err)
	}
	return nil
}
