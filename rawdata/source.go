package rawdata

import (
	"bytes"
	"io"
	"os"
)

// Source is a read-only handle on one dump's content.
// Open may be called more than once; every call must yield the same bytes.
type Source interface {
	// Name identifies the source in errors and logs (usually a file path).
	Name() string
	// Open returns a fresh reader positioned at the start of the content.
	Open() (io.ReadCloser, error)
}

// FileSource reads a dump from the filesystem.
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s FileSource) Name() string { return s.Path }

// Open opens the file for reading.
func (s FileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// BytesSource serves a dump held in memory, e.g. fetched content or tests.
type BytesSource struct {
	Label string
	Data  []byte
}

// Name returns the label, or "<memory>" when unset.
func (s BytesSource) Name() string {
	if s.Label == "" {
		return "<memory>"
	}
	return s.Label
}

// Open returns a reader over the in-memory content.
func (s BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

var (
	_ Source = FileSource{}
	_ Source = BytesSource{}
)
