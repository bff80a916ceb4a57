package rawdata

import (
	"errors"
	"io"
	"io/fs"
	"reflect"
	"testing"
)

// failingSource fails on Open with the given error.
type failingSource struct {
	err error
}

func (s failingSource) Name() string                 { return "failing" }
func (s failingSource) Open() (io.ReadCloser, error) { return nil, s.err }

// readerSource serves a fixed reader factory, used to inject read failures.
type readerSource struct {
	open func() io.Reader
}

func (s readerSource) Name() string { return "reader" }
func (s readerSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(s.open()), nil
}

var errPermission = &fs.PathError{Op: "open", Path: "dump.bin", Err: fs.ErrPermission}

func mem(data string) BytesSource {
	return BytesSource{Label: "test", Data: []byte(data)}
}

func assertWords(t *testing.T, got, want []uint64) {
	t.Helper()
	if got == nil {
		t.Fatalf("got nil words, want %#x", want)
	}
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("words = %#x, want %#x", got, want)
	}
}

func assertKind(t *testing.T, err, kind error) *ExtractError {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
	var extractErr *ExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected *ExtractError, got %T", err)
	}
	return extractErr
}
