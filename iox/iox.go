// Package iox provides I/O helpers for resource cleanup and bounded reads.
package iox

import (
	"errors"
	"fmt"
	"io"
)

// ErrLimitExceeded is returned by ReadAllLimit when the reader holds more
// than the allowed number of bytes.
var ErrLimitExceeded = errors.New("read limit exceeded")

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(f)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a cleanup function that closes c.
// Designed for t.Cleanup registration:
//
//	t.Cleanup(iox.CloseFunc(client))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// ReadAllLimit reads r to EOF, failing with ErrLimitExceeded once more than
// limit bytes are available. A limit <= 0 disables the check.
func ReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrLimitExceeded, limit)
	}
	return data, nil
}
