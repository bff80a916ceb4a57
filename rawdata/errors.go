package rawdata

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for extraction failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrRead indicates the source could not be opened or read.
	ErrRead = errors.New("read failed")

	// ErrTooLarge indicates the source exceeds the configured size limit.
	ErrTooLarge = errors.New("dump too large")

	// ErrInvalidChunkSize indicates an unusable binary chunk size.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrSyntax indicates content that does not parse as a structured document.
	ErrSyntax = errors.New("malformed structured document")

	// ErrMalformedDataLength indicates a "data" array whose length is not a
	// multiple of the word size.
	ErrMalformedDataLength = errors.New("malformed data length")

	// ErrMalformedDataValue indicates a "data" field that is not a list of
	// byte values (integers 0..255).
	ErrMalformedDataValue = errors.New("malformed data value")

	// ErrLineTooLong indicates a text line longer than MaxLineLength.
	ErrLineTooLong = errors.New("line too long")
)

// ExtractError describes a failed classification or extraction.
// It preserves the underlying error for errors.As and matches its Kind
// sentinel for errors.Is.
type ExtractError struct {
	// Kind is the sentinel classifying the failure (e.g. ErrMalformedDataLength).
	Kind error
	// Source is the dump name.
	Source string
	// Offset is the byte offset of the failure, or -1 when not applicable.
	Offset int64
	// Line is the 1-based line number for text dumps, or 0.
	Line int
	// Path locates the offending field in a structured dump, e.g. $.body[0].data.
	Path string
	// Err is the underlying error, if any.
	Err error
}

func (e *ExtractError) Error() string {
	var b strings.Builder
	b.WriteString(e.Source)
	switch {
	case e.Line > 0:
		fmt.Fprintf(&b, ":%d", e.Line)
	case e.Path != "":
		fmt.Fprintf(&b, " at %s", e.Path)
	case e.Offset >= 0:
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *ExtractError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newExtractError(kind error, source string, err error) *ExtractError {
	return &ExtractError{Kind: kind, Source: source, Offset: -1, Err: err}
}
