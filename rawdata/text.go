package rawdata

import (
	"bufio"
	"bytes"
	"errors"
	"regexp"
	"strconv"

	"github.com/pithecene-io/resdump/iox"
)

// SegmentTypeMarker marks header lines of a text dump. Such lines may carry
// hex-looking values that are not dump words and are skipped whole.
const SegmentTypeMarker = "Segment Type"

// MaxLineLength bounds a single text dump line (16 MiB).
const MaxLineLength = 16 * 1024 * 1024

// hexWordPattern matches "0x" followed by eight hex digits. Matches are
// leftmost and non-overlapping, so a longer hex run yields its first eight.
var hexWordPattern = regexp.MustCompile(`0x[0-9a-fA-F]{8}`)

var segmentTypeMarker = []byte(SegmentTypeMarker)

// ExtractText scans a human-readable dump line by line and collects every
// hex word token in order of appearance. Lines containing SegmentTypeMarker
// contribute nothing.
func ExtractText(src Source) ([]uint64, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, newExtractError(ErrRead, src.Name(), err)
	}
	defer iox.DiscardClose(rc)

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	sc.Split(scanLines)

	words := make([]uint64, 0)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Bytes()
		if bytes.Contains(text, segmentTypeMarker) {
			continue
		}
		for _, m := range hexWordPattern.FindAll(text, -1) {
			// The pattern guarantees eight hex digits, so this cannot fail.
			v, _ := strconv.ParseUint(string(m[2:]), 16, 32)
			words = append(words, v)
		}
	}
	if err := sc.Err(); err != nil {
		kind := ErrRead
		if errors.Is(err, bufio.ErrTooLong) {
			kind = ErrLineTooLong
		}
		e := newExtractError(kind, src.Name(), err)
		e.Line = line + 1
		return nil, e
	}
	return words, nil
}

// scanLines splits on "\n", "\r\n" and a lone "\r".
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		switch {
		case i+1 < len(data) && data[i+1] == '\n':
			return i + 2, data[:i], nil
		case i+1 < len(data) || atEOF:
			return i + 1, data[:i], nil
		default:
			// Lone '\r' at the buffer edge; need one more byte to decide.
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
