package rawdata

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/pithecene-io/resdump/iox"
)

// DefaultMaxSize bounds how much of a source is read (256 MiB).
const DefaultMaxSize = 256 * 1024 * 1024

// Classify decides the encoding of src from its content.
// The only failures are read failures; any readable content gets a kind.
func Classify(src Source) (Kind, error) {
	return classify(src, DefaultMaxSize)
}

func classify(src Source, limit int64) (Kind, error) {
	data, err := readSource(src, limit)
	if err != nil {
		return 0, err
	}
	return ClassifyBytes(data), nil
}

// ClassifyBytes applies the classification rules in priority order:
// a zero byte anywhere means binary, even if the rest would parse as JSON;
// otherwise a complete JSON document means structured; otherwise text.
//
// Text or JSON dumps that embed a raw zero byte are classified as binary.
func ClassifyBytes(data []byte) Kind {
	if bytes.IndexByte(data, 0) >= 0 {
		return KindBinary
	}
	if json.Valid(data) {
		return KindStructured
	}
	return KindText
}

// readSource reads the whole source. Open and read failures are reported as
// ErrRead, oversized content as ErrTooLarge.
func readSource(src Source, limit int64) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, newExtractError(ErrRead, src.Name(), err)
	}
	defer iox.DiscardClose(rc)

	data, err := iox.ReadAllLimit(rc, limit)
	if err != nil {
		if errors.Is(err, iox.ErrLimitExceeded) {
			return nil, newExtractError(ErrTooLarge, src.Name(), err)
		}
		return nil, newExtractError(ErrRead, src.Name(), err)
	}
	return data, nil
}
