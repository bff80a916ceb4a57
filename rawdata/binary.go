package rawdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/pithecene-io/resdump/iox"
)

// MaxChunkSize is the widest binary word supported (64 bits).
const MaxChunkSize = 8

// ExtractBinary reads src in consecutive chunks of chunkSize bytes and
// interprets each chunk as one big-endian unsigned integer.
//
// When the content length is not a multiple of chunkSize the final chunk is
// shorter; its value is the big-endian interpretation of the bytes that
// remain. Empty content yields an empty sequence.
func ExtractBinary(src Source, chunkSize int) ([]uint64, error) {
	if chunkSize < 1 || chunkSize > MaxChunkSize {
		return nil, newExtractError(ErrInvalidChunkSize, src.Name(),
			fmt.Errorf("chunk size %d outside 1..%d", chunkSize, MaxChunkSize))
	}

	rc, err := src.Open()
	if err != nil {
		return nil, newExtractError(ErrRead, src.Name(), err)
	}
	defer iox.DiscardClose(rc)

	r := bufio.NewReader(rc)
	chunk := make([]byte, chunkSize)
	words := make([]uint64, 0)
	var offset int64
	for {
		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			words = append(words, beUint(chunk[:n]))
			offset += int64(n)
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return words, nil
		default:
			e := newExtractError(ErrRead, src.Name(), err)
			e.Offset = offset
			return nil, e
		}
	}
}

// beUint folds bytes most-significant first.
func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
