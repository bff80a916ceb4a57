package rawdata

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestExtractBinary(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		chunkSize int
		want      []uint64
	}{
		{
			name:      "exact multiple",
			input:     []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
			chunkSize: 4,
			want:      []uint64{0x00010203, 0x04050607},
		},
		{
			name:      "short final chunk",
			input:     []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05},
			chunkSize: 4,
			want:      []uint64{0x00010203, 0x0405},
		},
		{
			name:      "shorter than one chunk",
			input:     []byte{0xAB},
			chunkSize: 4,
			want:      []uint64{0xAB},
		},
		{
			name:      "empty",
			input:     nil,
			chunkSize: 4,
			want:      []uint64{},
		},
		{
			name:      "single byte chunks",
			input:     []byte{0x00, 0xFF, 0x10},
			chunkSize: 1,
			want:      []uint64{0x00, 0xFF, 0x10},
		},
		{
			name:      "64-bit chunks",
			input:     []byte{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA, 0x99, 0x88, 0x01},
			chunkSize: 8,
			want:      []uint64{0xFFEEDDCCBBAA9988, 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBinary(BytesSource{Data: tt.input}, tt.chunkSize)
			if err != nil {
				t.Fatalf("ExtractBinary failed: %v", err)
			}
			assertWords(t, got, tt.want)
		})
	}
}

func TestExtractBinary_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, -1, 9} {
		_, err := ExtractBinary(BytesSource{Data: []byte{1}}, size)
		assertKind(t, err, ErrInvalidChunkSize)
	}
}

func TestExtractBinary_ReadErrorCarriesOffset(t *testing.T) {
	boom := errors.New("device gone")
	src := readerSource{open: func() io.Reader {
		return io.MultiReader(bytes.NewReader(make([]byte, 8)), iotest.ErrReader(boom))
	}}

	_, err := ExtractBinary(src, 4)
	extractErr := assertKind(t, err, ErrRead)
	if !errors.Is(err, boom) {
		t.Errorf("underlying error lost: %v", err)
	}
	if extractErr.Offset != 8 {
		t.Errorf("Offset = %d, want 8", extractErr.Offset)
	}
}

func TestExtractBinary_OpenError(t *testing.T) {
	_, err := ExtractBinary(failingSource{err: errPermission}, 4)
	assertKind(t, err, ErrRead)
}
