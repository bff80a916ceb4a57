// Package ipc frames normalized word sequences for a downstream consumer.
//
// Wire format: each frame is a 4-byte big-endian payload length followed by
// a msgpack payload. A word sequence is sent as one or more "raw_words"
// frames with consecutive Seq numbers; the last one has IsLast set.
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/resdump/rawdata"
	"github.com/pithecene-io/resdump/types"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
	// MaxWordsPerFrame keeps a frame under MaxPayloadSize: a msgpack uint64
	// takes at most 9 bytes.
	MaxWordsPerFrame = 1 << 20
)

// WordsType is the type discriminant for word sequence frames.
const WordsType = "raw_words"

// FrameErrorKind classifies frame errors.
type FrameErrorKind int

const (
	// FrameErrorPartial indicates a truncated or incomplete frame or sequence.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge indicates a frame exceeding MaxFrameSize.
	FrameErrorTooLarge
	// FrameErrorDecode indicates a msgpack decoding error or unknown frame type.
	FrameErrorDecode
	// FrameErrorSequence indicates out-of-order or mismatched frames.
	FrameErrorSequence
)

// FrameError represents a frame encoding or decoding error.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the stream cannot be resynchronized after this error.
// Partial and oversized frames leave the reader mid-frame.
func (e *FrameError) IsFatal() bool {
	return e.Kind == FrameErrorPartial || e.Kind == FrameErrorTooLarge
}

// IsFatalFrameError returns true if the error is a fatal frame error.
func IsFatalFrameError(err error) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.IsFatal()
	}
	return false
}

// WordsFrame is one slice of a word sequence on the wire.
type WordsFrame struct {
	Type            string   `msgpack:"type"`
	ContractVersion string   `msgpack:"contract_version"`
	Source          string   `msgpack:"source"`
	Kind            string   `msgpack:"kind"`
	Width           int      `msgpack:"width"`
	Seq             int64    `msgpack:"seq"`
	IsLast          bool     `msgpack:"is_last"`
	Words           []uint64 `msgpack:"words"`
}

// FrameEncoder writes length-prefixed msgpack frames to a stream.
type FrameEncoder struct {
	writer io.Writer
}

// NewFrameEncoder creates a new frame encoder.
func NewFrameEncoder(w io.Writer) *FrameEncoder {
	return &FrameEncoder{writer: w}
}

// WriteFrame writes one payload with its length prefix.
func (e *FrameEncoder) WriteFrame(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := e.writer.Write(lengthBuf[:]); err != nil {
		return err
	}
	_, err := e.writer.Write(payload)
	return err
}

// WriteWords writes w as a run of WordsFrames of at most MaxWordsPerFrame
// words each. An empty sequence is sent as a single empty last frame.
func (e *FrameEncoder) WriteWords(w *rawdata.Words) error {
	values := w.Values
	var seq int64
	for {
		n := min(len(values), MaxWordsPerFrame)
		frame := WordsFrame{
			Type:            WordsType,
			ContractVersion: types.ContractVersion,
			Source:          w.Source,
			Kind:            w.Kind.String(),
			Width:           w.Width,
			Seq:             seq,
			IsLast:          n == len(values),
			Words:           values[:n],
		}
		payload, err := msgpack.Marshal(&frame)
		if err != nil {
			return &FrameError{Kind: FrameErrorDecode, Msg: "failed to encode words frame", Err: err}
		}
		if err := e.WriteFrame(payload); err != nil {
			return err
		}
		if frame.IsLast {
			return nil
		}
		values = values[n:]
		seq++
	}
}

// FrameDecoder decodes length-prefixed msgpack frames from a stream.
type FrameDecoder struct {
	reader io.Reader
}

// NewFrameDecoder creates a new frame decoder.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: r}
}

// ReadFrame reads a single frame from the stream.
// Returns the raw payload bytes (msgpack-encoded).
//
// Errors:
//   - io.EOF: stream ended cleanly (no more frames)
//   - *FrameError with Kind=FrameErrorPartial: incomplete frame (fatal)
//   - *FrameError with Kind=FrameErrorTooLarge: frame exceeds limit (fatal)
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &FrameError{
			Kind: FrameErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	_, err = io.ReadFull(d.reader, payload)
	if err != nil {
		return nil, &FrameError{
			Kind: FrameErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return payload, nil
}

// DecodeWordsFrame decodes a payload as a WordsFrame.
func DecodeWordsFrame(payload []byte) (*WordsFrame, error) {
	var frame WordsFrame
	if err := msgpack.Unmarshal(payload, &frame); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode words frame",
			Err:  err,
		}
	}
	if frame.Type != WordsType {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  fmt.Sprintf("unexpected frame type %q", frame.Type),
		}
	}
	return &frame, nil
}

// ReadWords reads frames until one marked IsLast and reassembles the word
// sequence. Returns io.EOF if the stream ends before any frame.
func (d *FrameDecoder) ReadWords() (*rawdata.Words, error) {
	var out *rawdata.Words
	var seq int64
	for {
		payload, err := d.ReadFrame()
		if err != nil {
			if err == io.EOF && out != nil {
				return nil, &FrameError{
					Kind: FrameErrorPartial,
					Msg:  fmt.Sprintf("stream ended after frame %d without last frame", seq-1),
				}
			}
			return nil, err
		}

		frame, err := DecodeWordsFrame(payload)
		if err != nil {
			return nil, err
		}
		if frame.Seq != seq {
			return nil, &FrameError{
				Kind: FrameErrorSequence,
				Msg:  fmt.Sprintf("frame seq %d, expected %d", frame.Seq, seq),
			}
		}

		if out == nil {
			kind, err := rawdata.ParseKind(frame.Kind)
			if err != nil {
				return nil, &FrameError{Kind: FrameErrorDecode, Msg: "invalid kind", Err: err}
			}
			out = &rawdata.Words{
				Source: frame.Source,
				Kind:   kind,
				Width:  frame.Width,
				Values: make([]uint64, 0, len(frame.Words)),
			}
		} else if frame.Source != out.Source || frame.Width != out.Width || frame.Kind != out.Kind.String() {
			return nil, &FrameError{
				Kind: FrameErrorSequence,
				Msg:  fmt.Sprintf("frame %d belongs to a different sequence", frame.Seq),
			}
		}

		out.Values = append(out.Values, frame.Words...)
		if frame.IsLast {
			return out, nil
		}
		seq++
	}
}
