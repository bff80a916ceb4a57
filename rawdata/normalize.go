package rawdata

import (
	"fmt"

	"github.com/pithecene-io/resdump/log"
	"github.com/pithecene-io/resdump/metrics"
)

// Words is the normalized, ordered word sequence of one dump.
type Words struct {
	// Source is the dump name.
	Source string `json:"source" yaml:"source"`
	// Kind is the encoding the dump was classified as.
	Kind Kind `json:"kind" yaml:"kind"`
	// Width is the bit width of every word in Values.
	Width int `json:"width" yaml:"width"`
	// Values are the words in dump order.
	Values []uint64 `json:"words" yaml:"words"`
}

// Len returns the number of words.
func (w *Words) Len() int { return len(w.Values) }

// Hex returns word i formatted with FormatWord.
func (w *Words) Hex(i int) string { return FormatWord(w.Values[i], w.Width) }

// FormatWord renders v as 0x-prefixed hex zero-padded to width bits.
func FormatWord(v uint64, width int) string {
	digits := max((width+3)/4, 1)
	return fmt.Sprintf("0x%0*x", digits, v)
}

// Options configures a Normalizer.
type Options struct {
	// ChunkSize is the binary word size in bytes (default 4).
	ChunkSize int
	// AllowVariableWidth permits a ChunkSize other than WordSize, producing
	// binary words whose width differs from the structured and text paths.
	AllowVariableWidth bool
	// MaxSize bounds the bytes read from one source (default DefaultMaxSize).
	MaxSize int64
	// Logger receives classification and extraction entries (optional).
	Logger *log.Logger
	// Metrics receives per-dump counters (optional).
	Metrics *metrics.Collector
}

// DefaultOptions returns options producing uniform 32-bit words.
func DefaultOptions() Options {
	return Options{
		ChunkSize: WordSize,
		MaxSize:   DefaultMaxSize,
	}
}

// Validate checks the options for consistency.
func (o Options) Validate() error {
	if o.ChunkSize < 1 || o.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d outside 1..%d", ErrInvalidChunkSize, o.ChunkSize, MaxChunkSize)
	}
	if o.ChunkSize != WordSize && !o.AllowVariableWidth {
		return fmt.Errorf("%w: %d bytes gives %d-bit binary words but other encodings use %d-bit words; enable variable width to allow it",
			ErrInvalidChunkSize, o.ChunkSize, o.ChunkSize*8, WordSize*8)
	}
	if o.MaxSize < 0 {
		return fmt.Errorf("max size must be >= 0, got %d", o.MaxSize)
	}
	return nil
}

// Normalizer classifies dumps and dispatches them to one extractor.
// It holds no per-dump state and is safe for concurrent use on distinct
// sources.
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a Normalizer. Zero ChunkSize and MaxSize take their
// defaults.
func NewNormalizer(opts Options) (*Normalizer, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = WordSize
	}
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{opts: opts}, nil
}

// MaxSize returns the size limit applied to every source.
func (n *Normalizer) MaxSize() int64 { return n.opts.MaxSize }

// Classify classifies src under the normalizer's size limit without
// extracting words.
func (n *Normalizer) Classify(src Source) (Kind, error) {
	return classify(src, n.opts.MaxSize)
}

// Normalize classifies src exactly once and returns the output of the one
// extractor matching its kind. There is no partial result: on error the
// returned Words is nil.
func (n *Normalizer) Normalize(src Source) (*Words, error) {
	logger := n.opts.Logger.With(map[string]any{"source": src.Name()})

	kind, err := classify(src, n.opts.MaxSize)
	if err != nil {
		n.opts.Metrics.IncDumpFailed()
		logger.Error("classification failed", map[string]any{"error": err.Error()})
		return nil, err
	}
	logger.Debug("dump classified", map[string]any{"kind": kind.String()})

	var values []uint64
	width := WordSize * 8
	switch kind {
	case KindBinary:
		values, err = ExtractBinary(src, n.opts.ChunkSize)
		width = n.opts.ChunkSize * 8
	case KindStructured:
		values, err = extractStructured(src, n.opts.MaxSize)
	case KindText:
		values, err = ExtractText(src)
	default:
		err = fmt.Errorf("unhandled dump kind %v", kind)
	}
	if err != nil {
		n.opts.Metrics.IncDumpFailed()
		logger.Error("extraction failed", map[string]any{"kind": kind.String(), "error": err.Error()})
		return nil, err
	}

	n.opts.Metrics.RecordNormalized(kind.String(), len(values))
	logger.Info("dump normalized", map[string]any{
		"kind":  kind.String(),
		"width": width,
		"words": len(values),
	})

	return &Words{
		Source: src.Name(),
		Kind:   kind,
		Width:  width,
		Values: values,
	}, nil
}

// Normalize runs a default Normalizer over src.
func Normalize(src Source) (*Words, error) {
	n, err := NewNormalizer(DefaultOptions())
	if err != nil {
		return nil, err
	}
	return n.Normalize(src)
}
