package lode

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/resdump/log"
	"github.com/pithecene-io/resdump/metrics"
	"github.com/pithecene-io/resdump/rawdata"
)

// ErrNilWords is returned when Write is called without a word sequence.
var ErrNilWords = errors.New("no words to store")

// WordStore writes normalized word sequences to a Lode dataset.
// It is safe for concurrent use.
type WordStore struct {
	dataset lode.Dataset
	config  Config
	logger  *log.Logger
	metrics *metrics.Collector
	now     func() time.Time

	mu sync.Mutex // serializes dataset writes
}

// Option configures a WordStore.
type Option func(*WordStore)

// WithLogger sets the logger for write outcomes.
func WithLogger(l *log.Logger) Option {
	return func(s *WordStore) { s.logger = l }
}

// WithMetrics sets the collector for write counters.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *WordStore) { s.metrics = c }
}

// WithClock overrides the time source used for stored_at and the day partition.
func WithClock(now func() time.Time) Option {
	return func(s *WordStore) { s.now = now }
}

// NewWordStore creates a store over a custom factory.
// Use lode.NewMemoryFactory() for testing.
func NewWordStore(cfg Config, factory lode.StoreFactory, opts ...Option) (*WordStore, error) {
	cfg = cfg.withDefaults()
	ds, err := OpenDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, err
	}
	s := &WordStore{
		dataset: ds,
		config:  cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewWordStoreFS creates a store with filesystem storage rooted at root.
func NewWordStoreFS(cfg Config, root string, opts ...Option) (*WordStore, error) {
	return NewWordStore(cfg, lode.NewFSFactory(root), opts...)
}

// NewWordStoreS3 creates a store with S3 storage.
func NewWordStoreS3(ctx context.Context, cfg Config, s3cfg S3Config, opts ...Option) (*WordStore, error) {
	factory, err := NewS3Factory(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	return NewWordStore(cfg, factory, opts...)
}

// Dataset returns the underlying dataset for queries.
func (s *WordStore) Dataset() lode.Dataset {
	return s.dataset
}

// Write persists w under the device partition. An empty device uses the
// configured default. The stored record is returned on success.
func (s *WordStore) Write(ctx context.Context, w *rawdata.Words, device string) (WordsRecord, error) {
	if w == nil {
		return WordsRecord{}, ErrNilWords
	}
	if device == "" {
		device = s.config.Device
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newWordsRecord(w, device, s.now())
	if _, err := s.dataset.Write(ctx, []any{rec.toMap()}, lode.Metadata{}); err != nil {
		s.metrics.IncStoreWriteFailure()
		werr := WrapWriteError(err, rec.Path())
		s.logger.Error("store write failed", map[string]any{
			"dataset":   s.config.Dataset,
			"path":      rec.Path(),
			"transient": IsTransient(werr),
			"error":     werr.Error(),
		})
		return WordsRecord{}, werr
	}

	s.metrics.IncStoreWriteSuccess()
	s.logger.Debug("stored words", map[string]any{
		"dataset":    s.config.Dataset,
		"path":       rec.Path(),
		"word_count": rec.WordCount,
		"digest":     rec.Digest,
	})
	return rec, nil
}

// Close releases store resources.
func (s *WordStore) Close() error {
	return nil
}
