package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/resdump/adapter"
	"github.com/pithecene-io/resdump/adapter/redis"
	"github.com/pithecene-io/resdump/adapter/webhook"
	"github.com/pithecene-io/resdump/cli/config"
	"github.com/pithecene-io/resdump/lode"
	"github.com/pithecene-io/resdump/log"
	"github.com/pithecene-io/resdump/metrics"
	"github.com/pithecene-io/resdump/rawdata"
)

// normalizerOptions merges extraction flags over the config file.
func normalizerOptions(c *cli.Context, cfg *config.Config) (rawdata.Options, error) {
	opts := cfg.NormalizerOptions()
	if size := resolveInt(c, "chunk-size", cfg.Binary.ChunkSize); size != 0 {
		opts.ChunkSize = size
	}
	opts.AllowVariableWidth = resolveBool(c, "allow-variable-width", cfg.Binary.AllowVariableWidth)
	if c.IsSet("max-size") {
		size, err := config.ParseByteSize(c.String("max-size"))
		if err != nil {
			return rawdata.Options{}, fmt.Errorf("invalid --max-size: %w", err)
		}
		opts.MaxSize = int64(size)
	}
	return opts, opts.Validate()
}

// storageChoice is the resolved storage configuration.
type storageChoice struct {
	backend     string // "fs" or "s3"
	path        string // fs: directory, s3: bucket/prefix
	dataset     string
	region      string
	endpoint    string
	s3PathStyle bool
}

// parseStorageConfigWithPrecedence resolves storage flags over the config file.
func parseStorageConfigWithPrecedence(c *cli.Context, cfg *config.Config) (storageChoice, error) {
	sc := storageChoice{
		backend:     resolveString(c, "storage-backend", configVal(cfg, func(c *config.Config) string { return c.Storage.Backend })),
		path:        resolveString(c, "storage-path", configVal(cfg, func(c *config.Config) string { return c.Storage.Path })),
		dataset:     resolveString(c, "storage-dataset", configVal(cfg, func(c *config.Config) string { return c.Storage.Dataset })),
		region:      resolveString(c, "storage-region", configVal(cfg, func(c *config.Config) string { return c.Storage.Region })),
		endpoint:    resolveString(c, "storage-endpoint", configVal(cfg, func(c *config.Config) string { return c.Storage.Endpoint })),
		s3PathStyle: resolveBool(c, "storage-s3-path-style", configVal(cfg, func(c *config.Config) bool { return c.Storage.S3PathStyle })),
	}
	switch sc.backend {
	case "fs", "s3":
	default:
		return sc, fmt.Errorf("unknown --storage-backend %q (must be fs or s3)", sc.backend)
	}
	if sc.path == "" {
		return sc, errors.New("--storage-path is required when storing (flag or storage.path in config)")
	}
	return sc, nil
}

func (sc storageChoice) s3Config() lode.S3Config {
	bucket, prefix := lode.ParseS3Path(sc.path)
	return lode.S3Config{
		Bucket:       bucket,
		Prefix:       prefix,
		Region:       sc.region,
		Endpoint:     sc.endpoint,
		UsePathStyle: sc.s3PathStyle,
	}
}

// openStore opens a WordStore for the resolved storage choice.
func openStore(ctx context.Context, sc storageChoice, device string, opts ...lode.Option) (*lode.WordStore, error) {
	cfg := lode.Config{Dataset: sc.dataset, Device: device}
	if sc.backend == "s3" {
		return lode.NewWordStoreS3(ctx, cfg, sc.s3Config(), opts...)
	}
	if err := os.MkdirAll(sc.path, 0o755); err != nil {
		return nil, lode.WrapInitError(err, sc.path)
	}
	return lode.NewWordStoreFS(cfg, sc.path, opts...)
}

// openDataset opens the dataset for read-only queries.
func openDataset(ctx context.Context, sc storageChoice) (lode.Dataset, error) {
	if sc.backend == "s3" {
		factory, err := lode.NewS3Factory(ctx, sc.s3Config())
		if err != nil {
			return nil, err
		}
		return lode.OpenDataset(sc.dataset, factory)
	}
	return lode.OpenDatasetFS(sc.dataset, sc.path)
}

// adapterChoice is the resolved notification configuration.
type adapterChoice struct {
	adapterType  string
	url          string
	channel      string
	stream       string
	streamMaxLen int64
	headers      map[string]string
	timeout      time.Duration
	retries      int
}

// parseAdapterConfigWithPrecedence resolves adapter flags over the config
// file. Config headers are merged under CLI headers.
func parseAdapterConfigWithPrecedence(c *cli.Context, cfg *config.Config, adapterType string) (adapterChoice, error) {
	ac := adapterChoice{
		adapterType:  adapterType,
		url:          resolveString(c, "adapter-url", configVal(cfg, func(c *config.Config) string { return c.Adapter.URL })),
		channel:      resolveString(c, "adapter-channel", configVal(cfg, func(c *config.Config) string { return c.Adapter.Channel })),
		stream:       resolveString(c, "adapter-stream", configVal(cfg, func(c *config.Config) string { return c.Adapter.Stream })),
		streamMaxLen: resolveInt64(c, "adapter-stream-max-len", configVal(cfg, func(c *config.Config) int64 { return c.Adapter.StreamMaxLen })),
		timeout:      resolveDuration(c, "adapter-timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.Adapter.Timeout.Duration })),
		retries:      c.Int("adapter-retries"),
		headers:      make(map[string]string),
	}

	if !c.IsSet("adapter-retries") {
		if r := configVal(cfg, func(c *config.Config) *int { return c.Adapter.Retries }); r != nil {
			ac.retries = *r
		}
	}

	for k, v := range configVal(cfg, func(c *config.Config) map[string]string { return c.Adapter.Headers }) {
		ac.headers[k] = v
	}
	cliHeaders, err := parseKeyValues("adapter-header", c.StringSlice("adapter-header"))
	if err != nil {
		return ac, err
	}
	for k, v := range cliHeaders {
		ac.headers[k] = v
	}

	switch adapterType {
	case "webhook":
		if ac.url == "" {
			return ac, errors.New("--adapter-url is required when --adapter=webhook")
		}
	case "redis":
		if ac.url == "" {
			return ac, errors.New("--adapter-url is required when --adapter=redis")
		}
	default:
		return ac, fmt.Errorf("unknown adapter type %q (must be webhook or redis)", adapterType)
	}
	return ac, nil
}

func buildAdapter(ac adapterChoice) (adapter.Adapter, error) {
	switch ac.adapterType {
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     ac.url,
			Headers: ac.headers,
			Timeout: ac.timeout,
			Retries: ac.retries,
		})
	case "redis":
		return redis.New(redis.Config{
			URL:          ac.url,
			Channel:      ac.channel,
			Stream:       ac.stream,
			StreamMaxLen: ac.streamMaxLen,
			Timeout:      ac.timeout,
			Retries:      ac.retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", ac.adapterType)
	}
}

// pipeline normalizes dumps and hands the words to storage and
// notification when configured.
type pipeline struct {
	normalizer *rawdata.Normalizer
	store      *lode.WordStore
	notifier   adapter.Adapter
	metrics    *metrics.Collector
	logger     *log.Logger
	device     string
	now        func() time.Time
}

// buildPipeline wires the normalizer, store and adapter selected by flags
// and config. Errors are cli.Exit errors carrying the exit code.
func buildPipeline(ctx context.Context, c *cli.Context, cfg *config.Config, device string) (*pipeline, error) {
	logger, err := newLogger(c, cfg, log.Meta{Device: device})
	if err != nil {
		return nil, err
	}

	opts, err := normalizerOptions(c, cfg)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitInputError)
	}

	p := &pipeline{logger: logger, device: device, now: time.Now}

	storing := c.Bool("store")
	var sc storageChoice
	if storing {
		if sc, err = parseStorageConfigWithPrecedence(c, cfg); err != nil {
			return nil, cli.Exit(err.Error(), exitInputError)
		}
	}

	adapterType := resolveString(c, "adapter", configVal(cfg, func(c *config.Config) string { return c.Adapter.Type }))
	var ac adapterChoice
	if adapterType != "" {
		if ac, err = parseAdapterConfigWithPrecedence(c, cfg, adapterType); err != nil {
			return nil, cli.Exit(err.Error(), exitInputError)
		}
	}

	p.metrics = metrics.NewCollector(sc.backend, adapterType)
	opts.Logger = logger
	opts.Metrics = p.metrics
	if p.normalizer, err = rawdata.NewNormalizer(opts); err != nil {
		return nil, cli.Exit(err.Error(), exitInputError)
	}

	if storing {
		p.store, err = openStore(ctx, sc, device, lode.WithLogger(logger), lode.WithMetrics(p.metrics))
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("failed to open storage: %v", err), exitStorageError)
		}
	}
	if adapterType != "" {
		if p.notifier, err = buildAdapter(ac); err != nil {
			return nil, cli.Exit(fmt.Sprintf("failed to create adapter: %v", err), exitInputError)
		}
	}
	return p, nil
}

// process normalizes src, then stores and publishes the result.
func (p *pipeline) process(ctx context.Context, src rawdata.Source) (*rawdata.Words, error) {
	start := p.now()
	words, err := p.normalizer.Normalize(src)
	if err != nil {
		p.logger.Sugar().Warnf("normalize %s: %v", src.Name(), err)
		return nil, cli.Exit(err.Error(), exitInputError)
	}
	p.logger.Sugar().Infof("normalized %s as %s: %d words", words.Source, words.Kind, words.Len())

	event := adapter.NewDumpNormalizedEvent(words, p.device, start, p.now().Sub(start))

	if p.store != nil {
		rec, err := p.store.Write(ctx, words, p.device)
		if err != nil {
			msg := fmt.Sprintf("failed to store words: %v", err)
			if lode.IsTransient(err) {
				msg += " (transient, retry may succeed)"
			}
			return words, cli.Exit(msg, exitStorageError)
		}
		event.Digest = rec.Digest
		event.StoragePath = rec.Path()
	}

	if p.notifier != nil {
		if err := p.notifier.Publish(ctx, event); err != nil {
			p.metrics.IncPublishFailure()
			p.logger.Error("publish failed", map[string]any{"source": words.Source, "error": err.Error()})
			return words, cli.Exit(fmt.Sprintf("failed to publish event: %v", err), exitStorageError)
		}
		p.metrics.IncPublishSuccess()
	}
	return words, nil
}

func (p *pipeline) Close() error {
	var errs []error
	if p.notifier != nil {
		errs = append(errs, p.notifier.Close())
	}
	if p.store != nil {
		errs = append(errs, p.store.Close())
	}
	_ = p.logger.Sync()
	return errors.Join(errs...)
}
