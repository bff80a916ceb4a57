package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/resdump/rawdata"
)

// Config represents a resdump.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Device   string        `yaml:"device"`
	LogLevel string        `yaml:"log_level"`
	MaxSize  ByteSize      `yaml:"max_size"`
	Binary   BinaryConfig  `yaml:"binary"`
	Storage  StorageConfig `yaml:"storage"`
	Adapter  AdapterConfig `yaml:"adapter"`
	Dump     DumpConfig    `yaml:"dump"`
}

// BinaryConfig holds binary extraction defaults.
type BinaryConfig struct {
	ChunkSize          int  `yaml:"chunk_size"`
	AllowVariableWidth bool `yaml:"allow_variable_width"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type         string            `yaml:"type"`
	URL          string            `yaml:"url"`
	Channel      string            `yaml:"channel,omitempty"`
	Stream       string            `yaml:"stream,omitempty"`
	StreamMaxLen int64             `yaml:"stream_max_len,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	Timeout      Duration          `yaml:"timeout,omitempty"`
	Retries      *int              `yaml:"retries,omitempty"`
}

// DumpConfig locates the menu and captured dumps used by fetch.
type DumpConfig struct {
	Menu string `yaml:"menu"`
	Dir  string `yaml:"dir"`
}

// Validate checks enumerated values. Empty values are allowed.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case "", "fs", "s3":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be fs or s3, got %q", c.Storage.Backend))
	}
	switch c.Adapter.Type {
	case "", "webhook", "redis":
	default:
		errs = append(errs, fmt.Errorf("adapter.type must be webhook or redis, got %q", c.Adapter.Type))
	}
	if c.Binary.ChunkSize < 0 || c.Binary.ChunkSize > rawdata.MaxChunkSize {
		errs = append(errs, fmt.Errorf("binary.chunk_size must be 1..%d, got %d", rawdata.MaxChunkSize, c.Binary.ChunkSize))
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		errs = append(errs, fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries))
	}
	return errors.Join(errs...)
}

// NormalizerOptions returns rawdata options carrying the config's binary
// and size settings. Unset values keep rawdata defaults.
func (c *Config) NormalizerOptions() rawdata.Options {
	opts := rawdata.DefaultOptions()
	if c.Binary.ChunkSize != 0 {
		opts.ChunkSize = c.Binary.ChunkSize
	}
	opts.AllowVariableWidth = c.Binary.AllowVariableWidth
	if c.MaxSize > 0 {
		opts.MaxSize = int64(c.MaxSize)
	}
	return opts
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ByteSize is a size in bytes written as a plain integer or with a
// KiB, MiB or GiB suffix.
type ByteSize int64

var byteUnits = []struct {
	suffix string
	scale  int64
}{
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"B", 1},
}

// ParseByteSize parses "4096", "64KiB" or "256MiB".
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	scale := int64(1)
	for _, u := range byteUnits {
		if rest, ok := strings.CutSuffix(s, u.suffix); ok {
			s, scale = strings.TrimSpace(rest), u.scale
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n > (1<<63-1)/scale {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return ByteSize(n * scale), nil
}

// UnmarshalYAML accepts an integer or a suffixed string.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
