// Package cmd provides CLI commands for the resdump binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Shared output flags.
var (
	// FormatFlag selects output format: json, table, yaml, msgpack.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml, msgpack",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for commands with a TUI view (normalize, fetch, history).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (normalize, fetch, history only)",
	}
)

// Shared configuration flags.
var (
	// ConfigFlag points at a YAML config file. Without it, resdump.yaml in
	// the working directory is used when present.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to YAML config file (default: ./resdump.yaml if present)",
		EnvVars: []string{"RESDUMP_CONFIG"},
	}

	// LogLevelFlag sets the log level for entries written to stderr.
	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level: debug, info, warn, error",
		Value:   "warn",
		EnvVars: []string{"RESDUMP_LOG_LEVEL"},
	}

	// DeviceFlag names the device a dump was taken from.
	DeviceFlag = &cli.StringFlag{
		Name:  "device",
		Usage: "Device identifier (PCI address or device name)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// normalizerFlags control word extraction.
func normalizerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Binary word size in bytes",
			Value: 4,
		},
		&cli.BoolFlag{
			Name:  "allow-variable-width",
			Usage: "Permit a binary chunk size other than 4 bytes",
		},
		&cli.StringFlag{
			Name:  "max-size",
			Usage: "Largest dump accepted, e.g. 64MiB (default 256MiB)",
		},
	}
}

// storageFlags control persisting normalized words.
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "store",
			Usage: "Persist normalized words to the dataset",
		},
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: fs or s3",
			Value: "fs",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-dataset",
			Usage: "Dataset name",
			Value: "resdump",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for S3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "Custom S3 endpoint, e.g. for MinIO",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Use path-style S3 addressing",
		},
	}
}

// adapterFlags control event notification.
func adapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Notify after each dump: webhook or redis",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook endpoint or redis://host:port URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.StringFlag{
			Name:  "adapter-stream",
			Usage: "Redis stream to append to instead of publishing",
		},
		&cli.Int64Flag{
			Name:  "adapter-stream-max-len",
			Usage: "Approximate redis stream length cap (0 = unbounded)",
		},
		&cli.StringSliceFlag{
			Name:  "adapter-header",
			Usage: "Webhook header as key=value (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-attempt notification timeout",
			Value: 10 * time.Second,
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Retries after the first notification attempt",
			Value: 3,
		},
	}
}

func concatFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
