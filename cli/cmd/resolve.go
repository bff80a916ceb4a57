package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/resdump/cli/config"
	"github.com/pithecene-io/resdump/log"
)

// Exit codes.
const (
	exitSuccess      = 0
	exitInputError   = 1
	exitStorageError = 2
)

// loadConfig loads --config, or ./resdump.yaml when present.
// A missing explicit file is an input error.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitInputError)
	}
	return cfg, nil
}

// newLogger builds the command logger on the app's error writer.
func newLogger(c *cli.Context, cfg *config.Config, meta log.Meta) (*log.Logger, error) {
	level, err := log.ParseLevel(resolveString(c, "log-level", configVal(cfg, func(c *config.Config) string { return c.LogLevel })))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitInputError)
	}
	return log.NewLoggerWithWriter(meta, level, c.App.ErrWriter), nil
}

// configVal reads a field from cfg, returning the zero value when cfg is nil.
func configVal[T any](cfg *config.Config, get func(*config.Config) T) T {
	if cfg == nil {
		var zero T
		return zero
	}
	return get(cfg)
}

// resolveString returns the flag value when set on the command line,
// else the config value when non-empty, else the flag default.
func resolveString(c *cli.Context, name, cfgVal string) string {
	if c.IsSet(name) || cfgVal == "" {
		return c.String(name)
	}
	return cfgVal
}

// resolveInt follows resolveString precedence; a zero config value is unset.
func resolveInt(c *cli.Context, name string, cfgVal int) int {
	if c.IsSet(name) || cfgVal == 0 {
		return c.Int(name)
	}
	return cfgVal
}

// resolveInt64 follows resolveString precedence; a zero config value is unset.
func resolveInt64(c *cli.Context, name string, cfgVal int64) int64 {
	if c.IsSet(name) || cfgVal == 0 {
		return c.Int64(name)
	}
	return cfgVal
}

// resolveBool returns the flag value when set, else the config value.
func resolveBool(c *cli.Context, name string, cfgVal bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return cfgVal || c.Bool(name)
}

// resolveDuration follows resolveString precedence; a zero config value is unset.
func resolveDuration(c *cli.Context, name string, cfgVal time.Duration) time.Duration {
	if c.IsSet(name) || cfgVal == 0 {
		return c.Duration(name)
	}
	return cfgVal
}

// parseKeyValues parses repeated key=value flag values.
func parseKeyValues(flagName string, values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, kv := range values {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --%s %q: expected key=value", flagName, kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
