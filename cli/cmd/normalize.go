package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/resdump/cli/config"
	"github.com/pithecene-io/resdump/cli/render"
	"github.com/pithecene-io/resdump/cli/tui"
	"github.com/pithecene-io/resdump/iox"
	"github.com/pithecene-io/resdump/rawdata"
)

// stdinArg reads the dump from the app's input.
const stdinArg = "-"

// NormalizeCommand returns the normalize command.
// It converts one or more dump files into word sequences.
func NormalizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "normalize",
		Usage:     "Convert dumps (binary, JSON or text) into word sequences",
		ArgsUsage: "<dump>... (use - for stdin)",
		Flags: concatFlags(
			ReadOnlyFlags(),
			[]cli.Flag{
				ConfigFlag,
				LogLevelFlag,
				DeviceFlag,
				&cli.BoolFlag{
					Name:  "metrics",
					Usage: "Render run metrics after the word sequences",
				},
			},
			normalizerFlags(),
			storageFlags(),
			adapterFlags(),
		),
		Action: normalizeAction,
	}
}

func normalizeAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("normalize requires at least one dump path (or - for stdin)", exitInputError)
	}
	if c.Bool("tui") && c.NArg() > 1 {
		return cli.Exit("--tui views a single dump; pass one path", exitInputError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	device := resolveString(c, "device", configVal(cfg, func(c *config.Config) string { return c.Device }))

	ctx := withContext(c.Context)
	p, err := buildPipeline(ctx, c, cfg, device)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	for _, arg := range c.Args().Slice() {
		src, err := openSource(c, arg, p.normalizer.MaxSize())
		if err != nil {
			return cli.Exit(err.Error(), exitInputError)
		}
		words, err := p.process(ctx, src)
		if words != nil {
			if rerr := emitWords(c, r, words); rerr != nil {
				return rerr
			}
		}
		if err != nil {
			return err
		}
	}

	if c.Bool("metrics") {
		return emitMetrics(c, r, p)
	}
	return nil
}

// openSource maps a command argument to a dump source. Stdin is read
// eagerly, up to limit bytes, because sources must be re-openable.
func openSource(c *cli.Context, arg string, limit int64) (rawdata.Source, error) {
	if arg != stdinArg {
		return rawdata.FileSource{Path: arg}, nil
	}
	in := c.App.Reader
	if in == nil {
		return nil, fmt.Errorf("no stdin available")
	}
	data, err := iox.ReadAllLimit(in, limit)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return rawdata.BytesSource{Label: "<stdin>", Data: data}, nil
}

// emitWords renders words, or opens the word viewer with --tui.
func emitWords(c *cli.Context, r *render.Renderer, words *rawdata.Words) error {
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewWords, words)
	}
	return r.Render(words)
}

// emitMetrics renders the run metrics, or opens the metrics view with --tui.
func emitMetrics(c *cli.Context, r *render.Renderer, p *pipeline) error {
	snap := p.metrics.Snapshot()
	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewMetrics, snap)
	}
	return r.Render(snap)
}

// withContext returns ctx or background when the CLI context carries none.
func withContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
