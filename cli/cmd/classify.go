package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/resdump/cli/render"
	"github.com/pithecene-io/resdump/rawdata"
)

// ClassifyResult is one row of classify output.
type ClassifyResult struct {
	Source string `json:"source" yaml:"source"`
	Kind   string `json:"kind" yaml:"kind"`
}

// ClassifyCommand returns the classify command.
// It reports each dump's encoding without extracting words.
func ClassifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Report whether dumps are binary, structured or text",
		ArgsUsage: "<dump>... (use - for stdin)",
		Flags: concatFlags(
			ReadOnlyFlags(),
			[]cli.Flag{
				ConfigFlag,
				&cli.StringFlag{
					Name:  "max-size",
					Usage: "Largest dump accepted, e.g. 64MiB (default 256MiB)",
				},
			},
		),
		Action: classifyAction,
	}
}

func classifyAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for classify command", exitInputError)
	}
	if c.NArg() == 0 {
		return cli.Exit("classify requires at least one dump path (or - for stdin)", exitInputError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	opts, err := normalizerOptions(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}
	n, err := rawdata.NewNormalizer(opts)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	results := make([]ClassifyResult, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		src, err := openSource(c, arg, n.MaxSize())
		if err != nil {
			return cli.Exit(err.Error(), exitInputError)
		}
		kind, err := n.Classify(src)
		if err != nil {
			return cli.Exit(err.Error(), exitInputError)
		}
		results = append(results, ClassifyResult{Source: src.Name(), Kind: kind.String()})
	}
	return r.Render(results)
}
