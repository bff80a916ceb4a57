package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/resdump/cli/config"
	"github.com/pithecene-io/resdump/cli/render"
	"github.com/pithecene-io/resdump/dump"
	"github.com/pithecene-io/resdump/rawdata"
)

// FetchCommand returns the fetch command.
// It acquires a captured dump through the segment menu and normalizes it.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Verify a dump request against the segment menu, fetch it and normalize it",
		Flags: concatFlags(
			ReadOnlyFlags(),
			[]cli.Flag{
				ConfigFlag,
				LogLevelFlag,
				&cli.StringFlag{
					Name:  "menu",
					Usage: "Path to the YAML segment menu",
				},
				&cli.StringFlag{
					Name:  "dir",
					Usage: "Directory of captured dumps (<dir>/<device>/<segment>[.bin|.json|.txt])",
				},
				&cli.StringSliceFlag{
					Name:  "arg",
					Usage: "Request argument as key=value, e.g. device=mlx5_0 (repeatable)",
				},
				&cli.StringFlag{
					Name:  "request",
					Usage: "Path to a YAML request file (alternative to --arg)",
				},
				&cli.BoolFlag{
					Name:  "metrics",
					Usage: "Render run metrics after the word sequence",
				},
			},
			normalizerFlags(),
			storageFlags(),
			adapterFlags(),
		),
		Action: fetchAction,
	}
}

func fetchAction(c *cli.Context) error {
	req, err := parseRequest(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	menuPath := resolveString(c, "menu", configVal(cfg, func(c *config.Config) string { return c.Dump.Menu }))
	dir := resolveString(c, "dir", configVal(cfg, func(c *config.Config) string { return c.Dump.Dir }))
	if menuPath == "" {
		return cli.Exit("--menu is required (flag or dump.menu in config)", exitInputError)
	}
	if dir == "" {
		return cli.Exit("--dir is required (flag or dump.dir in config)", exitInputError)
	}

	ctx := withContext(c.Context)
	p, err := buildPipeline(ctx, c, cfg, req.Device)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	data, err := dump.Get(ctx, dump.MenuFileQuerier{Path: menuPath}, dump.DirFetcher{Root: dir}, req)
	if err != nil {
		p.logger.Error("dump acquisition failed", map[string]any{"segment": req.Segment, "error": err.Error()})
		return cli.Exit(err.Error(), exitInputError)
	}

	if req.Bin != "" {
		if err := os.WriteFile(req.Bin, data, 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("failed to write raw dump: %v", err), exitInputError)
		}
	}

	src := rawdata.BytesSource{Label: fmt.Sprintf("%s/%s", req.Device, req.Segment), Data: data}
	words, err := p.process(ctx, src)
	if words != nil {
		if rerr := emitWords(c, r, words); rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}

	if c.Bool("metrics") {
		return emitMetrics(c, r, p)
	}
	return nil
}

// parseRequest builds the request from --request or --arg values.
func parseRequest(c *cli.Context) (dump.Request, error) {
	path := c.String("request")
	args := c.StringSlice("arg")
	switch {
	case path != "" && len(args) > 0:
		return dump.Request{}, errors.New("--request and --arg are mutually exclusive")
	case path != "":
		return dump.LoadRequest(path)
	case len(args) == 0:
		return dump.Request{}, errors.New("a dump request is required (--arg key=value or --request file)")
	}

	kv, err := parseKeyValues("arg", args)
	if err != nil {
		return dump.Request{}, err
	}
	return dump.ParseArgs(kv)
}
