package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/resdump/cli/config"
	"github.com/pithecene-io/resdump/cli/render"
	"github.com/pithecene-io/resdump/cli/tui"
	"github.com/pithecene-io/resdump/lode"
	"github.com/pithecene-io/resdump/rawdata"
)

// HistoryRow summarizes one stored normalization.
type HistoryRow struct {
	StoredAt  string `json:"stored_at" yaml:"stored_at"`
	Device    string `json:"device" yaml:"device"`
	Source    string `json:"source" yaml:"source"`
	Kind      string `json:"kind" yaml:"kind"`
	Width     int    `json:"width" yaml:"width"`
	WordCount int    `json:"word_count" yaml:"word_count"`
	Digest    string `json:"digest" yaml:"digest"`
	RecordID  string `json:"record_id" yaml:"record_id"`
}

func historyRow(r lode.WordsRecord) HistoryRow {
	return HistoryRow{
		StoredAt:  r.StoredAt,
		Device:    r.Device,
		Source:    r.Source,
		Kind:      r.Kind,
		Width:     r.Width,
		WordCount: r.WordCount,
		Digest:    r.Digest,
		RecordID:  r.RecordID,
	}
}

// HistoryCommand returns the history command.
// It lists stored normalizations, most recent first. It never writes.
func HistoryCommand() *cli.Command {
	var flags []cli.Flag
	for _, f := range storageFlags() {
		if f.Names()[0] != "store" {
			flags = append(flags, f)
		}
	}
	return &cli.Command{
		Name:  "history",
		Usage: "List stored word sequences, most recent first",
		Flags: concatFlags(
			ReadOnlyFlags(),
			[]cli.Flag{
				ConfigFlag,
				DeviceFlag,
				&cli.StringFlag{
					Name:  "kind",
					Usage: "Only records of this kind: binary, structured, text",
				},
				&cli.StringFlag{
					Name:  "source",
					Usage: "Only records of this dump source",
				},
				&cli.IntFlag{
					Name:  "limit",
					Usage: "Maximum records to list (0 = all)",
					Value: 20,
				},
				&cli.BoolFlag{
					Name:  "latest",
					Usage: "Show the words of the most recent matching record",
				},
			},
			flags,
		),
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	if c.Int("limit") < 0 {
		return cli.Exit(fmt.Sprintf("--limit must be >= 0, got %d", c.Int("limit")), exitInputError)
	}
	if kind := c.String("kind"); kind != "" {
		if _, err := rawdata.ParseKind(kind); err != nil {
			return cli.Exit(err.Error(), exitInputError)
		}
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	sc, err := parseStorageConfigWithPrecedence(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitInputError)
	}

	ctx := withContext(c.Context)
	ds, err := openDataset(ctx, sc)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open storage: %v", err), exitStorageError)
	}

	filter := lode.Filter{
		Device: resolveString(c, "device", configVal(cfg, func(c *config.Config) string { return c.Device })),
		Kind:   c.String("kind"),
		Source: c.String("source"),
	}

	if c.Bool("latest") {
		rec, err := lode.LatestWords(ctx, ds, filter)
		if errors.Is(err, lode.ErrNoWordsFound) {
			return cli.Exit(err.Error(), exitInputError)
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to read history: %v", err), exitStorageError)
		}
		words, err := rec.ToWords()
		if err != nil {
			return cli.Exit(fmt.Sprintf("corrupt stored record %s: %v", rec.RecordID, err), exitStorageError)
		}
		return emitWords(c, r, words)
	}

	records, err := lode.History(ctx, ds, filter, c.Int("limit"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read history: %v", err), exitStorageError)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewHistory, records)
	}

	rows := make([]HistoryRow, len(records))
	for i, rec := range records {
		rows[i] = historyRow(rec)
	}
	return r.Render(rows)
}
