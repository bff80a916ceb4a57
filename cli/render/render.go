// Package render provides centralized output rendering for the resdump CLI.
//
// Format selection rules:
//   - If output is a TTY, default to table
//   - If output is not a TTY, default to json
//   - --format flag always overrides defaults
//   - Invalid formats are errors
//
// The msgpack format writes length-prefixed ipc frames for consumption over
// a pipe. --no-color affects table output only.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/resdump/cli/tui"
	"github.com/pithecene-io/resdump/ipc"
	"github.com/pithecene-io/resdump/rawdata"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatTable   Format = "table"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// WordsPerRow is the number of words per table row.
const WordsPerRow = 8

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "table":
		return FormatTable, nil
	case "yaml":
		return FormatYAML, nil
	case "msgpack":
		return FormatMsgpack, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, yaml, or msgpack)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
	// interactive is set when stdout is a terminal that can host a TUI.
	interactive bool
}

// NewRenderer creates a renderer from CLI context.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	if format == "" {
		if isTTY(os.Stdout) {
			format = FormatTable
		} else {
			format = FormatJSON
		}
	}

	tty := isTTY(os.Stdout)
	return &Renderer{
		format:      format,
		noColor:     c.Bool("no-color") || !tty,
		out:         c.App.Writer,
		interactive: tty,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{
		format:  format,
		noColor: noColor,
		out:     out,
	}
}

// Format returns the selected format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(data)
	case FormatTable:
		return r.renderTable(data)
	case FormatYAML:
		return r.renderYAML(data)
	case FormatMsgpack:
		return r.renderMsgpack(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI runs the interactive view for viewType.
// TUI is opt-in and read-only. Without a terminal the first screen is
// written once to the output instead.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	if !r.interactive {
		screen, err := tui.RenderStatic(viewType, data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.out, screen)
		return err
	}
	return tui.Run(viewType, data)
}

func (r *Renderer) renderJSON(data any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (r *Renderer) renderYAML(data any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// renderMsgpack writes word sequences as WordsFrames and anything else as
// a single frame holding the msgpack-encoded value.
func (r *Renderer) renderMsgpack(data any) error {
	enc := ipc.NewFrameEncoder(r.out)
	if w, ok := data.(*rawdata.Words); ok {
		return enc.WriteWords(w)
	}
	payload, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("msgpack encode: %w", err)
	}
	return enc.WriteFrame(payload)
}

func (r *Renderer) header(s string) string {
	if r.noColor {
		return s
	}
	return lipgloss.NewStyle().Bold(true).Render(s)
}

func (r *Renderer) renderTable(data any) error {
	if w, ok := data.(*rawdata.Words); ok {
		return r.renderWordsTable(w)
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Slice {
		return r.renderSliceTable(v)
	}
	return r.renderStructTable(data)
}

// renderWordsTable prints a summary line and a hex grid indexed by the
// first word of each row.
func (r *Renderer) renderWordsTable(words *rawdata.Words) error {
	fmt.Fprintf(r.out, "%s  %s  %d-bit  %d words\n",
		r.header(words.Source), words.Kind, words.Width, words.Len())
	if words.Len() == 0 {
		fmt.Fprintln(r.out, "(no words)")
		return nil
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 1, ' ', 0)
	for start := 0; start < words.Len(); start += WordsPerRow {
		end := min(start+WordsPerRow, words.Len())
		cells := make([]string, 0, end-start+1)
		cells = append(cells, fmt.Sprintf("%08d:", start))
		for i := start; i < end; i++ {
			cells = append(cells, words.Hex(i))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// column is one table column: a struct field index or a map key.
type column struct {
	name  string
	field int
}

// columnsOf derives table columns from a struct or string-keyed map value.
// Struct columns follow field order and json tag names, map columns are
// sorted keys.
func columnsOf(v reflect.Value) []column {
	v = deref(v)
	var cols []column
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			if f := t.Field(i); f.IsExported() {
				cols = append(cols, column{name: fieldName(f), field: i})
			}
		}
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			if k.Kind() == reflect.String {
				keys = append(keys, k.String())
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			cols = append(cols, column{name: k, field: -1})
		}
	}
	return cols
}

// cell returns the formatted value of col in v.
func cell(v reflect.Value, col column) string {
	v = deref(v)
	switch v.Kind() {
	case reflect.Struct:
		return formatValue(v.Field(col.field))
	case reflect.Map:
		return formatValue(v.MapIndex(reflect.ValueOf(col.name).Convert(v.Type().Key())))
	}
	return ""
}

func (r *Renderer) renderSliceTable(v reflect.Value) error {
	if v.Len() == 0 {
		fmt.Fprintln(r.out, "(no results)")
		return nil
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	cols := columnsOf(v.Index(0))
	row := make([]string, len(cols))
	for i, col := range cols {
		row[i] = r.header(col.name)
	}
	fmt.Fprintln(tw, strings.Join(row, "\t"))

	for n := range v.Len() {
		for i, col := range cols {
			row[i] = cell(v.Index(n), col)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// renderStructTable prints one "name: value" line per column.
func (r *Renderer) renderStructTable(data any) error {
	v := reflect.ValueOf(data)
	cols := columnsOf(v)
	if len(cols) == 0 {
		_, err := fmt.Fprintf(r.out, "%v\n", data)
		return err
	}

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, col := range cols {
		fmt.Fprintf(tw, "%s:\t%s\n", col.name, cell(v, col))
	}
	return tw.Flush()
}

func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return strings.ToLower(f.Name)
}

// formatValue renders a scalar cell. Times print as RFC 3339 and
// collections collapse to their size.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if k := v.Kind(); k == reflect.Ptr || k == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch x := v.Interface().(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		return "{...}"
	default:
		return fmt.Sprint(v.Interface())
	}
}

// isTTY returns true if the file is a terminal.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
