package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/resdump/lode"
)

// HistoryModel lists stored normalizations, newest first.
type HistoryModel struct {
	records  []lode.WordsRecord
	cursor   int
	width    int
	height   int
	quitting bool
}

// NewHistoryModel creates a list view for data, which must be
// []lode.WordsRecord.
func NewHistoryModel(data any) (HistoryModel, error) {
	records, ok := data.([]lode.WordsRecord)
	if !ok {
		return HistoryModel{}, fmt.Errorf("history view needs []lode.WordsRecord, got %T", data)
	}
	return HistoryModel{records: records, width: defaultWidth, height: defaultHeight}, nil
}

// Init implements tea.Model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.cursor = max(0, m.cursor-1)
		case key.Matches(msg, keys.Down):
			m.cursor = max(0, min(len(m.records)-1, m.cursor+1))
		case key.Matches(msg, keys.Top):
			m.cursor = 0
		case key.Matches(msg, keys.Bottom):
			m.cursor = max(0, len(m.records)-1)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Stored dumps (%d)", len(m.records))))
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		b.WriteString(OffsetStyle.Render("(no results)"))
		b.WriteString("\n")
	}

	visible := max(1, m.height-chromeLines-5)
	start := max(0, m.cursor-visible+1)
	for i := start; i < min(len(m.records), start+visible); i++ {
		r := m.records[i]
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%-20s %s %-10s %6d words  %s\n",
			marker,
			r.StoredAt,
			KindStyle(r.Kind).Render(fmt.Sprintf("%-10s", r.Kind)),
			r.Device,
			r.WordCount,
			r.Source)
	}

	if len(m.records) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(m.records[m.cursor]))
	}

	b.WriteString(helpLine(keys.Up, keys.Down, keys.Quit))
	return b.String()
}

func (m HistoryModel) renderDetail(r lode.WordsRecord) string {
	var b strings.Builder
	fields := []struct{ label, value string }{
		{"Path:", r.Path()},
		{"Width:", fmt.Sprintf("%d", r.Width)},
		{"Digest:", r.Digest},
		{"Record:", r.RecordID},
	}
	for _, f := range fields {
		b.WriteString(LabelStyle.Render(f.label))
		b.WriteString(" ")
		b.WriteString(ValueStyle.Render(f.value))
		b.WriteString("\n")
	}
	return b.String()
}
