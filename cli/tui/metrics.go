package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/resdump/metrics"
)

// MetricsModel shows a metrics snapshot as stat boxes.
type MetricsModel struct {
	snap     metrics.Snapshot
	quitting bool
}

// NewMetricsModel creates a stats view for data, which must be a
// metrics.Snapshot or *metrics.Snapshot.
func NewMetricsModel(data any) (MetricsModel, error) {
	switch s := data.(type) {
	case metrics.Snapshot:
		return MetricsModel{snap: s}, nil
	case *metrics.Snapshot:
		if s != nil {
			return MetricsModel{snap: *s}, nil
		}
	}
	return MetricsModel{}, fmt.Errorf("metrics view needs metrics.Snapshot, got %T", data)
}

// Init implements tea.Model.
func (m MetricsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m MetricsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m MetricsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Normalization Metrics"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Normalized", m.snap.DumpsNormalized, successColor),
		renderStatBox("Failed", m.snap.DumpsFailed, errorColor),
		renderStatBox("Words", m.snap.WordsEmitted, highlightColor),
	))
	b.WriteString("\n")

	kinds := make([]string, 0, len(m.snap.DumpsByKind))
	for k := range m.snap.DumpsByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	boxes := make([]string, 0, len(kinds))
	for _, k := range kinds {
		boxes = append(boxes, renderStatBox(k, m.snap.DumpsByKind[k], kindColor(k)))
	}
	if len(boxes) > 0 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
		b.WriteString("\n")
	}

	if m.snap.StorageBackend != "" {
		fmt.Fprintf(&b, "%s %s  ok %d / failed %d\n",
			LabelStyle.Render("Storage:"), ValueStyle.Render(m.snap.StorageBackend),
			m.snap.StoreWriteSuccess, m.snap.StoreWriteFailure)
	}
	if m.snap.Adapter != "" {
		fmt.Fprintf(&b, "%s %s  ok %d / failed %d\n",
			LabelStyle.Render("Adapter:"), ValueStyle.Render(m.snap.Adapter),
			m.snap.PublishSuccess, m.snap.PublishFailure)
	}

	b.WriteString(helpLine(keys.Quit))
	return b.String()
}

func kindColor(kind string) lipgloss.Color {
	switch kind {
	case "binary":
		return warningColor
	case "structured":
		return successColor
	default:
		return highlightColor
	}
}

func renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)
	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}
