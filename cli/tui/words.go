package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/resdump/rawdata"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	maxPerRow     = 8
	// chromeLines is the header, blank line, position line and help.
	chromeLines = 6
)

// WordsModel pages through a word sequence as a hex grid.
type WordsModel struct {
	words    *rawdata.Words
	row      int // first visible row
	width    int
	height   int
	quitting bool
}

// NewWordsModel creates a pager for data, which must be *rawdata.Words.
func NewWordsModel(data any) (WordsModel, error) {
	w, ok := data.(*rawdata.Words)
	if !ok || w == nil {
		return WordsModel{}, fmt.Errorf("words view needs *rawdata.Words, got %T", data)
	}
	return WordsModel{words: w, width: defaultWidth, height: defaultHeight}, nil
}

// Init implements tea.Model.
func (m WordsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m WordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.row = m.clampRow(m.row)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.row = m.clampRow(m.row - 1)
		case key.Matches(msg, keys.Down):
			m.row = m.clampRow(m.row + 1)
		case key.Matches(msg, keys.PageUp):
			m.row = m.clampRow(m.row - m.visibleRows())
		case key.Matches(msg, keys.PageDown):
			m.row = m.clampRow(m.row + m.visibleRows())
		case key.Matches(msg, keys.Top):
			m.row = 0
		case key.Matches(msg, keys.Bottom):
			m.row = m.clampRow(m.totalRows())
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m WordsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.words.Len() == 0 {
		b.WriteString(OffsetStyle.Render("(no words)"))
		b.WriteString("\n")
	}

	perRow := m.perRow()
	last := min(m.row+m.visibleRows(), m.totalRows())
	for r := m.row; r < last; r++ {
		b.WriteString(m.renderRow(r*perRow, min((r+1)*perRow, m.words.Len())))
		b.WriteString("\n")
	}

	if total := m.totalRows(); total > 0 {
		b.WriteString(OffsetStyle.Render(fmt.Sprintf("rows %d-%d of %d", m.row+1, last, total)))
	}
	b.WriteString("\n")
	b.WriteString(helpLine(keys.Up, keys.Down, keys.PageDown, keys.Top, keys.Bottom, keys.Quit))
	return b.String()
}

func (m WordsModel) renderHeader() string {
	kind := m.words.Kind.String()
	return lipgloss.JoinHorizontal(lipgloss.Top,
		TitleStyle.Render(m.words.Source), "  ",
		KindStyle(kind).Render(kind), "  ",
		ValueStyle.Render(fmt.Sprintf("%d-bit", m.words.Width)), "  ",
		ValueStyle.Render(fmt.Sprintf("%d words", m.words.Len())),
	)
}

func (m WordsModel) renderRow(from, to int) string {
	var b strings.Builder
	b.WriteString(OffsetStyle.Render(fmt.Sprintf("%08d:", from)))
	for i := from; i < to; i++ {
		b.WriteString(" ")
		if m.words.Values[i] == 0 {
			b.WriteString(ZeroWordStyle.Render(m.words.Hex(i)))
		} else {
			b.WriteString(ValueStyle.Render(m.words.Hex(i)))
		}
	}
	return b.String()
}

// perRow fits as many words as the width allows, up to maxPerRow.
func (m WordsModel) perRow() int {
	cell := len(rawdata.FormatWord(0, m.words.Width)) + 1
	gutter := len("00000000:")
	return max(1, min(maxPerRow, (m.width-gutter)/cell))
}

func (m WordsModel) visibleRows() int {
	return max(1, m.height-chromeLines)
}

func (m WordsModel) totalRows() int {
	perRow := m.perRow()
	return (m.words.Len() + perRow - 1) / perRow
}

func (m WordsModel) clampRow(row int) int {
	return max(0, min(row, m.totalRows()-m.visibleRows()))
}
