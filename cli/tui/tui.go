package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View types that support TUI mode.
const (
	ViewWords   = "words"
	ViewHistory = "history"
	ViewMetrics = "metrics"
)

// Run starts the TUI for viewType.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	model, err := newModel(viewType, data)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// RenderStatic renders a view once at 80x24 without starting a program.
func RenderStatic(viewType string, data any) (string, error) {
	model, err := newModel(viewType, data)
	if err != nil {
		return "", err
	}
	sized, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return lipgloss.NewStyle().Padding(1, 2).Render(sized.View()), nil
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// SupportedTUIViews returns the view types that support TUI.
func SupportedTUIViews() []string {
	return []string{ViewWords, ViewHistory, ViewMetrics}
}

func newModel(viewType string, data any) (tea.Model, error) {
	if !IsTUISupported(viewType) {
		return nil, fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	switch viewType {
	case ViewWords:
		return NewWordsModel(data)
	case ViewHistory:
		return NewHistoryModel(data)
	default:
		return NewMetricsModel(data)
	}
}
