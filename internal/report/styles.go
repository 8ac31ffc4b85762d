package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// TitleStyle for section headers.
	TitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	// HelpStyle for footnotes.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ProfitStyle and LossStyle colour signed amounts.
	ProfitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	LossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// DecisionStyle highlights the vote outcome.
	DecisionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
)

// Signed renders value with format and colours it by sign.
func Signed(format string, value float64) string {
	text := fmt.Sprintf(format, value)

	switch {
	case value > 0:
		return ProfitStyle.Render(text)
	case value < 0:
		return LossStyle.Render(text)
	}

	return text
}
