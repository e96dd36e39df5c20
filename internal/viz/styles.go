package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	Label = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	Value = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	Warn  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	Hint  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("238"))
	Panel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

// Field renders "label value" with the value formatted to four significant
// digits.
func Field(label string, v float64) string {
	return Label.Render(label) + " " + Value.Render(fmt.Sprintf("%.4g", v))
}
