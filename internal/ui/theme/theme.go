// Package theme holds the terminal styles used by CLI output.
package theme

import (
	"image/color"
	"strconv"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary = lipgloss.Color("#8B5CF6") // Vivid Purple
	Success = lipgloss.Color("#22C55E") // Green
	Good    = lipgloss.Color("#3B82F6") // Blue
	Warning = lipgloss.Color("#EAB308") // Yellow
	Error   = lipgloss.Color("#F43F5E") // Rose
	TextDim = lipgloss.Color("#94A3B8") // Slate
	Border  = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// ScoreColor maps a 0-100 score to its band: 80 and up is green, 60 and
// up is blue, anything lower is yellow.
func ScoreColor(score int) color.Color {
	switch {
	case score >= 80:
		return Success
	case score >= 60:
		return Good
	default:
		return Warning
	}
}

// Score renders a score in its band colour.
func Score(score int) string {
	return lipgloss.NewStyle().Bold(true).Foreground(ScoreColor(score)).Render(strconv.Itoa(score) + "%")
}
