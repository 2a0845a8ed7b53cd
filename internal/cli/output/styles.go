package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used by commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Code    lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Hint    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to w. Without a terminal the styles
// render plain text.
func NewStyles(w io.Writer, isTTY bool) *Styles {
	re := lipgloss.NewRenderer(w)
	if !isTTY {
		re.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Header1: re.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: re.NewStyle().Bold(true),
		Bold:    re.NewStyle().Bold(true),
		Muted:   re.NewStyle().Foreground(lipgloss.Color("8")),
		Code:    re.NewStyle().Foreground(lipgloss.Color("14")),

		Success: re.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: re.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   re.NewStyle().Foreground(lipgloss.Color("9")),
		Info:    re.NewStyle().Foreground(lipgloss.Color("12")),
		Hint:    re.NewStyle().Foreground(lipgloss.Color("13")),

		StatusSuccess: re.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  re.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}
