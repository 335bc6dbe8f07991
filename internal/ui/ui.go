// Package ui holds the terminal styling helpers shared by the CLI
// commands.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jordanwest/tkt/internal/types"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	statusStyles = map[string]lipgloss.Style{
		"open":        lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		"in_progress": lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		"done":        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}

	priorityStyles = map[types.Priority]lipgloss.Style{
		types.PriorityLow:      dimStyle,
		types.PriorityMedium:   lipgloss.NewStyle(),
		types.PriorityHigh:     warnStyle,
		types.PriorityCritical: errStyle,
	}
)

// Plain disables all styling, as when output is piped.
func Plain() bool {
	return termenv.EnvColorProfile() == termenv.Ascii || !term.IsTerminal(int(os.Stdout.Fd()))
}

func render(style lipgloss.Style, s string) string {
	if Plain() {
		return s
	}
	return style.Render(s)
}

// Accent renders emphasized text such as item ids.
func Accent(s string) string { return render(accentStyle, s) }

// Pass renders success text.
func Pass(s string) string { return render(passStyle, s) }

// Warn renders warning text.
func Warn(s string) string { return render(warnStyle, s) }

// Err renders failure text.
func Err(s string) string { return render(errStyle, s) }

// Dim renders de-emphasized text.
func Dim(s string) string { return render(dimStyle, s) }

// Header renders a table or section header.
func Header(s string) string { return render(headerStyle, s) }

// Status renders a status value in its conventional color. Unknown
// statuses render unstyled.
func Status(s string) string {
	if style, ok := statusStyles[s]; ok {
		return render(style, s)
	}
	return s
}

// Priority renders a priority value in its conventional color.
func Priority(p types.Priority) string {
	if style, ok := priorityStyles[p]; ok {
		return render(style, string(p))
	}
	return string(p)
}

// Width returns the terminal width, or fallback when stdout is not a
// terminal.
func Width(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Truncate shortens s to at most width runes, appending an ellipsis
// when anything was cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
