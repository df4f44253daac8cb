package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	AccentColor  = lipgloss.Color("#00ACC1") // cyan - banner, prompts
	SuccessColor = lipgloss.Color("#43BF6D")
	ErrorColor   = lipgloss.Color("#FF5555")
	WarningColor = lipgloss.Color("#FFD75F") // yellow - menu title
	MutedColor   = lipgloss.Color("#626262")
)

// Layout constants
const (
	MinTerminalWidth = 40
	MaxContentWidth  = 100
)

var (
	// BannerStyle frames the banner art.
	BannerStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(AccentColor).
			Padding(0, 1)

	// TaglineStyle is for the line under the banner art.
	TaglineStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// MenuTitleStyle is for "Main Menu:".
	MenuTitleStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// MenuKeyStyle is for the option numbers.
	MenuKeyStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	// PromptStyle is for input prompts.
	PromptStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	InfoStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	// PanelStyle boxes summary messages such as the scan result.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SuccessColor).
			Foreground(SuccessColor).
			Padding(0, 1)
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, clamped to the supported range.
// Non-terminals get MinTerminalWidth.
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return MinTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}
