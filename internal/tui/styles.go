// Package tui holds the terminal presentation layer: lipgloss styles, the
// styled breakdown summary and the interactive what-if editor.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette.
const (
	ColorHeader    = lipgloss.Color("39")
	ColorBorder    = lipgloss.Color("240")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("255")
	ColorHighlight = lipgloss.Color("212")
	ColorOK        = lipgloss.Color("42")
	ColorWarning   = lipgloss.Color("214")
	ColorCritical  = lipgloss.Color("196")
	ColorMuted     = lipgloss.Color("241")
	ColorSpinner   = lipgloss.Color("69")
)

// Directional icons for deltas.
const (
	IconArrowUp    = "↑"
	IconArrowDown  = "↓"
	IconArrowRight = "→"
)

// Shared styles.
//
//nolint:gochecknoglobals // Styles are immutable values.
var (
	HeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeader)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	InfoStyle     = lipgloss.NewStyle().Foreground(ColorHeader)
	SubtleStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	WarningStyle  = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	CriticalStyle = lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
	BoxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// OutputMode selects how human-readable output is produced.
type OutputMode int

const (
	// OutputModePlain writes unstyled text.
	OutputModePlain OutputMode = iota
	// OutputModeStyled writes lipgloss-styled text.
	OutputModeStyled
	// OutputModeInteractive runs a bubbletea program.
	OutputModeInteractive
)

const defaultTerminalWidth = 80

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalWidth returns the stdout width, or 80 when it cannot be read.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}

// DetectOutputMode picks the output mode from flags, NO_COLOR and the
// terminal. Interactive mode is only chosen when requested.
func DetectOutputMode(interactive, plain, noColor bool) OutputMode {
	switch {
	case plain:
		return OutputModePlain
	case noColor || os.Getenv("NO_COLOR") != "":
		return OutputModePlain
	case !IsTTY():
		return OutputModePlain
	case interactive:
		return OutputModeInteractive
	default:
		return OutputModeStyled
	}
}
