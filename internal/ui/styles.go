package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for the watch dashboard
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - fresh values
	ErrorColor   = lipgloss.Color("#FF5555") // Red - poll failures
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Shared styles for the watch dashboard
var (
	// TitleStyle is for the dashboard header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	// SubtitleStyle is for the charger URL below the title
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ChannelStyle is for channel id cells
	ChannelStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// ValueStyle is for the latest sample value
	ValueStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// TimeStyle is for sample timestamps
	TimeStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ErrorStyle is for inline poll failure messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// FooterStyle is for the key help line
	FooterStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// GetTerminalWidth returns the current terminal width, or a sane default
// when it cannot be determined (e.g. output is not a terminal).
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
