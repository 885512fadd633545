package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	// refreshInterval is how often the dashboard re-reads the run-state file
	// and the cached kubeconfigs.
	refreshInterval = 2 * time.Second
	// maxLogLines caps the activity log kept in memory.
	maxLogLines = 200
)

// Status icons shown in the table. Terminal needs a font that covers them.
const (
	IconFresh    = "✔"
	IconStale    = "⚠"
	IconFailed   = "❌"
	IconUnknown  = "?"
	IconFetching = "⏳"
	IconNoSecret = "🔒"
)

var (
	appStyle = lipgloss.NewStyle().Margin(0, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}).
			Background(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#303030"}).
			Padding(0, 2)

	tableStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	logTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"})

	logLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#303030", Dark: "#B0B0B0"})

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#505050", Dark: "#909090"}).
			MarginTop(1)

	flashStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#005F00", Dark: "#87D787"})

	errorFlashStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF8787"})
)
