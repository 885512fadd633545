package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"kubesync/internal/config"
	"kubesync/internal/run"
	"kubesync/pkg/logging"
)

// NewProgram wires the dashboard model into a Bubble Tea program running in
// the alternate screen.
func NewProgram(cfg *config.Config, orch *run.Orchestrator, logCh <-chan logging.LogEntry) *tea.Program {
	return tea.NewProgram(NewModel(cfg, orch, logCh), tea.WithAltScreen())
}
