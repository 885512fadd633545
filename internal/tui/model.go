// Package tui renders the fleet dashboard: one row per configured host with
// its certificate expiry, last run outcome, and quick actions to force a
// fetch or copy a failure for a bug report.
package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kubesync/internal/config"
	"kubesync/internal/credentials"
	"kubesync/internal/kubeconfig"
	"kubesync/internal/run"
	"kubesync/internal/state"
	"kubesync/pkg/logging"
)

type tickMsg time.Time

type logMsg logging.LogEntry

// fetchDoneMsg reports a single-host forced fetch kicked off from the
// dashboard.
type fetchDoneMsg struct {
	host    string
	summary run.Summary
	err     error
}

// rowData carries what the table cell strings cannot: the raw error text for
// the clipboard action.
type rowData struct {
	host string
	err  string
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	cfg    *config.Config
	orch   *run.Orchestrator
	states state.Store

	table    table.Model
	keys     KeyMap
	rows     []rowData
	fetching map[string]bool
	// cred caches per-account presence; keyring lookups are too slow for
	// the refresh tick, so it is rebuilt only on startup and after actions.
	cred map[string]bool

	logCh    <-chan logging.LogEntry
	logLines []string

	flash      string
	flashIsErr bool
	width      int
	height     int
}

// NewModel builds the dashboard model. The orchestrator is only used for
// forced per-host fetches triggered from the UI.
func NewModel(cfg *config.Config, orch *run.Orchestrator, logCh <-chan logging.LogEntry) Model {
	columns := []table.Column{
		{Title: "Host", Width: 18},
		{Title: "Address", Width: 24},
		{Title: "Cert expires", Width: 22},
		{Title: "Cred", Width: 8},
		{Title: "Last run", Width: 14},
		{Title: "Detail", Width: 36},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(len(cfg.Hosts)+1),
	)
	m := Model{
		cfg:      cfg,
		orch:     orch,
		states:   orch.States,
		table:    t,
		keys:     DefaultKeyMap(),
		fetching: map[string]bool{},
		cred:     map[string]bool{},
		logCh:    logCh,
	}
	m.checkCredentials()
	m.reload()
	return m
}

func (m *Model) checkCredentials() {
	if m.orch.Backend == nil {
		return
	}
	for _, p := range credentials.Check(m.cfg.HostNames(), m.orch.Backend) {
		m.cred[p.Account] = p.Present
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForLog())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitForLog() tea.Cmd {
	if m.logCh == nil {
		return nil
	}
	ch := m.logCh
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return logMsg(entry)
	}
}

func (m Model) fetchCmd(host string) tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		summary, err := orch.Run(run.Options{Force: true, Hosts: []string{host}})
		return fetchDoneMsg{host: host, summary: summary, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		m.reload()
		return m, tick()

	case logMsg:
		line := fmt.Sprintf("%s [%s] %s", msg.Timestamp.Format("15:04:05"), msg.Subsystem, msg.Message)
		m.logLines = append(m.logLines, line)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		return m, m.waitForLog()

	case fetchDoneMsg:
		delete(m.fetching, msg.host)
		switch {
		case msg.err != nil:
			m.flash, m.flashIsErr = fmt.Sprintf("fetch %s: %v", msg.host, msg.err), true
		case msg.summary.Failed > 0:
			m.flash, m.flashIsErr = fmt.Sprintf("fetch %s failed, see last run detail", msg.host), true
		default:
			m.flash, m.flashIsErr = fmt.Sprintf("fetched %s", msg.host), false
		}
		m.reload()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.checkCredentials()
			m.reload()
			return m, nil
		case key.Matches(msg, m.keys.Fetch):
			if row := m.selectedRow(); row != nil && !m.fetching[row.host] {
				m.fetching[row.host] = true
				m.flash, m.flashIsErr = fmt.Sprintf("fetching %s...", row.host), false
				return m, m.fetchCmd(row.host)
			}
			return m, nil
		case key.Matches(msg, m.keys.CopyErr):
			if row := m.selectedRow(); row != nil && row.err != "" {
				if err := clipboard.WriteAll(row.err); err != nil {
					m.flash, m.flashIsErr = fmt.Sprintf("clipboard: %v", err), true
				} else {
					m.flash, m.flashIsErr = fmt.Sprintf("copied error for %s", row.host), false
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) selectedRow() *rowData {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return nil
	}
	return &m.rows[i]
}

// reload rebuilds the table rows from the cached kubeconfigs and the
// run-state file.
func (m *Model) reload() {
	states, err := m.states.Read()
	if err != nil {
		states = map[string]state.HostState{}
	}
	now := time.Now()

	rows := make([]table.Row, 0, len(m.cfg.Hosts))
	data := make([]rowData, 0, len(m.cfg.Hosts))
	for _, h := range m.cfg.Hosts {
		cachePath := filepath.Join(m.cfg.LocalOutputDir, h.Name)
		status := kubeconfig.CheckCertExpiry(cachePath, now)
		hs := states[h.Name]

		expiry := IconUnknown + " unknown"
		switch status.State {
		case kubeconfig.CertValid:
			expiry = fmt.Sprintf("%s %s", IconFresh, status.Expiry.Format("2006-01-02 15:04"))
		case kubeconfig.CertExpired:
			expiry = fmt.Sprintf("%s %s", IconStale, status.Expiry.Format("2006-01-02 15:04"))
		}

		cred := "-"
		switch {
		case m.cred[h.Name]:
			cred = "stored"
		case m.cred[credentials.DefaultAccount]:
			cred = "default"
		}

		lastRun := "-"
		detail := ""
		if m.fetching[h.Name] {
			lastRun = IconFetching + " fetching"
		} else if hs.Status != "" {
			lastRun = runCell(hs.Status)
			detail = hs.Error
		}

		rows = append(rows, table.Row{h.Name, h.Address, expiry, cred, lastRun, detail})
		data = append(data, rowData{host: h.Name, err: hs.Error})
	}
	m.table.SetRows(rows)
	m.rows = data
}

func runCell(s state.Status) string {
	switch s {
	case state.StatusFetched:
		return IconFresh + " fetched"
	case state.StatusSkipped:
		return "skipped"
	case state.StatusNoCredential:
		return IconNoSecret + " no cred"
	case state.StatusAuthRejected:
		return IconFailed + " auth"
	case state.StatusFailed:
		return IconFailed + " failed"
	}
	return string(s)
}

func (m Model) View() string {
	header := headerStyle.Render("kubesync fleet dashboard")

	logView := ""
	if n := len(m.logLines); n > 0 {
		start := n - 6
		if start < 0 {
			start = 0
		}
		logView = logTitleStyle.Render("Activity") + "\n"
		for _, line := range m.logLines[start:] {
			logView += logLineStyle.Render(line) + "\n"
		}
	}

	flash := ""
	if m.flash != "" {
		if m.flashIsErr {
			flash = errorFlashStyle.Render(m.flash)
		} else {
			flash = flashStyle.Render(m.flash)
		}
	}

	help := statusBarStyle.Render("↑/↓ navigate · f force fetch · c copy error · r refresh · q quit")

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		tableStyle.Render(m.table.View()),
		flash,
		logView,
		help,
	))
}
