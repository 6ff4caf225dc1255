package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cinevault/internal/logtail"
)

// logLevels is the cycle used by the level filter; "" shows everything.
var logLevels = []string{"", "info", "warn", "error"}

// logState holds all log-related state.
type logState struct {
	entries []logtail.Entry
	err     error
	follow  bool
	ticking bool
	dirty   bool

	minLevel     string
	query        string
	filterActive bool
	input        textinput.Model
}

func newLogState() logState {
	ti := textinput.New()
	ti.Placeholder = "Filter logs..."
	ti.CharLimit = 100
	return logState{follow: true, input: ti}
}

// startLogs reads the log file now and keeps refreshing while the view is
// visible.
func (m *Model) startLogs() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	cmds := []tea.Cmd{readLogsCmd(m.logPath)}
	if !m.logState.ticking {
		m.logState.ticking = true
		cmds = append(cmds, logTickCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleLogTick() tea.Cmd {
	if m.currentView != ViewLogs || m.logPath == "" {
		m.logState.ticking = false
		return nil
	}
	if !m.logState.follow {
		return logTickCmd()
	}
	return tea.Batch(readLogsCmd(m.logPath), logTickCmd())
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.entries = logtail.ParseLines(msg.lines)
	}
	m.logState.dirty = true
	m.refreshLogViewport()
}

// visibleLogs applies the level and text filters.
func (m Model) visibleLogs() []logtail.Entry {
	return logtail.Filter(m.logState.entries, m.logState.minLevel, m.logState.query)
}

// handleLogsKey processes keyboard input for the logs view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, readLogsCmd(m.logPath)
		}
	case key.Matches(msg, m.keys.LogLevel):
		m.logState.minLevel = nextLogLevel(m.logState.minLevel)
		m.logState.dirty = true
		m.refreshLogViewport()
	case key.Matches(msg, m.keys.Search):
		m.logState.filterActive = true
		m.logState.input.SetValue(m.logState.query)
		m.logState.input.CursorEnd()
		cmd := m.logState.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Retry):
		if m.logPath != "" {
			return m, readLogsCmd(m.logPath)
		}
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PrevPage):
		m.logState.follow = false
		m.logViewport.HalfPageUp()
	case key.Matches(msg, m.keys.NextPage):
		m.logViewport.HalfPageDown()
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	}
	return m, nil
}

// handleLogFilterInput routes keys to the log filter box.
func (m Model) handleLogFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.logState.filterActive = false
		m.logState.input.Blur()
		m.logState.query = ""
		m.logState.dirty = true
		m.refreshLogViewport()
		return m, nil
	case "enter":
		m.logState.filterActive = false
		m.logState.input.Blur()
		m.logState.query = strings.TrimSpace(m.logState.input.Value())
		m.logState.dirty = true
		m.refreshLogViewport()
		return m, nil
	}
	var cmd tea.Cmd
	m.logState.input, cmd = m.logState.input.Update(msg)
	return m, cmd
}

func nextLogLevel(current string) string {
	for i, level := range logLevels {
		if level == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// refreshLogViewport re-renders the log lines when they changed.
func (m *Model) refreshLogViewport() {
	if !m.logState.dirty || m.logViewport.Width <= 0 {
		return
	}
	m.logState.dirty = false
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogContent renders the colorized log lines.
func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.SurfaceAlt)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if m.logState.err != nil {
		return bg.FillLine(bg.Render("Could not read log: "+m.logState.err.Error(), styles.DangerText), width)
	}
	entries := m.visibleLogs()
	if len(entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, bg.FillLine(m.colorizeEntry(e, styles, bg, width), width))
	}
	return strings.Join(lines, "\n")
}

// colorizeEntry renders one entry as time, level, component, message, fields.
func (m Model) colorizeEntry(e logtail.Entry, styles Styles, bg BgStyle, width int) string {
	if !e.Structured {
		return bg.Render(truncate(e.Raw, width), styles.Text)
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
		b.WriteString(bg.Space())
	}
	level := strings.ToUpper(e.Level)
	if level == "" {
		level = "INFO"
	}
	b.WriteString(bg.Render(fmt.Sprintf("%-5s", level), getLevelStyle(level, styles).Bold(true)))
	if e.Component != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render("["+e.Component+"]", styles.AccentText))
	}
	if e.Message != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(e.Message, styles.Text))
	}
	if e.Error != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render("error="+e.Error, styles.DangerText))
	}
	if len(e.Fields) > 0 {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(strings.Join(e.Fields, " "), styles.FaintText))
	}
	return b.String()
}

// getLevelStyle returns the style for a log level.
func getLevelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR", "FATAL", "PANIC":
		return styles.DangerText
	case "DEBUG", "TRACE":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	title := "Application Log"
	if m.logState.minLevel != "" || m.logState.query != "" {
		title += " (filtered)"
	}
	return m.renderBox(title, m.logViewport.View(), m.width, m.contentHeight(), true)
}

// renderLogStatus renders the log status line.
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	autoTail := "off"
	if m.logState.follow {
		autoTail = "on"
	}
	parts := []string{
		bg.Render(fmt.Sprintf("%d of %d lines", len(m.visibleLogs()), len(m.logState.entries)), styles.FaintText),
		bg.Render("auto-tail "+autoTail, styles.FaintText),
	}
	if m.logState.minLevel != "" {
		parts = append(parts, bg.Render("level>="+m.logState.minLevel, styles.MutedText))
	}
	if m.logState.query != "" {
		parts = append(parts, bg.Render("/"+m.logState.query, styles.AccentText))
	}
	if m.logPath != "" {
		parts = append(parts, bg.Render(truncate(m.logPath, 48), styles.FaintText))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}
