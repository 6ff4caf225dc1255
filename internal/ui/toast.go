package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/five82/cinevault/internal/events"
)

// maxToasts is the number of notifications shown at once.
const maxToasts = 3

// handleBus reacts to a message delivered from the bus.
func (m *Model) handleBus(msg events.Message) tea.Cmd {
	switch msg := msg.(type) {
	case events.OpenDetail:
		return m.openDetail(msg.MovieID)
	case events.Notify:
		return m.pushToast(msg)
	}
	return nil
}

func (m *Model) pushToast(n events.Notify) tea.Cmd {
	if strings.TrimSpace(n.Text) == "" {
		return nil
	}
	m.toasts = append(m.toasts, n)
	if len(m.toasts) > maxToasts {
		m.toasts = append([]events.Notify(nil), m.toasts[len(m.toasts)-maxToasts:]...)
	}
	return toastExpireCmd(n)
}

func (m *Model) expireToast(id toastExpiredMsg) {
	for i, n := range m.toasts {
		if n.ID == uuid.UUID(id) {
			m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
			return
		}
	}
}

// renderStatusLine shows the newest toast, or the view status when idle.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	var content string
	switch {
	case m.searchActive:
		content = bg.Render("search: ", styles.AccentText) + m.searchInput.View()
	case m.logState.filterActive:
		content = bg.Render("filter: ", styles.AccentText) + m.logState.input.View()
	case len(m.toasts) > 0:
		parts := make([]string, 0, len(m.toasts))
		for i := len(m.toasts) - 1; i >= 0; i-- {
			n := m.toasts[i]
			parts = append(parts, styles.ToastStyle(n.Variant).Render(truncate(n.Text, max(m.width/2, 20))))
		}
		content = strings.Join(parts, bg.Space())
	case m.currentView == ViewLogs:
		content = m.renderLogStatus(styles, bg)
	default:
		content = m.renderBrowseStatus(styles, bg)
	}
	return bg.FillLine(content, m.width)
}

func (m Model) renderBrowseStatus(styles Styles, bg BgStyle) string {
	var parts []string
	if kind, ok := m.currentView.ListKind(); ok {
		parts = append(parts, bg.Render(kind.Label(), styles.MutedText)+
			bg.Render(" - most recent first", styles.FaintText))
	} else if total := m.listing.result.TotalResults; total > 0 {
		parts = append(parts, bg.Render(humanize.Comma(int64(total))+" movies", styles.FaintText))
	}
	if m.lucky.busy {
		parts = append(parts, bg.Render("rolling the dice...", styles.InfoText))
	}
	if movie, ok := m.selectedMovie(); ok {
		parts = append(parts, bg.Render(truncate(movieTitle(movie), 40), styles.Text))
	}
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return strings.Join(parts, sep)
}
