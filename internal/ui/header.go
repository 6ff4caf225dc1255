package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cinevault/internal/lists"
)

// renderHeader renders the logo, the view tabs, and the list badges. Tabs
// collapse to numbers when the full labels do not fit.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	logo := bg.Render("CineVault", styles.Logo)

	counts := m.lists.Counts()
	badges := make([]string, 0, len(lists.Kinds()))
	for _, kind := range lists.Kinds() {
		badges = append(badges, styles.BadgeStyle(kind).Render(fmt.Sprintf("%s %d", kind.Label(), counts.Of(kind))))
	}
	badgeLine := strings.Join(badges, bg.Space())

	gap := bg.Spaces(3)
	line := strings.Join([]string{logo, m.renderTabs(styles, bg, false), badgeLine}, gap)
	if m.width < LayoutCompactWidth || lipgloss.Width(line) > m.width-2 {
		line = strings.Join([]string{logo, m.renderTabs(styles, bg, true), badgeLine}, gap)
	}
	return styles.Header.Width(m.width).MaxHeight(1).Render(line)
}

// renderTabs renders the view tabs; compact tabs show only the active title.
func (m Model) renderTabs(styles Styles, bg BgStyle, compact bool) string {
	tabs := make([]string, 0, len(viewOrder))
	for i, v := range viewOrder {
		label := fmt.Sprintf("%d %s", i+1, v.Title())
		if compact && v != m.currentView {
			label = fmt.Sprintf("%d", i+1)
		}
		style := styles.MutedText
		if v == m.currentView {
			style = styles.AccentText.Bold(true)
		}
		tabs = append(tabs, bg.Render(label, style))
	}
	return strings.Join(tabs, bg.Spaces(2))
}

// renderCommandBar renders the key hints for the current context.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.detail.open:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"w", "Later"},
			{"x", "Watched"},
			{"f", "Favorite"},
			{"n/p", "Related"},
			{"enter", "Open related"},
			{"r", "Reload"},
			{"esc", "Close"},
		}
	case m.currentView == ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		level := m.logState.minLevel
		if level == "" {
			level = "all"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"/", "Filter"},
			{"F", "Level:" + level},
			{"r", "Reload"},
			{"Tab", "Views"},
		}
	default:
		commands = []cmd{
			{"enter", "Details"},
			{"w/x/f", "Lists"},
			{"/", "Search"},
			{"L", "Lucky"},
		}
		if m.currentView.Remote() {
			commands = append(commands, cmd{"n/p", "Page"})
		}
		if m.currentView == ViewTrending {
			commands = append(commands, cmd{"d", "Day/Week"})
		}
		commands = append(commands, cmd{"Tab", "Views"})
	}
	commands = append(commands, cmd{"?", "More"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(segments, bg.Spaces(2)))
}
