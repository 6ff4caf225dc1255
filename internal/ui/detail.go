package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/cinevault/internal/lists"
	"github.com/five82/cinevault/internal/tmdb"
)

// detailState holds the overlay opened by an OpenDetail message.
type detailState struct {
	open    bool
	id      int
	loading bool
	err     error
	data    tmdb.Detail
	seq     uint64
	cancel  context.CancelFunc

	// Related titles load after the detail itself.
	related        tmdb.Related
	relatedLoading bool
	relatedErr     error
	relatedCursor  int
}

func (d detailState) stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

// openDetail shows the overlay for id, replacing any overlay in flight.
func (m *Model) openDetail(id int) tea.Cmd {
	m.detail.stop()
	seq := m.detail.seq + 1
	m.detail = detailState{open: true, id: id, seq: seq}
	m.detailViewport.GotoTop()
	if m.catalog == nil || id <= 0 {
		m.refreshDetailViewport()
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.detail.cancel = cancel
	m.detail.loading = true
	m.refreshDetailViewport()

	catalog := m.catalog
	return func() tea.Msg {
		defer cancel()
		d, err := tmdb.FetchDetail(ctx, catalog, id)
		return detailMsg{seq: seq, detail: d, err: err}
	}
}

func (m *Model) closeDetail() {
	m.detail.stop()
	m.detail = detailState{seq: m.detail.seq}
}

func (m *Model) handleDetail(msg detailMsg) tea.Cmd {
	if msg.seq != m.detail.seq || !m.detail.open {
		return nil
	}
	m.detail.loading = false
	m.detail.cancel = nil
	if msg.err != nil {
		if tmdb.IsCancelled(msg.err) {
			return nil
		}
		m.log.Warn().Err(msg.err).Int("movie_id", m.detail.id).Msg("detail fetch failed")
		m.detail.err = msg.err
		m.refreshDetailViewport()
		return nil
	}
	m.detail.data = msg.detail
	cmd := m.loadRelated()
	m.refreshDetailViewport()
	return cmd
}

// loadRelated fetches related titles for the open overlay under its seq.
func (m *Model) loadRelated() tea.Cmd {
	if m.catalog == nil || !m.detail.data.Movie.Valid() {
		return nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.detail.cancel = cancel
	m.detail.relatedLoading = true

	catalog := m.catalog
	seq := m.detail.seq
	movie := m.detail.data.Movie
	return func() tea.Msg {
		defer cancel()
		related, err := tmdb.FetchRelated(ctx, catalog, movie)
		return relatedMsg{seq: seq, related: related, err: err}
	}
}

func (m *Model) handleRelated(msg relatedMsg) {
	if msg.seq != m.detail.seq || !m.detail.open {
		return
	}
	m.detail.relatedLoading = false
	m.detail.cancel = nil
	if msg.err != nil {
		if tmdb.IsCancelled(msg.err) {
			return
		}
		m.log.Debug().Err(msg.err).Int("movie_id", m.detail.id).Msg("related titles unavailable")
		m.detail.relatedErr = msg.err
	} else {
		m.detail.related = msg.related
		m.detail.relatedCursor = 0
	}
	m.refreshDetailViewport()
}

// relatedChoices lists the titles the related cursor moves over:
// recommendations first, then collection parts not already listed.
func (d detailState) relatedChoices() []tmdb.Movie {
	titles := d.related.Titles
	if len(titles) > maxRelated {
		titles = titles[:maxRelated]
	}
	out := append([]tmdb.Movie(nil), titles...)
	seen := make(map[int]bool, len(out))
	for _, t := range out {
		seen[t.ID] = true
	}
	for _, part := range d.related.Collection.Parts {
		if !seen[part.ID] {
			out = append(out, part)
		}
	}
	return out
}

// handleDetailKey processes keys while the overlay is open.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeDetail()
		return m, nil
	case key.Matches(msg, m.keys.Retry):
		cmd := m.openDetail(m.detail.id)
		return m, cmd
	case key.Matches(msg, m.keys.ToggleWatchlist):
		m.toggleDetail(lists.Watchlist)
	case key.Matches(msg, m.keys.ToggleWatched):
		m.toggleDetail(lists.Watched)
	case key.Matches(msg, m.keys.ToggleFavorite):
		m.toggleDetail(lists.Favorites)
	case key.Matches(msg, m.keys.NextPage):
		m.moveRelated(1)
	case key.Matches(msg, m.keys.PrevPage):
		m.moveRelated(-1)
	case key.Matches(msg, m.keys.Open):
		choices := m.detail.relatedChoices()
		if m.detail.relatedCursor < len(choices) {
			m.bus.OpenDetail(choices[m.detail.relatedCursor].ID)
		}
	case key.Matches(msg, m.keys.Up):
		m.detailViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.detailViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.detailViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detailViewport.GotoBottom()
	}
	return m, nil
}

func (m *Model) toggleDetail(kind lists.Kind) {
	if !m.detail.data.Movie.Valid() {
		return
	}
	m.toggle(kind, m.detail.data.Movie)
	m.refreshDetailViewport()
}

func (m *Model) moveRelated(delta int) {
	n := len(m.detail.relatedChoices())
	if n == 0 {
		return
	}
	m.detail.relatedCursor = (m.detail.relatedCursor + delta + n) % n
	m.refreshDetailViewport()
}

// regionPreference puts the saved region ahead of the configured order.
func (m Model) regionPreference() []string {
	order := make([]string, 0, len(m.cfg.RegionOrder)+1)
	if r := strings.TrimSpace(m.prefs.Region); r != "" {
		order = append(order, r)
	}
	order = append(order, m.cfg.RegionOrder...)
	return order
}

// detailSize returns the overlay box dimensions.
func (m Model) detailSize() (int, int) {
	return min(max(m.width-4, 20), LayoutDetailMaxWidth), m.contentHeight()
}

func (m *Model) refreshDetailViewport() {
	if !m.detail.open {
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent(m.detailViewport.Width))
}

// renderDetailContent renders the scrollable body of the overlay.
func (m Model) renderDetailContent(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	width = max(width, 20)

	switch {
	case m.detail.loading:
		return bg.Render("Loading...", styles.MutedText)
	case m.detail.err != nil:
		return bg.Render(errorSummary(m.detail.err), styles.DangerText) +
			bg.Render(" - press ", styles.FaintText) +
			bg.Render("r", styles.AccentText) +
			bg.Render(" to retry", styles.FaintText)
	}

	d := m.detail.data
	movie := d.Movie
	var lines []string
	add := func(s string) { lines = append(lines, s) }
	label := func(name string) string { return bg.Render(padRight(name, 11), styles.FaintText) }

	heading := bg.Render(movieTitle(movie), styles.Text.Bold(true))
	if y := movie.Year(); y != "" {
		heading += bg.Space() + bg.Render("("+y+")", styles.MutedText)
	}
	add(heading)
	if movie.Tagline != "" {
		add(bg.Render(movie.Tagline, styles.MutedText.Italic(true)))
	}
	add("")

	var facts []string
	if r := movie.Rating(); r > 0 {
		facts = append(facts, bg.Render(fmt.Sprintf("%.1f/10", r), styles.RatingText)+
			bg.Render(fmt.Sprintf(" (%d votes)", movie.VoteCount), styles.FaintText))
	}
	if movie.Runtime > 0 {
		facts = append(facts, bg.Render(fmt.Sprintf("%dh %02dm", movie.Runtime/60, movie.Runtime%60), styles.Text))
	}
	if len(facts) > 0 {
		add(strings.Join(facts, bg.Render(" · ", styles.FaintText)))
	}
	if genres := movie.GenreNames(m.genres); len(genres) > 0 {
		add(label("Genres") + bg.Render(strings.Join(genres, ", "), styles.Text))
	}
	if directors := d.Credits.Directors(); len(directors) > 0 {
		add(label("Director") + bg.Render(strings.Join(directors, ", "), styles.Text))
	}
	if cast := topCast(d.Credits, 5); cast != "" {
		add(label("Cast") + bg.Render(truncate(cast, width-11), styles.Text))
	}
	if movie.Budget > 0 {
		add(label("Budget") + bg.Render("$"+humanize.Comma(movie.Budget), styles.Text))
	}
	if movie.Revenue > 0 {
		add(label("Revenue") + bg.Render("$"+humanize.Comma(movie.Revenue), styles.Text))
	}
	add(label("Lists") + m.renderMembership(movie.ID, bg))
	add("")

	if overview := strings.TrimSpace(movie.Overview); overview != "" {
		wrapped := lipgloss.NewStyle().Width(width).Render(overview)
		for _, l := range strings.Split(wrapped, "\n") {
			add(bg.Render(strings.TrimRight(l, " "), styles.Text))
		}
		add("")
	}

	if trailer, ok := d.Trailer(); ok {
		add(label("Trailer") + bg.Render(trailer.WatchURL(), styles.AccentText))
	}
	if region, providers, ok := tmdb.PickRegion(d.Providers, m.regionPreference()); ok {
		add(label("Where") + bg.Render(region, styles.AccentText))
		for _, group := range []struct {
			name string
			list []tmdb.Provider
		}{{"Stream", providers.Flatrate}, {"Rent", providers.Rent}, {"Buy", providers.Buy}} {
			if len(group.list) > 0 {
				add(label("  "+group.name) + bg.Render(truncate(providerNames(group.list), width-11), styles.Text))
			}
		}
	} else {
		add(label("Where") + bg.Render("No streaming information", styles.MutedText))
	}
	lines = append(lines, m.renderRelated(bg, styles, width)...)
	if poster := tmdb.ImageURL(m.cfg.ImageHost, tmdb.PosterSize, movie.PosterPath); poster != "" {
		add(label("Poster") + bg.Render(truncate(poster, width-11), styles.FaintText))
	}
	if movie.IMDbID != "" {
		add(label("IMDb") + bg.Render("https://www.imdb.com/title/"+movie.IMDbID, styles.FaintText))
	}

	for i, l := range lines {
		lines[i] = bg.FillLine(l, width)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMembership(id int, bg BgStyle) string {
	styles := m.theme.Styles()
	var parts []string
	for _, kind := range lists.Kinds() {
		if m.lists.Contains(kind, id) {
			parts = append(parts, styles.BadgeStyle(kind).Render(kind.Label()))
		}
	}
	if len(parts) == 0 {
		return bg.Render("none", styles.FaintText)
	}
	return strings.Join(parts, bg.Space())
}

// renderRelated renders the related titles with the cursor marked.
func (m Model) renderRelated(bg BgStyle, styles Styles, width int) []string {
	label := bg.Render(padRight("Related", 11), styles.FaintText)
	switch {
	case m.detail.relatedLoading:
		return []string{label + bg.Render("Loading...", styles.MutedText)}
	case m.detail.relatedErr != nil:
		return []string{label + bg.Render("Related titles unavailable", styles.MutedText)}
	}
	choices := m.detail.relatedChoices()
	if len(choices) == 0 {
		return nil
	}

	var lines []string
	collectionStart := min(len(m.detail.related.Titles), maxRelated)
	for i, movie := range choices {
		prefix := label
		if i > 0 {
			prefix = bg.Render(padRight("", 11), styles.FaintText)
		}
		if i == collectionStart && m.detail.related.Collection.Name != "" {
			lines = append(lines, bg.Render(padRight("", 11), styles.FaintText)+
				bg.Render(truncate(m.detail.related.Collection.Name, width-11), styles.AccentText))
			prefix = bg.Render(padRight("", 11), styles.FaintText)
		}
		text := movieTitle(movie)
		if y := movie.Year(); y != "" {
			text += " (" + y + ")"
		}
		style := styles.Text
		marker := "  "
		if i == m.detail.relatedCursor {
			style = styles.AccentText.Bold(true)
			marker = "> "
		}
		lines = append(lines, prefix+bg.Render(marker+truncate(text, width-13), style))
	}
	return lines
}

func topCast(c tmdb.Credits, n int) string {
	names := make([]string, 0, n)
	for _, member := range c.Cast {
		if len(names) == n {
			break
		}
		names = append(names, member.Name)
	}
	return strings.Join(names, ", ")
}

func providerNames(providers []tmdb.Provider) string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// renderDetail renders the overlay centered in the content area.
func (m Model) renderDetail() string {
	width, height := m.detailSize()
	title := "Details"
	if m.detail.data.Movie.Valid() {
		title = movieTitle(m.detail.data.Movie)
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Padding(0, 1).
		Width(width - 2).
		Height(height - 2)

	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	content := styles.Text.Bold(true).Render(truncate(title, width-6)) + "\n" + m.detailViewport.View()

	return lipgloss.Place(
		m.width,
		height,
		lipgloss.Center,
		lipgloss.Top,
		box.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(lipgloss.Color(m.theme.Background)),
	)
}
