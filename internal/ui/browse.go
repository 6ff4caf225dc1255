package ui

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cinevault/internal/events"
	"github.com/five82/cinevault/internal/lists"
	"github.com/five82/cinevault/internal/tmdb"
)

// listingState tracks the catalog page behind a remote view. seq identifies
// the latest fetch; results carrying an older seq are stale.
type listingState struct {
	page    int
	result  tmdb.Page
	loading bool
	err     error
	seq     uint64
	cancel  context.CancelFunc
}

func (l listingState) stop() {
	if l.cancel != nil {
		l.cancel()
	}
}

// startListing cancels the running fetch and starts one for the current
// view, page, and query. Local views only cancel.
func (m *Model) startListing() tea.Cmd {
	m.listing.stop()
	m.listing.seq++
	m.listing.cancel = nil
	m.listing.loading = false
	m.listing.err = nil
	m.listing.result = tmdb.Page{}
	if m.listing.page < 1 {
		m.listing.page = 1
	}

	view := m.currentView
	if !view.Remote() || m.catalog == nil {
		return nil
	}
	if view == ViewSearch && m.searchQuery == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.listing.cancel = cancel
	m.listing.loading = true

	seq := m.listing.seq
	page := m.listing.page
	query := m.searchQuery
	window := m.trendingWindow
	catalog := m.catalog
	return func() tea.Msg {
		defer cancel()
		result, err := fetchListing(ctx, catalog, view, page, query, window)
		return listingMsg{seq: seq, page: result, err: err}
	}
}

func fetchListing(ctx context.Context, f tmdb.Fetcher, view View, page int, query string, window tmdb.TrendingWindow) (tmdb.Page, error) {
	switch view {
	case ViewTrending:
		return tmdb.Trending(ctx, f, window, page)
	case ViewNowPlaying:
		return tmdb.NowPlaying(ctx, f, page)
	case ViewTopRated:
		return tmdb.TopRated(ctx, f, page)
	case ViewSearch:
		return tmdb.Search(ctx, f, query, page)
	default:
		return tmdb.Popular(ctx, f, page)
	}
}

// handleListing applies a fetch result. Stale and cancelled results are
// dropped without a trace in the UI.
func (m *Model) handleListing(msg listingMsg) {
	if msg.seq != m.listing.seq {
		return
	}
	m.listing.loading = false
	m.listing.cancel = nil
	if msg.err != nil {
		if tmdb.IsCancelled(msg.err) {
			return
		}
		m.log.Warn().Err(msg.err).Str("view", m.currentView.String()).Int("page", m.listing.page).Msg("listing fetch failed")
		m.listing.err = msg.err
		return
	}
	m.listing.result = msg.page
	m.clampCursor()
}

// rows returns the movies shown in the current view. Saved lists show the
// most recently added first.
func (m Model) rows() []tmdb.Movie {
	if kind, ok := m.currentView.ListKind(); ok {
		return m.lists.Recent(kind)
	}
	if m.currentView.Remote() {
		return m.listing.result.Results
	}
	return nil
}

func (m Model) selectedMovie() (tmdb.Movie, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return tmdb.Movie{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// handleBrowseKey processes keyboard input for the movie table views.
func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.rows())

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < count-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(count-1, 0)
	case key.Matches(msg, m.keys.NextPage):
		if m.currentView.Remote() && !m.listing.loading && m.listing.result.HasNext() {
			m.listing.page++
			m.cursor = 0
			cmd := m.startListing()
			return m, cmd
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.currentView.Remote() && !m.listing.loading && m.listing.page > 1 {
			m.listing.page--
			m.cursor = 0
			cmd := m.startListing()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Retry):
		if m.currentView.Remote() {
			cmd := m.startListing()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Search):
		var fetch tea.Cmd
		if m.currentView != ViewSearch {
			m.currentView = ViewSearch
			m.listing.page = 1
			m.cursor = 0
			fetch = m.startListing()
		}
		m.searchActive = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.CursorEnd()
		cmd := tea.Batch(fetch, m.searchInput.Focus())
		return m, cmd
	case key.Matches(msg, m.keys.TrendingWindow):
		if m.currentView == ViewTrending {
			if m.trendingWindow == tmdb.TrendingWeek {
				m.trendingWindow = tmdb.TrendingDay
			} else {
				m.trendingWindow = tmdb.TrendingWeek
			}
			m.listing.page = 1
			m.cursor = 0
			cmd := m.startListing()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Open):
		if movie, ok := m.selectedMovie(); ok {
			m.bus.OpenDetail(movie.ID)
		}
	case key.Matches(msg, m.keys.ToggleWatchlist):
		m.toggleSelected(lists.Watchlist)
	case key.Matches(msg, m.keys.ToggleWatched):
		m.toggleSelected(lists.Watched)
	case key.Matches(msg, m.keys.ToggleFavorite):
		m.toggleSelected(lists.Favorites)
	}
	return m, nil
}

func (m *Model) toggleSelected(kind lists.Kind) {
	movie, ok := m.selectedMovie()
	if !ok {
		return
	}
	m.toggle(kind, movie)
	m.clampCursor()
}

// toggle flips membership and announces the result on the bus.
func (m *Model) toggle(kind lists.Kind, movie tmdb.Movie) {
	if !movie.Valid() {
		return
	}
	title := movieTitle(movie)
	if m.lists.Toggle(kind, movie) {
		m.bus.Notify(fmt.Sprintf("Added %s to %s", title, kind.Label()), events.Success, 0)
		return
	}
	m.bus.Notify(fmt.Sprintf("Removed %s from %s", title, kind.Label()), events.Info, 0)
}

func movieTitle(movie tmdb.Movie) string {
	title := strings.TrimSpace(movie.Title)
	if title == "" {
		title = strings.TrimSpace(movie.OriginalTitle)
	}
	if title == "" {
		return fmt.Sprintf("#%d", movie.ID)
	}
	return title
}

// listTitle is the box title for the current view.
func (m Model) listTitle() string {
	title := m.currentView.Title()
	switch m.currentView {
	case ViewTrending:
		title += " (" + string(m.trendingWindow) + ")"
	case ViewSearch:
		if m.searchQuery != "" {
			title += fmt.Sprintf(" %q", m.searchQuery)
		}
	}
	if m.currentView.Remote() && m.listing.result.TotalPages > 0 {
		title += fmt.Sprintf(" - page %d/%d", m.listing.page, m.listing.result.TotalPages)
	}
	return title
}

// renderBrowse renders the movie table for the current view.
func (m Model) renderBrowse() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	innerWidth := max(m.width-2, 10)
	bg := NewBgStyle(m.theme.SurfaceAlt)

	var body string
	rows := m.rows()
	switch {
	case m.listing.loading:
		body = bg.Render("Loading...", styles.MutedText)
	case m.listing.err != nil:
		body = bg.Render(errorSummary(m.listing.err), styles.DangerText) +
			bg.Render(" - press ", styles.FaintText) +
			bg.Render("r", styles.AccentText) +
			bg.Render(" to retry", styles.FaintText)
	case len(rows) == 0:
		body = bg.Render(m.emptyMessage(), styles.MutedText)
	default:
		body = m.renderTable(rows, innerWidth, height-2)
	}

	return m.renderBox(m.listTitle(), body, m.width, height, true)
}

func (m Model) emptyMessage() string {
	switch m.currentView {
	case ViewSearch:
		if m.searchQuery == "" {
			return "Press / to search the catalog"
		}
		return "No movies matched"
	case ViewWatchlist, ViewWatched, ViewFavorites:
		return "Nothing saved yet - press w, x or f on any movie"
	default:
		return "No movies"
	}
}

// renderTable renders rows with a header line, keeping the cursor visible.
func (m Model) renderTable(rows []tmdb.Movie, width, height int) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.SurfaceAlt)

	showGenres := m.width >= LayoutCompactWidth
	const yearW, ratingW, flagsW = 4, 5, 5
	fixed := yearW + ratingW + flagsW + 8
	genreW := 0
	if showGenres {
		genreW = min(28, width/4)
		fixed += genreW + 2
	}
	titleW := max(width-fixed, 10)

	header := " " + padRight("Title", titleW) + "  " + padRight("Year", yearW) + "  " + padRight("Score", ratingW)
	if showGenres {
		header += "  " + padRight("Genres", genreW)
	}
	header += "  " + padRight("Lists", flagsW)
	lines := []string{bg.FillLine(bg.Render(header, styles.FaintText), width)}

	visible := max(height-1, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(rows))

	for i := start; i < end; i++ {
		movie := rows[i]
		rating := ""
		if r := movie.Rating(); r > 0 {
			rating = fmt.Sprintf("%.1f", r)
		}
		genres := strings.Join(movie.GenreNames(m.genres), ", ")
		flags := m.membershipFlags(movie.ID)

		if i == m.cursor {
			text := " " + padRight(movieTitle(movie), titleW) + "  " + padRight(movie.Year(), yearW) + "  " + padRight(rating, ratingW)
			if showGenres {
				text += "  " + padRight(genres, genreW)
			}
			text += "  " + padRight(flags, flagsW)
			lines = append(lines, styles.Selected.Width(width).Render(text))
			continue
		}

		line := bg.Space() +
			bg.Render(padRight(movieTitle(movie), titleW), styles.Text) + bg.Spaces(2) +
			bg.Render(padRight(movie.Year(), yearW), styles.MutedText) + bg.Spaces(2) +
			bg.Render(padRight(rating, ratingW), styles.RatingText)
		if showGenres {
			line += bg.Spaces(2) + bg.Render(padRight(genres, genreW), styles.FaintText)
		}
		line += bg.Spaces(2) + bg.Render(padRight(flags, flagsW), styles.AccentText)
		lines = append(lines, bg.FillLine(line, width))
	}
	return strings.Join(lines, "\n")
}

// membershipFlags renders W/X/F markers for the saved lists holding id.
func (m Model) membershipFlags(id int) string {
	marks := []string{"-", "-", "-"}
	if m.lists.Contains(lists.Watchlist, id) {
		marks[0] = "W"
	}
	if m.lists.Contains(lists.Watched, id) {
		marks[1] = "X"
	}
	if m.lists.Contains(lists.Favorites, id) {
		marks[2] = "F"
	}
	return strings.Join(marks, " ")
}

// errorSummary turns a catalog error into a short message.
func errorSummary(err error) string {
	switch {
	case err == nil:
		return ""
	case tmdb.IsTimeout(err):
		return "The catalog took too long to respond"
	case tmdb.StatusCode(err) == http.StatusUnauthorized:
		return "The catalog rejected the API key"
	case tmdb.StatusCode(err) == http.StatusNotFound:
		return "Not found"
	case tmdb.StatusCode(err) > 0:
		return fmt.Sprintf("Catalog error %d", tmdb.StatusCode(err))
	default:
		return "Could not reach the catalog"
	}
}

// renderBox renders content in a box with the title embedded in the top
// border: ┌─── Title ───┐
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor = m.theme.BorderFocus
	}
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 1)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	top := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)
	bottom := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColor))
	contentLines := strings.Split(content, "\n")
	lines := make([]string, 0, height)
	lines = append(lines, top)
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, bg.Render("│", borderStyle)+contentStyle.Render(line)+bg.Render("│", borderStyle))
	}
	lines = append(lines, bottom)
	return strings.Join(lines, "\n")
}
