package ui

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/cinevault/internal/config"
	"github.com/five82/cinevault/internal/events"
	"github.com/five82/cinevault/internal/lists"
	"github.com/five82/cinevault/internal/logging"
	"github.com/five82/cinevault/internal/prefs"
	"github.com/five82/cinevault/internal/tmdb"
)

// inboxSize bounds the bus messages queued for the program loop.
const inboxSize = 64

// Options configures the UI.
type Options struct {
	Context   context.Context
	Catalog   tmdb.Fetcher
	Lists     *lists.Store
	Bus       *events.Bus
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	// LogPath is the application log shown in the logs view.
	LogPath string
	Logger  *zerolog.Logger
	// Rand drives lucky picks; nil seeds from the clock.
	Rand *rand.Rand
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	ctx       context.Context
	catalog   tmdb.Fetcher
	lists     *lists.Store
	bus       *events.Bus
	cfg       config.Config
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	log       zerolog.Logger
	rng       *rand.Rand

	// Bus bridge
	inbox       chan events.Message
	unsubscribe func()

	// UI state
	keys        keyMap
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Browse state
	listing        listingState
	cursor         int
	trendingWindow tmdb.TrendingWindow
	searchInput    textinput.Model
	searchActive   bool
	searchQuery    string
	genres         map[int]string

	// Detail overlay
	detail         detailState
	detailViewport viewport.Model

	// Lucky pick
	lucky luckyState

	// Toasts, newest last
	toasts []events.Notify

	// Logs view
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model and subscribes it to the bus. Call
// Close when the program ends.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	log := logging.WithComponent("ui")
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "ui").Logger()
	}

	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	store := opts.Lists
	if store == nil {
		store = lists.New(nil)
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	p := opts.Prefs
	if p.Theme == "" {
		p.Theme = prefs.Defaults().Theme
	}
	start, _ := ParseView(p.StartView)

	inbox := make(chan events.Message, inboxSize)
	unsubscribe := bus.Subscribe(func(msg events.Message) {
		select {
		case inbox <- msg:
		default:
			log.Warn().Msg("ui inbox full; dropping message")
		}
	})

	search := textinput.New()
	search.Placeholder = "Search movies..."
	search.CharLimit = 100

	return Model{
		ctx:            ctx,
		catalog:        opts.Catalog,
		lists:          store,
		bus:            bus,
		cfg:            opts.Config,
		prefs:          p,
		prefsPath:      opts.PrefsPath,
		logPath:        opts.LogPath,
		log:            log,
		rng:            rng,
		inbox:          inbox,
		unsubscribe:    unsubscribe,
		keys:           DefaultKeyMap(),
		theme:          GetTheme(p.Theme),
		currentView:    start,
		listing:        listingState{page: 1},
		trendingWindow: tmdb.TrendingDay,
		searchInput:    search,
		logState:       newLogState(),
	}
}

// Close detaches the model from the bus and cancels in-flight requests.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.listing.stop()
	m.detail.stop()
	m.lucky.stop()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	// The first listing fetch starts on the first WindowSizeMsg, where the
	// model can record its cancel func.
	return tea.Batch(
		listenCmd(m.ctx, m.inbox),
		genresCmd(m.ctx, m.catalog),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		if !m.ready {
			m.ready = true
			cmd = m.enterView(m.currentView)
		}
		m.resizeViewports()
		m.refreshDetailViewport()
		m.refreshLogViewport()
		return m, cmd

	case busMsg:
		cmd := m.handleBus(msg.msg)
		return m, tea.Batch(cmd, listenCmd(m.ctx, m.inbox))

	case listingMsg:
		m.handleListing(msg)
		return m, nil

	case detailMsg:
		cmd := m.handleDetail(msg)
		return m, cmd

	case relatedMsg:
		m.handleRelated(msg)
		return m, nil

	case luckyMsg:
		m.handleLucky(msg)
		return m, nil

	case genresMsg:
		m.genres = msg.lookup
		return m, nil

	case toastExpiredMsg:
		m.expireToast(msg)
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case logTickMsg:
		cmd := m.handleLogTick()
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Text inputs own the keyboard while active
	if m.searchActive {
		return m.handleSearchInput(msg)
	}
	if m.logState.filterActive {
		return m.handleLogFilterInput(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = true
		return m, nil
	}
	if key.Matches(msg, m.keys.CycleTheme) {
		m.cycleTheme()
		return m, nil
	}

	if m.detail.open {
		return m.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Tab):
		cmd := m.enterView(nextView(m.currentView, 1))
		return m, cmd
	case key.Matches(msg, m.keys.ShiftTab):
		cmd := m.enterView(nextView(m.currentView, -1))
		return m, cmd
	case key.Matches(msg, m.keys.JumpView):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(viewOrder) {
			cmd := m.enterView(viewOrder[idx])
			return m, cmd
		}
		return m, nil
	case key.Matches(msg, m.keys.Lucky):
		cmd := m.startLucky()
		return m, cmd
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleBrowseKey(msg)
}

// handleSearchInput routes keys to the search box.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchActive = false
		m.searchInput.Blur()
		return m, nil
	case "enter":
		m.searchActive = false
		m.searchInput.Blur()
		m.searchQuery = strings.TrimSpace(m.searchInput.Value())
		m.listing.page = 1
		m.cursor = 0
		cmd := m.startListing()
		return m, cmd
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// enterView switches to v and starts whatever loading it needs. The
// previous listing fetch is cancelled even when v is local.
func (m *Model) enterView(v View) tea.Cmd {
	m.currentView = v
	m.cursor = 0
	m.listing.page = 1

	var cmds []tea.Cmd
	cmds = append(cmds, m.startListing())
	switch v {
	case ViewSearch:
		if m.searchQuery == "" {
			m.searchActive = true
			cmds = append(cmds, m.searchInput.Focus())
		}
	case ViewLogs:
		cmds = append(cmds, m.startLogs())
	}
	return tea.Batch(cmds...)
}

// cycleTheme switches to the next theme and persists the choice.
func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	m.refreshDetailViewport()
	m.logState.dirty = true
	m.refreshLogViewport()
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn().Err(err).Str("path", m.prefsPath).Msg("save preferences")
		m.bus.Notify("Could not save theme preference", events.Warning, 0)
	}
}

// resizeViewports fits the scrollable panes to the terminal.
func (m *Model) resizeViewports() {
	w, h := m.detailSize()
	// Border and padding take four columns; border and title take three rows.
	m.detailViewport.Width = w - 4
	m.detailViewport.Height = max(h-3, 1)
	m.logViewport.Width = m.width - 2
	m.logViewport.Height = m.contentHeight() - 2
}

// contentHeight is the number of rows between the chrome lines.
func (m Model) contentHeight() int {
	return max(m.height-chromeHeight, 3)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	if m.detail.open {
		b.WriteString(m.renderDetail())
	} else {
		b.WriteString(m.renderContent())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	if m.currentView == ViewLogs {
		return m.renderLogs()
	}
	return m.renderBrowse()
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	opts.Context = ctx

	m := New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	}
	return err
}
