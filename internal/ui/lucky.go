package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cinevault/internal/events"
	"github.com/five82/cinevault/internal/tmdb"
)

type luckyState struct {
	busy   bool
	seq    uint64
	cancel context.CancelFunc
}

func (l luckyState) stop() {
	if l.cancel != nil {
		l.cancel()
	}
}

// startLucky draws a random presentable movie. Only one draw runs at a time.
func (m *Model) startLucky() tea.Cmd {
	if m.lucky.busy || m.catalog == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(m.ctx, LuckyTimeout)
	m.lucky.seq++
	m.lucky.busy = true
	m.lucky.cancel = cancel

	seq := m.lucky.seq
	catalog := m.catalog
	rng := m.rng
	return func() tea.Msg {
		defer cancel()
		movie, err := tmdb.LuckyPick(ctx, catalog, tmdb.LuckyQuery{}, rng, time.Now())
		return luckyMsg{seq: seq, movie: movie, err: err}
	}
}

// handleLucky opens the drawn movie through the bus, the same path a table
// selection takes.
func (m *Model) handleLucky(msg luckyMsg) {
	if msg.seq != m.lucky.seq {
		return
	}
	m.lucky.busy = false
	m.lucky.cancel = nil
	switch {
	case msg.err == nil:
		m.bus.Notify(fmt.Sprintf("Feeling lucky: %s", movieTitle(msg.movie)), events.Info, 0)
		m.bus.OpenDetail(msg.movie.ID)
	case errors.Is(msg.err, tmdb.ErrNoMatch):
		m.bus.Notify("No movie matched, try again", events.Warning, 0)
	case tmdb.IsCancelled(msg.err):
	default:
		m.log.Warn().Err(msg.err).Msg("lucky pick failed")
		m.bus.Notify(errorSummary(msg.err), events.Danger, 0)
	}
}
