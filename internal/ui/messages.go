package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/five82/cinevault/internal/events"
	"github.com/five82/cinevault/internal/logtail"
	"github.com/five82/cinevault/internal/tmdb"
)

// Messages

type busMsg struct {
	msg events.Message
}

type listingMsg struct {
	seq  uint64
	page tmdb.Page
	err  error
}

type detailMsg struct {
	seq    uint64
	detail tmdb.Detail
	err    error
}

type relatedMsg struct {
	seq     uint64
	related tmdb.Related
	err     error
}

type luckyMsg struct {
	seq   uint64
	movie tmdb.Movie
	err   error
}

type genresMsg struct {
	lookup map[int]string
}

type toastExpiredMsg uuid.UUID

type logsMsg struct {
	lines []string
	err   error
}

type logTickMsg time.Time

// Commands

// listenCmd waits for the next bus message. The model re-issues it after
// every busMsg.
func listenCmd(ctx context.Context, inbox <-chan events.Message) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-inbox:
			return busMsg{msg: msg}
		case <-ctx.Done():
			return nil
		}
	}
}

func genresCmd(ctx context.Context, catalog tmdb.Fetcher) tea.Cmd {
	if catalog == nil {
		return nil
	}
	return func() tea.Msg {
		genres, err := tmdb.Genres(ctx, catalog)
		if err != nil {
			return nil
		}
		return genresMsg{lookup: tmdb.GenreLookup(genres)}
	}
}

func toastExpireCmd(n events.Notify) tea.Cmd {
	return tea.Tick(n.Lifetime(), func(time.Time) tea.Msg {
		return toastExpiredMsg(n.ID)
	})
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogReadLimit)
		return logsMsg{lines: lines, err: err}
	}
}

func logTickCmd() tea.Cmd {
	return tea.Tick(LogRefreshInterval, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}
