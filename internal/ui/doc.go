// Package ui provides the CineVault terminal interface.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model owns all view state and talks to the
// core through three collaborators: a tmdb.Fetcher for catalog reads, a
// lists.Store for the saved collections, and an events.Bus for the
// OpenDetail and Notify messages. The core never imports this package.
//
// # Package Structure
//
//   - app.go: Model, Options, Init/Update/View, and Run
//   - views.go: the view enum and ParseView for the start_view preference
//   - browse.go: paged catalog listings, saved-list tables, toggles
//   - detail.go: the detail overlay opened through the bus
//   - lucky.go: random pick from the discover endpoint
//   - toast.go: bus delivery and transient notifications
//   - logs.go: tail of the application log
//   - header.go, help.go, theme.go, style_helpers.go: rendering
//
// # Bus Bridge
//
// The bus delivers synchronously on the publisher's goroutine, which is
// usually the program loop itself. New subscribes a listener that copies
// each message into a buffered inbox; listenCmd turns the inbox into
// busMsg values one at a time. Enter and the lucky pick both publish
// OpenDetail, so every detail overlay opens along the same path.
//
// # Request Scoping
//
// Each listing fetch runs under its own context derived from the program
// context. Changing view, page, query, or trending window cancels the
// previous fetch and bumps a sequence number; results with an old sequence
// or a Cancelled error are dropped silently. Other errors stay on screen
// with r to retry. The detail overlay and lucky pick follow the same rule.
//
// # Key Bindings
//
//   - Tab / Shift+Tab or 1-9: switch views
//   - j/k, g/G: move; n/p: next/previous page
//   - Enter: open details
//   - w / x / f: toggle Watch Later / Watched / Favorites
//   - /: search (catalog) or filter (logs)
//   - L: lucky pick; d: trending day/week; r: retry
//   - T: cycle theme (saved to prefs.toml)
//   - ?: help; q or Ctrl+C: quit
package ui
