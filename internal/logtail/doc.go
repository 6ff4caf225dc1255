// Package logtail reads the tail of CineVault's log file for the in-app log
// view.
//
// # Overview
//
// The application logs zerolog JSON lines to <data_dir>/cinevault.log. This
// package extracts the last N lines of that file, parses them into Entry
// values, and renders them as compact single-line text. Colour is left to
// the UI.
//
// # Reading Log Files
//
// Read uses a ring buffer of size maxLines, so it scans the file once and
// holds O(maxLines) lines in memory regardless of file size:
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//	entries := logtail.ParseLines(lines)
//	for _, e := range logtail.Filter(entries, "warn", "") {
//		fmt.Println(logtail.Format(e))
//	}
//
// # Error Handling
//
// Read returns nil, nil for a non-existent file (nothing logged yet). Other
// errors (permission denied, I/O errors) are returned wrapped. Parse never
// fails: lines that are not JSON objects come back with Raw set and are
// rendered unchanged.
package logtail
