package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the width below which the genre column is hidden.
	LayoutCompactWidth = 100

	// LayoutDetailMaxWidth caps the detail overlay width.
	LayoutDetailMaxWidth = 96
)

// Log display limits.
const (
	// LogReadLimit is the number of trailing log lines read per refresh.
	LogReadLimit = 500

	// maxRelated caps the recommendations listed in the detail overlay.
	maxRelated = 6
)

// Timing constants.
const (
	// LogRefreshInterval is the tick used while the logs view is visible.
	LogRefreshInterval = 2 * time.Second

	// LuckyTimeout bounds a lucky pick, which may issue two discover calls.
	LuckyTimeout = 20 * time.Second
)

// chromeHeight is the number of rows used by the header, command bar and
// status line.
const chromeHeight = 3
