// Package app is the composition root for CineVault.
//
// # Startup
//
// Run wires the application in a fixed order:
//
//  1. Load ~/.config/cinevault/config.toml and environment overrides
//  2. Open the log file under the data directory and configure zerolog
//  3. NewSession: open storage, build the catalog client with Prometheus
//     instrumentation, the list store, and the event bus
//  4. Start the optional /metrics listener and a background catalog preflight
//  5. Load UI preferences and run the TUI until the user quits
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()      TOML + env
//	       ├─────> logging.Configure() JSON lines to cinevault.log
//	       ├─────> NewSession()        storage → lists, tmdb.Client, events.Bus
//	       ├─────> preflight()         one genre request, logged
//	       └─────> ui.Run()            Bubble Tea program (blocks)
//
// # Error Handling
//
// Fatal (returned from Run): unreadable or invalid config, an unusable data
// directory, a storage backend that cannot open, or a malformed catalog URL.
//
// Logged only: a missing credential, a failed preflight, persistence
// failures inside the list store, and a metrics listener that cannot bind.
package app
