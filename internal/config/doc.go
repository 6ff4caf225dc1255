// Package config loads CineVault's TOML configuration.
//
// # Overview
//
// The configuration names the catalog endpoints, the credential used for
// direct requests, the data directory, and a few tuning knobs. All of it is
// optional: with no file and no environment, CineVault talks straight to the
// public catalog API and stores data under ~/.local/share/cinevault.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/cinevault/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//  5. Non-empty environment variables override the result
//
// # File Format
//
//	api_key = ""
//	proxy_url = "https://edge.example.workers.dev/3"
//	direct_url = "https://api.themoviedb.org/3"
//	image_host = "https://image.tmdb.org"
//	data_dir = "~/.local/share/cinevault"
//	storage = "file"            # file | badger | memory
//	request_timeout = "10s"
//	requests_per_second = 20    # 0 = default, negative disables pacing
//	region_order = ["IN", "US", "GB", "CA", "AU"]
//	log_level = "info"
//	metrics_addr = ""           # e.g. "127.0.0.1:9464"
//
// # Environment Overrides
//
//   - TMDB_API_KEY: api_key
//   - TMDB_PROXY_URL: proxy_url
//   - TMDB_IMAGE_PROXY: image_host
//   - CINEVAULT_DATA_DIR: data_dir
//   - LOG_LEVEL: log_level
//
// # Error Handling
//
// Missing files are not errors. Unreadable files, invalid TOML, an
// unparsable request_timeout, and an unknown storage backend are. A missing
// api_key is not an error here; the catalog client warns once and proceeds.
package config
