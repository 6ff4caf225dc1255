package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/cinevault/internal/config"
	"github.com/five82/cinevault/internal/tmdb"
)

const preflightTimeout = 3 * time.Second

// preflight asks the catalog for its genre list once and logs the outcome,
// so a bad key or unreachable proxy shows up in the log view. Startup never
// waits on it.
func preflight(ctx context.Context, catalog tmdb.Fetcher, cfg config.Config, log zerolog.Logger) error {
	if !cfg.HasCredential() && strings.TrimSpace(cfg.ProxyURL) == "" {
		log.Warn().Msg("no api key or proxy configured; catalog requests will likely fail")
	}

	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()

	genres, err := tmdb.Genres(ctx, catalog)
	if err != nil {
		if tmdb.IsCancelled(err) {
			return err
		}
		log.Warn().Err(err).Msg("catalog preflight failed")
		return err
	}
	log.Info().Int("genres", len(genres)).Msg("catalog reachable")
	return nil
}
