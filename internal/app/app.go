package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/cinevault/internal/config"
	"github.com/five82/cinevault/internal/logging"
	"github.com/five82/cinevault/internal/prefs"
	"github.com/five82/cinevault/internal/storage"
	"github.com/five82/cinevault/internal/ui"
)

// Options configure the CineVault application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/cinevault/prefs.toml
	Ephemeral  bool   // keep collections in memory for this run only
	Version    string
}

// Run boots the CineVault TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Ephemeral {
		cfg.Storage = storage.KindMemory
	}

	logFile, err := logging.OpenFile(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logging.Configure(logging.Config{Level: cfg.LogLevel, Output: logFile})
	log := logging.WithComponent("app")

	session, err := NewSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("close storage")
		}
	}()

	log.Info().
		Str("version", opts.Version).
		Str("storage", cfg.Storage).
		Bool("proxy", strings.TrimSpace(cfg.ProxyURL) != "").
		Interface("counts", session.Lists.Counts()).
		Msg("cinevault starting")

	if cfg.MetricsAddr != "" {
		go func() {
			if err := session.Metrics.Serve(ctx, cfg.MetricsAddr, logging.WithComponent("metrics")); err != nil {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics listener failed")
			}
		}()
	}
	go func() { _ = preflight(ctx, session.Catalog, cfg, log) }()

	prefsPath := opts.PrefsPath
	if strings.TrimSpace(prefsPath) == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Catalog:   session.Catalog,
		Lists:     session.Lists,
		Bus:       session.Bus,
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		LogPath:   cfg.LogPath(),
	})
	log.Info().Err(err).Msg("cinevault stopped")
	return err
}
