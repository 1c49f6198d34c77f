// Package main provides the entry point for the DepthLens viewer.
package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"depthlens/internal/app"
	"depthlens/internal/asset"
	"depthlens/internal/config"
	"depthlens/internal/version"
	"depthlens/internal/viewer"
	"depthlens/ui/mainwindow"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const appID = "io.depthlens.viewer"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to the scene catalog and settings (YAML or JSON)")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	if flag.NArg() > 0 {
		*configPath = flag.Arg(0)
	}

	setupLogging(*logLevel)
	log.Info().Msg(version.String())

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", *configPath).Msg("No config file, starting with an empty catalog")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	loop := app.NewLoop(app.DefaultFrameInterval)
	loop.Start()
	defer loop.Stop()

	loader := asset.NewRouter(cfg.AssetBase, asset.DefaultTimeout)
	fetcher := asset.NewAsyncFetcher(loader, loop)
	defer fetcher.Close()

	v := viewer.New(cfg, fetcher, loop)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.DepthLensTheme{})

	win := mainwindow.New(fyneApp, v, loader, *configPath)

	if cfg.WatchCatalog {
		if watcher := setupCatalogWatch(*configPath, v); watcher != nil {
			defer watcher.Stop()
		}
	}

	v.Start()
	win.ShowAndRun()
	log.Info().Msg("DepthLens shutdown")
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}

// setupCatalogWatch reloads the scene catalog whenever the config file is
// rewritten.
func setupCatalogWatch(path string, v *viewer.Viewer) *app.CatalogWatcher {
	watcher, err := app.NewCatalogWatcher(path, 500*time.Millisecond)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Catalog watch disabled")
		return nil
	}
	watcher.OnChange(func(changed string) {
		log.Info().Str("path", changed).Msg("Catalog changed, reloading")
		v.ReloadCatalog(changed)
	})
	watcher.Start()
	log.Info().Str("path", path).Msg("Watching catalog")
	return watcher
}
