package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/appengine-ltd/wildmons/internal/parser"
	"github.com/appengine-ltd/wildmons/internal/server"
	"github.com/appengine-ltd/wildmons/internal/source"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the encounter browser and JSON API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "drop cached maps when local files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, cache, err := openAtlas()
	if err != nil {
		return err
	}
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		dir, ok := watchDir()
		if !ok {
			logger.Warn("--watch needs a local dir or index source; ignoring")
		} else if err := startWatcher(ctx, dir, cache); err != nil {
			return err
		}
	}

	srv := server.New(a, parser.MatchMode(cfg.Search.Mode), logger)
	err = srv.Run(ctx, addr)
	logger.Info("shutting down")
	return err
}

// watchDir is the directory holding map files for local sources.
func watchDir() (string, bool) {
	if strings.TrimSpace(cfg.Source.URL) != "" {
		return "", false
	}
	switch source.Kind(strings.ToLower(cfg.Source.Kind)) {
	case source.KindDir:
		return cfg.Source.Root, true
	case source.KindIndex, source.KindStatic:
		return filepath.Join(cfg.Source.Root, cfg.Source.MapsDir), true
	default:
		return "", false
	}
}

func startWatcher(ctx context.Context, dir string, cache *source.MemoryCache) error {
	w, err := source.NewWatcher(dir, cfg.Source.Extension, cache, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Warn("map watcher stopped", zap.Error(err))
		}
	}()
	go func() {
		for id := range w.Changed() {
			logger.Info("map reloaded on next request", zap.String("map", id))
		}
	}()
	logger.Info("watching maps", zap.String("dir", dir))
	return nil
}
