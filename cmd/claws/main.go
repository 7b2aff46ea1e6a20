package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"claws/internal/app"
	"claws/internal/config"
	"claws/internal/logger"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to config file (default $CLAWS_CONFIG or configs/config.yaml)")
		once    = flag.Bool("once", false, "execute a single run and exit instead of starting the scheduler")
	)
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("CLAWS_CONFIG")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("initializing log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("config loaded (env=%s, store=%s, providers=%s)",
		cfg.App.Env, cfg.Store.Backend, strings.Join(cfg.Market.Providers, ","))

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("initializing app failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once || !cfg.Scheduler.Enabled {
		if err := a.RunOnce(ctx); err != nil {
			log.Fatalf("run failed: %v", err)
		}
		return
	}

	// Long-running mode follows config edits: strategy set, sizing and
	// symbols pick up the new values on the next scheduled run.
	if _, err := config.Watch(path, cfg, func(next *config.Config) {
		if err := a.ApplyConfig(next); err != nil {
			logger.Errorf("applying reloaded config failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("watching config failed: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
