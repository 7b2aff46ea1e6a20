// Package app wires configuration into the running engine: stores,
// provider chain, strategies, lifecycle manager, HTTP surface, scheduler.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"claws/internal/config"
	"claws/internal/lifecycle"
	"claws/internal/logger"
	"claws/internal/scheduler"
	"claws/internal/store"
	apihttp "claws/internal/transport/http"
)

type App struct {
	cfg     *config.Config
	engine  *Engine
	httpSrv *apihttp.Server
	store   store.Store
}

// NewApp builds the application from a validated config without starting
// anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildApp(cfg)
}

// Engine exposes the run pipeline for one-shot invocations and tests.
func (a *App) Engine() *Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

// ApplyConfig installs a reloaded config into the running engine. Only the
// hot-swappable parts change: the enabled strategy set, lifecycle sizing
// and the symbol list. Store backend, provider chain, scheduler interval
// and HTTP address keep their startup values until restart.
func (a *App) ApplyConfig(cfg *config.Config) error {
	if a == nil || cfg == nil {
		return fmt.Errorf("nil config")
	}
	registry := buildEvaluators(cfg)
	manager := lifecycle.NewManager(lifecycleConfig(cfg), a.store)
	a.engine.swapConfig(cfg, registry, manager)
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("applied reloaded config: %d strategies, %d symbols, capital %.0f",
		len(registry.Evaluators()), len(cfg.Market.Symbols), cfg.Signals.CapitalBase)
	return nil
}

// RunOnce executes a single resolution pass and returns.
func (a *App) RunOnce(ctx context.Context) error {
	defer a.store.Close()
	_, err := a.engine.RunOnce(ctx)
	return err
}

// Run starts the HTTP surface and the aligned scheduler loop, blocking
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.store.Close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpSrv.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		sched := scheduler.NewAlignedScheduler(ctx,
			time.Duration(a.cfg.Scheduler.IntervalMinutes)*time.Minute, 0)
		sched.RunImmediately = a.cfg.Scheduler.RunImmediately
		sched.Start(func() {
			if _, err := a.engine.RunOnce(ctx); err != nil {
				logger.Errorf("run failed: %v", err)
			}
		})
		return nil
	})

	return group.Wait()
}
