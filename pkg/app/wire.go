package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Phonezzzz/llmbridge/internal/config"
	"github.com/Phonezzzz/llmbridge/internal/core"
	"github.com/Phonezzzz/llmbridge/internal/cron"
	"github.com/Phonezzzz/llmbridge/internal/imagegen"
	"github.com/Phonezzzz/llmbridge/internal/llm"
	"github.com/Phonezzzz/llmbridge/internal/resource"
)

// schedulerModule wraps the cron scheduler to satisfy core.Module, so the
// background jobs participate in the App lifecycle. Start also warms up the
// catalog so the first /v1/models request does not serve an empty list.
type schedulerModule struct {
	scheduler *cron.Scheduler
	catalog   *llm.Catalog
	logger    *slog.Logger
}

func (m *schedulerModule) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{ID: "cron.scheduler"}
}

func (m *schedulerModule) Start() error {
	if m.catalog != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.catalog.Refresh(ctx); err != nil {
				m.logger.Warn("initial catalog refresh failed", "error", err)
			}
		}()
	}
	return m.scheduler.Start()
}

func (m *schedulerModule) Stop(ctx context.Context) error {
	return m.scheduler.Stop(ctx)
}

// wireLLM builds the request router from the loaded provider modules, the
// model catalog, the image generation service, and the background jobs.
// Must be called after LoadModules and before Start.
func wireLLM(app *core.App, appCtx *core.AppContext, cfg *config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appCtx.RegisterService("metrics.registry", registry)

	// Collect providers in declared order: first match wins at dispatch
	// time, so this order is the routing contract.
	var entries []llm.Registration
	var lister llm.ModelLister
	for _, id := range config.ProviderIDs(cfg) {
		mod, ok := app.Module(id)
		if !ok {
			return fmt.Errorf("wiring: provider module %s not loaded", id)
		}
		p, ok := mod.(llm.Provider)
		if !ok {
			return fmt.Errorf("wiring: module %s is not a provider", id)
		}
		entries = append(entries, llm.Registration{Name: id, Provider: p})

		if lister == nil {
			if l, ok := mod.(llm.ModelLister); ok {
				lister = l
			}
		}
	}

	router, err := llm.NewRouter(entries,
		llm.WithLogger(logger),
		llm.WithMetrics(llm.NewMetrics(registry)),
	)
	if err != nil {
		return fmt.Errorf("wiring: creating router: %w", err)
	}
	appCtx.RegisterService("llm.router", router)

	scheduler := cron.NewScheduler(logger)

	var catalog *llm.Catalog
	if lister != nil {
		policy := llm.RetryPolicy{
			MaxAttempts: cfg.Retry.Attempts(),
			BaseDelay:   cfg.Retry.Delay(),
		}
		catalog = llm.NewCatalog(lister, policy, logger)
		appCtx.RegisterService("llm.catalog", catalog)

		if err := scheduler.RegisterJob(&cron.CatalogRefreshJob{
			Catalog: catalog,
			Logger:  logger,
		}); err != nil {
			return fmt.Errorf("wiring: registering catalog refresh job: %w", err)
		}
	} else {
		logger.Info("wiring: no catalog-capable provider, model listing disabled")
	}

	// The resource store and image generation are optional: without the
	// store module, image requests fail with a validation error at the
	// gateway instead of at startup.
	if svc, ok := appCtx.Service("resource.store"); ok {
		if store, ok := svc.(resource.Store); ok {
			images := imagegen.NewService(router, store, logger)
			appCtx.RegisterService("imagegen.service", images)

			if err := scheduler.RegisterJob(&cron.ResourcePruneJob{
				Store:  store,
				Logger: logger,
			}); err != nil {
				return fmt.Errorf("wiring: registering resource prune job: %w", err)
			}
		}
	}

	app.AppendModule("cron.scheduler", &schedulerModule{
		scheduler: scheduler,
		catalog:   catalog,
		logger:    logger,
	})

	logger.Info("wiring: router ready", "providers", router.Providers())
	return nil
}
