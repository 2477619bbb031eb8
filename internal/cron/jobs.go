package cron

import (
	"context"
	"log/slog"
	"time"
)

// Refresher is the catalog surface the refresh job needs. Defined here to
// avoid a dependency on the llm package.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// CatalogRefreshJob keeps the model catalog current. Refresh failures are
// absorbed by the catalog (it keeps serving the previous listing), so the
// job only reports them.
type CatalogRefreshJob struct {
	Catalog      Refresher
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/15 * * * *"
}

// Compile-time interface check.
var _ Job = (*CatalogRefreshJob)(nil)

// Name implements Job.
func (j *CatalogRefreshJob) Name() string { return "catalog_refresh" }

// Schedule implements Job.
func (j *CatalogRefreshJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/15 * * * *"
}

// Run refreshes the catalog.
func (j *CatalogRefreshJob) Run(ctx context.Context) error {
	return j.Catalog.Refresh(ctx)
}

// ResourcePruner is the store surface the prune job needs.
type ResourcePruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

// ResourcePruneJob deletes stored resources older than MaxAge.
type ResourcePruneJob struct {
	Store        ResourcePruner
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

// Compile-time interface check.
var _ Job = (*ResourcePruneJob)(nil)

// Name implements Job.
func (j *ResourcePruneJob) Name() string { return "resource_prune" }

// Schedule implements Job.
func (j *ResourcePruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run prunes resources older than MaxAge.
func (j *ResourcePruneJob) Run(ctx context.Context) error {
	maxAge := j.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	pruned, err := j.Store.Prune(ctx, maxAge)
	if err != nil {
		return err
	}
	if pruned > 0 && j.Logger != nil {
		j.Logger.Info("cron: pruned stored resources", "count", pruned)
	}
	return nil
}
