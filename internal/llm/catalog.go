package llm

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Catalog caches the model list of a catalog-capable provider. Refresh is
// the one operation wrapped in the retry policy.
type Catalog struct {
	lister ModelLister
	policy RetryPolicy
	logger *slog.Logger

	mu        sync.RWMutex
	models    []Model
	refreshed time.Time
}

// NewCatalog creates a catalog over the given lister.
func NewCatalog(lister ModelLister, policy RetryPolicy, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(nopHandler{})
	}
	return &Catalog{lister: lister, policy: policy, logger: logger}
}

// Refresh fetches the model list, retrying per the policy. On success the
// cached list is replaced atomically; on failure the previous list is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	var models []Model
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		models, err = c.lister.ListModels(ctx)
		return err
	})
	if err != nil {
		c.logger.Warn("catalog refresh failed", "error", err)
		return err
	}

	c.mu.Lock()
	c.models = models
	c.refreshed = time.Now()
	c.mu.Unlock()

	c.logger.Info("catalog refreshed", "models", len(models))
	return nil
}

// Models returns the cached model list.
func (c *Catalog) Models() []Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Model(nil), c.models...)
}

// RefreshedAt returns when the catalog was last refreshed successfully.
// The zero time means never.
func (c *Catalog) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}
