package repo

import (
	"context"

	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/model"
)

// Templates is the read-only facade over the global habit template
// catalog. The catalog is synced by its own coordinator; callers never
// write it.
type Templates struct {
	store *cache.Store
}

// NewTemplates creates the template catalog facade.
func NewTemplates(store *cache.Store) *Templates {
	return &Templates{store: store}
}

// Observe streams the cached catalog.
func (r *Templates) Observe(ctx context.Context) <-chan []*model.HabitTemplate {
	return distinct(ctx, r.store.ObserveTemplates(ctx))
}

// List returns the cached catalog.
func (r *Templates) List(ctx context.Context) ([]*model.HabitTemplate, error) {
	return r.store.ListTemplates(ctx)
}
