package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/document"
	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/paths"
	"github.com/tibibalance/tibisync/internal/remote"
)

// Habits is the repository facade for the user's habit collection.
type Habits struct {
	remote remote.Client
	store  *cache.Store
	auth   auth.Provider
	logger *log.Logger
}

// NewHabits creates the habit repository.
//
// If logger is nil, a default logger writing to stderr is used.
func NewHabits(client remote.Client, store *cache.Store, provider auth.Provider, logger *log.Logger) *Habits {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Habits{remote: client, store: store, auth: provider, logger: logger}
}

// Observe streams the cached habit list, suppressing duplicate consecutive
// snapshots.
func (r *Habits) Observe(ctx context.Context) <-chan []*model.Habit {
	return distinct(ctx, r.store.ObserveHabits(ctx))
}

// List returns the cached habits.
func (r *Habits) List(ctx context.Context) ([]*model.Habit, error) {
	return r.store.ListHabits(ctx)
}

// Get returns one cached habit. Returns cache.ErrNotFound if absent.
func (r *Habits) Get(ctx context.Context, id string) (*model.Habit, error) {
	return r.store.GetHabit(ctx, id)
}

// Add creates a habit: assigns an id when absent, writes the remote
// document, then upserts the cache. If the remote write fails the
// operation fails as a whole; creation is intentionally not
// offline-tolerant, so there is no local-only fallback.
func (r *Habits) Add(ctx context.Context, h *model.Habit) (string, error) {
	uid, err := identity(r.auth)
	if err != nil {
		return "", err
	}

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.SetDefaults()
	if err := h.Validate(); err != nil {
		return "", fmt.Errorf("invalid habit: %w", err)
	}

	path := paths.Habit(uid, h.ID)
	if err := r.remote.SetMerge(ctx, path, document.HabitToDocument(h)); err != nil {
		return "", err
	}
	if err := r.store.UpsertHabit(ctx, h); err != nil {
		return "", fmt.Errorf("habit %s persisted remotely but cache upsert failed: %w", h.ID, err)
	}

	r.logger.Printf("Added habit %s (%s)", h.ID, h.Name)
	return h.ID, nil
}

// Update replaces a habit: remote merge write first, cache upsert second.
func (r *Habits) Update(ctx context.Context, h *model.Habit) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}
	if h.ID == "" {
		return errors.New("habit id is required")
	}
	h.UpdateTimestamp()
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid habit: %w", err)
	}

	if err := r.remote.SetMerge(ctx, paths.Habit(uid, h.ID), document.HabitToDocument(h)); err != nil {
		return err
	}
	return r.store.UpsertHabit(ctx, h)
}

// Delete removes a habit remotely, then from the cache.
func (r *Habits) Delete(ctx context.Context, id string) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}
	if err := r.remote.Delete(ctx, paths.Habit(uid, id)); err != nil {
		return err
	}
	return r.store.DeleteHabit(ctx, id)
}

// SetNotify toggles the single notify field. The remote write carries only
// that field; the cache is additionally updated optimistically so the
// toggle is visible even while the subscription is in its soft-failure
// state.
func (r *Habits) SetNotify(ctx context.Context, id string, enabled bool) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}

	patch := remote.Document{"notify": enabled}
	if err := r.remote.SetMerge(ctx, paths.Habit(uid, id), patch); err != nil {
		return err
	}

	h, err := r.store.GetHabit(ctx, id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			// Not cached yet; the subscription will bring it in.
			return nil
		}
		return fmt.Errorf("failed to read habit %s for optimistic update: %w", id, err)
	}
	h.Notify = enabled
	h.UpdateTimestamp()
	return r.store.UpsertHabit(ctx, h)
}
