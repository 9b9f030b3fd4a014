package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/document"
	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/paths"
	"github.com/tibibalance/tibisync/internal/remote"
)

// Activities is the repository facade for scheduled habit occurrences.
type Activities struct {
	remote remote.Client
	store  *cache.Store
	auth   auth.Provider
	logger *log.Logger
}

// NewActivities creates the activity repository.
func NewActivities(client remote.Client, store *cache.Store, provider auth.Provider, logger *log.Logger) *Activities {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Activities{remote: client, store: store, auth: provider, logger: logger}
}

// Observe streams all cached activities.
func (r *Activities) Observe(ctx context.Context) <-chan []*model.HabitActivity {
	return distinct(ctx, r.store.ObserveActivities(ctx))
}

// List returns cached activities, optionally filtered by habit id
// (empty = all).
func (r *Activities) List(ctx context.Context, habitID string) ([]*model.HabitActivity, error) {
	return r.store.ListActivities(ctx, habitID)
}

// Add schedules an occurrence: remote write first, cache upsert second.
func (r *Activities) Add(ctx context.Context, a *model.HabitActivity) (string, error) {
	uid, err := identity(r.auth)
	if err != nil {
		return "", err
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.SetDefaults()
	if err := a.Validate(); err != nil {
		return "", fmt.Errorf("invalid activity: %w", err)
	}

	path := paths.Activity(uid, a.HabitID, a.ID)
	if err := r.remote.SetMerge(ctx, path, document.ActivityToDocument(a)); err != nil {
		return "", err
	}
	if err := r.store.UpsertActivity(ctx, a); err != nil {
		return "", fmt.Errorf("activity %s persisted remotely but cache upsert failed: %w", a.ID, err)
	}
	return a.ID, nil
}

// SetStatus is the frequent single-field toggle ("completed today"). Only
// the status fields travel on the remote write. The cache is also updated
// optimistically: relying solely on the subscription to reflect the toggle
// would leave the cache diverged for as long as the subscription sits in
// its soft-failure state.
func (r *Activities) SetStatus(ctx context.Context, habitID, activityID string, status model.ActivityStatus) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}

	patch := remote.Document{"status": string(status)}
	var completedAt *time.Time
	if status == model.StatusCompleted {
		now := time.Now().UTC()
		completedAt = &now
		patch["completedAt"] = now.Format(time.RFC3339)
	} else {
		patch["completedAt"] = document.Delete
	}

	if err := r.remote.SetMerge(ctx, paths.Activity(uid, habitID, activityID), patch); err != nil {
		return err
	}

	a, err := r.store.GetActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read activity %s for optimistic update: %w", activityID, err)
	}
	a.Status = status
	a.CompletedAt = completedAt
	return r.store.UpsertActivity(ctx, a)
}

// Complete marks an occurrence completed.
func (r *Activities) Complete(ctx context.Context, habitID, activityID string) error {
	return r.SetStatus(ctx, habitID, activityID, model.StatusCompleted)
}

// Delete removes an occurrence remotely, then from the cache.
func (r *Activities) Delete(ctx context.Context, habitID, activityID string) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}
	if err := r.remote.Delete(ctx, paths.Activity(uid, habitID, activityID)); err != nil {
		return err
	}
	return r.store.DeleteActivity(ctx, activityID)
}
