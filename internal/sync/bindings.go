package sync

import (
	"context"

	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/document"
	"github.com/tibibalance/tibisync/internal/paths"
	"github.com/tibibalance/tibisync/internal/remote"
)

// HabitsBinding syncs profiles/{uid}/habits into the habits table.
func HabitsBinding(store *cache.Store) Binding {
	return Binding{
		Name:       "habits",
		Collection: paths.Habits,
		Purge:      store.ClearHabits,
		Apply: func(ctx context.Context, ch remote.Change) error {
			if ch.Kind == remote.Removed {
				return store.DeleteHabit(ctx, ch.ID)
			}
			h := document.HabitFromDocument(ch.ID, ch.Doc)
			if h == nil {
				// Malformed document: drop it, never fail the batch.
				return nil
			}
			return store.UpsertHabit(ctx, h)
		},
	}
}

// ProfileBinding syncs the single profiles/{uid} document into the profile
// table. The profile is one document, not a collection, so the collection
// is the profiles root restricted to the identity's id.
func ProfileBinding(store *cache.Store) Binding {
	return Binding{
		Name: "profile",
		Collection: func(identity string) string {
			return paths.Profiles
		},
		Match: func(identity, id string) bool {
			return id == identity
		},
		Purge: store.ClearProfile,
		Apply: func(ctx context.Context, ch remote.Change) error {
			if ch.Kind == remote.Removed {
				return store.DeleteProfile(ctx, ch.ID)
			}
			p := document.ProfileFromDocument(ch.ID, ch.Doc)
			if p == nil {
				return nil
			}
			return store.UpsertProfile(ctx, p)
		},
	}
}

// EmotionsBinding syncs profiles/{uid}/emotions into the emotions table.
func EmotionsBinding(store *cache.Store) Binding {
	return Binding{
		Name:       "emotions",
		Collection: paths.Emotions,
		Purge:      store.ClearEmotions,
		Apply: func(ctx context.Context, ch remote.Change) error {
			if ch.Kind == remote.Removed {
				return store.DeleteEmotion(ctx, ch.ID)
			}
			e := document.EmotionFromDocument(ch.ID, ch.Doc)
			if e == nil {
				return nil
			}
			return store.UpsertEmotion(ctx, e)
		},
	}
}

// ActivitiesBinding syncs every habit's activities via the collection-group
// pattern profiles/{uid}/habits/*/activities.
func ActivitiesBinding(store *cache.Store) Binding {
	return Binding{
		Name:       "activities",
		Collection: paths.ActivityGroup,
		Purge:      store.ClearActivities,
		Apply: func(ctx context.Context, ch remote.Change) error {
			if ch.Kind == remote.Removed {
				return store.DeleteActivity(ctx, ch.ID)
			}
			a := document.ActivityFromDocument(ch.ID, ch.Doc)
			if a == nil {
				return nil
			}
			return store.UpsertActivity(ctx, a)
		},
	}
}

// TemplatesBinding syncs the global habitTemplates catalog. It is a global
// binding: templates are not namespaced per identity and survive logout.
func TemplatesBinding(store *cache.Store) Binding {
	return Binding{
		Name:   "templates",
		Global: true,
		Collection: func(string) string {
			return paths.Templates
		},
		// Purge is nil: global bindings are never purged on identity
		// change.
		Apply: func(ctx context.Context, ch remote.Change) error {
			if ch.Kind == remote.Removed {
				return store.DeleteTemplate(ctx, ch.ID)
			}
			t := document.TemplateFromDocument(ch.ID, ch.Doc)
			if t == nil {
				return nil
			}
			return store.UpsertTemplate(ctx, t)
		},
	}
}
