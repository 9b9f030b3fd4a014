package repo

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/document"
	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/paths"
	"github.com/tibibalance/tibisync/internal/remote"
)

// Emotions is the repository facade for the daily emotion journal.
type Emotions struct {
	remote remote.Client
	store  *cache.Store
	auth   auth.Provider
	logger *log.Logger
}

// NewEmotions creates the emotion repository.
func NewEmotions(client remote.Client, store *cache.Store, provider auth.Provider, logger *log.Logger) *Emotions {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Emotions{remote: client, store: store, auth: provider, logger: logger}
}

// Observe streams the cached journal, newest day first.
func (r *Emotions) Observe(ctx context.Context) <-chan []*model.EmotionRecord {
	return distinct(ctx, r.store.ObserveEmotions(ctx))
}

// List returns the cached journal.
func (r *Emotions) List(ctx context.Context) ([]*model.EmotionRecord, error) {
	return r.store.ListEmotions(ctx)
}

// Log records the mood for a day. The ISO date is the entity id, so
// logging the same day twice overwrites: one record per user per day.
func (r *Emotions) Log(ctx context.Context, date string, mood model.Mood) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}

	rec := &model.EmotionRecord{Date: date, Mood: mood, RecordedAt: time.Now().UTC()}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid emotion record: %w", err)
	}

	if err := r.remote.SetMerge(ctx, paths.Emotion(uid, date), document.EmotionToDocument(rec)); err != nil {
		return err
	}
	return r.store.UpsertEmotion(ctx, rec)
}

// LogToday records today's mood.
func (r *Emotions) LogToday(ctx context.Context, mood model.Mood) error {
	return r.Log(ctx, time.Now().Format(model.DateLayout), mood)
}

// Delete removes one day's record remotely, then from the cache.
func (r *Emotions) Delete(ctx context.Context, date string) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}
	if err := r.remote.Delete(ctx, paths.Emotion(uid, date)); err != nil {
		return err
	}
	return r.store.DeleteEmotion(ctx, date)
}
