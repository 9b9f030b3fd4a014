package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/tibibalance/tibisync/internal/auth"
	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/document"
	"github.com/tibibalance/tibisync/internal/model"
	"github.com/tibibalance/tibisync/internal/paths"
	"github.com/tibibalance/tibisync/internal/remote"
)

// Profile is the repository facade for the signed-in user's profile
// document.
type Profile struct {
	remote remote.Client
	store  *cache.Store
	auth   auth.Provider
	logger *log.Logger
}

// NewProfile creates the profile repository.
func NewProfile(client remote.Client, store *cache.Store, provider auth.Provider, logger *log.Logger) *Profile {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Profile{remote: client, store: store, auth: provider, logger: logger}
}

// Observe streams the cached profile (nil while signed out).
func (r *Profile) Observe(ctx context.Context) <-chan *model.UserProfile {
	return distinct(ctx, r.store.ObserveProfile(ctx))
}

// Get returns the cached profile for the active identity, falling back to
// a remote point read (and caching the result) when the cache is cold.
func (r *Profile) Get(ctx context.Context) (*model.UserProfile, error) {
	uid, err := identity(r.auth)
	if err != nil {
		return nil, err
	}

	p, err := r.store.GetProfile(ctx, uid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		return nil, err
	}

	doc, err := r.remote.Get(ctx, paths.Profile(uid))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, cache.ErrNotFound
	}
	p = document.ProfileFromDocument(uid, doc)
	if p == nil {
		return nil, cache.ErrNotFound
	}
	if err := r.store.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the full profile: remote merge write first, cache upsert
// second.
func (r *Profile) Save(ctx context.Context, p *model.UserProfile) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}
	p.UID = uid
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	if err := r.remote.SetMerge(ctx, paths.Profile(uid), document.ProfileToDocument(p)); err != nil {
		return err
	}
	return r.store.UpsertProfile(ctx, p)
}

// SetPhotoURL updates only the photo field remotely, with an optimistic
// cache update.
func (r *Profile) SetPhotoURL(ctx context.Context, url string) error {
	return r.patchPhoto(ctx, remote.Document{"photoUrl": url}, url)
}

// RemovePhoto deletes the photo field from the remote document entirely
// (field-delete sentinel) and clears it locally.
func (r *Profile) RemovePhoto(ctx context.Context) error {
	return r.patchPhoto(ctx, remote.Document{"photoUrl": document.Delete}, "")
}

func (r *Profile) patchPhoto(ctx context.Context, patch remote.Document, url string) error {
	uid, err := identity(r.auth)
	if err != nil {
		return err
	}

	if err := r.remote.SetMerge(ctx, paths.Profile(uid), patch); err != nil {
		return err
	}

	p, err := r.store.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read profile for optimistic update: %w", err)
	}
	p.PhotoURL = url
	return r.store.UpsertProfile(ctx, p)
}
