package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tibibalance/tibisync/internal/model"
)

func parseDate(s string) (time.Time, error) {
	return time.Parse(model.DateLayout, s)
}

// UpsertProfile inserts or replaces the profile row. The profile table is
// scalar columns rather than a blob so individual fields stay queryable.
func (s *Store) UpsertProfile(ctx context.Context, p *model.UserProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	var birth sql.NullString
	if !p.BirthDate.IsZero() {
		birth = sql.NullString{String: p.BirthDate.UTC().Format(model.DateLayout), Valid: true}
	}

	query := `
	INSERT INTO profile (uid, display_name, email, photo_url, birth_date)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(uid) DO UPDATE SET
		display_name = excluded.display_name,
		email        = excluded.email,
		photo_url    = excluded.photo_url,
		birth_date   = excluded.birth_date
	`
	_, err := s.conn.ExecContext(ctx, query, p.UID, p.DisplayName, p.Email, p.PhotoURL, birth)
	if err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.UID, err)
	}

	s.hub.notify(topicProfile)
	return nil
}

// DeleteProfile removes the profile row. Returns nil if absent (idempotent).
func (s *Store) DeleteProfile(ctx context.Context, uid string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM profile WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", uid, err)
	}
	s.hub.notify(topicProfile)
	return nil
}

// ClearProfile removes all profile rows. Used on identity change.
func (s *Store) ClearProfile(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM profile`); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	s.hub.notify(topicProfile)
	return nil
}

// GetProfile retrieves the cached profile for an identity. Returns
// ErrNotFound if absent.
func (s *Store) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT uid, display_name, email, photo_url, birth_date FROM profile WHERE uid = ?`, uid)

	var p model.UserProfile
	var email, photo, birth sql.NullString
	if err := row.Scan(&p.UID, &p.DisplayName, &email, &photo, &birth); err != nil {
		return nil, err
	}
	p.Email = email.String
	p.PhotoURL = photo.String
	if birth.Valid {
		if t, err := parseDate(birth.String); err == nil {
			p.BirthDate = t
		}
	}
	return &p, nil
}

// ObserveProfile streams the cached profile (nil while signed out),
// re-emitting after every write to the profile table.
func (s *Store) ObserveProfile(ctx context.Context) <-chan *model.UserProfile {
	out := make(chan *model.UserProfile, 1)
	sig, cancel := s.hub.subscribe(topicProfile)

	go func() {
		defer close(out)
		defer cancel()

		for {
			p, err := s.firstProfile(ctx)
			if err == nil {
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-sig:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// firstProfile returns the single cached profile, or nil when the table is
// empty. The table never holds more than one row in practice because it is
// purged before a new identity's data lands.
func (s *Store) firstProfile(ctx context.Context) (*model.UserProfile, error) {
	var uid string
	err := s.conn.QueryRowContext(ctx, `SELECT uid FROM profile LIMIT 1`).Scan(&uid)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, uid)
}
