package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tibibalance/tibisync/internal/model"
)

// UpsertHabit inserts or replaces a habit row, keyed by id. The whole row
// is replaced; there is no field-level merge at the cache layer. Applying
// the same habit twice yields the same state.
func (s *Store) UpsertHabit(ctx context.Context, h *model.Habit) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid habit: %w", err)
	}

	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal habit %s: %w", h.ID, err)
	}

	query := `
	INSERT INTO habits (id, data) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`
	if _, err := s.conn.ExecContext(ctx, query, h.ID, string(data)); err != nil {
		return fmt.Errorf("failed to upsert habit %s: %w", h.ID, err)
	}

	s.hub.notify(topicHabits)
	return nil
}

// DeleteHabit removes a habit row. Returns nil if the habit doesn't exist
// (idempotent).
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete habit %s: %w", id, err)
	}
	s.hub.notify(topicHabits)
	return nil
}

// ClearHabits removes all habit rows. Used on identity change to prevent
// cross-account data leakage.
func (s *Store) ClearHabits(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM habits`); err != nil {
		return fmt.Errorf("failed to clear habits: %w", err)
	}
	s.hub.notify(topicHabits)
	return nil
}

// GetHabit retrieves a single habit by id. Returns sql.ErrNoRows if absent.
func (s *Store) GetHabit(ctx context.Context, id string) (*model.Habit, error) {
	var data string
	err := s.conn.QueryRowContext(ctx, `SELECT data FROM habits WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, err
	}
	return unmarshalHabit(data)
}

// ListHabits returns all cached habits ordered by creation time.
func (s *Store) ListHabits(ctx context.Context) ([]*model.Habit, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT data FROM habits ORDER BY json_extract(data, '$.created_at'), id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []*model.Habit
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		h, err := unmarshalHabit(data)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	return habits, nil
}

// CountHabits returns the number of cached habits.
func (s *Store) CountHabits(ctx context.Context) (int, error) {
	return s.count(ctx, "habits")
}

// ObserveHabits streams the full habit list, re-emitting after every write
// to the habits table. The stream closes when ctx is cancelled.
func (s *Store) ObserveHabits(ctx context.Context) <-chan []*model.Habit {
	return observe(ctx, s.hub, topicHabits, s.ListHabits)
}

func unmarshalHabit(data string) (*model.Habit, error) {
	var h model.Habit
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal habit row: %w", err)
	}
	return &h, nil
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// ErrNotFound aliases sql.ErrNoRows so callers outside this package can
// branch on absence without importing database/sql.
var ErrNotFound = sql.ErrNoRows
