package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tibibalance/tibisync/internal/model"
)

// UpsertActivity inserts or replaces a habit activity row, keyed by id.
func (s *Store) UpsertActivity(ctx context.Context, a *model.HabitActivity) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid activity: %w", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal activity %s: %w", a.ID, err)
	}

	query := `
	INSERT INTO activities (id, habit_id, data) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		habit_id = excluded.habit_id,
		data     = excluded.data
	`
	if _, err := s.conn.ExecContext(ctx, query, a.ID, a.HabitID, string(data)); err != nil {
		return fmt.Errorf("failed to upsert activity %s: %w", a.ID, err)
	}

	s.hub.notify(topicActivities)
	return nil
}

// DeleteActivity removes an activity row. Returns nil if absent (idempotent).
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete activity %s: %w", id, err)
	}
	s.hub.notify(topicActivities)
	return nil
}

// ClearActivities removes all activity rows. Used on identity change.
func (s *Store) ClearActivities(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM activities`); err != nil {
		return fmt.Errorf("failed to clear activities: %w", err)
	}
	s.hub.notify(topicActivities)
	return nil
}

// GetActivity retrieves a single activity by id. Returns ErrNotFound if
// absent.
func (s *Store) GetActivity(ctx context.Context, id string) (*model.HabitActivity, error) {
	var data string
	err := s.conn.QueryRowContext(ctx, `SELECT data FROM activities WHERE id = ?`, id).Scan(&data)
	if err != nil {
		return nil, err
	}
	return unmarshalActivity(data)
}

// ListActivities returns all cached activities, optionally filtered by
// habit id (empty = all), ordered by scheduled time.
func (s *Store) ListActivities(ctx context.Context, habitID string) ([]*model.HabitActivity, error) {
	query := `SELECT data FROM activities`
	var args []any
	if habitID != "" {
		query += ` WHERE habit_id = ?`
		args = append(args, habitID)
	}
	query += ` ORDER BY json_extract(data, '$.scheduled_for'), id`

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*model.HabitActivity
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a, err := unmarshalActivity(data)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// CountActivities returns the number of cached activities.
func (s *Store) CountActivities(ctx context.Context) (int, error) {
	return s.count(ctx, "activities")
}

// ObserveActivities streams all cached activities, re-emitting after every
// write to the activities table.
func (s *Store) ObserveActivities(ctx context.Context) <-chan []*model.HabitActivity {
	return observe(ctx, s.hub, topicActivities, func(ctx context.Context) ([]*model.HabitActivity, error) {
		return s.ListActivities(ctx, "")
	})
}

func unmarshalActivity(data string) (*model.HabitActivity, error) {
	var a model.HabitActivity
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity row: %w", err)
	}
	return &a, nil
}
