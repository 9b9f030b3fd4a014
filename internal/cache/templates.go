package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tibibalance/tibisync/internal/model"
)

// UpsertTemplate inserts or replaces a template-catalog row, keyed by id.
func (s *Store) UpsertTemplate(ctx context.Context, t *model.HabitTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("invalid template: id is required")
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template %s: %w", t.ID, err)
	}

	query := `
	INSERT INTO habit_templates (id, data) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`
	if _, err := s.conn.ExecContext(ctx, query, t.ID, string(data)); err != nil {
		return fmt.Errorf("failed to upsert template %s: %w", t.ID, err)
	}

	s.hub.notify(topicTemplates)
	return nil
}

// DeleteTemplate removes a template row. Returns nil if absent (idempotent).
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM habit_templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	s.hub.notify(topicTemplates)
	return nil
}

// ClearTemplates removes all template rows. Templates are global data and
// are NOT cleared on identity change; this exists for cache resets.
func (s *Store) ClearTemplates(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM habit_templates`); err != nil {
		return fmt.Errorf("failed to clear templates: %w", err)
	}
	s.hub.notify(topicTemplates)
	return nil
}

// ListTemplates returns all cached catalog templates ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]*model.HabitTemplate, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT data FROM habit_templates ORDER BY json_extract(data, '$.name'), id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.HabitTemplate
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		var t model.HabitTemplate
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template row: %w", err)
		}
		templates = append(templates, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// CountTemplates returns the number of cached catalog templates.
func (s *Store) CountTemplates(ctx context.Context) (int, error) {
	return s.count(ctx, "habit_templates")
}

// ObserveTemplates streams the template catalog, re-emitting after every
// write to the habit_templates table.
func (s *Store) ObserveTemplates(ctx context.Context) <-chan []*model.HabitTemplate {
	return observe(ctx, s.hub, topicTemplates, s.ListTemplates)
}
