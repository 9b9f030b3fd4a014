package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tibibalance/tibisync/internal/model"
)

// UpsertEmotion inserts or replaces one day's emotion record, keyed by the
// ISO date.
func (s *Store) UpsertEmotion(ctx context.Context, e *model.EmotionRecord) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid emotion record: %w", err)
	}

	query := `
	INSERT INTO emotions (date, mood, recorded_at) VALUES (?, ?, ?)
	ON CONFLICT(date) DO UPDATE SET
		mood        = excluded.mood,
		recorded_at = excluded.recorded_at
	`
	_, err := s.conn.ExecContext(ctx, query,
		e.Date,
		string(e.Mood),
		e.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert emotion %s: %w", e.Date, err)
	}

	s.hub.notify(topicEmotions)
	return nil
}

// DeleteEmotion removes one day's record. Returns nil if absent (idempotent).
func (s *Store) DeleteEmotion(ctx context.Context, date string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM emotions WHERE date = ?`, date); err != nil {
		return fmt.Errorf("failed to delete emotion %s: %w", date, err)
	}
	s.hub.notify(topicEmotions)
	return nil
}

// ClearEmotions removes all emotion rows. Used on identity change.
func (s *Store) ClearEmotions(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM emotions`); err != nil {
		return fmt.Errorf("failed to clear emotions: %w", err)
	}
	s.hub.notify(topicEmotions)
	return nil
}

// GetEmotion retrieves one day's record. Returns ErrNotFound if absent.
func (s *Store) GetEmotion(ctx context.Context, date string) (*model.EmotionRecord, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT date, mood, recorded_at FROM emotions WHERE date = ?`, date)
	return scanEmotion(row)
}

// ListEmotions returns all cached records, newest day first.
func (s *Store) ListEmotions(ctx context.Context) ([]*model.EmotionRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT date, mood, recorded_at FROM emotions ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list emotions: %w", err)
	}
	defer rows.Close()

	var records []*model.EmotionRecord
	for rows.Next() {
		rec, err := scanEmotion(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emotions: %w", err)
	}

	return records, nil
}

// CountEmotions returns the number of cached emotion records.
func (s *Store) CountEmotions(ctx context.Context) (int, error) {
	return s.count(ctx, "emotions")
}

// ObserveEmotions streams the emotion journal, re-emitting after every
// write to the emotions table.
func (s *Store) ObserveEmotions(ctx context.Context) <-chan []*model.EmotionRecord {
	return observe(ctx, s.hub, topicEmotions, s.ListEmotions)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmotion(row rowScanner) (*model.EmotionRecord, error) {
	var rec model.EmotionRecord
	var mood, recordedAt string

	if err := row.Scan(&rec.Date, &mood, &recordedAt); err != nil {
		return nil, err
	}

	rec.Mood = model.ParseMood(mood)
	if t, err := time.Parse(time.RFC3339, recordedAt); err == nil {
		rec.RecordedAt = t
	}
	return &rec, nil
}
