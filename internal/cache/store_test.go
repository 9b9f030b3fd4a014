package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/tibibalance/tibisync/internal/model"
)

// testStore opens an initialized store on a temporary path
func testStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return s
}

func testHabit(id, name string) *model.Habit {
	h := &model.Habit{ID: id, Name: name}
	h.SetDefaults()
	return h
}

// TestOpen_Success tests database creation
func TestOpen_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if s.path != path {
		t.Errorf("path = %q, want %q", s.path, path)
	}
}

// TestInitSchema tests that all tables exist and creation is idempotent
func TestInitSchema(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	tables := []string{"habits", "habit_templates", "emotions", "activities", "profile"}
	for _, table := range tables {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
		if err := s.conn.QueryRow(query, table).Scan(&count); err != nil {
			t.Fatalf("Failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Table %s does not exist", table)
		}
	}

	// Second run must be a no-op
	if err := s.InitSchema(ctx); err != nil {
		t.Errorf("Second InitSchema() failed: %v", err)
	}
}

// TestUpsertHabit_Insert tests inserting a new habit
func TestUpsertHabit_Insert(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.UpsertHabit(ctx, testHabit("habit-1", "Drink water")); err != nil {
		t.Fatalf("UpsertHabit() failed: %v", err)
	}

	got, err := s.GetHabit(ctx, "habit-1")
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}
	if got.Name != "Drink water" {
		t.Errorf("Name = %q, want 'Drink water'", got.Name)
	}
	if got.Category != model.CategoryWellness {
		t.Errorf("Category = %q, want %q", got.Category, model.CategoryWellness)
	}
}

// TestUpsertHabit_Replace tests that re-upserting replaces the whole row,
// including fields the new value no longer carries
func TestUpsertHabit_Replace(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	h := testHabit("habit-1", "Read")
	h.Description = "20 pages before bed"
	h.Notify = true
	if err := s.UpsertHabit(ctx, h); err != nil {
		t.Fatalf("First UpsertHabit() failed: %v", err)
	}

	replacement := testHabit("habit-1", "Read more")
	if err := s.UpsertHabit(ctx, replacement); err != nil {
		t.Fatalf("Second UpsertHabit() failed: %v", err)
	}

	got, err := s.GetHabit(ctx, "habit-1")
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}
	if got.Name != "Read more" {
		t.Errorf("Name = %q, want 'Read more'", got.Name)
	}
	if got.Description != "" {
		t.Errorf("Description = %q, want empty (row replaced, not merged)", got.Description)
	}
	if got.Notify {
		t.Error("Notify = true, want false (row replaced, not merged)")
	}

	count, err := s.CountHabits(ctx)
	if err != nil {
		t.Fatalf("CountHabits() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountHabits() = %d, want 1", count)
	}
}

// TestUpsertHabit_Idempotent tests that applying the same habit twice
// yields one row
func TestUpsertHabit_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	h := testHabit("habit-1", "Meditate")
	if err := s.UpsertHabit(ctx, h); err != nil {
		t.Fatalf("First UpsertHabit() failed: %v", err)
	}
	if err := s.UpsertHabit(ctx, h); err != nil {
		t.Fatalf("Second UpsertHabit() failed: %v", err)
	}

	count, err := s.CountHabits(ctx)
	if err != nil {
		t.Fatalf("CountHabits() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountHabits() = %d, want 1", count)
	}
}

// TestUpsertHabit_Invalid tests that invalid habits are rejected
func TestUpsertHabit_Invalid(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.UpsertHabit(ctx, &model.Habit{ID: "habit-1"}); err == nil {
		t.Error("expected error for habit without name, got nil")
	}
	if err := s.UpsertHabit(ctx, &model.Habit{Name: "No ID"}); err == nil {
		t.Error("expected error for habit without id, got nil")
	}
}

// TestDeleteHabit tests deletion, including deleting a missing row
func TestDeleteHabit(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	if err := s.UpsertHabit(ctx, testHabit("habit-1", "Run")); err != nil {
		t.Fatalf("UpsertHabit() failed: %v", err)
	}

	if err := s.DeleteHabit(ctx, "habit-1"); err != nil {
		t.Fatalf("DeleteHabit() failed: %v", err)
	}

	if _, err := s.GetHabit(ctx, "habit-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHabit() after delete: err = %v, want ErrNotFound", err)
	}

	// Deleting again must succeed: replayed removal diffs hit this path.
	if err := s.DeleteHabit(ctx, "habit-1"); err != nil {
		t.Errorf("Second DeleteHabit() failed: %v", err)
	}
	if err := s.DeleteHabit(ctx, "never-existed"); err != nil {
		t.Errorf("DeleteHabit(missing) failed: %v", err)
	}
}

// TestClearHabits tests the purge path used on identity change
func TestClearHabits(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for i := 1; i <= 3; i++ {
		h := testHabit(fmt.Sprintf("habit-%d", i), fmt.Sprintf("Habit %d", i))
		if err := s.UpsertHabit(ctx, h); err != nil {
			t.Fatalf("UpsertHabit() failed: %v", err)
		}
	}

	if err := s.ClearHabits(ctx); err != nil {
		t.Fatalf("ClearHabits() failed: %v", err)
	}

	count, err := s.CountHabits(ctx)
	if err != nil {
		t.Fatalf("CountHabits() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("CountHabits() = %d, want 0", count)
	}
}

// TestListHabits_Order tests creation-time ordering
func TestListHabits_Order(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"habit-c", "habit-a", "habit-b"} {
		h := testHabit(id, "Habit "+id)
		h.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		h.UpdatedAt = h.CreatedAt
		if err := s.UpsertHabit(ctx, h); err != nil {
			t.Fatalf("UpsertHabit(%s) failed: %v", id, err)
		}
	}

	habits, err := s.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits() failed: %v", err)
	}
	if len(habits) != 3 {
		t.Fatalf("ListHabits() returned %d habits, want 3", len(habits))
	}

	want := []string{"habit-c", "habit-a", "habit-b"}
	for i, h := range habits {
		if h.ID != want[i] {
			t.Errorf("habits[%d].ID = %q, want %q", i, h.ID, want[i])
		}
	}
}

// TestUpsertEmotion_OnePerDay tests that the date is the primary key:
// logging the same day twice replaces the mood
func TestUpsertEmotion_OnePerDay(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	rec := &model.EmotionRecord{Date: "2026-08-29", Mood: model.MoodSad, RecordedAt: time.Now().UTC()}
	if err := s.UpsertEmotion(ctx, rec); err != nil {
		t.Fatalf("First UpsertEmotion() failed: %v", err)
	}

	rec.Mood = model.MoodHappy
	if err := s.UpsertEmotion(ctx, rec); err != nil {
		t.Fatalf("Second UpsertEmotion() failed: %v", err)
	}

	got, err := s.GetEmotion(ctx, "2026-08-29")
	if err != nil {
		t.Fatalf("GetEmotion() failed: %v", err)
	}
	if got.Mood != model.MoodHappy {
		t.Errorf("Mood = %q, want %q", got.Mood, model.MoodHappy)
	}

	count, err := s.CountEmotions(ctx)
	if err != nil {
		t.Fatalf("CountEmotions() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountEmotions() = %d, want 1", count)
	}
}

// TestListEmotions_NewestFirst tests the journal ordering
func TestListEmotions_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for _, date := range []string{"2026-08-27", "2026-08-29", "2026-08-28"} {
		rec := &model.EmotionRecord{Date: date, Mood: model.MoodCalm, RecordedAt: time.Now().UTC()}
		if err := s.UpsertEmotion(ctx, rec); err != nil {
			t.Fatalf("UpsertEmotion(%s) failed: %v", date, err)
		}
	}

	records, err := s.ListEmotions(ctx)
	if err != nil {
		t.Fatalf("ListEmotions() failed: %v", err)
	}

	want := []string{"2026-08-29", "2026-08-28", "2026-08-27"}
	if len(records) != len(want) {
		t.Fatalf("ListEmotions() returned %d records, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec.Date != want[i] {
			t.Errorf("records[%d].Date = %q, want %q", i, rec.Date, want[i])
		}
	}
}

// TestProfile_RoundTrip tests profile scalar-column persistence
func TestProfile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	p := &model.UserProfile{
		UID:         "user-1",
		DisplayName: "Sofia",
		Email:       "sofia@example.com",
		PhotoURL:    "https://cdn.example.com/sofia.png",
		BirthDate:   time.Date(2001, 5, 14, 0, 0, 0, 0, time.UTC),
	}
	if err := s.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() failed: %v", err)
	}

	got, err := s.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if got.DisplayName != "Sofia" {
		t.Errorf("DisplayName = %q, want 'Sofia'", got.DisplayName)
	}
	if got.Email != p.Email {
		t.Errorf("Email = %q, want %q", got.Email, p.Email)
	}
	if !got.BirthDate.Equal(p.BirthDate) {
		t.Errorf("BirthDate = %v, want %v", got.BirthDate, p.BirthDate)
	}
}

// TestActivities_ListByHabit tests the habit-scoped activity filter
func TestActivities_ListByHabit(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	now := time.Now().UTC()
	acts := []*model.HabitActivity{
		{ID: "act-1", HabitID: "habit-1", Status: model.StatusPending, ScheduledFor: now},
		{ID: "act-2", HabitID: "habit-1", Status: model.StatusCompleted, ScheduledFor: now},
		{ID: "act-3", HabitID: "habit-2", Status: model.StatusPending, ScheduledFor: now},
	}
	for _, a := range acts {
		if err := s.UpsertActivity(ctx, a); err != nil {
			t.Fatalf("UpsertActivity(%s) failed: %v", a.ID, err)
		}
	}

	all, err := s.ListActivities(ctx, "")
	if err != nil {
		t.Fatalf("ListActivities(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListActivities(all) returned %d, want 3", len(all))
	}

	scoped, err := s.ListActivities(ctx, "habit-1")
	if err != nil {
		t.Fatalf("ListActivities(habit-1) failed: %v", err)
	}
	if len(scoped) != 2 {
		t.Errorf("ListActivities(habit-1) returned %d, want 2", len(scoped))
	}
}

// TestObserveHabits tests that writes re-emit the list
func TestObserveHabits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := testStore(t)

	stream := s.ObserveHabits(ctx)

	// Initial snapshot is the empty list.
	first := recvList(t, stream)
	if len(first) != 0 {
		t.Fatalf("initial snapshot has %d habits, want 0", len(first))
	}

	if err := s.UpsertHabit(ctx, testHabit("habit-1", "Stretch")); err != nil {
		t.Fatalf("UpsertHabit() failed: %v", err)
	}

	next := recvList(t, stream)
	if len(next) != 1 || next[0].ID != "habit-1" {
		t.Fatalf("after upsert got %d habits, want [habit-1]", len(next))
	}

	if err := s.DeleteHabit(ctx, "habit-1"); err != nil {
		t.Fatalf("DeleteHabit() failed: %v", err)
	}

	afterDelete := recvList(t, stream)
	if len(afterDelete) != 0 {
		t.Fatalf("after delete got %d habits, want 0", len(afterDelete))
	}

	// Cancelling the context closes the stream.
	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancel")
		}
	}
}

func recvList(t *testing.T, stream <-chan []*model.Habit) []*model.Habit {
	t.Helper()
	select {
	case habits, ok := <-stream:
		if !ok {
			t.Fatal("stream closed unexpectedly")
		}
		return habits
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stream emission")
		return nil
	}
}

// TestClose tests that Close is safe to call twice
func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}
}
