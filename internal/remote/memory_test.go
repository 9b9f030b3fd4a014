package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/tibibalance/tibisync/internal/document"
)

// TestMemStore_GetAbsent tests that a missing document reads as nil, nil
func TestMemStore_GetAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	doc, err := m.Get(ctx, "profiles/u1/habits/h1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if doc != nil {
		t.Errorf("Get(absent) = %v, want nil", doc)
	}
}

// TestMemStore_SetMerge tests field-level merge semantics
func TestMemStore_SetMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	path := "profiles/u1/habits/h1"
	if err := m.SetMerge(ctx, path, Document{"name": "Run", "notify": true}); err != nil {
		t.Fatalf("First SetMerge() failed: %v", err)
	}
	if err := m.SetMerge(ctx, path, Document{"name": "Run daily"}); err != nil {
		t.Fatalf("Second SetMerge() failed: %v", err)
	}

	doc, err := m.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if doc["name"] != "Run daily" {
		t.Errorf("name = %v, want 'Run daily'", doc["name"])
	}
	// Untouched fields survive the merge.
	if doc["notify"] != true {
		t.Errorf("notify = %v, want true", doc["notify"])
	}
}

// TestMemStore_DeleteSentinel tests field removal through the merge write
func TestMemStore_DeleteSentinel(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	path := "profiles/u1"
	if err := m.SetMerge(ctx, path, Document{"displayName": "Dana", "photoUrl": "x.png"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if err := m.SetMerge(ctx, path, Document{"photoUrl": document.Delete}); err != nil {
		t.Fatalf("SetMerge(delete sentinel) failed: %v", err)
	}

	doc, err := m.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if _, ok := doc["photoUrl"]; ok {
		t.Errorf("photoUrl still present: %v", doc["photoUrl"])
	}
	if doc["displayName"] != "Dana" {
		t.Errorf("displayName = %v, want 'Dana'", doc["displayName"])
	}
}

// TestMemStore_DeleteIdempotent tests that deleting an absent doc is a no-op
func TestMemStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if err := m.Delete(ctx, "profiles/u1/habits/h1"); err != nil {
		t.Errorf("Delete(absent) failed: %v", err)
	}
}

// TestMemStore_Subscribe tests the initial snapshot plus live diffs
func TestMemStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if err := m.SetMerge(ctx, "profiles/u1/habits/h1", Document{"name": "Run"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	var batches []Batch
	cancel, err := m.Subscribe(ctx, "profiles/u1/habits", func(b Batch) {
		batches = append(batches, b)
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer cancel()

	// Initial snapshot arrived synchronously.
	if len(batches) != 1 {
		t.Fatalf("got %d batches after Subscribe, want 1", len(batches))
	}
	if len(batches[0].Changes) != 1 || batches[0].Changes[0].Kind != Added {
		t.Fatalf("initial batch = %+v, want one Added change", batches[0])
	}

	// A write to the subscribed collection delivers a Modified diff.
	if err := m.SetMerge(ctx, "profiles/u1/habits/h1", Document{"notify": true}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches after write, want 2", len(batches))
	}
	if batches[1].Changes[0].Kind != Modified {
		t.Errorf("kind = %v, want Modified", batches[1].Changes[0].Kind)
	}

	// A write elsewhere is not delivered.
	if err := m.SetMerge(ctx, "profiles/u2/habits/h9", Document{"name": "Other"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if len(batches) != 2 {
		t.Errorf("got %d batches after foreign write, want 2", len(batches))
	}

	// A delete delivers Removed.
	if err := m.Delete(ctx, "profiles/u1/habits/h1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if len(batches) != 3 || batches[2].Changes[0].Kind != Removed {
		t.Fatalf("after delete batches = %d, want Removed as third", len(batches))
	}

	// After cancel nothing more arrives.
	cancel()
	if err := m.SetMerge(ctx, "profiles/u1/habits/h2", Document{"name": "New"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if len(batches) != 3 {
		t.Errorf("got %d batches after cancel, want 3", len(batches))
	}
}

// TestMemStore_SubscribeWildcard tests collection-group patterns
func TestMemStore_SubscribeWildcard(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	var batches []Batch
	cancel, err := m.Subscribe(ctx, "profiles/u1/habits/*/activities", func(b Batch) {
		batches = append(batches, b)
	})
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer cancel()

	if err := m.SetMerge(ctx, "profiles/u1/habits/h1/activities/a1", Document{"habitId": "h1"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if err := m.SetMerge(ctx, "profiles/u1/habits/h2/activities/a2", Document{"habitId": "h2"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	// Different user: must not match.
	if err := m.SetMerge(ctx, "profiles/u2/habits/h1/activities/a3", Document{"habitId": "h1"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	// One empty initial batch plus two matching diffs.
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
}

// TestMemStore_FailWrites tests the injected write failure
func TestMemStore_FailWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	cause := errors.New("backend unavailable")
	m.FailWrites(cause)

	err := m.SetMerge(ctx, "profiles/u1", Document{"displayName": "Dana"})
	if err == nil {
		t.Fatal("SetMerge() succeeded, want failure")
	}
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("err = %T, want *WriteError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err does not wrap the injected cause")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after failed write", m.Len())
	}

	m.FailWrites(nil)
	if err := m.SetMerge(ctx, "profiles/u1", Document{"displayName": "Dana"}); err != nil {
		t.Errorf("SetMerge() after recovery failed: %v", err)
	}
}

// TestMemStore_BreakSubscriptions tests the error-batch path
func TestMemStore_BreakSubscriptions(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	var got []Batch
	if _, err := m.Subscribe(ctx, "profiles/u1/habits", func(b Batch) {
		got = append(got, b)
	}); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	cause := errors.New("listener channel closed")
	m.BreakSubscriptions(cause)

	if len(got) != 2 {
		t.Fatalf("got %d batches, want initial snapshot + error batch", len(got))
	}
	if !errors.Is(got[1].Err, cause) {
		t.Errorf("error batch Err = %v, want %v", got[1].Err, cause)
	}

	// The subscriber was dropped: further writes deliver nothing.
	if err := m.SetMerge(ctx, "profiles/u1/habits/h1", Document{"name": "Run"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d batches after break, want 2", len(got))
	}
}
