package paths

import "testing"

// TestPathLayout tests the remote collection layout
func TestPathLayout(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{Profile("u1"), "profiles/u1"},
		{Habits("u1"), "profiles/u1/habits"},
		{Habit("u1", "h1"), "profiles/u1/habits/h1"},
		{Emotion("u1", "2026-08-29"), "profiles/u1/emotions/2026-08-29"},
		{Activity("u1", "h1", "a1"), "profiles/u1/habits/h1/activities/a1"},
		{ActivityGroup("u1"), "profiles/u1/habits/*/activities"},
		{Metric("u1", "2026-08-29"), "profiles/u1/metrics/2026-08-29"},
		{Template("t1"), "habitTemplates/t1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("path = %q, want %q", tt.got, tt.want)
		}
	}
}

// TestSplit tests collection/id separation
func TestSplit(t *testing.T) {
	collection, id := Split("profiles/u1/habits/h1")
	if collection != "profiles/u1/habits" {
		t.Errorf("collection = %q, want 'profiles/u1/habits'", collection)
	}
	if id != "h1" {
		t.Errorf("id = %q, want 'h1'", id)
	}

	collection, id = Split("bare")
	if collection != "" || id != "bare" {
		t.Errorf("Split(bare) = %q, %q, want '', 'bare'", collection, id)
	}
}

// TestMatchCollection tests exact and wildcard matching
func TestMatchCollection(t *testing.T) {
	tests := []struct {
		pattern    string
		collection string
		want       bool
	}{
		{"profiles/u1/habits", "profiles/u1/habits", true},
		{"profiles/u1/habits", "profiles/u2/habits", false},
		{"profiles/u1/habits/*/activities", "profiles/u1/habits/h1/activities", true},
		{"profiles/u1/habits/*/activities", "profiles/u2/habits/h1/activities", false},
		{"profiles/u1/habits/*/activities", "profiles/u1/habits/activities", false},
		{"profiles/u1/habits/*/activities", "profiles/u1/habits/h1/emotions", false},
		{"habitTemplates", "habitTemplates", true},
		{"habitTemplates", "profiles", false},
	}
	for _, tt := range tests {
		if got := MatchCollection(tt.pattern, tt.collection); got != tt.want {
			t.Errorf("MatchCollection(%q, %q) = %v, want %v", tt.pattern, tt.collection, got, tt.want)
		}
	}
}
