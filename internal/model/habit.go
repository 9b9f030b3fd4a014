// Package model provides the domain types shared by the cache, sync and
// repository layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies a habit. Stored as a lowercase string on the wire.
type Category string

const (
	CategoryHealth       Category = "health"
	CategoryProductivity Category = "productivity"
	CategoryWellness     Category = "wellness"
)

// ParseCategory parses a wire category value case-insensitively.
// Legacy Spanish values from older documents are accepted. Unknown
// values fall back to CategoryWellness rather than failing.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "health", "salud":
		return CategoryHealth
	case "productivity", "productividad":
		return CategoryProductivity
	case "wellness", "bienestar":
		return CategoryWellness
	default:
		return CategoryWellness
	}
}

// Frequency describes how often a habit repeats.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// ParseFrequency parses a wire frequency value case-insensitively.
// Unknown values fall back to FrequencyDaily.
func ParseFrequency(s string) Frequency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "semanal":
		return FrequencyWeekly
	default:
		return FrequencyDaily
	}
}

// SessionUnit is the unit of a habit session target (e.g. 20 minutes,
// 2 liters).
type SessionUnit string

const (
	UnitMinutes SessionUnit = "minutes"
	UnitHours   SessionUnit = "hours"
	UnitTimes   SessionUnit = "times"
	UnitLiters  SessionUnit = "liters"
)

// ParseSessionUnit parses a wire unit value case-insensitively.
// Unknown values fall back to UnitTimes.
func ParseSessionUnit(s string) SessionUnit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minutes", "minutos":
		return UnitMinutes
	case "hours", "horas":
		return UnitHours
	case "liters", "litros":
		return UnitLiters
	case "times", "veces":
		return UnitTimes
	default:
		return UnitTimes
	}
}

// Habit is a user-defined habit with its schedule and notification
// preferences.
//
// The ID is identical in the remote document path, the cache row and the
// in-memory value; that equality is what makes upsert-by-id a valid merge
// primitive across both sync paths.
type Habit struct {
	ID string `json:"id"`

	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Icon        string   `json:"icon,omitempty"`

	// Session target per repetition, e.g. 20 minutes.
	SessionQty  int         `json:"session_qty,omitempty"`
	SessionUnit SessionUnit `json:"session_unit,omitempty"`

	// Repeat schedule. WeekDays uses time.Weekday numbering (Sunday=0)
	// and is only meaningful for weekly habits.
	Frequency Frequency `json:"frequency"`
	WeekDays  []int     `json:"week_days,omitempty"`

	// Total period the habit runs for, e.g. 30 days.
	PeriodQty  int    `json:"period_qty,omitempty"`
	PeriodUnit string `json:"period_unit,omitempty"`

	Notify        bool     `json:"notify"`
	NotifyMessage string   `json:"notify_message,omitempty"`
	NotifyTimes   []string `json:"notify_times,omitempty"` // "HH:MM"

	// Challenge habits lock their schedule until the period ends.
	Challenge bool `json:"challenge"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the habit can be persisted.
func (h *Habit) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("id is required")
	}
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(h.Name) > 200 {
		return fmt.Errorf("name must be 200 characters or less (got %d)", len(h.Name))
	}
	for _, d := range h.WeekDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("week day must be between 0 and 6 (got %d)", d)
		}
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (h *Habit) SetDefaults() {
	if h.Category == "" {
		h.Category = CategoryWellness
	}
	if h.Frequency == "" {
		h.Frequency = FrequencyDaily
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = h.CreatedAt
	}
}

// UpdateTimestamp sets UpdatedAt to the current time. Call whenever any
// field is modified before writing.
func (h *Habit) UpdateTimestamp() {
	h.UpdatedAt = time.Now().UTC()
}
