package model

import (
	"fmt"
	"strings"
	"time"
)

// ActivityStatus tracks one scheduled occurrence of a habit.
type ActivityStatus string

const (
	StatusPending   ActivityStatus = "pending"
	StatusCompleted ActivityStatus = "completed"
	StatusMissed    ActivityStatus = "missed"
)

// ParseActivityStatus parses a wire status value case-insensitively.
// Unknown values fall back to StatusPending.
func ParseActivityStatus(s string) ActivityStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "completado", "done":
		return StatusCompleted
	case "missed", "perdido":
		return StatusMissed
	default:
		return StatusPending
	}
}

// HabitActivity is a single scheduled occurrence of a habit, created when
// the occurrence becomes due and toggled as the user completes it.
type HabitActivity struct {
	ID      string `json:"id"`
	HabitID string `json:"habit_id"`

	Status       ActivityStatus `json:"status"`
	ScheduledFor time.Time      `json:"scheduled_for"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// Validate checks that the activity can be persisted.
func (a *HabitActivity) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if a.HabitID == "" {
		return fmt.Errorf("habit id is required")
	}
	if a.ScheduledFor.IsZero() {
		return fmt.Errorf("scheduled_for is required")
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (a *HabitActivity) SetDefaults() {
	if a.Status == "" {
		a.Status = StatusPending
	}
}
