package model

import (
	"fmt"
	"time"
)

// DailyMetrics is the health summary a paired wearable pushes to the phone
// once or more per day. Delivery is best-effort; a later push for the same
// date replaces the earlier one.
type DailyMetrics struct {
	Date            string   `json:"date"` // DateLayout
	Steps           int      `json:"steps"`
	ActiveCalories  float64  `json:"active_calories"`
	ExerciseMinutes int      `json:"exercise_minutes"`
	AvgHeartRate    *float64 `json:"avg_heart_rate,omitempty"`
}

// Validate checks that the metrics payload is usable.
func (m *DailyMetrics) Validate() error {
	if m.Date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(DateLayout, m.Date); err != nil {
		return fmt.Errorf("date must be %s formatted: %w", DateLayout, err)
	}
	if m.Steps < 0 {
		return fmt.Errorf("steps must be non-negative (got %d)", m.Steps)
	}
	return nil
}
