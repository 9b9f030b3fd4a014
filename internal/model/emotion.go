package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO date format used for emotion record ids and
// wearable metrics dates.
const DateLayout = "2006-01-02"

// Mood is the emotional state recorded for one day.
type Mood string

const (
	MoodCalm    Mood = "calm"
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
	MoodFear    Mood = "fear"
	MoodDisgust Mood = "disgust"
)

// ParseMood parses a wire mood value case-insensitively. Legacy Spanish
// values are accepted. Unknown values fall back to MoodCalm.
func ParseMood(s string) Mood {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "calm", "calma":
		return MoodCalm
	case "happy", "felicidad", "feliz":
		return MoodHappy
	case "sad", "tristeza", "triste":
		return MoodSad
	case "angry", "enojo", "ira":
		return MoodAngry
	case "fear", "miedo":
		return MoodFear
	case "disgust", "asco":
		return MoodDisgust
	default:
		return MoodCalm
	}
}

// EmotionRecord is one day's journaled emotional state. The Date string
// (DateLayout) is the entity id: one record per user per day, so logging
// twice on the same day overwrites.
type EmotionRecord struct {
	Date       string    `json:"date"`
	Mood       Mood      `json:"mood"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Validate checks that the record can be persisted.
func (e *EmotionRecord) Validate() error {
	if e.Date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("date must be %s formatted: %w", DateLayout, err)
	}
	return nil
}
