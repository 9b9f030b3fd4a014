package document

import (
	"time"

	"github.com/tibibalance/tibisync/internal/model"
)

// EmotionToDocument converts an emotion record to its wire representation.
// The ISO date is the document path, not a payload field.
func EmotionToDocument(e *model.EmotionRecord) Document {
	return Document{
		"mood":       string(e.Mood),
		"recordedAt": e.RecordedAt.UTC().Format(time.RFC3339),
	}
}

// EmotionFromDocument converts a wire document back to an emotion record.
// The record id is the ISO date, so a document is only unusable when the
// date itself is malformed. Missing or unknown moods default to calm.
func EmotionFromDocument(date string, d Document) *model.EmotionRecord {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil
	}
	return &model.EmotionRecord{
		Date:       date,
		Mood:       model.ParseMood(d.Str("mood", "estado", "emocion")),
		RecordedAt: d.Time("recordedAt", "fechaRegistro"),
	}
}
