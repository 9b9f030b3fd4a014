package document

import (
	"time"

	"github.com/tibibalance/tibisync/internal/model"
)

// ActivityToDocument converts a habit activity to its wire representation.
// The habit id is carried in the payload as well as the path so that
// collection-group subscriptions can reconstruct the association.
func ActivityToDocument(a *model.HabitActivity) Document {
	d := Document{
		"habitId":      a.HabitID,
		"status":       string(a.Status),
		"scheduledFor": a.ScheduledFor.UTC().Format(time.RFC3339),
	}
	if a.CompletedAt != nil {
		d["completedAt"] = a.CompletedAt.UTC().Format(time.RFC3339)
	}
	return d
}

// ActivityFromDocument converts a wire document back to a habit activity.
// Returns nil when the required habit id is absent.
func ActivityFromDocument(id string, d Document) *model.HabitActivity {
	habitID := d.Str("habitId", "habitoId")
	if habitID == "" {
		return nil
	}
	a := &model.HabitActivity{
		ID:           id,
		HabitID:      habitID,
		Status:       model.ParseActivityStatus(d.Str("status", "estado")),
		ScheduledFor: d.Time("scheduledFor", "fechaProgramada"),
	}
	if t := d.Time("completedAt", "fechaCompletado"); !t.IsZero() {
		a.CompletedAt = &t
	}
	return a
}
