package model

// HabitTemplate is a suggested habit from the global, read-only template
// catalog. Templates are not namespaced per identity and survive logout.
type HabitTemplate struct {
	ID string `json:"id"`

	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    Category `json:"category"`
	Icon        string   `json:"icon,omitempty"`

	SessionQty  int         `json:"session_qty,omitempty"`
	SessionUnit SessionUnit `json:"session_unit,omitempty"`
	Frequency   Frequency   `json:"frequency"`
	Challenge   bool        `json:"challenge"`
}

// Instantiate produces a Habit from the template. The returned habit has
// no id yet; the repository assigns one on Add.
func (t *HabitTemplate) Instantiate() Habit {
	h := Habit{
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Icon:        t.Icon,
		SessionQty:  t.SessionQty,
		SessionUnit: t.SessionUnit,
		Frequency:   t.Frequency,
		Challenge:   t.Challenge,
	}
	h.SetDefaults()
	return h
}
