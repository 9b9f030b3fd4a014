package document

import (
	"time"

	"github.com/tibibalance/tibisync/internal/model"
)

// HabitToDocument converts a habit to its wire representation. The id is
// carried in the document path, not the payload.
func HabitToDocument(h *model.Habit) Document {
	d := Document{
		"name":      h.Name,
		"category":  string(h.Category),
		"frequency": string(h.Frequency),
		"notify":    h.Notify,
		"challenge": h.Challenge,
		"createdAt": h.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt": h.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if h.Description != "" {
		d["description"] = h.Description
	}
	if h.Icon != "" {
		d["icon"] = h.Icon
	}
	if h.SessionQty != 0 {
		d["sessionQty"] = float64(h.SessionQty)
	}
	if h.SessionUnit != "" {
		d["sessionUnit"] = string(h.SessionUnit)
	}
	if len(h.WeekDays) != 0 {
		days := make([]any, len(h.WeekDays))
		for i, wd := range h.WeekDays {
			days[i] = float64(wd)
		}
		d["weekDays"] = days
	}
	if h.PeriodQty != 0 {
		d["periodQty"] = float64(h.PeriodQty)
	}
	if h.PeriodUnit != "" {
		d["periodUnit"] = h.PeriodUnit
	}
	if h.NotifyMessage != "" {
		d["notifyMessage"] = h.NotifyMessage
	}
	if len(h.NotifyTimes) != 0 {
		times := make([]any, len(h.NotifyTimes))
		for i, tm := range h.NotifyTimes {
			times[i] = tm
		}
		d["notifyTimes"] = times
	}
	return d
}

// HabitFromDocument converts a wire document back to a habit. Returns nil
// when the required name field is absent under both its current and legacy
// keys; callers drop such documents. All other fields default rather than
// fail.
func HabitFromDocument(id string, d Document) *model.Habit {
	name := d.Str("name", "nombre")
	if name == "" {
		return nil
	}
	h := &model.Habit{
		ID:            id,
		Name:          name,
		Description:   d.Str("description", "descripcion"),
		Category:      model.ParseCategory(d.Str("category", "categoria")),
		Icon:          d.Str("icon", "icono"),
		SessionQty:    d.Int("sessionQty", "cantidadSesion"),
		Frequency:     model.ParseFrequency(d.Str("frequency", "frecuencia")),
		WeekDays:      d.Ints("weekDays", "diasSemana"),
		PeriodQty:     d.Int("periodQty", "cantidadPeriodo"),
		PeriodUnit:    d.Str("periodUnit", "unidadPeriodo"),
		Notify:        d.Bool("notify", "notificar"),
		NotifyMessage: d.Str("notifyMessage", "mensajeNotificacion"),
		NotifyTimes:   d.Strings("notifyTimes", "horasNotificacion"),
		Challenge:     d.Bool("challenge", "modoReto"),
		CreatedAt:     d.Time("createdAt", "fechaCreacion"),
		UpdatedAt:     d.Time("updatedAt", "fechaActualizacion"),
	}
	if unit := d.Str("sessionUnit", "unidadSesion"); unit != "" {
		h.SessionUnit = model.ParseSessionUnit(unit)
	}
	h.SetDefaults()
	return h
}

// TemplateFromDocument converts a template-catalog document. Returns nil
// when the required name field is absent.
func TemplateFromDocument(id string, d Document) *model.HabitTemplate {
	name := d.Str("name", "nombre")
	if name == "" {
		return nil
	}
	t := &model.HabitTemplate{
		ID:          id,
		Name:        name,
		Description: d.Str("description", "descripcion"),
		Category:    model.ParseCategory(d.Str("category", "categoria")),
		Icon:        d.Str("icon", "icono"),
		SessionQty:  d.Int("sessionQty", "cantidadSesion"),
		Frequency:   model.ParseFrequency(d.Str("frequency", "frecuencia")),
		Challenge:   d.Bool("challenge", "modoReto"),
	}
	if unit := d.Str("sessionUnit", "unidadSesion"); unit != "" {
		t.SessionUnit = model.ParseSessionUnit(unit)
	}
	return t
}

// TemplateToDocument converts a template to its wire representation.
func TemplateToDocument(t *model.HabitTemplate) Document {
	d := Document{
		"name":      t.Name,
		"category":  string(t.Category),
		"frequency": string(t.Frequency),
		"challenge": t.Challenge,
	}
	if t.Description != "" {
		d["description"] = t.Description
	}
	if t.Icon != "" {
		d["icon"] = t.Icon
	}
	if t.SessionQty != 0 {
		d["sessionQty"] = float64(t.SessionQty)
	}
	if t.SessionUnit != "" {
		d["sessionUnit"] = string(t.SessionUnit)
	}
	return d
}
