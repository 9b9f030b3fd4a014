package document

import (
	"time"

	"github.com/tibibalance/tibisync/internal/model"
)

// ProfileToDocument converts a user profile to its wire representation.
// The uid is the document path, not a payload field.
func ProfileToDocument(p *model.UserProfile) Document {
	d := Document{
		"displayName": p.DisplayName,
	}
	if p.Email != "" {
		d["email"] = p.Email
	}
	if p.PhotoURL != "" {
		d["photoUrl"] = p.PhotoURL
	}
	if !p.BirthDate.IsZero() {
		d["birthDate"] = p.BirthDate.UTC().Format(model.DateLayout)
	}
	return d
}

// ProfileFromDocument converts a wire document back to a profile. Returns
// nil when the required display name is absent under both its current and
// legacy keys.
func ProfileFromDocument(uid string, d Document) *model.UserProfile {
	name := d.Str("displayName", "nombre")
	if name == "" {
		return nil
	}
	p := &model.UserProfile{
		UID:         uid,
		DisplayName: name,
		Email:       d.Str("email", "correo"),
		PhotoURL:    d.Str("photoUrl", "fotoUrl"),
	}
	if s := d.Str("birthDate", "fechaNacimiento"); s != "" {
		if t, err := time.Parse(model.DateLayout, s); err == nil {
			p.BirthDate = t
		}
	}
	return p
}
