package model

import (
	"fmt"
	"time"
)

// UserProfile holds the per-user account fields. The profile's document id
// is the authenticated identity itself, so UID doubles as the cache primary
// key and the remote document name.
type UserProfile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`

	// BirthDate is date-only; the time portion is always midnight UTC.
	BirthDate time.Time `json:"birth_date,omitempty"`
}

// Validate checks that the profile can be persisted.
func (p *UserProfile) Validate() error {
	if p.UID == "" {
		return fmt.Errorf("uid is required")
	}
	if p.DisplayName == "" {
		return fmt.Errorf("display name is required")
	}
	return nil
}
