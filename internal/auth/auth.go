// Package auth exposes the authenticated identity the sync layer namespaces
// everything under.
//
// The actual credential exchange happens elsewhere (the login command or
// the host app); this package only answers "who is signed in right now" and
// announces identity changes. An empty identity means signed out.
package auth

import "context"

// Provider is the collaborator interface the daemon consumes.
type Provider interface {
	// Current returns the active identity, or "" when signed out.
	Current() string

	// Watch streams identity changes. The current identity is emitted
	// first, then every change, until ctx is cancelled. Consecutive equal
	// values are suppressed.
	Watch(ctx context.Context) (<-chan string, error)
}
