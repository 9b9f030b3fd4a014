// Package repo provides the repository facades the UI layer talks to.
//
// Each repository combines cache reads with coordinated writes. User
// mutations follow remote-first ordering: the remote write must succeed
// before the cache is touched, so the cache never shows state that isn't
// durably persisted remotely. Inbound changes reach the cache through the
// sync coordinators instead; both paths converge on the cache, whose
// observe streams are the single notification point for the UI.
package repo

import (
	"context"
	"errors"
	"reflect"

	"github.com/tibibalance/tibisync/internal/auth"
)

// ErrSignedOut is returned by mutations attempted without an active
// identity.
var ErrSignedOut = errors.New("no active identity")

// identity resolves the active uid or fails with ErrSignedOut.
func identity(p auth.Provider) (string, error) {
	uid := p.Current()
	if uid == "" {
		return "", ErrSignedOut
	}
	return uid, nil
}

// distinct suppresses consecutive structurally-equal emissions so the UI
// doesn't recompose on redundant snapshots.
func distinct[T any](ctx context.Context, in <-chan T) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		var last T
		first := true
		for {
			select {
			case v, ok := <-in:
				if !ok {
					return
				}
				if !first && reflect.DeepEqual(v, last) {
					continue
				}
				first = false
				last = v
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
