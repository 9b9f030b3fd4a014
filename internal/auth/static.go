package auth

import (
	"context"
	"sync"
)

// Static is an in-process Provider whose identity is set programmatically.
// Used by tests and by one-shot CLI commands that already know the uid.
type Static struct {
	mu       sync.Mutex
	identity string
	watchers []chan string
}

// NewStatic creates a provider starting at the given identity ("" = signed
// out).
func NewStatic(identity string) *Static {
	return &Static{identity: identity}
}

// Current implements Provider.
func (s *Static) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SetIdentity changes the identity and notifies watchers. A no-op when the
// identity is unchanged.
func (s *Static) SetIdentity(identity string) {
	s.mu.Lock()
	if identity == s.identity {
		s.mu.Unlock()
		return
	}
	s.identity = identity
	watchers := make([]chan string, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, ch := range watchers {
		ch <- identity
	}
}

// Watch implements Provider.
func (s *Static) Watch(ctx context.Context) (<-chan string, error) {
	updates := make(chan string, 8)
	out := make(chan string)

	s.mu.Lock()
	current := s.identity
	s.watchers = append(s.watchers, updates)
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			for i, ch := range s.watchers {
				if ch == updates {
					s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
		}()

		last := current
		select {
		case out <- current:
		case <-ctx.Done():
			return
		}
		for {
			select {
			case id := <-updates:
				if id == last {
					continue
				}
				last = id
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
