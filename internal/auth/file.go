package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Session is the persisted login state the login command writes and the
// daemon watches.
type Session struct {
	UID   string `json:"uid"`
	Token string `json:"token,omitempty"`
	Email string `json:"email,omitempty"`
}

// FileProvider reads the identity from a session file and announces
// changes by watching the file's directory. Removing the file signs out.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider backed by the session file at path.
// The file not existing is a valid signed-out state.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Current implements Provider.
func (p *FileProvider) Current() string {
	sess, err := ReadSession(p.path)
	if err != nil {
		return ""
	}
	return sess.UID
}

// Watch implements Provider. The session file's parent directory is
// watched rather than the file itself so create/remove cycles keep the
// watch alive.
func (p *FileProvider) Watch(ctx context.Context) (<-chan string, error) {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create session watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch session directory %s: %w", dir, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer watcher.Close()

		last := p.Current()
		select {
		case out <- last:
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(p.path) {
					continue
				}
				id := p.Current()
				if id == last {
					continue
				}
				last = id
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

// ReadSession loads the session file. Returns a zero session (signed out)
// when the file doesn't exist.
func ReadSession(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return sess, nil
}

// WriteSession persists the session file with owner-only permissions.
func WriteSession(path string, sess Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// ClearSession removes the session file. A missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
