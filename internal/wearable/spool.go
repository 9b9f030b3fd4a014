package wearable

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SpoolConfig holds configuration for the spool watcher.
type SpoolConfig struct {
	// DebounceInterval is how long to wait before processing file changes,
	// batching rapid writes from the bridge together.
	DebounceInterval time.Duration

	// Logger for spool activity.
	Logger *log.Logger
}

// DefaultSpoolConfig returns sensible defaults.
func DefaultSpoolConfig() *SpoolConfig {
	return &SpoolConfig{
		DebounceInterval: 250 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[wearable] ", log.LstdFlags),
	}
}

// Spool ingests daily-metrics files a bridge process drops into a
// directory. Each file holds one companion Message as JSON. Successfully
// ingested files are removed; files that fail to decode are quarantined
// with a .bad suffix so the bridge doesn't re-trigger on them forever.
type Spool struct {
	dir    string
	sink   Sink
	config *SpoolConfig

	watcher *fsnotify.Watcher

	pending   map[string]time.Time
	pendingMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSpool creates a spool watcher over dir.
func NewSpool(dir string, sink Sink, config *SpoolConfig) (*Spool, error) {
	if dir == "" {
		return nil, fmt.Errorf("spool dir cannot be empty")
	}
	if config == nil {
		config = DefaultSpoolConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create spool watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Spool{
		dir:     dir,
		sink:    sink,
		config:  config,
		watcher: watcher,
		pending: make(map[string]time.Time),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start ingests any files already present, then begins watching for new
// ones. Non-blocking; use Stop to shut down.
func (s *Spool) Start() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}
	if err := s.watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch spool directory %s: %w", s.dir, err)
	}

	// Drain files dropped while we weren't running.
	if err := s.ingestExisting(); err != nil {
		return err
	}

	s.wg.Add(2)
	go s.watchEvents()
	go s.processPending()

	s.config.Logger.Printf("Watching spool: %s", s.dir)
	return nil
}

// Stop shuts the watcher down and waits for in-flight ingestion.
func (s *Spool) Stop() error {
	s.cancel()
	if err := s.watcher.Close(); err != nil {
		s.config.Logger.Printf("Error closing spool watcher: %v", err)
	}
	s.wg.Wait()
	return nil
}

// ingestExisting processes files already in the spool. Individual file
// failures are logged and quarantined without failing the startup.
func (s *Spool) ingestExisting() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read spool directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		s.ingestFile(filepath.Join(s.dir, entry.Name()))
	}
	return nil
}

// watchEvents queues spool file events with debouncing.
func (s *Spool) watchEvents() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			s.pendingMu.Lock()
			s.pending[event.Name] = time.Now()
			s.pendingMu.Unlock()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.config.Logger.Printf("Spool watcher error: %v", err)
		}
	}
}

// processPending ingests queued files once their debounce window passed.
func (s *Spool) processPending() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			var ready []string

			s.pendingMu.Lock()
			for path, queuedAt := range s.pending {
				if now.Sub(queuedAt) < s.config.DebounceInterval {
					continue
				}
				ready = append(ready, path)
				delete(s.pending, path)
			}
			s.pendingMu.Unlock()

			for _, path := range ready {
				s.ingestFile(path)
			}
		}
	}
}

// ingestFile decodes one spool file, forwards it to the sink and removes
// it. Decode failures quarantine the file; sink failures leave it in place
// for the next pass.
func (s *Spool) ingestFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		s.config.Logger.Printf("WARNING: failed to read spool file %s: %v", path, err)
		return
	}

	m, err := DecodeMetrics(data)
	if err != nil {
		s.config.Logger.Printf("WARNING: quarantining malformed spool file %s: %v", path, err)
		if err := os.Rename(path, path+".bad"); err != nil {
			s.config.Logger.Printf("WARNING: failed to quarantine %s: %v", path, err)
		}
		return
	}

	if err := s.sink(s.ctx, m); err != nil {
		s.config.Logger.Printf("WARNING: failed to forward metrics from %s: %v (will retry)", path, err)
		s.pendingMu.Lock()
		s.pending[path] = time.Now()
		s.pendingMu.Unlock()
		return
	}

	if err := os.Remove(path); err != nil {
		s.config.Logger.Printf("WARNING: failed to remove ingested spool file %s: %v", path, err)
	}
	s.config.Logger.Printf("Ingested metrics for %s from %s", m.Date, filepath.Base(path))
}
