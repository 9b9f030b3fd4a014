package remote

import (
	"context"
	"sync"

	"github.com/tibibalance/tibisync/internal/document"
	"github.com/tibibalance/tibisync/internal/paths"
)

// MemStore is an in-memory Client with full Subscribe semantics. It backs
// tests and local development; the websocket client talks to the real
// backend.
//
// Change delivery is synchronous with the mutating call, which makes test
// ordering deterministic: by the time SetMerge returns, every matching
// subscriber has observed the diff.
type MemStore struct {
	mu       sync.Mutex
	docs     map[string]Document
	subs     map[int]*memSub
	nextSub  int
	subCalls int

	// failWrites, when non-nil, makes every mutation fail with a
	// *WriteError wrapping it.
	failWrites error
}

type memSub struct {
	pattern string
	fn      func(Batch)
}

// NewMemStore creates an empty in-memory document store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]Document),
		subs: make(map[int]*memSub),
	}
}

// FailWrites makes subsequent mutations fail with the given error wrapped
// in a *WriteError. Pass nil to restore normal operation.
func (m *MemStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}

// BreakSubscriptions delivers an error batch to every live subscriber and
// drops them, simulating a closed listener channel. Existing documents are
// untouched.
func (m *MemStore) BreakSubscriptions(err error) {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[int]*memSub)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(Batch{Err: err})
	}
}

// SubscribeCount returns how many Subscribe calls the store has served.
func (m *MemStore) SubscribeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subCalls
}

// Len returns the number of stored documents.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Get implements Client.
func (m *MemStore) Get(_ context.Context, path string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, nil
	}
	return cloneDoc(doc), nil
}

// SetMerge implements Client.
func (m *MemStore) SetMerge(_ context.Context, path string, doc Document) error {
	m.mu.Lock()

	if m.failWrites != nil {
		err := m.failWrites
		m.mu.Unlock()
		return &WriteError{Path: path, Err: err}
	}

	existing, existed := m.docs[path]
	merged := cloneDoc(existing)
	if merged == nil {
		merged = make(Document, len(doc))
	}
	for k, v := range doc {
		if document.IsDelete(v) {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	m.docs[path] = merged

	kind := Modified
	if !existed {
		kind = Added
	}
	collection, id := paths.Split(path)
	targets := m.matching(collection)
	snapshot := cloneDoc(merged)
	m.mu.Unlock()

	for _, fn := range targets {
		fn(Batch{Changes: []Change{{Kind: kind, ID: id, Doc: cloneDoc(snapshot)}}})
	}
	return nil
}

// Delete implements Client. Deleting an absent document is a no-op.
func (m *MemStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()

	if m.failWrites != nil {
		err := m.failWrites
		m.mu.Unlock()
		return &WriteError{Path: path, Err: err}
	}

	if _, ok := m.docs[path]; !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.docs, path)

	collection, id := paths.Split(path)
	targets := m.matching(collection)
	m.mu.Unlock()

	for _, fn := range targets {
		fn(Batch{Changes: []Change{{Kind: Removed, ID: id}}})
	}
	return nil
}

// List implements Client.
func (m *MemStore) List(_ context.Context, collection string) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(collection), nil
}

// Subscribe implements Client. The initial snapshot lands synchronously
// before Subscribe returns.
func (m *MemStore) Subscribe(_ context.Context, collection string, fn func(Batch)) (CancelFunc, error) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subCalls++
	m.subs[id] = &memSub{pattern: collection, fn: fn}
	initial := m.snapshotLocked(collection)
	m.mu.Unlock()

	changes := make([]Change, 0, len(initial))
	for _, snap := range initial {
		changes = append(changes, Change{Kind: Added, ID: snap.ID, Doc: snap.Doc})
	}
	fn(Batch{Changes: changes})

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
	return cancel, nil
}

// snapshotLocked collects docs whose collection matches the pattern.
// Caller holds the lock.
func (m *MemStore) snapshotLocked(pattern string) []Snapshot {
	var out []Snapshot
	for path, doc := range m.docs {
		collection, id := paths.Split(path)
		if paths.MatchCollection(pattern, collection) {
			out = append(out, Snapshot{ID: id, Doc: cloneDoc(doc)})
		}
	}
	return out
}

// matching returns the handlers subscribed to a concrete collection.
// Caller holds the lock.
func (m *MemStore) matching(collection string) []func(Batch) {
	var out []func(Batch)
	for _, sub := range m.subs {
		if paths.MatchCollection(sub.pattern, collection) {
			out = append(out, sub.fn)
		}
	}
	return out
}

func cloneDoc(d Document) Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
