// Package remote provides the client for the cloud document store backing
// TibiBalance.
//
// Documents live at slash-separated paths (see internal/paths). The client
// supports point reads, partial-field merge writes, deletes, bulk collection
// listing, and a subscribe-for-changes primitive that delivers incremental
// diffs. Two implementations exist: a websocket client for the real backend
// and an in-memory store for tests and local development.
package remote

import (
	"fmt"

	"github.com/tibibalance/tibisync/internal/document"
)

// Document aliases the wire document type so callers holding a Client don't
// need a second import for the payloads it moves.
type Document = document.Document

// ChangeKind tags one unit of remote state change.
type ChangeKind string

const (
	// Added indicates a document newly visible to the subscription.
	Added ChangeKind = "added"
	// Modified indicates an existing document changed.
	Modified ChangeKind = "modified"
	// Removed indicates a document was deleted remotely.
	Removed ChangeKind = "removed"
)

// Change describes one document-level change delivered via a subscription.
// Doc is nil for Removed changes.
type Change struct {
	Kind ChangeKind
	ID   string
	Doc  Document
}

// Batch is a group of changes delivered together. A non-nil Err means the
// subscription channel failed; no further batches will arrive on it and
// Changes is empty. Subscribers treat that as "stop processing, awaiting
// re-subscribe", not as fatal.
type Batch struct {
	Changes []Change
	Err     error
}

// Snapshot is one document plus its id, as returned by List.
type Snapshot struct {
	ID  string
	Doc Document
}

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// WriteError is returned when a remote mutation fails (network, permission).
// The caller surfaces it; no automatic retry happens anywhere below the UI.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("remote write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
