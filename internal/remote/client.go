package remote

import "context"

// Client is the narrow interface the sync coordinators and repositories
// use to reach the document store.
type Client interface {
	// Get performs a point read. Returns (nil, nil) when the document is
	// absent.
	Get(ctx context.Context, path string) (Document, error)

	// SetMerge performs a partial write: fields present in doc are written,
	// fields absent are left untouched, and fields set to document.Delete
	// are removed remotely. Returns a *WriteError on failure; the caller
	// does not retry automatically.
	SetMerge(ctx context.Context, path string, doc Document) error

	// Delete removes the remote document entirely. Idempotent.
	Delete(ctx context.Context, path string) error

	// List returns every document in a collection. The collection may be a
	// pattern with "*" segments (collection group).
	List(ctx context.Context, collection string) ([]Snapshot, error)

	// Subscribe registers a live listener on a collection. The handler is
	// invoked with the initial full snapshot as a batch of Added changes,
	// then with every subsequent diff. A Batch carrying Err terminates the
	// subscription. The returned CancelFunc must be called before
	// registering a replacement listener on the same cache table.
	Subscribe(ctx context.Context, collection string, fn func(Batch)) (CancelFunc, error)
}
