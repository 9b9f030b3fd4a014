// Package sync keeps the local cache in step with the remote document
// store.
//
// One Coordinator runs per entity collection. Each owns its subscription
// lifecycle and applies inbound change batches to the cache through its
// Binding. The coordinator is resilient: an individual document that fails
// to apply is logged and skipped, never aborting the batch, and a broken
// subscription stalls the coordinator until the next identity announcement
// instead of crashing it.
package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/tibibalance/tibisync/internal/remote"
)

// Binding injects the entity-specific pieces of a coordinator: where the
// collection lives for a given identity, how to purge the cache table, and
// how to apply one change record. Apply must be idempotent and key
// addressed so replayed batches converge.
type Binding struct {
	// Name labels log lines.
	Name string

	// Collection returns the remote collection (or collection-group
	// pattern) for an identity. For global bindings the identity is "".
	Collection func(identity string) string

	// Global bindings cover data not namespaced per identity: they are not
	// purged on logout and stay subscribed while signed out.
	Global bool

	// Purge empties the cache table. Called before a new identity's data
	// can land and on logout.
	Purge func(ctx context.Context) error

	// Match, when non-nil, restricts the subscription to documents it
	// accepts. Used by the profile binding to watch a single document id
	// within a shared collection.
	Match func(identity, id string) bool

	// Apply reflects one remote change into the cache. A mapping failure
	// must drop the document (returning nil) rather than fail the batch;
	// only storage errors should be returned.
	Apply func(ctx context.Context, ch remote.Change) error
}

// state of a coordinator. Disconnected means no active subscription.
type state int

const (
	stateDisconnected state = iota
	stateConnected
)

type identityEvent struct{ identity string }

type batchEvent struct {
	gen   uint64
	batch remote.Batch
}

// Coordinator owns one collection's subscription and applies its diffs.
//
// All state transitions happen on the single Run goroutine; SetIdentity
// and subscription callbacks only enqueue events. The generation counter
// discards batches from a subscription that has already been cancelled, so
// two listeners can never interleave writes to the same table.
type Coordinator struct {
	client  remote.Client
	binding Binding
	logger  *log.Logger

	events chan any

	// Owned by the Run goroutine.
	st        state
	identity  string
	gen       uint64
	cancelSub remote.CancelFunc

	stalled atomic.Bool
	done    chan struct{}
}

// New creates a coordinator for one entity collection.
//
// If logger is nil, a default logger writing to stderr is used.
func New(client remote.Client, binding Binding, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Coordinator{
		client:  client,
		binding: binding,
		logger:  logger,
		events:  make(chan any, 64),
		done:    make(chan struct{}),
	}
}

// SetIdentity announces the active identity. An empty identity means
// signed out. Safe to call from any goroutine; the transition happens on
// the coordinator's event loop.
func (c *Coordinator) SetIdentity(identity string) {
	select {
	case c.events <- identityEvent{identity: identity}:
	case <-c.done:
	}
}

// Run processes events until ctx is cancelled. It must be called exactly
// once; global bindings connect immediately, identity-scoped ones wait for
// the first SetIdentity.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.teardown()

	if c.binding.Global {
		c.handleIdentity(ctx, "")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			switch ev := ev.(type) {
			case identityEvent:
				c.handleIdentity(ctx, ev.identity)
			case batchEvent:
				if ev.gen != c.gen {
					// Stale: the subscription this came from was already
					// cancelled.
					continue
				}
				c.handleBatch(ctx, ev.batch)
			}
		}
	}
}

// handleIdentity performs the IdentityChanged transition: cancel the
// existing subscription, purge or reseed, re-subscribe.
func (c *Coordinator) handleIdentity(ctx context.Context, identity string) {
	if c.binding.Global {
		// Global collections serve every identity, so all announcements
		// normalize to the same empty identity.
		identity = ""
	}
	if c.st == stateConnected && !c.stalled.Load() && identity == c.identity {
		// Re-announcement of the current identity with a healthy
		// subscription. Tearing down and reseeding would only churn.
		return
	}

	if c.cancelSub != nil {
		c.cancelSub()
		c.cancelSub = nil
	}
	c.gen++
	c.stalled.Store(false)

	if identity == "" && !c.binding.Global {
		if err := c.binding.Purge(ctx); err != nil {
			c.logger.Printf("ERROR: %s: purge on logout failed: %v", c.binding.Name, err)
		}
		c.st = stateDisconnected
		c.identity = ""
		c.logger.Printf("%s: disconnected", c.binding.Name)
		return
	}

	// Purge before seeding so a previous identity's rows can never mix
	// with the new identity's data.
	if !c.binding.Global && identity != c.identity {
		if err := c.binding.Purge(ctx); err != nil {
			c.logger.Printf("ERROR: %s: purge before reseed failed: %v", c.binding.Name, err)
			c.st = stateDisconnected
			return
		}
	}
	c.identity = identity

	if err := c.connect(ctx, identity); err != nil {
		c.logger.Printf("ERROR: %s: connect failed: %v", c.binding.Name, err)
		c.st = stateDisconnected
		return
	}
	c.st = stateConnected
}

// connect seeds the cache with a bulk fetch, then registers the live
// subscription.
//
// The explicit bulk fetch avoids a window where pre-existing remote data
// would never reach a freshly-logged-in device if the subscription's
// initial-snapshot semantics were ever absent or delayed. The snapshot the
// subscription then delivers re-applies the same documents, which is safe
// because Apply is idempotent.
func (c *Coordinator) connect(ctx context.Context, identity string) error {
	collection := c.binding.Collection(identity)

	applied, total, err := Seed(ctx, c.client, c.binding, identity, c.logger)
	if err != nil {
		return err
	}

	gen := c.gen
	cancel, err := c.client.Subscribe(ctx, collection, func(b remote.Batch) {
		select {
		case c.events <- batchEvent{gen: gen, batch: b}:
		case <-c.done:
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", collection, err)
	}
	c.cancelSub = cancel

	c.logger.Printf("%s: connected (seeded %d/%d)", c.binding.Name, applied, total)
	return nil
}

// Seed bulk-fetches a binding's collection and applies every document to
// the cache. Per-document failures are logged and skipped. Returns the
// applied and total document counts.
func Seed(ctx context.Context, client remote.Client, b Binding, identity string, logger *log.Logger) (applied, total int, err error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	collection := b.Collection(identity)

	snaps, err := client.List(ctx, collection)
	if err != nil {
		return 0, 0, fmt.Errorf("bulk fetch %s: %w", collection, err)
	}
	for _, snap := range snaps {
		if b.Match != nil && !b.Match(identity, snap.ID) {
			continue
		}
		ch := remote.Change{Kind: remote.Added, ID: snap.ID, Doc: snap.Doc}
		if err := b.Apply(ctx, ch); err != nil {
			logger.Printf("WARNING: %s: failed to seed %s: %v", b.Name, snap.ID, err)
			continue
		}
		applied++
	}
	return applied, len(snaps), nil
}

// handleBatch applies one change batch. Per-record failures are logged and
// skipped; an error batch stalls the coordinator until the next identity
// announcement.
func (c *Coordinator) handleBatch(ctx context.Context, b remote.Batch) {
	if b.Err != nil {
		// Soft failure: no further batches will arrive until an identity
		// re-check re-establishes the subscription.
		c.logger.Printf("WARNING: %s: subscription closed: %v (awaiting identity re-check)", c.binding.Name, b.Err)
		c.stalled.Store(true)
		if c.cancelSub != nil {
			c.cancelSub()
			c.cancelSub = nil
		}
		return
	}
	if c.stalled.Load() {
		return
	}

	for _, ch := range b.Changes {
		if c.binding.Match != nil && !c.binding.Match(c.identity, ch.ID) {
			continue
		}
		if err := c.binding.Apply(ctx, ch); err != nil {
			c.logger.Printf("WARNING: %s: failed to apply %s %s: %v", c.binding.Name, ch.Kind, ch.ID, err)
		}
	}
}

// teardown cancels the live subscription, if any.
func (c *Coordinator) teardown() {
	if c.cancelSub != nil {
		c.cancelSub()
		c.cancelSub = nil
	}
}

// Stalled reports whether the coordinator lost its subscription and is
// waiting for an identity re-check. Intended for status surfaces.
func (c *Coordinator) Stalled() bool {
	return c.stalled.Load()
}
