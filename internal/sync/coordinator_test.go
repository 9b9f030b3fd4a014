package sync

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/tibibalance/tibisync/internal/cache"
	"github.com/tibibalance/tibisync/internal/paths"
	"github.com/tibibalance/tibisync/internal/remote"
)

// testStore opens an initialized cache on a temporary path
func testStore(t *testing.T) *cache.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := cache.Open(path)
	if err != nil {
		t.Fatalf("cache.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return s
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// startCoordinator runs a coordinator on a background goroutine for the
// duration of the test
func startCoordinator(t *testing.T, client remote.Client, b Binding) *Coordinator {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := New(client, b, quietLogger())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

// waitFor polls until cond holds or the deadline passes. Coordinator event
// handling is asynchronous, so cache assertions go through here.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func habitDoc(name string) remote.Document {
	return remote.Document{"name": name, "category": "health", "frequency": "daily"}
}

func habitCount(t *testing.T, s *cache.Store) func() int {
	return func() int {
		n, err := s.CountHabits(context.Background())
		if err != nil {
			t.Fatalf("CountHabits() failed: %v", err)
		}
		return n
	}
}

// TestCoordinator_SeedsOnLogin tests that pre-existing remote data lands in
// the cache after the identity announcement
func TestCoordinator_SeedsOnLogin(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Habit("u1", "h1"), habitDoc("Run")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if err := m.SetMerge(ctx, paths.Habit("u1", "h2"), habitDoc("Read")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	c := startCoordinator(t, m, HabitsBinding(store))
	c.SetIdentity("u1")

	count := habitCount(t, store)
	waitFor(t, "seed", func() bool { return count() == 2 })

	got, err := store.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit() failed: %v", err)
	}
	if got.Name != "Run" {
		t.Errorf("Name = %q, want 'Run'", got.Name)
	}
}

// TestCoordinator_LiveChanges tests that post-login writes flow through the
// subscription, including removals
func TestCoordinator_LiveChanges(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	c := startCoordinator(t, m, HabitsBinding(store))
	c.SetIdentity("u1")

	count := habitCount(t, store)
	waitFor(t, "connect", func() bool { return !c.Stalled() })

	if err := m.SetMerge(ctx, paths.Habit("u1", "h1"), habitDoc("Stretch")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	waitFor(t, "added diff", func() bool { return count() == 1 })

	if err := m.Delete(ctx, paths.Habit("u1", "h1")); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	waitFor(t, "removed diff", func() bool { return count() == 0 })
}

// TestCoordinator_PurgeOnLogout tests that signing out empties the table
// and stops the flow of diffs
func TestCoordinator_PurgeOnLogout(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Habit("u1", "h1"), habitDoc("Run")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	c := startCoordinator(t, m, HabitsBinding(store))
	c.SetIdentity("u1")

	count := habitCount(t, store)
	waitFor(t, "seed", func() bool { return count() == 1 })

	c.SetIdentity("")
	waitFor(t, "purge", func() bool { return count() == 0 })

	// Remote writes while signed out must not reach the cache.
	if err := m.SetMerge(ctx, paths.Habit("u1", "h2"), habitDoc("Read")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if n := count(); n != 0 {
		t.Errorf("cache has %d habits while signed out, want 0", n)
	}
}

// TestCoordinator_IdentitySwitch tests that switching accounts never mixes
// their rows
func TestCoordinator_IdentitySwitch(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Habit("alice", "a1"), habitDoc("Alice habit")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if err := m.SetMerge(ctx, paths.Habit("bob", "b1"), habitDoc("Bob habit")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	c := startCoordinator(t, m, HabitsBinding(store))
	c.SetIdentity("alice")

	count := habitCount(t, store)
	waitFor(t, "alice seed", func() bool { return count() == 1 })

	c.SetIdentity("")
	c.SetIdentity("bob")

	waitFor(t, "bob seed", func() bool {
		habits, err := store.ListHabits(ctx)
		if err != nil {
			t.Fatalf("ListHabits() failed: %v", err)
		}
		return len(habits) == 1 && habits[0].ID == "b1"
	})

	// Writes to alice's collection no longer land.
	if err := m.SetMerge(ctx, paths.Habit("alice", "a2"), habitDoc("More Alice")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	habits, err := store.ListHabits(ctx)
	if err != nil {
		t.Fatalf("ListHabits() failed: %v", err)
	}
	for _, h := range habits {
		if h.ID != "b1" {
			t.Errorf("foreign habit %s in cache after switch", h.ID)
		}
	}
}

// TestCoordinator_ReplayIdempotent tests that re-applying an already-applied
// diff converges instead of diverging
func TestCoordinator_ReplayIdempotent(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	b := HabitsBinding(store)

	ch := remote.Change{Kind: remote.Added, ID: "h1", Doc: habitDoc("Run")}
	if err := b.Apply(ctx, ch); err != nil {
		t.Fatalf("First Apply() failed: %v", err)
	}
	if err := b.Apply(ctx, ch); err != nil {
		t.Fatalf("Replayed Apply() failed: %v", err)
	}

	n, err := store.CountHabits(ctx)
	if err != nil {
		t.Fatalf("CountHabits() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountHabits() = %d, want 1 after replay", n)
	}

	// Replayed removals are also safe.
	rm := remote.Change{Kind: remote.Removed, ID: "h1"}
	if err := b.Apply(ctx, rm); err != nil {
		t.Fatalf("Removed Apply() failed: %v", err)
	}
	if err := b.Apply(ctx, rm); err != nil {
		t.Errorf("Replayed removal failed: %v", err)
	}
}

// TestCoordinator_MalformedDocDropped tests that a document without its
// required field is skipped without failing the batch
func TestCoordinator_MalformedDocDropped(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Habit("u1", "broken"), remote.Document{"notify": true}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if err := m.SetMerge(ctx, paths.Habit("u1", "ok"), habitDoc("Fine")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	c := startCoordinator(t, m, HabitsBinding(store))
	c.SetIdentity("u1")

	count := habitCount(t, store)
	waitFor(t, "seed", func() bool { return count() == 1 })

	if _, err := store.GetHabit(ctx, "broken"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("broken doc reached the cache: err = %v", err)
	}
}

// TestCoordinator_SubscriptionFailureSoft tests that a broken subscription
// stalls the coordinator but leaves cached data readable, and that a fresh
// identity announcement recovers it
func TestCoordinator_SubscriptionFailureSoft(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Habit("u1", "h1"), habitDoc("Run")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	c := startCoordinator(t, m, HabitsBinding(store))
	c.SetIdentity("u1")

	count := habitCount(t, store)
	waitFor(t, "seed", func() bool { return count() == 1 })

	m.BreakSubscriptions(errors.New("listener channel closed"))
	waitFor(t, "stall", func() bool { return c.Stalled() })

	// Cached data stays readable through the stall.
	if n := count(); n != 1 {
		t.Errorf("cache has %d habits during stall, want 1", n)
	}

	// The next identity announcement re-seeds and re-subscribes.
	if err := m.SetMerge(ctx, paths.Habit("u1", "h2"), habitDoc("Read")); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	c.SetIdentity("u1")
	waitFor(t, "recovery", func() bool { return count() == 2 && !c.Stalled() })
}

// TestCoordinator_ProfileMatch tests that the profile binding only applies
// the identity's own document from the shared collection
func TestCoordinator_ProfileMatch(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Profile("u1"), remote.Document{"displayName": "Me"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	if err := m.SetMerge(ctx, paths.Profile("u2"), remote.Document{"displayName": "Someone else"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	c := startCoordinator(t, m, ProfileBinding(store))
	c.SetIdentity("u1")

	waitFor(t, "profile seed", func() bool {
		p, err := store.GetProfile(ctx, "u1")
		return err == nil && p.DisplayName == "Me"
	})

	if _, err := store.GetProfile(ctx, "u2"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("foreign profile reached the cache: err = %v", err)
	}
}

// TestCoordinator_TemplatesSurviveLogout tests the global binding: the
// template catalog syncs while signed out and is never purged
func TestCoordinator_TemplatesSurviveLogout(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Template("t1"), remote.Document{"name": "Morning run"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	// No SetIdentity: global bindings connect on startup.
	c := startCoordinator(t, m, TemplatesBinding(store))

	templateCount := func() int {
		n, err := store.CountTemplates(ctx)
		if err != nil {
			t.Fatalf("CountTemplates() failed: %v", err)
		}
		return n
	}
	waitFor(t, "template seed", func() bool { return templateCount() == 1 })

	// Logout must not purge templates.
	c.SetIdentity("u1")
	c.SetIdentity("")
	time.Sleep(50 * time.Millisecond)
	if n := templateCount(); n != 1 {
		t.Errorf("templates = %d after logout, want 1", n)
	}
}

// TestCoordinator_GlobalIgnoresIdentityChurn tests that login and logout
// do not tear down a healthy global subscription: the catalog keeps its
// original subscription and still receives live changes afterwards
func TestCoordinator_GlobalIgnoresIdentityChurn(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	if err := m.SetMerge(ctx, paths.Template("t1"), remote.Document{"name": "Morning run"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}

	c := startCoordinator(t, m, TemplatesBinding(store))

	templateCount := func() int {
		n, err := store.CountTemplates(ctx)
		if err != nil {
			t.Fatalf("CountTemplates() failed: %v", err)
		}
		return n
	}
	waitFor(t, "template seed", func() bool { return templateCount() == 1 })
	subs := m.SubscribeCount()

	c.SetIdentity("alice")
	c.SetIdentity("")
	c.SetIdentity("bob")

	// A write delivered through the original subscription proves the
	// identity events were processed without a resubscribe: the change
	// batch queues behind them on the coordinator's event channel.
	if err := m.SetMerge(ctx, paths.Template("t2"), remote.Document{"name": "Evening read"}); err != nil {
		t.Fatalf("SetMerge() failed: %v", err)
	}
	waitFor(t, "live template", func() bool { return templateCount() == 2 })

	if got := m.SubscribeCount(); got != subs {
		t.Errorf("SubscribeCount() = %d after identity churn, want %d", got, subs)
	}
}

// TestCoordinator_ActivityGroup tests the wildcard subscription across all
// habits of one user
func TestCoordinator_ActivityGroup(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)
	m := remote.NewMemStore()

	c := startCoordinator(t, m, ActivitiesBinding(store))
	c.SetIdentity("u1")
	waitFor(t, "connect", func() bool { return !c.Stalled() })

	docs := map[string]remote.Document{
		paths.Activity("u1", "h1", "a1"): {"habitId": "h1", "status": "pending"},
		paths.Activity("u1", "h2", "a2"): {"habitId": "h2", "status": "completed"},
		paths.Activity("u2", "h1", "a3"): {"habitId": "h1", "status": "pending"},
	}
	for path, doc := range docs {
		if err := m.SetMerge(ctx, path, doc); err != nil {
			t.Fatalf("SetMerge(%s) failed: %v", path, err)
		}
	}

	waitFor(t, "activity diffs", func() bool {
		n, err := store.CountActivities(ctx)
		if err != nil {
			t.Fatalf("CountActivities() failed: %v", err)
		}
		return n == 2
	})

	acts, err := store.ListActivities(ctx, "")
	if err != nil {
		t.Fatalf("ListActivities() failed: %v", err)
	}
	for _, a := range acts {
		if a.ID == "a3" {
			t.Error("activity of another user reached the cache")
		}
	}
}
