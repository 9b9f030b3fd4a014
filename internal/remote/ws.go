package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/tibibalance/tibisync/internal/document"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("remote connection closed")

// WSClient is the websocket-backed Client implementation.
//
// A single read loop owns the connection's receive side and dispatches
// result frames to pending calls and change frames to subscription
// handlers. When the read loop dies every pending call fails and every
// subscription receives an error batch; the next call re-dials the
// backend, so the identity re-check that follows a stalled subscription
// lands on a fresh connection.
type WSClient struct {
	url    string
	logger *log.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	gen     uint64
	pending map[string]chan frame
	subs    map[string]func(Batch)
	err     error
	closed  bool

	writeMu sync.Mutex
}

// Dial connects to the document store backend.
//
// If logger is nil, a default logger writing to stderr is used.
func Dial(ctx context.Context, url string, logger *log.Logger) (*WSClient, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}

	conn, err := dialConn(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial remote store %s: %w", url, err)
	}

	c := &WSClient{
		url:     url,
		logger:  logger,
		conn:    conn,
		pending: make(map[string]chan frame),
		subs:    make(map[string]func(Batch)),
	}

	go c.readLoop(conn, c.gen)
	return c, nil
}

func dialConn(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 22)
	return conn, nil
}

// Close tears down the connection for good. Pending calls fail with
// ErrClosed, subscriptions receive an error batch, and no reconnect
// happens afterwards.
func (c *WSClient) Close() error {
	c.mu.Lock()
	c.closed = true
	gen := c.gen
	conn := c.conn
	c.mu.Unlock()

	c.fail(gen, ErrClosed)
	return conn.Close(websocket.StatusNormalClosure, "client closing")
}

// ensureConn re-dials the backend when the previous connection died.
// Returns ErrClosed after Close; losing a dial race to a concurrent
// caller is fine, the winner's connection serves both.
func (c *WSClient) ensureConn(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.err == nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := dialConn(ctx, c.url)
	if err != nil {
		return fmt.Errorf("failed to redial remote store %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "client closing")
		return ErrClosed
	}
	if c.err == nil {
		// Another caller reconnected first; ride its connection.
		c.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "duplicate reconnect")
		return nil
	}
	c.conn = conn
	c.err = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.logger.Printf("Reconnected to %s", c.url)
	go c.readLoop(conn, gen)
	return nil
}

// readLoop dispatches inbound frames until its connection dies.
func (c *WSClient) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			c.fail(gen, fmt.Errorf("remote read: %w", err))
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Printf("Dropping malformed frame: %v", err)
			continue
		}

		switch f.Type {
		case frameResult:
			c.mu.Lock()
			ch, ok := c.pending[f.Req]
			delete(c.pending, f.Req)
			c.mu.Unlock()
			if ok {
				ch <- f
			}

		case frameChange:
			c.mu.Lock()
			fn, ok := c.subs[f.Sub]
			c.mu.Unlock()
			if !ok {
				continue
			}
			changes := make([]Change, 0, len(f.Changes))
			for _, wc := range f.Changes {
				changes = append(changes, Change{Kind: ChangeKind(wc.Kind), ID: wc.ID, Doc: wc.Doc})
			}
			fn(Batch{Changes: changes})

		default:
			c.logger.Printf("Dropping unexpected frame type %q", f.Type)
		}
	}
}

// fail records an error for one connection generation, fails its pending
// calls and notifies its subscribers once. A stale generation (the loop of
// a connection already replaced by a reconnect) is ignored so it cannot
// poison the replacement.
func (c *WSClient) fail(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.err != nil {
		c.mu.Unlock()
		return
	}
	c.err = err
	pending := c.pending
	subs := c.subs
	c.pending = make(map[string]chan frame)
	c.subs = make(map[string]func(Batch))
	c.mu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	for _, fn := range subs {
		fn(Batch{Err: err})
	}
}

// call sends a request frame and waits for its result, re-dialing first if
// the previous connection is gone.
func (c *WSClient) call(ctx context.Context, f frame) (frame, error) {
	if err := c.ensureConn(ctx); err != nil {
		return frame{}, err
	}

	f.Req = uuid.NewString()
	reply := make(chan frame, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return frame{}, err
	}
	c.pending[f.Req] = reply
	c.mu.Unlock()

	if err := c.write(ctx, f); err != nil {
		c.mu.Lock()
		delete(c.pending, f.Req)
		c.mu.Unlock()
		return frame{}, err
	}

	select {
	case resp, ok := <-reply:
		if !ok {
			return frame{}, ErrClosed
		}
		if resp.Error != "" {
			return frame{}, errors.New(resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, f.Req)
		c.mu.Unlock()
		return frame{}, ctx.Err()
	}
}

func (c *WSClient) write(ctx context.Context, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Get implements Client.
func (c *WSClient) Get(ctx context.Context, path string) (Document, error) {
	resp, err := c.call(ctx, frame{Type: frameGet, Path: path})
	if err != nil {
		return nil, fmt.Errorf("remote get %s: %w", path, err)
	}
	if !resp.Found {
		return nil, nil
	}
	return resp.Doc, nil
}

// SetMerge implements Client. Fields set to document.Delete travel as an
// unset list since the sentinel has no JSON form.
func (c *WSClient) SetMerge(ctx context.Context, path string, doc Document) error {
	set := make(Document, len(doc))
	var unset []string
	for k, v := range doc {
		if document.IsDelete(v) {
			unset = append(unset, k)
			continue
		}
		set[k] = v
	}

	if _, err := c.call(ctx, frame{Type: frameSetMerge, Path: path, Doc: set, Unset: unset}); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Delete implements Client.
func (c *WSClient) Delete(ctx context.Context, path string) error {
	if _, err := c.call(ctx, frame{Type: frameDelete, Path: path}); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// List implements Client.
func (c *WSClient) List(ctx context.Context, collection string) ([]Snapshot, error) {
	resp, err := c.call(ctx, frame{Type: frameList, Collection: collection})
	if err != nil {
		return nil, fmt.Errorf("remote list %s: %w", collection, err)
	}
	out := make([]Snapshot, 0, len(resp.Docs))
	for _, d := range resp.Docs {
		out = append(out, Snapshot{ID: d.ID, Doc: d.Doc})
	}
	return out, nil
}

// Subscribe implements Client. The handler is registered before the
// subscribe request goes out so the initial snapshot push cannot race past
// it.
func (c *WSClient) Subscribe(ctx context.Context, collection string, fn func(Batch)) (CancelFunc, error) {
	if err := c.ensureConn(ctx); err != nil {
		return nil, fmt.Errorf("remote subscribe %s: %w", collection, err)
	}

	subID := uuid.NewString()

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, fmt.Errorf("remote subscribe %s: %w", collection, err)
	}
	c.subs[subID] = fn
	c.mu.Unlock()

	if _, err := c.call(ctx, frame{Type: frameSubscribe, Sub: subID, Collection: collection}); err != nil {
		c.mu.Lock()
		delete(c.subs, subID)
		c.mu.Unlock()
		return nil, fmt.Errorf("remote subscribe %s: %w", collection, err)
	}

	cancel := func() {
		c.mu.Lock()
		_, live := c.subs[subID]
		delete(c.subs, subID)
		c.mu.Unlock()
		if !live {
			return
		}

		// Best-effort: the server drops the subscription on its own when
		// the connection dies, so a failed unsubscribe is only logged.
		unsubCtx, cancelWrite := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelWrite()
		if err := c.write(unsubCtx, frame{Type: frameUnsubscribe, Sub: subID, Req: uuid.NewString()}); err != nil {
			c.logger.Printf("Unsubscribe %s failed: %v", collection, err)
		}
	}
	return cancel, nil
}
