package wearable

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Listener accepts websocket connections from paired companion devices and
// forwards their metrics pushes to a Sink.
//
// There is no handshake beyond the websocket upgrade and no acknowledgement
// per message; a device that reconnects mid-push simply re-sends its latest
// summary later.
type Listener struct {
	addr string
	sink Sink

	listener net.Listener
	server   *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewListener creates a companion listener on the given address.
//
// If logger is nil, a default logger writing to stderr is used.
func NewListener(addr string, sink Sink, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.New(os.Stderr, "[wearable] ", log.LstdFlags)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{
		addr:   addr,
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start begins accepting companion connections. Non-blocking; use Stop to
// shut down.
func (l *Listener) Start() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.addr, err)
	}
	l.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/companion", l.handleCompanion)
	l.server = &http.Server{Handler: mux}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Printf("Companion listener error: %v", err)
		}
	}()

	l.logger.Printf("Companion listener on %s", ln.Addr())
	return nil
}

// Addr returns the bound listen address. Valid after Start.
func (l *Listener) Addr() string {
	if l.listener == nil {
		return l.addr
	}
	return l.listener.Addr().String()
}

// Stop shuts the listener down and waits for connection handlers.
func (l *Listener) Stop() error {
	l.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if l.server != nil {
		if err := l.server.Shutdown(shutdownCtx); err != nil {
			l.logger.Printf("Companion listener shutdown: %v", err)
		}
	}

	l.wg.Wait()
	return nil
}

// handleCompanion upgrades one device connection and drains its pushes.
func (l *Listener) handleCompanion(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		l.logger.Printf("Companion accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	l.logger.Printf("Companion connected from %s", r.RemoteAddr)

	for {
		_, data, err := conn.Read(l.ctx)
		if err != nil {
			// Normal disconnect path; companions drop the link whenever
			// the watch goes out of range.
			l.logger.Printf("Companion disconnected: %v", err)
			return
		}

		m, err := DecodeMetrics(data)
		if err != nil {
			l.logger.Printf("WARNING: dropping malformed companion message: %v", err)
			continue
		}

		// Best-effort: a failed forward is logged and the message is
		// gone, matching the no-ack contract of the channel.
		if err := l.sink(l.ctx, m); err != nil {
			l.logger.Printf("WARNING: failed to forward metrics for %s: %v", m.Date, err)
			continue
		}
		l.logger.Printf("Received metrics for %s (steps=%d)", m.Date, m.Steps)
	}
}
