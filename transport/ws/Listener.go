package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/grandpahao/oh-my-q-learning/transport"
	"github.com/grandpahao/oh-my-q-learning/utils/logging"
)

// Listener is an http.Handler accepting worker connections. Each
// identity is accepted at most once over the lifetime of the Listener,
// so that a dropped worker can never come back under the same
// identity.
type Listener struct {
	upgrader websocket.Upgrader
	log      logging.Logger

	mu       sync.Mutex
	seen     map[string]bool
	accepted chan *Conn
	done     chan struct{}
	closed   bool
}

// NewListener returns a new Listener
func NewListener(logger logging.Logger) *Listener {
	if logger == nil {
		logger = logging.Nop{}
	}

	return &Listener{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:      logger,
		seen:     make(map[string]bool),
		accepted: make(chan *Conn),
		done:     make(chan struct{}),
	}
}

// ServeHTTP upgrades a worker's request and hands the connection to
// Accept
func (l *Listener) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	identity := r.Header.Get(IdentityHeader)
	if identity == "" {
		l.log.Warn("handshake_refused", "reason", "missing identity")
		http.Error(rw, "missing "+IdentityHeader, http.StatusBadRequest)
		return
	}

	l.mu.Lock()
	switch {
	case l.closed:
		l.mu.Unlock()
		http.Error(rw, "listener closed", http.StatusServiceUnavailable)
		return

	case l.seen[identity]:
		l.mu.Unlock()
		l.log.Warn("handshake_refused", "identity", identity,
			"reason", "duplicate identity")
		http.Error(rw, "duplicate identity "+identity, http.StatusConflict)
		return
	}
	l.seen[identity] = true
	l.mu.Unlock()

	wsConn, err := l.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		l.log.Warn("upgrade_failed", "identity", identity, "error", err)
		return
	}
	conn := newConn(wsConn, identity)

	select {
	case l.accepted <- conn:
		l.log.Debug("worker_connected", "identity", identity)
	case <-l.done:
		_ = conn.Close()
	}
}

// Accept blocks until a worker connects
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	select {
	case conn := <-l.accepted:
		return conn, nil
	case <-l.done:
		return nil, fmt.Errorf("accept: %w", transport.ErrClosed)
	case <-ctx.Done():
		return nil, fmt.Errorf("accept: %w", ctx.Err())
	}
}

// Close stops accepting workers. Connections already accepted stay
// open.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.done)
	}
	return nil
}
