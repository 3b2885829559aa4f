package realtime

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"echochat/internal/common"
	"echochat/internal/config"
)

// Observer is notified of a user's online/offline transitions. Callbacks
// run outside the registry lock and must not call back into Admit/Remove.
type Observer interface {
	UserWentOnline(userID uint64)
	UserWentOffline(userID uint64)
}

// Registry is the single owner of all live connections and the source of
// truth for "is this user online". All mutation goes through Admit and
// Remove; presence is derived, never stored. State is process-local; a
// multi-process deployment would need a shared backplane.
type Registry struct {
	resolver common.TokenResolver
	buffer   int
	log      *logrus.Logger

	mu        sync.RWMutex
	byConn    map[string]*Connection
	byUser    map[uint64]map[string]*Connection
	observers []Observer
}

func NewRegistry(resolver common.TokenResolver, cfg *config.Config, log *logrus.Logger) *Registry {
	return &Registry{
		resolver: resolver,
		buffer:   cfg.Realtime.SendBuffer,
		log:      log,
		byConn:   make(map[string]*Connection),
		byUser:   make(map[uint64]map[string]*Connection),
	}
}

// Subscribe registers an observer for presence transitions. Called during
// wiring, before any connection is admitted.
func (r *Registry) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Admit validates the credential and, only on success, creates a live
// Connection for the resolved user. A bad credential never allocates
// anything.
func (r *Registry) Admit(credential string) (*Connection, error) {
	userID, err := r.resolver.Resolve(credential)
	if err != nil {
		return nil, fmt.Errorf("handshake rejected: %w", common.ErrUnauthenticated)
	}

	conn := newConnection(userID, r.buffer)

	r.mu.Lock()
	r.byConn[conn.ID] = conn
	conns := r.byUser[userID]
	if conns == nil {
		conns = make(map[string]*Connection)
		r.byUser[userID] = conns
	}
	conns[conn.ID] = conn
	first := len(conns) == 1
	observers := r.observers
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"connection_id": conn.ID,
		"user_id":       userID,
		"first":         first,
	}).Debug("connection admitted")

	if first {
		for _, o := range observers {
			o.UserWentOnline(userID)
		}
	}

	return conn, nil
}

// Remove drops a connection. Removing an unknown id is a no-op, so the
// explicit-disconnect and heartbeat-timeout paths can both call it.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	conn, ok := r.byConn[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byConn, connectionID)

	last := false
	if conns := r.byUser[conn.UserID]; conns != nil {
		delete(conns, connectionID)
		if len(conns) == 0 {
			delete(r.byUser, conn.UserID)
			last = true
		}
	}
	observers := r.observers
	r.mu.Unlock()

	conn.close()

	r.log.WithFields(logrus.Fields{
		"connection_id": connectionID,
		"user_id":       conn.UserID,
		"last":          last,
	}).Debug("connection removed")

	if last {
		for _, o := range observers {
			o.UserWentOffline(conn.UserID)
		}
	}
}

func (r *Registry) IsOnline(userID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionsFor returns a snapshot of the user's live connections; empty
// when the user is offline.
func (r *Registry) ConnectionsFor(userID uint64) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[userID]
	if len(conns) == 0 {
		return nil
	}
	out := make([]*Connection, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// PushTo fans an event out to every live connection of a user and returns
// how many received it. Zero means the user is offline (or every buffer was
// full); callers treat both the same way.
func (r *Registry) PushTo(userID uint64, ev ServerEvent) int {
	delivered := 0
	for _, conn := range r.ConnectionsFor(userID) {
		if conn.Push(ev) {
			delivered++
		} else {
			r.log.WithFields(logrus.Fields{
				"connection_id": conn.ID,
				"user_id":       userID,
				"event":         ev.Type,
			}).Warn("outbound buffer full, event dropped")
		}
	}
	return delivered
}
