package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"echochat/internal/config"
)

// Roster decides who gets told about a user's presence transitions. Backed
// by the friends table; swapping the policy does not touch the tracker.
type Roster interface {
	FriendIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

const rosterTimeout = 5 * time.Second

// PresenceTracker turns registry transitions into userOnline/userOffline
// pushes. An offline transition is held for a grace window first: a tab
// refresh reconnects within a couple of seconds and should not spray
// offline-then-online at the user's contacts.
type PresenceTracker struct {
	registry *Registry
	roster   Roster
	grace    time.Duration
	log      *logrus.Logger

	mu      sync.Mutex
	pending map[uint64]*time.Timer
	stopped bool
}

func NewPresenceTracker(registry *Registry, roster Roster, cfg *config.Config, log *logrus.Logger) *PresenceTracker {
	t := &PresenceTracker{
		registry: registry,
		roster:   roster,
		grace:    cfg.Realtime.PresenceGrace,
		log:      log,
		pending:  make(map[uint64]*time.Timer),
	}
	registry.Subscribe(t)
	return t
}

// UserWentOnline implements Observer. A reconnect that lands inside the
// grace window cancels the held offline and emits nothing: as far as
// contacts can tell, the user never left.
func (t *PresenceTracker) UserWentOnline(userID uint64) {
	t.mu.Lock()
	if timer, ok := t.pending[userID]; ok {
		timer.Stop()
		delete(t.pending, userID)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.broadcast(userID, EventUserOnline)
}

// UserWentOffline implements Observer.
func (t *PresenceTracker) UserWentOffline(userID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	if timer, ok := t.pending[userID]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(t.grace, func() {
		t.mu.Lock()
		// A stale timer that lost the race to a re-admit (and possibly a
		// fresh disconnect) must not fire for the new state.
		current := t.pending[userID] == timer
		if current {
			delete(t.pending, userID)
		}
		t.mu.Unlock()

		if !current {
			return
		}
		t.broadcast(userID, EventUserOffline)
	})
	t.pending[userID] = timer
}

// Stop cancels held offline broadcasts; used on shutdown.
func (t *PresenceTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for userID, timer := range t.pending {
		timer.Stop()
		delete(t.pending, userID)
	}
}

// broadcast pushes the transition to the live connections of everyone the
// roster names. Presence is best-effort: a roster failure logs and drops,
// it never propagates.
func (t *PresenceTracker) broadcast(userID uint64, event EventType) {
	ctx, cancel := context.WithTimeout(context.Background(), rosterTimeout)
	defer cancel()

	friendIDs, err := t.roster.FriendIDs(ctx, userID)
	if err != nil {
		t.log.WithField("user_id", userID).WithError(err).Warn("presence roster lookup failed")
		return
	}

	for _, friendID := range friendIDs {
		t.registry.PushTo(friendID, ServerEvent{Type: event, UserID: userID})
	}
}
