package realtime

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"echochat/internal/config"
)

type pairKey struct {
	From uint64
	To   uint64
}

// TypingCoordinator owns the transient "X is typing to Y" signals. The
// server holds the deadline, not the client: a sender who disconnects
// mid-type still produces a stop event for the recipient when the TTL
// elapses. Signals are never persisted and never queued for offline
// recipients.
type TypingCoordinator struct {
	registry *Registry
	ttl      time.Duration
	log      *logrus.Logger

	mu      sync.Mutex
	signals map[pairKey]time.Time // pair -> expiresAt

	sweepEvery time.Duration
	done       chan struct{}
	stopOnce   sync.Once
}

func NewTypingCoordinator(registry *Registry, cfg *config.Config, log *logrus.Logger) *TypingCoordinator {
	c := &TypingCoordinator{
		registry:   registry,
		ttl:        cfg.Realtime.TypingTTL,
		sweepEvery: cfg.Realtime.TypingSweep,
		log:        log,
		signals:    make(map[pairKey]time.Time),
		done:       make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// StartTyping creates or refreshes the signal. Only creation pushes a
// userTyping event, so a key held down produces one event for the
// recipient, not a stream of duplicates.
func (c *TypingCoordinator) StartTyping(fromUserID, toUserID uint64) {
	if fromUserID == 0 || toUserID == 0 || fromUserID == toUserID {
		return
	}

	key := pairKey{From: fromUserID, To: toUserID}

	c.mu.Lock()
	_, refreshing := c.signals[key]
	c.signals[key] = time.Now().Add(c.ttl)
	c.mu.Unlock()

	if refreshing {
		return
	}
	c.registry.PushTo(toUserID, ServerEvent{Type: EventUserTyping, FromUserID: fromUserID})
}

// StopTyping deletes the signal and notifies the recipient. A stop with no
// live signal (already expired, or never started) does nothing.
func (c *TypingCoordinator) StopTyping(fromUserID, toUserID uint64) {
	key := pairKey{From: fromUserID, To: toUserID}

	c.mu.Lock()
	_, ok := c.signals[key]
	if ok {
		delete(c.signals, key)
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	c.registry.PushTo(toUserID, ServerEvent{Type: EventUserStopTyping, FromUserID: fromUserID})
}

// Stop terminates the sweeper; used on shutdown.
func (c *TypingCoordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

func (c *TypingCoordinator) sweepLoop() {
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.sweep(now)
		case <-c.done:
			return
		}
	}
}

// sweep expires stale signals and pushes the implicit stop for each. The
// push happens after the map update so a racing StartTyping re-creates the
// signal (and re-notifies) cleanly.
func (c *TypingCoordinator) sweep(now time.Time) {
	c.mu.Lock()
	var expired []pairKey
	for key, expiresAt := range c.signals {
		if now.After(expiresAt) {
			delete(c.signals, key)
			expired = append(expired, key)
		}
	}
	c.mu.Unlock()

	for _, key := range expired {
		c.log.WithFields(logrus.Fields{
			"from_user_id": key.From,
			"to_user_id":   key.To,
		}).Debug("typing signal expired")
		c.registry.PushTo(key.To, ServerEvent{Type: EventUserStopTyping, FromUserID: key.From})
	}
}
