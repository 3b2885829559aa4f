package realtime

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"echochat/internal/chat/service"
	"echochat/internal/dbmysql"
)

// pairLockShards bounds the lock table; pairs that collide share a lock,
// which only costs contention.
const pairLockShards = 64

// MessageRelay turns an inbound send into a durable write followed by a
// best-effort push. Persistence always goes first: a message that never hit
// the database is never seen on a socket. The reverse (persisted, push
// missed) is fine, the recipient's poll picks it up.
type MessageRelay struct {
	registry *Registry
	store    service.MessageService
	log      *logrus.Logger

	pairLocks [pairLockShards]sync.Mutex
}

func NewMessageRelay(registry *Registry, store service.MessageService, log *logrus.Logger) *MessageRelay {
	return &MessageRelay{
		registry: registry,
		store:    store,
		log:      log,
	}
}

// Send persists the message and, on success, pushes it to every live
// connection of the receiver. The per-pair lock spans write and push so
// that for one sender→receiver pair, push order always matches the order
// persistence acknowledged the writes. Unrelated pairs never contend.
func (r *MessageRelay) Send(ctx context.Context, sender *Connection, receiverID uint64, text, mediaRef string) (*dbmysql.Message, error) {
	pair := r.pairLock(pairKey{From: sender.UserID, To: receiverID})
	pair.Lock()
	defer pair.Unlock()

	msg, err := r.store.Write(ctx, sender.UserID, receiverID, text, mediaRef)
	if err != nil {
		return nil, err
	}

	delivered := r.registry.PushTo(receiverID, ServerEvent{
		Type:       EventNewMessage,
		FromUserID: sender.UserID,
		Message:    msg,
	})

	r.log.WithFields(logrus.Fields{
		"message_id":  msg.MessageID,
		"sender_id":   sender.UserID,
		"receiver_id": receiverID,
		"delivered":   delivered,
	}).Debug("message relayed")

	return msg, nil
}

// pairLock maps a pair onto its shard. The same pair always lands on the
// same lock, so per-pair ordering holds; the table never grows.
func (r *MessageRelay) pairLock(key pairKey) *sync.Mutex {
	return &r.pairLocks[(key.From*31+key.To)%pairLockShards]
}
