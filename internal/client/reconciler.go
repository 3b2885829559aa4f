// Package client implements the conversation view a UI sits on top of.
// The view has two feeds: socket pushes for latency and a fixed interval
// poll of persisted history for correctness. Pushes can be missed
// (reconnect race, dropped frame, brief offline window) and are never
// retried server-side.
package client

import (
	"context"
	"sort"
	"sync"
	"time"

	"echochat/internal/dbmysql"
	"echochat/internal/realtime"
)

// HistoryFetcher is the polling backstop, in production an HTTP call to
// GET /api/conversations/{partnerID}/messages.
type HistoryFetcher interface {
	ConversationHistory(ctx context.Context, partnerID uint64) ([]*dbmysql.Message, error)
}

// Reconciler merges the push and poll feeds of one open conversation into
// a single consistent message list, and tracks optimistic local echoes of
// not-yet-acknowledged sends.
type Reconciler struct {
	partnerID uint64
	fetcher   HistoryFetcher
	interval  time.Duration

	// OnSendFailure, when set, is told about a rejected send after its
	// echo has been rolled back.
	OnSendFailure func(clientTag, reason string)

	mu        sync.Mutex
	confirmed []*dbmysql.Message
	seen      map[uint64]struct{}
	pending   []pendingEcho
}

type pendingEcho struct {
	tag  string
	echo *dbmysql.Message
}

func NewReconciler(partnerID uint64, fetcher HistoryFetcher, pollInterval time.Duration) *Reconciler {
	return &Reconciler{
		partnerID: partnerID,
		fetcher:   fetcher,
		interval:  pollInterval,
		seen:      make(map[uint64]struct{}),
	}
}

// HandleEvent feeds a socket event into the view. Events for other
// conversations are ignored.
func (r *Reconciler) HandleEvent(ev realtime.ServerEvent) {
	switch ev.Type {
	case realtime.EventNewMessage:
		if ev.Message != nil && ev.FromUserID == r.partnerID {
			r.ApplyPush(ev.Message)
		}
	case realtime.EventMessageSent:
		if ev.Message != nil {
			r.AckSend(ev.ClientTag, ev.Message)
		}
	case realtime.EventSendError:
		r.FailSend(ev.ClientTag, ev.Error)
	}
}

// ApplyPush merges a pushed envelope, idempotent by message id: a
// duplicate reports false and changes nothing.
func (r *Reconciler) ApplyPush(msg *dbmysql.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[msg.MessageID]; ok {
		return false
	}
	r.seen[msg.MessageID] = struct{}{}
	r.confirmed = append(r.confirmed, msg)
	sortMessages(r.confirmed)
	return true
}

// SendOptimistic records a local echo for a send in flight, shown to the
// user immediately. The tag correlates the echo with the eventual ack.
func (r *Reconciler) SendOptimistic(clientTag string, senderID uint64, text, mediaRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, pendingEcho{
		tag: clientTag,
		echo: &dbmysql.Message{
			SenderID:   senderID,
			ReceiverID: r.partnerID,
			Text:       text,
			MediaRef:   mediaRef,
			CreatedAt:  time.Now().UTC(),
		},
	})
}

// AckSend replaces the optimistic echo with the durable record.
func (r *Reconciler) AckSend(clientTag string, msg *dbmysql.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropPending(clientTag)
	if _, ok := r.seen[msg.MessageID]; ok {
		return
	}
	r.seen[msg.MessageID] = struct{}{}
	r.confirmed = append(r.confirmed, msg)
	sortMessages(r.confirmed)
}

// FailSend removes the echo of a rejected send; the write never happened.
func (r *Reconciler) FailSend(clientTag, reason string) {
	r.mu.Lock()
	r.dropPending(clientTag)
	callback := r.OnSendFailure
	r.mu.Unlock()

	if callback != nil {
		callback(clientTag, reason)
	}
}

func (r *Reconciler) dropPending(clientTag string) {
	for i, p := range r.pending {
		if p.tag == clientTag {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// Refresh re-reads the persisted history and adopts it as the confirmed
// view. The store is authoritative: anything it has that we missed appears,
// anything we invented that it lacks disappears. Pending echoes survive,
// their writes are still in flight.
func (r *Reconciler) Refresh(ctx context.Context) error {
	messages, err := r.fetcher.ConversationHistory(ctx, r.partnerID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.confirmed = make([]*dbmysql.Message, len(messages))
	copy(r.confirmed, messages)
	sortMessages(r.confirmed)

	r.seen = make(map[uint64]struct{}, len(messages))
	for _, msg := range messages {
		r.seen[msg.MessageID] = struct{}{}
	}
	return nil
}

// Run polls until the context is canceled. Poll errors are swallowed: the
// next tick retries, and the socket feed keeps the view warm meanwhile.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Messages snapshots the displayed list: confirmed history in order, then
// pending echoes in the order they were sent.
func (r *Reconciler) Messages() []*dbmysql.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*dbmysql.Message, 0, len(r.confirmed)+len(r.pending))
	out = append(out, r.confirmed...)
	for _, p := range r.pending {
		out = append(out, p.echo)
	}
	return out
}

func sortMessages(messages []*dbmysql.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].MessageID < messages[j].MessageID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
