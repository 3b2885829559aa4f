package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"echochat/internal/chat/service/mocks"
	"echochat/internal/dbmysql"
)

func relayFixture(t *testing.T) (*Registry, *mocks.MockMessageService, *MessageRelay) {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageService(ctrl)

	registry := testRegistry(map[string]uint64{
		"token-alice": 1,
		"token-bob":   2,
	})
	relay := NewMessageRelay(registry, store, testLogger())
	return registry, store, relay
}

func TestRelay_PushesOnlyAfterPersistence(t *testing.T) {
	registry, store, relay := relayFixture(t)

	alice, err := registry.Admit("token-alice")
	require.NoError(t, err)
	bobTab1, err := registry.Admit("token-bob")
	require.NoError(t, err)
	bobTab2, err := registry.Admit("token-bob")
	require.NoError(t, err)

	store.EXPECT().
		Write(gomock.Any(), uint64(1), uint64(2), "hello", "").
		Return(&dbmysql.Message{
			MessageID:  41,
			SenderID:   1,
			ReceiverID: 2,
			Text:       "hello",
			CreatedAt:  time.Now().UTC(),
		}, nil).
		Times(1)

	msg, err := relay.Send(context.Background(), alice, 2, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(41), msg.MessageID)

	// Every live connection of the receiver gets exactly one push.
	for _, conn := range []*Connection{bobTab1, bobTab2} {
		ev := waitEvent(t, conn, time.Second)
		assert.Equal(t, EventNewMessage, ev.Type)
		assert.Equal(t, uint64(1), ev.FromUserID)
		require.NotNil(t, ev.Message)
		assert.Equal(t, uint64(41), ev.Message.MessageID)
		assert.Equal(t, "hello", ev.Message.Text)
		assertNoEvent(t, conn, 50*time.Millisecond)
	}

	// The sender's own feed stays empty; the ack is the gateway's job.
	assertNoEvent(t, alice, 50*time.Millisecond)
}

func TestRelay_NoPushWhenPersistenceFails(t *testing.T) {
	registry, store, relay := relayFixture(t)

	alice, err := registry.Admit("token-alice")
	require.NoError(t, err)
	bob, err := registry.Admit("token-bob")
	require.NoError(t, err)

	store.EXPECT().
		Write(gomock.Any(), uint64(1), uint64(2), "hello", "").
		Return(nil, errors.New("database connection failed")).
		Times(1)

	msg, err := relay.Send(context.Background(), alice, 2, "hello", "")

	assert.Error(t, err)
	assert.Nil(t, msg)
	assertNoEvent(t, bob, 50*time.Millisecond)
}

func TestRelay_OfflineRecipientStillSucceeds(t *testing.T) {
	registry, store, relay := relayFixture(t)

	alice, err := registry.Admit("token-alice")
	require.NoError(t, err)

	store.EXPECT().
		Write(gomock.Any(), uint64(1), uint64(2), "hello", "").
		Return(&dbmysql.Message{MessageID: 42, SenderID: 1, ReceiverID: 2, Text: "hello"}, nil).
		Times(1)

	// Bob has zero connections: the write succeeds, the push is skipped,
	// and Bob sees the message on his next poll.
	msg, err := relay.Send(context.Background(), alice, 2, "hello", "")

	require.NoError(t, err)
	assert.Equal(t, uint64(42), msg.MessageID)
	assert.Empty(t, registry.ConnectionsFor(2))
}

func TestRelay_PairLocksAreStableAndBounded(t *testing.T) {
	_, _, relay := relayFixture(t)

	key := pairKey{From: 1, To: 2}
	assert.Same(t, relay.pairLock(key), relay.pairLock(key))

	// Lock storage stays fixed no matter how many pairs the process sees.
	seen := make(map[*sync.Mutex]struct{})
	for from := uint64(1); from <= 100; from++ {
		for to := uint64(1); to <= 100; to++ {
			seen[relay.pairLock(pairKey{From: from, To: to})] = struct{}{}
		}
	}
	assert.LessOrEqual(t, len(seen), pairLockShards)
}

func TestRelay_PerPairOrderingMatchesAckOrder(t *testing.T) {
	registry, store, relay := relayFixture(t)

	alice, err := registry.Admit("token-alice")
	require.NoError(t, err)
	bob, err := registry.Admit("token-bob")
	require.NoError(t, err)

	var assigned uint64
	store.EXPECT().
		Write(gomock.Any(), uint64(1), uint64(2), gomock.Any(), "").
		DoAndReturn(func(ctx context.Context, senderID, receiverID uint64, text, mediaRef string) (*dbmysql.Message, error) {
			assigned++
			return &dbmysql.Message{
				MessageID:  assigned,
				SenderID:   senderID,
				ReceiverID: receiverID,
				Text:       text,
			}, nil
		}).
		Times(10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			_, err := relay.Send(context.Background(), alice, 2, "msg", "")
			assert.NoError(t, err)
		}
	}()
	<-done

	// Push order must match the order persistence acknowledged the writes.
	var got []uint64
	for i := 0; i < 10; i++ {
		ev := waitEvent(t, bob, time.Second)
		require.Equal(t, EventNewMessage, ev.Type)
		got = append(got, ev.Message.MessageID)
	}
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1], "pushes reordered: %v", got)
	}
}
