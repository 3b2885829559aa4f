package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Alice (1) and Bob (2) are friends; Bob is online and watches Alice's
// presence.
func presenceFixture(t *testing.T) (*Registry, *PresenceTracker, *Connection) {
	t.Helper()

	registry := testRegistry(map[string]uint64{
		"token-alice": 1,
		"token-bob":   2,
	})
	roster := &fakeRoster{friends: map[uint64][]uint64{
		1: {2},
		2: {1},
	}}
	tracker := NewPresenceTracker(registry, roster, testConfig(), testLogger())
	t.Cleanup(tracker.Stop)

	bob, err := registry.Admit("token-bob")
	require.NoError(t, err)
	// Bob coming online notified Alice's (zero) connections; his own feed
	// is quiet.
	return registry, tracker, bob
}

func TestPresence_OnlineBroadcastToFriends(t *testing.T) {
	registry, _, bob := presenceFixture(t)

	_, err := registry.Admit("token-alice")
	require.NoError(t, err)

	ev := waitEvent(t, bob, time.Second)
	assert.Equal(t, EventUserOnline, ev.Type)
	assert.Equal(t, uint64(1), ev.UserID)
}

func TestPresence_OfflineAfterGraceWindow(t *testing.T) {
	registry, _, bob := presenceFixture(t)

	alice, err := registry.Admit("token-alice")
	require.NoError(t, err)
	assert.Equal(t, EventUserOnline, waitEvent(t, bob, time.Second).Type)

	registry.Remove(alice.ID)

	// Grace window is 50ms in the test config; the offline must arrive
	// after it, not before.
	ev := waitEvent(t, bob, time.Second)
	assert.Equal(t, EventUserOffline, ev.Type)
	assert.Equal(t, uint64(1), ev.UserID)
}

func TestPresence_ReconnectWithinGraceCoalesces(t *testing.T) {
	registry, _, bob := presenceFixture(t)

	alice, err := registry.Admit("token-alice")
	require.NoError(t, err)
	assert.Equal(t, EventUserOnline, waitEvent(t, bob, time.Second).Type)

	// Tab refresh: drop and reconnect inside the grace window.
	registry.Remove(alice.ID)
	_, err = registry.Admit("token-alice")
	require.NoError(t, err)

	// Neither offline-then-online nor a duplicate online may surface.
	assertNoEvent(t, bob, 200*time.Millisecond)
	assert.True(t, registry.IsOnline(1))
}

func TestPresence_RosterFailureIsSilent(t *testing.T) {
	registry := testRegistry(map[string]uint64{"token-alice": 1})
	roster := &fakeRoster{err: assert.AnError}
	tracker := NewPresenceTracker(registry, roster, testConfig(), testLogger())
	t.Cleanup(tracker.Stop)

	// Must not panic or propagate anywhere.
	_, err := registry.Admit("token-alice")
	require.NoError(t, err)
}
