package realtime

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"echochat/internal/common"
	"echochat/internal/config"
)

// fakeResolver maps credentials straight to user ids, standing in for the
// JWT resolver.
type fakeResolver struct {
	users map[string]uint64
}

func (r *fakeResolver) Resolve(credential string) (uint64, error) {
	if id, ok := r.users[credential]; ok {
		return id, nil
	}
	return 0, common.ErrUnauthenticated
}

type fakeRoster struct {
	friends map[uint64][]uint64
	err     error
}

func (r *fakeRoster) FriendIDs(_ context.Context, userID uint64) ([]uint64, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.friends[userID], nil
}

func testConfig() *config.Config {
	return &config.Config{
		Realtime: config.RealtimeConfig{
			PingInterval:   50 * time.Millisecond,
			PongWait:       2 * time.Second,
			WriteWait:      time.Second,
			SendBuffer:     16,
			PresenceGrace:  50 * time.Millisecond,
			TypingTTL:      100 * time.Millisecond,
			TypingSweep:    10 * time.Millisecond,
			MaxMessageSize: 4096,
		},
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRegistry(users map[string]uint64) *Registry {
	return NewRegistry(&fakeResolver{users: users}, testConfig(), testLogger())
}

// waitEvent receives the next event pushed to a connection or fails the
// test.
func waitEvent(t *testing.T, conn *Connection, timeout time.Duration) ServerEvent {
	t.Helper()
	select {
	case ev := <-conn.Events():
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event on connection %s", conn.ID)
		return ServerEvent{}
	}
}

// assertNoEvent asserts that nothing reaches the connection within the
// window.
func assertNoEvent(t *testing.T, conn *Connection, window time.Duration) {
	t.Helper()
	select {
	case ev := <-conn.Events():
		t.Fatalf("unexpected event %q on connection %s", ev.Type, conn.ID)
	case <-time.After(window):
	}
}
