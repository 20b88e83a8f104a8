package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recvEvent pops the next event from a connection, failing after a short wait
func recvEvent(t *testing.T, conn *Connection) Event {
	t.Helper()
	select {
	case ev := <-conn.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no event received on session %s", conn.ID)
		return Event{}
	}
}

// assertNoEvent asserts that nothing is pending on a connection's stream
func assertNoEvent(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case ev := <-conn.Events():
		t.Fatalf("unexpected event %q on session %s", ev.Type, conn.ID)
	default:
	}
}

func TestHub_RoomScopedDelivery(t *testing.T) {
	hub := NewHub()

	inRoom := NewConnection("s1", "user-a")
	otherRoom := NewConnection("s2", "user-b")
	hub.Register(inRoom)
	hub.Register(otherRoom)
	require.NoError(t, hub.Join("s1", "match-1"))
	require.NoError(t, hub.Join("s2", "match-2"))

	hub.Broadcast("match-1", NewErrorEvent("ping"))

	ev := recvEvent(t, inRoom)
	assert.Equal(t, EventError, ev.Type)

	// A connection joined only to a different room receives nothing.
	assertNoEvent(t, otherRoom)
}

func TestHub_BroadcastIncludesSender(t *testing.T) {
	hub := NewHub()

	// The sender's own second device stays in sync.
	phone := NewConnection("s1", "user-a")
	laptop := NewConnection("s2", "user-a")
	peer := NewConnection("s3", "user-b")
	for _, conn := range []*Connection{phone, laptop, peer} {
		hub.Register(conn)
		require.NoError(t, hub.Join(conn.ID, "match-1"))
	}

	hub.Broadcast("match-1", NewMessageEvent("match-1", nil))

	for _, conn := range []*Connection{phone, laptop, peer} {
		ev := recvEvent(t, conn)
		assert.Equal(t, EventNewMessage, ev.Type)
		assert.Equal(t, "match-1", ev.MatchID)
	}
}

func TestHub_JoinIdempotent(t *testing.T) {
	hub := NewHub()
	conn := NewConnection("s1", "user-a")
	hub.Register(conn)

	require.NoError(t, hub.Join("s1", "match-1"))
	require.NoError(t, hub.Join("s1", "match-1"))

	hub.Broadcast("match-1", NewErrorEvent("once"))
	recvEvent(t, conn)
	assertNoEvent(t, conn)
}

func TestHub_JoinRequiresRegistration(t *testing.T) {
	hub := NewHub()
	assert.Error(t, hub.Join("nobody", "match-1"))
}

func TestHub_LeaveStopsDeliveryWithoutClosing(t *testing.T) {
	hub := NewHub()
	conn := NewConnection("s1", "user-a")
	hub.Register(conn)
	require.NoError(t, hub.Join("s1", "match-1"))
	require.NoError(t, hub.Join("s1", "match-2"))

	hub.Leave("s1", "match-1")

	hub.Broadcast("match-1", NewErrorEvent("gone"))
	assertNoEvent(t, conn)

	// Still a member of the other room, still online.
	hub.Broadcast("match-2", NewErrorEvent("still here"))
	recvEvent(t, conn)
	assert.True(t, hub.IsOnline("user-a"))

	// Leaving twice is a no-op.
	hub.Leave("s1", "match-1")
}

func TestHub_UnregisterEvictsAllRooms(t *testing.T) {
	hub := NewHub()
	conn := NewConnection("s1", "user-a")
	hub.Register(conn)
	require.NoError(t, hub.Join("s1", "match-1"))
	require.NoError(t, hub.Join("s1", "match-2"))

	hub.Unregister("s1")

	assert.False(t, hub.IsOnline("user-a"))
	assert.False(t, hub.InRoom("s1", "match-1"))
	assert.False(t, hub.InRoom("s1", "match-2"))

	select {
	case <-conn.Done():
	default:
		t.Fatal("connection not closed on unregister")
	}

	// Idempotent.
	hub.Unregister("s1")
}

func TestHub_SlowConnectionSkippedNotBlocking(t *testing.T) {
	hub := NewHub()
	slow := NewConnection("s1", "user-a")
	healthy := NewConnection("s2", "user-b")
	hub.Register(slow)
	hub.Register(healthy)
	require.NoError(t, hub.Join("s1", "match-1"))
	require.NoError(t, hub.Join("s2", "match-1"))

	// The healthy connection keeps draining; the slow one never reads.
	received := make(chan int)
	go func() {
		count := 0
		for range healthy.Events() {
			count++
			if count == sendBuffer+1 {
				received <- count
				return
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		// Enough traffic to overflow the slow connection's buffer.
		for i := 0; i < sendBuffer+1; i++ {
			hub.Broadcast("match-1", NewErrorEvent("flood"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow connection")
	}

	// The slow connection is scheduled for eviction; delivery to the rest of
	// the room was never stalled.
	require.Eventually(t, func() bool {
		return !hub.IsOnline("user-a")
	}, time.Second, 10*time.Millisecond)

	select {
	case count := <-received:
		assert.Equal(t, sendBuffer+1, count)
	case <-time.After(time.Second):
		t.Fatal("healthy connection did not receive the full stream")
	}
}

func TestHub_SendToUserReachesAllSessions(t *testing.T) {
	hub := NewHub()
	phone := NewConnection("s1", "user-a")
	laptop := NewConnection("s2", "user-a")
	hub.Register(phone)
	hub.Register(laptop)

	require.NoError(t, hub.SendToUser("user-a", NewErrorEvent("hello")))
	recvEvent(t, phone)
	recvEvent(t, laptop)

	assert.Error(t, hub.SendToUser("user-offline", NewErrorEvent("hello")))
}

func TestHub_PerRoomOrderPreserved(t *testing.T) {
	hub := NewHub()
	conn := NewConnection("s1", "user-a")
	hub.Register(conn)
	require.NoError(t, hub.Join("s1", "match-1"))

	for i := 0; i < 10; i++ {
		hub.Broadcast("match-1", Event{Type: EventError, Error: string(rune('a' + i))})
	}

	for i := 0; i < 10; i++ {
		ev := recvEvent(t, conn)
		assert.Equal(t, string(rune('a'+i)), ev.Error)
	}
}
