package websocket

import (
	"reflect"
	"testing"
)

// TestRoomRouterFanOut verifies broadcast delivery, sender exclusion and live
// occupancy accounting.
func TestRoomRouterFanOut(t *testing.T) {
	rt := NewRoomRouter()

	alice := newFakeSubscriber(1)
	bob := newFakeSubscriber(2)
	carol := newFakeSubscriber(3)

	rt.Subscribe(100, "conn-a", alice)
	rt.Subscribe(100, "conn-b", bob)
	rt.Subscribe(200, "conn-c", carol)

	t.Run("LiveCount", func(t *testing.T) {
		if got := rt.LiveCount(100); got != 2 {
			t.Errorf("Expected 2 subscribers in space 100, got %d", got)
		}
		if got := rt.LiveCount(200); got != 1 {
			t.Errorf("Expected 1 subscriber in space 200, got %d", got)
		}
		if got := rt.LiveCount(999); got != 0 {
			t.Errorf("Expected 0 subscribers in unknown space, got %d", got)
		}
	})

	t.Run("BroadcastExcludingSender", func(t *testing.T) {
		ev := NewUserMovedEvent(1, Position{X: 3, Y: 4})
		rt.Broadcast(100, ev, "conn-a")

		if n := len(alice.Events()); n != 0 {
			t.Errorf("Excluded sender should receive nothing, got %d events", n)
		}
		if n := len(bob.Events()); n != 1 {
			t.Fatalf("Expected 1 event for bob, got %d", n)
		}
		if n := len(carol.Events()); n != 0 {
			t.Errorf("Other rooms should receive nothing, got %d events", n)
		}

		var moved UserMovedData
		decodeData(t, bob.Last(), &moved)
		if moved.UserID != 1 || moved.Position.X != 3 || moved.Position.Y != 4 {
			t.Errorf("Unexpected movement payload: %+v", moved)
		}
	})

	t.Run("BroadcastIncludingSender", func(t *testing.T) {
		before := len(alice.Events())
		rt.Broadcast(100, NewErrorEvent(ErrCodeInvalidEvent, "x"), "")
		if len(alice.Events()) != before+1 {
			t.Error("Empty exclude id should deliver to every subscriber")
		}
	})

	t.Run("Occupants", func(t *testing.T) {
		got := rt.Occupants(100)
		if !reflect.DeepEqual(got, []uint{1, 2}) {
			t.Errorf("Expected occupants [1 2], got %v", got)
		}
		if got := rt.Occupants(999); len(got) != 0 {
			t.Errorf("Unknown space should have no occupants, got %v", got)
		}
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		rt.Unsubscribe(100, "conn-a")
		if got := rt.LiveCount(100); got != 1 {
			t.Errorf("Expected 1 subscriber after unsubscribe, got %d", got)
		}

		rt.Unsubscribe(100, "conn-b")
		if got := rt.LiveCount(100); got != 0 {
			t.Errorf("Expected empty room after last unsubscribe, got %d", got)
		}

		// Unsubscribing from a gone room is a no-op.
		rt.Unsubscribe(100, "conn-b")
	})
}

// TestRoomRouterSkipsFailedDelivery verifies that one undeliverable subscriber
// does not block the rest of the room.
func TestRoomRouterSkipsFailedDelivery(t *testing.T) {
	rt := NewRoomRouter()

	broken := newFakeSubscriber(1)
	broken.fail = true
	healthy := newFakeSubscriber(2)

	rt.Subscribe(100, "conn-broken", broken)
	rt.Subscribe(100, "conn-healthy", healthy)

	rt.Broadcast(100, NewUserMovedEvent(3, Position{}), "")

	if n := len(healthy.Events()); n != 1 {
		t.Errorf("Healthy subscriber should still receive the event, got %d", n)
	}
	// The failed delivery must not evict the subscriber; the pump owns that.
	if got := rt.LiveCount(100); got != 2 {
		t.Errorf("Failed delivery should not change occupancy, got %d", got)
	}
}
