package websocket

import (
	"context"
	"testing"
)

func newCongestedTestClient(bufferSize int) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		session: &Session{connID: "conn-test", userID: 1},
		userID:  1,
		send:    make(chan []byte, bufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// TestClientDropOnFullBuffer verifies the congested-client drop policy: once
// the send buffer overflows the client is marked closed, and every later
// delivery attempt fails fast instead of panicking the broadcasting
// goroutine.
func TestClientDropOnFullBuffer(t *testing.T) {
	c := newCongestedTestClient(1)

	if err := c.Send(NewErrorEvent(ErrCodeInvalidEvent, "fill")); err != nil {
		t.Fatalf("First send should fill the buffer, got %v", err)
	}

	if err := c.Send(NewErrorEvent(ErrCodeInvalidEvent, "overflow")); err == nil {
		t.Fatal("Overflowing send should report the client as dropped")
	}
	if !c.isClosed() {
		t.Error("Overflowing send should mark the client closed")
	}
	select {
	case <-c.ctx.Done():
	default:
		t.Error("Overflowing send should cancel the client context")
	}

	// A room broadcast that still holds this subscriber must get a clean
	// error, never a send on a closed channel.
	for i := 0; i < 3; i++ {
		if err := c.Send(NewErrorEvent(ErrCodeInvalidEvent, "late")); err == nil {
			t.Fatal("Sends after the drop should fail")
		}
	}
}

// TestClientDroppedSubscriberSkippedByBroadcast keeps a dropped client in a
// room and broadcasts through it, mirroring the window between the drop and
// the read pump's unregister.
func TestClientDroppedSubscriberSkippedByBroadcast(t *testing.T) {
	rt := NewRoomRouter()

	dropped := newCongestedTestClient(1)
	dropped.Send(NewErrorEvent(ErrCodeInvalidEvent, "fill"))
	dropped.Send(NewErrorEvent(ErrCodeInvalidEvent, "overflow"))

	healthy := newFakeSubscriber(2)
	rt.Subscribe(100, "conn-test", dropped)
	rt.Subscribe(100, "conn-healthy", healthy)

	rt.Broadcast(100, NewUserMovedEvent(3, Position{X: 1}), "")

	if n := len(healthy.Events()); n != 1 {
		t.Errorf("Healthy subscriber should receive the broadcast, got %d events", n)
	}
}

func TestClientCloseIsIdempotent(t *testing.T) {
	c := newCongestedTestClient(1)
	c.close()
	c.close()
	if !c.isClosed() {
		t.Error("Client should stay closed")
	}
}
