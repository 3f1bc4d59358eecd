package websocket

import (
	"errors"
	"sync"
	"testing"
)

// TestRegistryLifecycle walks a connection through register, bind, rebind and
// unregister.
func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	connID := r.Register()
	if connID == "" {
		t.Fatal("Register should return a non-empty connection id")
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 live connection, got %d", r.Len())
	}

	t.Run("UnboundHasNoBinding", func(t *testing.T) {
		if _, ok := r.CurrentBinding(connID); ok {
			t.Error("A freshly registered connection should have no binding")
		}
	})

	t.Run("BindSpace", func(t *testing.T) {
		prev, err := r.BindSpace(connID, 7, 100)
		if err != nil {
			t.Fatalf("BindSpace failed: %v", err)
		}
		if prev != nil {
			t.Errorf("First bind should report no previous binding, got %+v", prev)
		}

		b, ok := r.CurrentBinding(connID)
		if !ok {
			t.Fatal("Binding should be visible after BindSpace")
		}
		if b.UserID != 7 || b.SpaceID != 100 {
			t.Errorf("Expected binding (7, 100), got (%d, %d)", b.UserID, b.SpaceID)
		}
	})

	t.Run("RebindReplacesBinding", func(t *testing.T) {
		prev, err := r.BindSpace(connID, 7, 200)
		if err != nil {
			t.Fatalf("BindSpace failed: %v", err)
		}
		if prev == nil || prev.SpaceID != 100 {
			t.Errorf("Rebind should return the previous binding for space 100, got %+v", prev)
		}

		b, _ := r.CurrentBinding(connID)
		if b.SpaceID != 200 {
			t.Errorf("Expected binding to move to space 200, got %d", b.SpaceID)
		}
	})

	t.Run("Unregister", func(t *testing.T) {
		last := r.Unregister(connID)
		if last == nil || last.SpaceID != 200 {
			t.Errorf("Unregister should return the final binding for space 200, got %+v", last)
		}
		if r.Len() != 0 {
			t.Errorf("Expected 0 live connections after unregister, got %d", r.Len())
		}
		if _, ok := r.CurrentBinding(connID); ok {
			t.Error("Unregistered connection should have no binding")
		}
	})
}

func TestRegistryUnknownConnection(t *testing.T) {
	r := NewRegistry()

	if _, err := r.BindSpace("nope", 1, 1); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("Expected ErrConnectionNotFound, got %v", err)
	}
	if last := r.Unregister("nope"); last != nil {
		t.Errorf("Unregistering an unknown connection should be a no-op, got %+v", last)
	}
}

// TestRegistryConcurrentAccess exercises bind and lookup from many goroutines
// to catch data races under -race.
func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = r.Register()
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(2)
		go func(id string, userID uint) {
			defer wg.Done()
			for s := uint(1); s <= 10; s++ {
				r.BindSpace(id, userID, s)
			}
		}(id, uint(i+1))
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				r.CurrentBinding(id)
			}
		}(id)
	}
	wg.Wait()

	for i, id := range ids {
		b, ok := r.CurrentBinding(id)
		if !ok {
			t.Fatalf("Connection %d lost its binding", i)
		}
		if b.SpaceID != 10 {
			t.Errorf("Connection %d should end bound to space 10, got %d", i, b.SpaceID)
		}
	}
	if r.Len() != len(ids) {
		t.Errorf("Expected %d live connections, got %d", len(ids), r.Len())
	}
}
