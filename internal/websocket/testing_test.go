package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"space-service/internal/models"

	"gorm.io/gorm"
)

// fakeSubscriber records every event it is asked to deliver. It stands in for
// a client connection in processor and router tests.
type fakeSubscriber struct {
	mu     sync.Mutex
	userID uint
	events []*Event
	fail   bool
}

func newFakeSubscriber(userID uint) *fakeSubscriber {
	return &fakeSubscriber{userID: userID}
}

func (f *fakeSubscriber) Send(ev *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrConnectionNotFound
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSubscriber) UserID() uint { return f.userID }

func (f *fakeSubscriber) Events() []*Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Event, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeSubscriber) Last() *Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	return f.events[len(f.events)-1]
}

func (f *fakeSubscriber) CountType(t EventType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ev := range f.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// fakeSpaceStore is an in-memory SpaceStore. Missing spaces return
// gorm.ErrRecordNotFound, matching the postgres repository contract.
type fakeSpaceStore struct {
	mu          sync.Mutex
	spaces      map[uint]*models.Space
	members     map[[2]uint]bool // {userID, spaceID}
	spaceCalls  int
	memberCalls int
	err         error
}

func newFakeSpaceStore() *fakeSpaceStore {
	return &fakeSpaceStore{
		spaces:  make(map[uint]*models.Space),
		members: make(map[[2]uint]bool),
	}
}

func (f *fakeSpaceStore) addSpace(id uint, spaceType string, maxUsers int) *models.Space {
	f.mu.Lock()
	defer f.mu.Unlock()
	space := &models.Space{
		Model:    gorm.Model{ID: id},
		Name:     "Test Space",
		Type:     spaceType,
		MaxUsers: maxUsers,
		OwnerID:  1,
	}
	f.spaces[id] = space
	return space
}

func (f *fakeSpaceStore) addMember(userID, spaceID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[[2]uint{userID, spaceID}] = true
}

func (f *fakeSpaceStore) GetSpace(_ context.Context, id uint) (*models.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spaceCalls++
	if f.err != nil {
		return nil, f.err
	}
	space, ok := f.spaces[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return space, nil
}

func (f *fakeSpaceStore) IsMember(_ context.Context, userID, spaceID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	if f.err != nil {
		return false, f.err
	}
	return f.members[[2]uint{userID, spaceID}], nil
}

// fakeMessageStore is an in-memory MessageStore that assigns sequential ids
// the way the database would.
type fakeMessageStore struct {
	mu       sync.Mutex
	nextID   uint
	messages []*models.Message
	err      error
}

func (f *fakeMessageStore) AppendMessage(_ context.Context, spaceID, senderID uint, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	msg := &models.Message{
		Model:    gorm.Model{ID: f.nextID, CreatedAt: time.Now()},
		SpaceID:  spaceID,
		SenderID: senderID,
		Content:  content,
		Type:     models.MessageTypeText,
	}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeMessageStore) stored() []*models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// rawEvent marshals an inbound frame the way a client would send it.
func rawEvent(t *testing.T, typ EventType, payload interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	frame, err := json.Marshal(Event{Type: typ, Data: data})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return frame
}

// decodeData unmarshals an outbound event payload into out.
func decodeData(t *testing.T, ev *Event, out interface{}) {
	t.Helper()
	if ev == nil {
		t.Fatal("expected an event, got none")
	}
	if err := json.Unmarshal(ev.Data, out); err != nil {
		t.Fatalf("decode %s payload: %v", ev.Type, err)
	}
}
