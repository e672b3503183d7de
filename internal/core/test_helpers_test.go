package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kstepanov/dmbridge-server/internal/proto"
	"github.com/kstepanov/dmbridge-server/internal/store"
)

// fakeMessageStore records saved messages in memory and can be told to
// fail, standing in for the persistence layer in router tests.
type fakeMessageStore struct {
	mu     sync.Mutex
	saved  []*store.Message
	nextID int64
	fail   bool
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (f *fakeMessageStore) SaveMessage(_ context.Context, msg *store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	saved := *msg
	f.saved = append(f.saved, &saved)
	return nil
}

func (f *fakeMessageStore) ListConversation(_ context.Context, userA, userB int64) ([]*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Message
	for _, msg := range f.saved {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// mustDelivery pulls payloads from a connection's outbox until a delivery
// shows up, skipping roster updates.
func mustDelivery(t *testing.T, c *Conn) proto.Delivery {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case payload, ok := <-c.Outbox:
			if !ok {
				t.Fatalf("outbox closed while waiting for delivery")
			}
			if d, isDelivery := payload.(proto.Delivery); isDelivery {
				return d
			}
		case <-deadline:
			t.Fatalf("timed out waiting for delivery")
		}
	}
}

// mustRoster pulls payloads from a connection's outbox until a roster
// update shows up.
func mustRoster(t *testing.T, c *Conn) proto.RosterUpdate {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case payload, ok := <-c.Outbox:
			if !ok {
				t.Fatalf("outbox closed while waiting for roster")
			}
			if r, isRoster := payload.(proto.RosterUpdate); isRoster {
				return r
			}
		case <-deadline:
			t.Fatalf("timed out waiting for roster update")
		}
	}
}

// assertNoDelivery checks that nothing queued on the connection is a
// delivery payload.
func assertNoDelivery(t *testing.T, c *Conn) {
	t.Helper()
	for {
		select {
		case payload := <-c.Outbox:
			if _, isDelivery := payload.(proto.Delivery); isDelivery {
				t.Fatalf("unexpected delivery: %+v", payload)
			}
		default:
			return
		}
	}
}
