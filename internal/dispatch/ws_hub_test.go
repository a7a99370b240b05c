package dispatch

import (
	"errors"
	"sync"
	"testing"

	"github.com/example/railsahayak/internal/models"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []any
	err    error
	closed bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestBroadcastReachesAllAndDropsBroken(t *testing.T) {
	h := NewHub(nil)
	good, bad := &fakeConn{}, &fakeConn{err: errors.New("broken pipe")}
	h.Add(good)
	h.Add(bad)

	h.Broadcast(models.StationUpdate{ID: "u1", Text: "Platform 4 crowded"})

	if len(good.sent) != 1 || good.sent[0].(models.StationUpdate).ID != "u1" {
		t.Fatalf("unexpected sends %+v", good.sent)
	}
	if !bad.closed || h.Len() != 1 {
		t.Fatalf("expected broken subscriber dropped, len=%d closed=%v", h.Len(), bad.closed)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	h := NewHub(nil)
	c := &fakeConn{}
	s := h.Add(c)
	h.Remove(s)
	h.Remove(s)
	if h.Len() != 0 || !c.closed {
		t.Fatal("expected session removed and closed")
	}
	h.Broadcast(models.StationUpdate{ID: "u2"})
	if len(c.sent) != 0 {
		t.Fatal("removed subscriber still received updates")
	}
}
