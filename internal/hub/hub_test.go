package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
)

func stats(t *testing.T, h *Hub) Stats {
	t.Helper()
	reply := make(chan Stats, 1)
	h.Inbox() <- GetStats{Reply: reply}
	select {
	case st := <-reply:
		return st
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for stats")
		return Stats{}
	}
}

func TestHub_ForwardReachesOtherPeersOnly(t *testing.T) {
	h := NewHub(context.Background(), zap.NewNop())
	defer h.Send(ShutdownHub{})

	a := make(chan []byte, 4)
	b := make(chan []byte, 4)
	other := make(chan []byte, 4)
	h.Inbox() <- JoinGroup{GroupID: "g1", PeerID: "a", Outbox: a}
	h.Inbox() <- JoinGroup{GroupID: "g1", PeerID: "b", Outbox: b}
	h.Inbox() <- JoinGroup{GroupID: "g2", PeerID: "c", Outbox: other}

	h.Inbox() <- Forward{GroupID: "g1", From: "a", Data: json.RawMessage(`{"groupId":"g1"}`)}

	select {
	case <-b:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("peer b never got the frame")
	}

	select {
	case f := <-a:
		t.Fatalf("sender got its own frame: %s", f)
	case f := <-other:
		t.Fatalf("other group got the frame: %s", f)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_EmptyGroupIsDiscarded(t *testing.T) {
	h := NewHub(context.Background(), zap.NewNop())
	defer h.Send(ShutdownHub{})

	out := make(chan []byte, 1)
	h.Inbox() <- JoinGroup{GroupID: "g1", PeerID: "a", Outbox: out}
	h.Inbox() <- JoinGroup{GroupID: "g1", PeerID: "a", Outbox: out}

	if st := stats(t, h); st.Groups != 1 || st.Peers != 1 {
		t.Fatalf("after duplicate join: got %+v", st)
	}

	h.Inbox() <- LeaveGroup{GroupID: "g1", PeerID: "a"}
	if st := stats(t, h); st.Groups != 0 || st.Peers != 0 {
		t.Fatalf("after leave: got %+v", st)
	}

	// forwarding into a discarded group is a no-op
	h.Inbox() <- Forward{GroupID: "g1", From: "x", Data: json.RawMessage(`{"groupId":"g1"}`)}
	if st := stats(t, h); st.Groups != 0 {
		t.Fatalf("forward must not recreate group: %+v", st)
	}
}
