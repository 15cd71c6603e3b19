package echo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/domain"
	"github.com/DoyleJ11/dinedecide/internal/protocol"
)

func recvMsg(t *testing.T, ch <-chan protocol.Message, within time.Duration) protocol.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return protocol.Message{}
	}
}

func TestBus_DeliversToEverySubscriberIncludingSender(t *testing.T) {
	b := NewBus(zap.NewNop())
	defer b.Close()

	first := make(chan protocol.Message, 4)
	second := make(chan protocol.Message, 4)
	b.Subscribe(func(m protocol.Message) { first <- m })
	b.Subscribe(func(m protocol.Message) { second <- m })

	msg := protocol.Message{GroupID: "g", SenderID: "u1", Payload: protocol.JoinRequest{User: domain.Member{ID: "u1"}}}
	b.Post(msg)

	require.Equal(t, msg, recvMsg(t, first, 200*time.Millisecond))
	require.Equal(t, msg, recvMsg(t, second, 200*time.Millisecond))
}

func TestBus_OrderAndUnsubscribe(t *testing.T) {
	b := NewBus(zap.NewNop())
	defer b.Close()

	got := make(chan protocol.Message, 8)
	unsub := b.Subscribe(func(m protocol.Message) { got <- m })

	for _, s := range []domain.VoteStatus{domain.StatusVoting, domain.StatusFinished} {
		b.Post(protocol.Message{GroupID: "g", SenderID: "u", Payload: protocol.VoteUpdate{Status: s}})
	}
	require.Equal(t, domain.StatusVoting, recvMsg(t, got, 200*time.Millisecond).Payload.(protocol.VoteUpdate).Status)
	require.Equal(t, domain.StatusFinished, recvMsg(t, got, 200*time.Millisecond).Payload.(protocol.VoteUpdate).Status)

	unsub()
	unsub()
	b.Post(protocol.Message{GroupID: "g", SenderID: "u", Payload: protocol.VoteUpdate{Status: domain.StatusVoting}})
	select {
	case m := <-got:
		t.Fatalf("unsubscribed callback still called with %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_PostFromCallbackDoesNotDeadlock(t *testing.T) {
	b := NewBus(zap.NewNop())
	defer b.Close()

	done := make(chan struct{})
	b.Subscribe(func(m protocol.Message) {
		if _, ok := m.Payload.(protocol.JoinRequest); ok {
			b.Post(protocol.Message{GroupID: "g", SenderID: "u", Payload: protocol.LobbyUpdate{HostID: "u"}})
			return
		}
		close(done)
	})

	b.Post(protocol.Message{GroupID: "g", SenderID: "u", Payload: protocol.JoinRequest{User: domain.Member{ID: "u"}}})
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("nested post never delivered")
	}
}

func TestBus_UnsubscribeAfterClose(t *testing.T) {
	b := NewBus(zap.NewNop())
	unsub := b.Subscribe(func(protocol.Message) {})

	b.Close()
	require.NotPanics(t, unsub)
	require.NotPanics(t, unsub)

	late := b.Subscribe(func(protocol.Message) {})
	require.NotPanics(t, late)
}
