package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/candidates"
	"github.com/DoyleJ11/dinedecide/internal/domain"
	"github.com/DoyleJ11/dinedecide/internal/protocol"
)

type Msg interface{ isSessionMsg() }

type FromPeer struct{ Message protocol.Message }

func (FromPeer) isSessionMsg() {}

type Enter struct {
	GroupID string
	Reply   chan error
}

func (Enter) isSessionMsg() {}

type Rename struct {
	Name  string
	Reply chan error
}

func (Rename) isSessionMsg() {}

type Start struct{ Reply chan error }

func (Start) isSessionMsg() {}

type Swipe struct {
	Decision domain.Decision
	Reply    chan error
}

func (Swipe) isSessionMsg() {}

type ReturnToLobby struct{ Reply chan error }

func (ReturnToLobby) isSessionMsg() {}

type LeaveGroup struct{ Reply chan error }

func (LeaveGroup) isSessionMsg() {}

type GetState struct{ Reply chan Snapshot }

func (GetState) isSessionMsg() {}

// Watch registers a channel that receives a snapshot after every change.
type Watch struct{ Outbox chan Snapshot }

func (Watch) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// deckFetched carries the host's fetch result back into the loop.
type deckFetched struct {
	req   FetchRequest
	deck  []domain.Candidate
	err   error
	reply chan error
}

func (deckFetched) isSessionMsg() {}

// Subscriber is the inbound half of the protocol engine.
type Subscriber interface {
	Subscribe(fn func(protocol.Message)) (unsubscribe func())
}

// Actor owns a Machine and feeds it protocol messages and local actions one
// at a time.
type Actor struct {
	inbox    chan Msg
	m        *Machine
	fetch    candidates.Fetcher
	watchers []chan Snapshot
	unsub    func()
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewActor(parent context.Context, m *Machine, sub Subscriber, log *zap.Logger) *Actor {
	ctx, cancel := context.WithCancel(parent)

	a := &Actor{
		inbox:  make(chan Msg, 256),
		m:      m,
		fetch:  m.fetch,
		log:    log.Named("session"),
		ctx:    ctx,
		cancel: cancel,
	}
	a.unsub = sub.Subscribe(func(msg protocol.Message) {
		a.Send(FromPeer{Message: msg})
	})

	go a.loop()
	return a
}

// Send queues m for the loop. It reports false once the actor has stopped.
func (a *Actor) Send(m Msg) bool {
	select {
	case a.inbox <- m:
		return true
	case <-a.ctx.Done():
		return false
	}
}

func (a *Actor) Inbox() chan<- Msg { return a.inbox }

func (a *Actor) loop() {
	for {
		select {
		case <-a.ctx.Done():
			a.shutdown()
			return

		case in := <-a.inbox:
			switch msg := in.(type) {
			case FromPeer:
				a.m.Handle(a.ctx, msg.Message)

			case Enter:
				reply(msg.Reply, a.m.EnterLobby(a.ctx, msg.GroupID))

			case Rename:
				reply(msg.Reply, a.m.Rename(a.ctx, msg.Name))

			case Start:
				req, host, err := a.m.BeginStart()
				if err != nil || !host {
					reply(msg.Reply, err)
					break
				}
				// fetch off-loop so peer messages keep flowing
				go func() {
					deck, err := a.fetch.Fetch(a.ctx, req.Area, req.Query, req.Limit)
					a.Send(deckFetched{req: req, deck: deck, err: err, reply: msg.Reply})
				}()

			case deckFetched:
				reply(msg.reply, a.m.CompleteStart(msg.req, msg.deck, msg.err))

			case Swipe:
				reply(msg.Reply, a.m.Swipe(a.ctx, msg.Decision))

			case ReturnToLobby:
				reply(msg.Reply, a.m.ReturnToLobby())

			case LeaveGroup:
				reply(msg.Reply, a.m.Leave(a.ctx))

			case GetState:
				msg.Reply <- a.m.Snapshot()
				continue

			case Watch:
				a.watchers = append(a.watchers, msg.Outbox)
				offer(msg.Outbox, a.m.Snapshot())
				continue

			case Shutdown:
				a.shutdown()
				return
			}
			a.broadcast(a.m.Snapshot())
		}
	}
}

func (a *Actor) shutdown() {
	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	for _, ch := range a.watchers {
		close(ch)
	}
	a.watchers = nil
	a.cancel()
	a.log.Debug("session actor stopped")
}

// broadcast never blocks the loop; a full watcher misses this snapshot and
// gets the next one.
func (a *Actor) broadcast(s Snapshot) {
	for _, ch := range a.watchers {
		offer(ch, s)
	}
}

func offer(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
	default:
	}
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

// call sends a request built around a fresh reply channel and waits for it.
func (a *Actor) call(ctx context.Context, build func(chan error) Msg) error {
	ch := make(chan error, 1)
	if !a.Send(build(ch)) {
		return context.Canceled
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return context.Canceled
	}
}

func (a *Actor) Enter(ctx context.Context, groupID string) error {
	return a.call(ctx, func(ch chan error) Msg { return Enter{GroupID: groupID, Reply: ch} })
}

func (a *Actor) Rename(ctx context.Context, name string) error {
	return a.call(ctx, func(ch chan error) Msg { return Rename{Name: name, Reply: ch} })
}

// Start returns once the deck is frozen, or right away for non-hosts.
func (a *Actor) Start(ctx context.Context) error {
	return a.call(ctx, func(ch chan error) Msg { return Start{Reply: ch} })
}

func (a *Actor) Swipe(ctx context.Context, d domain.Decision) error {
	return a.call(ctx, func(ch chan error) Msg { return Swipe{Decision: d, Reply: ch} })
}

func (a *Actor) ReturnToLobby(ctx context.Context) error {
	return a.call(ctx, func(ch chan error) Msg { return ReturnToLobby{Reply: ch} })
}

func (a *Actor) Leave(ctx context.Context) error {
	return a.call(ctx, func(ch chan error) Msg { return LeaveGroup{Reply: ch} })
}

func (a *Actor) State(ctx context.Context) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	if !a.Send(GetState{Reply: ch}) {
		return Snapshot{}, context.Canceled
	}
	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-a.ctx.Done():
		return Snapshot{}, context.Canceled
	}
}

// Done is closed once the actor has stopped.
func (a *Actor) Done() <-chan struct{} { return a.ctx.Done() }
