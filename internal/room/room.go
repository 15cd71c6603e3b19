package room

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/protocol"
)

type Msg interface{ isRoomMsg() }

// Join adds a connection to the group's peer set. Joining twice is a no-op
// beyond replacing the outbox.
type Join struct {
	PeerID string
	Outbox chan []byte // frames for this peer
}

func (Join) isRoomMsg() {}

type Leave struct{ PeerID string }

func (Leave) isRoomMsg() {}

// Forward fans Data out to every peer except From.
type Forward struct {
	From string
	Data json.RawMessage
}

func (Forward) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type View struct {
	GroupID  string
	NumPeers int
	Dropped  int
}

// Room owns one group's peer set. All access goes through its inbox so the
// set is only ever touched by the loop goroutine.
type Room struct {
	groupID string
	inbox   chan Msg
	peers   map[string]chan []byte
	dropped int
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRoom(parent context.Context, groupID string, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		groupID: groupID,
		inbox:   make(chan Msg, 64),
		peers:   make(map[string]chan []byte),
		log:     log.With(zap.String("group", groupID)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.peers[msg.PeerID] = msg.Outbox

			case Leave:
				delete(r.peers, msg.PeerID)

			case Forward:
				frame, err := protocol.P2PFrame(msg.Data)
				if err != nil {
					r.log.Warn("dropping unencodable frame", zap.Error(err))
					break
				}
				r.broadcast(msg.From, frame)

			case GetState:
				msg.Reply <- View{GroupID: r.groupID, NumPeers: len(r.peers), Dropped: r.dropped}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) shutdown() {
	clear(r.peers)
	r.cancel()
}

// broadcast never blocks: a peer whose outbox is full misses this frame.
func (r *Room) broadcast(from string, frame []byte) {
	for id, ch := range r.peers {
		if id == from {
			continue
		}
		select {
		case ch <- frame:
		default:
			r.dropped++
			r.log.Warn("peer outbox full, frame dropped", zap.String("peer", id))
		}
	}
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }
