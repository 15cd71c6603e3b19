package hub

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/room"
)

type HubMsg interface{ isHubMsg() }

// JoinGroup registers a connection in a group's peer set, creating the room
// on first use.
type JoinGroup struct {
	GroupID string
	PeerID  string
	Outbox  chan []byte
}

type LeaveGroup struct {
	GroupID string
	PeerID  string
}

// Forward routes data to every other peer of GroupID. Unknown groups are
// ignored.
type Forward struct {
	GroupID string
	From    string
	Data    json.RawMessage
}

type GetStats struct {
	Reply chan Stats
}

type ShutdownHub struct{}

func (JoinGroup) isHubMsg()   {}
func (LeaveGroup) isHubMsg()  {}
func (Forward) isHubMsg()     {}
func (GetStats) isHubMsg()    {}
func (ShutdownHub) isHubMsg() {}

type Stats struct {
	Groups int `json:"groups"`
	Peers  int `json:"peers"`
}

// Hub is the relay's only shared mutable structure: group id -> peer set.
// Membership is tracked here so the hub knows when a group becomes empty and
// can discard its room.
type Hub struct {
	inbox   chan HubMsg
	rooms   map[string]*room.Room
	members map[string]map[string]struct{}
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		rooms:   make(map[string]*room.Room),
		members: make(map[string]map[string]struct{}),
		log:     log.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Send delivers m unless the hub has already stopped.
func (h *Hub) Send(m HubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case JoinGroup:
				rm := h.rooms[msg.GroupID]
				if rm == nil {
					rm = room.NewRoom(h.ctx, msg.GroupID, h.log)
					h.rooms[msg.GroupID] = rm
					h.members[msg.GroupID] = make(map[string]struct{})
					h.log.Debug("group opened", zap.String("group", msg.GroupID))
				}
				h.members[msg.GroupID][msg.PeerID] = struct{}{}
				rm.Inbox() <- room.Join{PeerID: msg.PeerID, Outbox: msg.Outbox}

			case LeaveGroup:
				rm := h.rooms[msg.GroupID]
				if rm == nil {
					break
				}
				delete(h.members[msg.GroupID], msg.PeerID)
				rm.Inbox() <- room.Leave{PeerID: msg.PeerID}
				if len(h.members[msg.GroupID]) == 0 {
					rm.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.GroupID)
					delete(h.members, msg.GroupID)
					h.log.Debug("group discarded", zap.String("group", msg.GroupID))
				}

			case Forward:
				if rm := h.rooms[msg.GroupID]; rm != nil {
					rm.Inbox() <- room.Forward{From: msg.From, Data: msg.Data}
				}

			case GetStats:
				st := Stats{Groups: len(h.rooms)}
				for _, peers := range h.members {
					st.Peers += len(peers)
				}
				msg.Reply <- st

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				clear(h.members)
				h.cancel()
			}
		}
	}
}
