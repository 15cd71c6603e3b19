package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/hub"
	"github.com/DoyleJ11/dinedecide/internal/protocol"
)

type Options struct {
	PingInterval time.Duration
	PeerBuffer   int
}

const writeTimeout = 3 * time.Second

// Handler upgrades to a websocket and routes relay frames through the hub.
// Frame payloads are never interpreted beyond data.groupId.
func Handler(h *hub.Hub, opts Options, log *zap.Logger) http.HandlerFunc {
	if opts.PeerBuffer <= 0 {
		opts.PeerBuffer = 64
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // any origin
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		peerID := uuid.NewString()
		plog := log.With(zap.String("peer", peerID))
		out := make(chan []byte, opts.PeerBuffer)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		var joined string
		defer func() {
			if joined != "" {
				h.Send(hub.LeaveGroup{GroupID: joined, PeerID: peerID})
			}
		}()

		// Writer goroutine
		go func() {
			var ping <-chan time.Time
			if opts.PingInterval > 0 {
				ticker := time.NewTicker(opts.PingInterval)
				defer ticker.Stop()
				ping = ticker.C
			}
			for {
				select {
				case <-ctx.Done():
					return
				case frame := <-out:
					wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
					err := conn.Write(wctx, websocket.MessageText, frame)
					wcancel()
					if err != nil {
						plog.Debug("write failed", zap.Error(err))
						cancel()
						return
					}
				case <-ping:
					pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
					err := conn.Ping(pctx)
					pcancel()
					if err != nil {
						plog.Debug("ping failed", zap.Error(err))
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						plog.Debug("read ended", zap.Error(err))
					}
				}
				return
			}

			frame, err := protocol.ParseFrame(data)
			if err != nil {
				plog.Warn("dropping malformed frame", zap.Error(err))
				continue
			}

			switch frame.Type {
			case protocol.FrameJoinGroup:
				if joined != "" && joined != frame.GroupID {
					h.Send(hub.LeaveGroup{GroupID: joined, PeerID: peerID})
				}
				joined = frame.GroupID
				h.Send(hub.JoinGroup{GroupID: joined, PeerID: peerID, Outbox: out})
				plog.Debug("joined group", zap.String("group", joined))

				if ack, err := protocol.JoinedFrame(joined); err == nil {
					select {
					case out <- ack:
					default:
					}
				}

			case protocol.FrameP2P:
				h.Send(hub.Forward{GroupID: frame.GroupID, From: peerID, Data: frame.Data})

			default:
				plog.Warn("dropping unexpected frame", zap.String("type", string(frame.Type)))
			}
		}
	}
}
