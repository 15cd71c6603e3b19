// Package echo is the same-device fan-out channel. Every subscriber,
// including the one that posted, receives every message.
package echo

import (
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/dinedecide/internal/protocol"
)

const defaultQueue = 256

type subscriber struct {
	ch   chan protocol.Message
	done chan struct{}
}

// Bus delivers asynchronously: Post enqueues, and each subscriber drains its
// own queue on its own goroutine, so posting from inside a callback never
// deadlocks. Per-subscriber order is FIFO.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscriber
	next   uint64
	queue  int
	closed bool
	log    *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		subs:  make(map[uint64]*subscriber),
		queue: defaultQueue,
		log:   log.Named("echo"),
	}
}

func (b *Bus) Subscribe(fn func(protocol.Message)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.next
	b.next++
	s := &subscriber{ch: make(chan protocol.Message, b.queue), done: make(chan struct{})}
	b.subs[id] = s

	go func() {
		for {
			select {
			case <-s.done:
				return
			case msg := <-s.ch:
				fn(msg)
			}
		}
	}()

	// Close may already have released s.
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; !ok {
			return
		}
		delete(b.subs, id)
		close(s.done)
	}
}

// Post never blocks. A subscriber whose queue is full misses msg.
func (b *Bus) Post(msg protocol.Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, s := range b.subs {
		select {
		case s.ch <- msg:
		default:
			b.log.Warn("echo queue full, message dropped",
				zap.Uint64("subscriber", id),
				zap.String("type", string(msg.Type())),
			)
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		close(s.done)
		delete(b.subs, id)
	}
}
