package canbus

import (
	"sync"

	"github.com/younglifestyle/uds4go/common"
)

const subscriberBuffer = 128

// Broadcaster fans received frames out to any number of subscriber channels.
// A subscriber that falls behind loses frames rather than stalling the
// receive pump.
type Broadcaster struct {
	subscribers map[chan *Frame]struct{}
	lock        sync.RWMutex
	logger      common.Logger
}

// NewBroadcaster creates a Broadcaster. A nil logger is replaced with the
// silent default.
func NewBroadcaster(logger common.Logger) *Broadcaster {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Broadcaster{
		subscribers: make(map[chan *Frame]struct{}),
		logger:      logger,
	}
}

// Subscribe adds a new subscriber and returns a channel to receive frames.
func (b *Broadcaster) Subscribe() chan *Frame {
	ch := make(chan *Frame, subscriberBuffer)
	b.lock.Lock()
	b.subscribers[ch] = struct{}{}
	b.lock.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan *Frame) {
	b.lock.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.lock.Unlock()
}

// Broadcast sends a frame to all subscribers.
func (b *Broadcaster) Broadcast(frame *Frame) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- frame:
		default:
			b.logger.Warn("slow subscriber, dropping frame", "id", frame.ID)
		}
	}
}

// Close drops every subscriber and closes their channels.
func (b *Broadcaster) Close() {
	b.lock.Lock()
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.lock.Unlock()
}
