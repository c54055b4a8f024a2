package canbus

import (
	"context"
	"errors"

	"go.uber.org/atomic"

	"github.com/younglifestyle/uds4go/common"
)

// ErrBusClosed is returned when sending on a closed bus.
var ErrBusClosed = errors.New("canbus: bus closed")

// Loopback is an in-memory Bus. Frames sent on it are delivered to every
// subscriber, which makes it useful for tests and for wiring a simulated ECU
// to a client inside one process.
type Loopback struct {
	broadcaster *Broadcaster
	closed      *atomic.Bool
}

// NewLoopback creates an in-memory bus.
func NewLoopback(logger common.Logger) *Loopback {
	return &Loopback{
		broadcaster: NewBroadcaster(logger),
		closed:      atomic.NewBool(false),
	}
}

func (l *Loopback) SendFrame(ctx context.Context, frame *Frame) error {
	if l.closed.Load() {
		return ErrBusClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.broadcaster.Broadcast(frame)
	return nil
}

func (l *Loopback) SubscribeFrames() chan *Frame {
	return l.broadcaster.Subscribe()
}

func (l *Loopback) UnsubscribeFrames(ch chan *Frame) {
	l.broadcaster.Unsubscribe(ch)
}

func (l *Loopback) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.broadcaster.Close()
	return nil
}
