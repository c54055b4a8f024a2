package canbus

import "context"

// Bus is the minimal surface a CAN adapter must expose to the transport
// layer: send one frame, and fan received frames out to subscribers.
type Bus interface {
	// SendFrame puts one frame on the wire.
	SendFrame(ctx context.Context, frame *Frame) error

	// SubscribeFrames returns a channel delivering every received frame.
	// Slow consumers may lose frames; the channel is never closed while
	// subscribed.
	SubscribeFrames() chan *Frame

	// UnsubscribeFrames releases a channel obtained from SubscribeFrames
	// and closes it.
	UnsubscribeFrames(ch chan *Frame)

	// Close shuts the adapter down and releases all subscribers.
	Close() error
}
