package isotp

import (
	"context"
	"errors"
	"time"

	"github.com/younglifestyle/uds4go/canbus"
	"github.com/younglifestyle/uds4go/common"
)

// PCI frame types, upper nibble of the first payload byte.
const (
	pciSingleFrame      byte = 0x0
	pciFirstFrame       byte = 0x1
	pciConsecutiveFrame byte = 0x2
	pciFlowControl      byte = 0x3
)

// Flow control statuses, lower nibble of the FC PCI byte.
const (
	fcContinueToSend byte = 0x0
	fcWait           byte = 0x1
	fcOverflow       byte = 0x2
)

// MaxMessageSize is the largest payload a first frame can announce (12-bit length).
const MaxMessageSize = 0xFFF

var (
	// ErrMessageTooLong is returned when a payload exceeds MaxMessageSize.
	ErrMessageTooLong = errors.New("isotp: message exceeds 4095 bytes")
	// ErrFlowControlTimeout is returned when the peer never answers a first
	// frame with a flow control frame.
	ErrFlowControlTimeout = errors.New("isotp: timeout waiting for flow control frame")
	// ErrConsecutiveFrameTimeout is returned when a consecutive frame does not
	// arrive within N_Cr.
	ErrConsecutiveFrameTimeout = errors.New("isotp: timeout waiting for consecutive frame")
	// ErrUnexpectedSequenceNumber is returned when a consecutive frame arrives
	// out of order.
	ErrUnexpectedSequenceNumber = errors.New("isotp: unexpected consecutive frame sequence number")
	// ErrBufferOverflow is returned when the peer rejects a first frame with
	// a flow control overflow status.
	ErrBufferOverflow = errors.New("isotp: peer reported buffer overflow")
)

// Transport segments and reassembles diagnostic payloads over a classic CAN
// bus per ISO 15765-2. One Transport serves one physically addressed pair of
// identifiers.
type Transport struct {
	bus    canbus.Bus
	txID   uint16
	rxID   uint16
	timing *Timing
	logger common.Logger
}

// NewTransport binds a transport to a bus and an identifier pair. Nil timing
// or logger select the defaults.
func NewTransport(bus canbus.Bus, txID, rxID uint16, timing *Timing, logger common.Logger) *Transport {
	if timing == nil {
		timing = NewTiming()
	}
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Transport{
		bus:    bus,
		txID:   txID,
		rxID:   rxID,
		timing: timing,
		logger: logger,
	}
}

// Timing exposes the transport's timing parameters.
func (t *Transport) Timing() *Timing {
	return t.timing
}

// Send transmits one payload, segmenting into first and consecutive frames
// when it does not fit a single frame.
func (t *Transport) Send(ctx context.Context, data []byte) error {
	if len(data) > MaxMessageSize {
		return ErrMessageTooLong
	}
	if len(data) <= 7 {
		return t.sendSingleFrame(ctx, data)
	}

	// Subscribe before the first frame goes out so the flow control answer
	// cannot slip past us.
	frames := t.bus.SubscribeFrames()
	defer t.bus.UnsubscribeFrames(frames)

	if err := t.sendFirstFrame(ctx, data); err != nil {
		return err
	}
	separation, err := t.waitForFlowControl(ctx, frames)
	if err != nil {
		return err
	}
	return t.sendConsecutiveFrames(ctx, data, separation)
}

// Receive blocks until one complete payload addressed to us has been
// reassembled.
func (t *Transport) Receive(ctx context.Context) ([]byte, error) {
	frames := t.bus.SubscribeFrames()
	defer t.bus.UnsubscribeFrames(frames)
	return t.receiveOn(ctx, frames)
}

// Listen reassembles payloads until ctx is cancelled, handing each one to fn.
// It holds a single subscription for its whole lifetime so no frame is lost
// between consecutive messages.
func (t *Transport) Listen(ctx context.Context, fn func([]byte)) error {
	frames := t.bus.SubscribeFrames()
	defer t.bus.UnsubscribeFrames(frames)

	for {
		data, err := t.receiveOn(ctx, frames)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Warn("receive failed, resynchronizing", "error", err)
			continue
		}
		fn(data)
	}
}

// receiveOn reassembles the next payload arriving on an already subscribed
// channel. Splitting this out lets the client keep a single subscription
// across an exchange so no frame is lost between send and receive.
func (t *Transport) receiveOn(ctx context.Context, frames chan *canbus.Frame) ([]byte, error) {
	for {
		select {
		case frame := <-frames:
			if frame == nil || frame.ID != t.rxID || frame.DLC == 0 {
				continue
			}
			switch frame.Data[0] >> 4 {
			case pciSingleFrame:
				return t.receiveSingleFrame(frame)
			case pciFirstFrame:
				return t.receiveMultiFrame(ctx, frame, frames)
			default:
				// Flow control and stray consecutive frames are
				// handled inside the multi-frame paths.
				continue
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (t *Transport) newFrame(payload []byte) *canbus.Frame {
	frame := &canbus.Frame{ID: t.txID}
	n := copy(frame.Data[:], payload)
	if t.timing.Padding() {
		for i := n; i < 8; i++ {
			frame.Data[i] = t.timing.PaddingByte()
		}
		frame.DLC = 8
	} else {
		frame.DLC = byte(n)
	}
	return frame
}

func (t *Transport) sendSingleFrame(ctx context.Context, data []byte) error {
	payload := make([]byte, 0, 8)
	payload = append(payload, pciSingleFrame<<4|byte(len(data)))
	payload = append(payload, data...)
	return t.bus.SendFrame(ctx, t.newFrame(payload))
}

func (t *Transport) sendFirstFrame(ctx context.Context, data []byte) error {
	length := len(data)
	payload := make([]byte, 0, 8)
	payload = append(payload, pciFirstFrame<<4|byte(length>>8&0x0F), byte(length&0xFF))
	payload = append(payload, data[:6]...)
	return t.bus.SendFrame(ctx, t.newFrame(payload))
}

func (t *Transport) waitForFlowControl(ctx context.Context, frames chan *canbus.Frame) (time.Duration, error) {
	waitCtx, cancel := context.WithTimeout(ctx, t.timing.NBs())
	defer cancel()

	for {
		select {
		case frame := <-frames:
			if frame == nil || frame.ID != t.rxID || frame.DLC < 3 {
				continue
			}
			if frame.Data[0]>>4 != pciFlowControl {
				continue
			}
			switch frame.Data[0] & 0x0F {
			case fcContinueToSend:
				return t.separationTime(frame.Data[2]), nil
			case fcWait:
				continue
			case fcOverflow:
				return 0, ErrBufferOverflow
			default:
				continue
			}
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, ErrFlowControlTimeout
		}
	}
}

// separationTime decodes an STmin byte: 0x00-0x7F are milliseconds,
// 0xF1-0xF9 are 100µs steps, anything else falls back to the configured value.
func (t *Transport) separationTime(stMin byte) time.Duration {
	switch {
	case stMin <= 0x7F:
		return time.Duration(stMin) * time.Millisecond
	case stMin >= 0xF1 && stMin <= 0xF9:
		return time.Duration(int(stMin)-0xF0) * 100 * time.Microsecond
	default:
		t.logger.Warn("invalid STmin received, using fallback", "stmin", stMin)
		return t.timing.STminFallback()
	}
}

func (t *Transport) sendConsecutiveFrames(ctx context.Context, data []byte, separation time.Duration) error {
	sent := 6 // the first frame carried data[:6]
	sequence := byte(1)

	for sent < len(data) {
		chunk := data[sent:]
		if len(chunk) > 7 {
			chunk = chunk[:7]
		}

		payload := make([]byte, 0, 8)
		payload = append(payload, pciConsecutiveFrame<<4|sequence&0x0F)
		payload = append(payload, chunk...)
		if err := t.bus.SendFrame(ctx, t.newFrame(payload)); err != nil {
			return err
		}

		sent += len(chunk)
		sequence = (sequence + 1) % 16

		if sent < len(data) && separation > 0 {
			select {
			case <-time.After(separation):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (t *Transport) receiveSingleFrame(frame *canbus.Frame) ([]byte, error) {
	length := int(frame.Data[0] & 0x0F)
	if length == 0 || length > 7 || byte(length) >= frame.DLC {
		return nil, errors.New("isotp: malformed single frame")
	}
	data := make([]byte, length)
	copy(data, frame.Data[1:1+length])
	return data, nil
}

func (t *Transport) receiveMultiFrame(ctx context.Context, first *canbus.Frame, frames chan *canbus.Frame) ([]byte, error) {
	length := int(first.Data[0]&0x0F)<<8 | int(first.Data[1])
	data := make([]byte, length)
	received := copy(data, first.Data[2:8])
	sequence := byte(1)

	if err := t.sendFlowControl(ctx); err != nil {
		return nil, err
	}

	for received < length {
		waitCtx, cancel := context.WithTimeout(ctx, t.timing.NCr())
		select {
		case frame := <-frames:
			if frame == nil || frame.ID != t.rxID || frame.DLC == 0 {
				cancel()
				continue
			}
			if frame.Data[0]>>4 != pciConsecutiveFrame {
				cancel()
				continue
			}
			if frame.Data[0]&0x0F != sequence {
				cancel()
				return nil, ErrUnexpectedSequenceNumber
			}

			chunk := length - received
			if chunk > 7 {
				chunk = 7
			}
			copy(data[received:], frame.Data[1:1+chunk])
			received += chunk
			sequence = (sequence + 1) % 16
			cancel()
		case <-waitCtx.Done():
			cancel()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrConsecutiveFrameTimeout
		}
	}
	return data, nil
}

// sendFlowControl answers a first frame with ContinueToSend, our block size
// and a zero STmin.
func (t *Transport) sendFlowControl(ctx context.Context) error {
	payload := []byte{pciFlowControl<<4 | fcContinueToSend, t.timing.BlockSize(), 0x00}
	return t.bus.SendFrame(ctx, t.newFrame(payload))
}
