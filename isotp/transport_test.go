package isotp

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younglifestyle/uds4go/canbus"
)

// testPair wires a tester and an ECU transport to the same in-memory bus.
func testPair(t *testing.T) (*Transport, *Transport, *canbus.Loopback) {
	t.Helper()
	bus := canbus.NewLoopback(nil)
	t.Cleanup(func() { bus.Close() })

	tester := NewTransport(bus, canbus.TesterID, canbus.ECUID, nil, nil)
	ecu := NewTransport(bus, canbus.ECUID, canbus.TesterID, nil, nil)
	return tester, ecu, bus
}

// receiveAsync starts a Receive before the test sends, so the receiver's
// subscription is in place when the first frame hits the bus.
func receiveAsync(ctx context.Context, tr *Transport) (<-chan []byte, <-chan error) {
	dataCh := make(chan []byte, 1)
	errCh := make(chan error, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		data, err := tr.Receive(ctx)
		if err != nil {
			errCh <- err
			return
		}
		dataCh <- data
	}()
	<-ready
	// Receive subscribes right after the goroutine starts; a short grace
	// period keeps the first frame from racing the subscription.
	time.Sleep(20 * time.Millisecond)
	return dataCh, errCh
}

func TestSingleFrameRoundTrip(t *testing.T) {
	tester, ecu, _ := testPair(t)
	ctx := context.Background()

	dataCh, errCh := receiveAsync(ctx, ecu)
	require.NoError(t, tester.Send(ctx, []byte{0x3E, 0x00}))

	select {
	case data := <-dataCh:
		assert.Equal(t, []byte{0x3E, 0x00}, data)
	case err := <-errCh:
		t.Fatalf("receive: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for single frame")
	}
}

func TestMultiFrameRoundTrip(t *testing.T) {
	tester, ecu, _ := testPair(t)
	ctx := context.Background()

	// 62 bytes: one first frame and eight consecutive frames.
	payload := make([]byte, 62)
	for i := range payload {
		payload[i] = byte(i)
	}

	dataCh, errCh := receiveAsync(ctx, ecu)
	require.NoError(t, tester.Send(ctx, payload))

	select {
	case data := <-dataCh:
		assert.True(t, bytes.Equal(payload, data))
	case err := <-errCh:
		t.Fatalf("receive: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for multi frame message")
	}
}

// The sequence number wraps from 15 back to 0, so a payload needing more
// than 15 consecutive frames exercises the wrap.
func TestMultiFrameSequenceWrap(t *testing.T) {
	tester, ecu, _ := testPair(t)
	ctx := context.Background()

	payload := make([]byte, 6+7*17)
	for i := range payload {
		payload[i] = byte(i * 3)
	}

	dataCh, errCh := receiveAsync(ctx, ecu)
	require.NoError(t, tester.Send(ctx, payload))

	select {
	case data := <-dataCh:
		assert.True(t, bytes.Equal(payload, data))
	case err := <-errCh:
		t.Fatalf("receive: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wrapped sequence message")
	}
}

func TestSendRejectsOversizedMessage(t *testing.T) {
	tester, _, _ := testPair(t)
	err := tester.Send(context.Background(), make([]byte, MaxMessageSize+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestSendFlowControlTimeout(t *testing.T) {
	bus := canbus.NewLoopback(nil)
	defer bus.Close()

	timing := NewTiming()
	timing.SetNBs(50 * time.Millisecond)
	tester := NewTransport(bus, canbus.TesterID, canbus.ECUID, timing, nil)

	err := tester.Send(context.Background(), make([]byte, 20))
	assert.ErrorIs(t, err, ErrFlowControlTimeout)
}

func TestSendFlowControlOverflow(t *testing.T) {
	bus := canbus.NewLoopback(nil)
	defer bus.Close()

	tester := NewTransport(bus, canbus.TesterID, canbus.ECUID, nil, nil)

	// Fake peer: answer the first frame with an overflow flow control.
	frames := bus.SubscribeFrames()
	defer bus.UnsubscribeFrames(frames)
	go func() {
		for frame := range frames {
			if frame.ID == canbus.TesterID && frame.Data[0]>>4 == pciFirstFrame {
				fc := canbus.NewFrame(canbus.ECUID, []byte{pciFlowControl<<4 | fcOverflow, 0x00, 0x00})
				bus.SendFrame(context.Background(), fc)
				return
			}
		}
	}()
	time.Sleep(20 * time.Millisecond)

	err := tester.Send(context.Background(), make([]byte, 20))
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestSeparationTimeDecoding(t *testing.T) {
	tester, _, _ := testPair(t)

	assert.Equal(t, time.Duration(0), tester.separationTime(0x00))
	assert.Equal(t, 10*time.Millisecond, tester.separationTime(0x0A))
	assert.Equal(t, 127*time.Millisecond, tester.separationTime(0x7F))
	assert.Equal(t, 100*time.Microsecond, tester.separationTime(0xF1))
	assert.Equal(t, 900*time.Microsecond, tester.separationTime(0xF9))
	// Reserved values fall back to the configured STmin.
	assert.Equal(t, tester.Timing().STminFallback(), tester.separationTime(0x80))
	assert.Equal(t, tester.Timing().STminFallback(), tester.separationTime(0xF0))
}

func TestFramePadding(t *testing.T) {
	bus := canbus.NewLoopback(nil)
	defer bus.Close()

	tester := NewTransport(bus, canbus.TesterID, canbus.ECUID, nil, nil)
	frame := tester.newFrame([]byte{0x02, 0x3E, 0x00})
	assert.Equal(t, byte(8), frame.DLC)
	assert.Equal(t, []byte{0x02, 0x3E, 0x00, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}, frame.Payload())

	tester.Timing().SetPadding(false)
	frame = tester.newFrame([]byte{0x02, 0x3E, 0x00})
	assert.Equal(t, byte(3), frame.DLC)
	assert.Equal(t, []byte{0x02, 0x3E, 0x00}, frame.Payload())
}

func TestListenDeliversConsecutiveMessages(t *testing.T) {
	tester, ecu, _ := testPair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan []byte, 4)
	go ecu.Listen(ctx, func(data []byte) {
		received <- data
	})
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, tester.Send(ctx, []byte{0x10, 0x03}))
	require.NoError(t, tester.Send(ctx, []byte{0x22, 0xF1, 0x90}))

	for _, want := range [][]byte{{0x10, 0x03}, {0x22, 0xF1, 0x90}} {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for listened message")
		}
	}
}

func TestTimingDefaults(t *testing.T) {
	timing := NewTiming()
	assert.Equal(t, time.Second, timing.P2())
	assert.Equal(t, 5*time.Second, timing.P2Star())
	assert.Equal(t, time.Second, timing.NBs())
	assert.Equal(t, time.Second, timing.NCr())
	assert.True(t, timing.Padding())
	assert.Equal(t, byte(0xAA), timing.PaddingByte())
	assert.Equal(t, byte(0x00), timing.BlockSize())
}
