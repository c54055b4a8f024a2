package drivers

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"go.uber.org/atomic"

	"github.com/younglifestyle/uds4go/canbus"
	"github.com/younglifestyle/uds4go/common"
)

const (
	slcanBaudRate      = 115200
	slcanReadTimeout   = 5 * time.Millisecond
	slcanPortOpenDelay = 100 * time.Millisecond

	// Lawicel command characters.
	slcanCmdOpen       = 'O'
	slcanCmdClose      = 'C'
	slcanCmdBitrate    = 'S'
	slcanFrameStandard = 't'
	slcanTerminator    = '\r'
	slcanBell          = 0x07 // adapter error response
)

// slcanBitrate500k selects 500 kbit/s, the usual rate for the OBD-II
// diagnostic bus.
const slcanBitrate500k = '6'

var ErrDriverClosed = errors.New("drivers: adapter closed")

// SLCAN drives a Lawicel-compatible USB serial CAN adapter (CANable,
// CANtact, USBtin and clones) speaking the ASCII SLCAN protocol.
type SLCAN struct {
	portName string
	logger   common.Logger
}

// NewSLCAN creates a driver for the adapter on the given serial port.
// A nil logger is replaced with the silent default.
func NewSLCAN(portName string, logger common.Logger) *SLCAN {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &SLCAN{portName: portName, logger: logger}
}

// scanSLCAN appends a driver for every USB serial port whose vendor ID
// matches a known SLCAN adapter.
func scanSLCAN(ports []*enumerator.PortDetails, found []Driver) []Driver {
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		// 16D0: CANable / CANtact, AD50: USBtin, 0483: STM32 CDC clones
		if port.VID == "16D0" || port.VID == "AD50" || port.VID == "0483" {
			found = append(found, NewSLCAN(port.Name, nil))
		}
	}
	return found
}

func (d *SLCAN) String() string {
	return fmt.Sprintf("SLCAN: %s", d.portName)
}

// Open claims the serial port, configures the adapter for 500 kbit/s and
// starts the receive pump. The returned Bus is live until closed.
func (d *SLCAN) Open(ctx context.Context) (canbus.Bus, error) {
	// Give USB CDC ports a moment to settle after hot plug.
	time.Sleep(slcanPortOpenDelay)

	mode := &serial.Mode{BaudRate: slcanBaudRate}
	port, err := serial.Open(d.portName, mode)
	if err != nil {
		return nil, fmt.Errorf("drivers: open %s: %w", d.portName, err)
	}
	if err = port.SetReadTimeout(slcanReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("drivers: read timeout on %s: %w", d.portName, err)
	}

	bus := &slcanBus{
		portName:    d.portName,
		port:        port,
		broadcaster: canbus.NewBroadcaster(d.logger),
		logger:      d.logger,
		closed:      atomic.NewBool(false),
	}
	if err = bus.setup(); err != nil {
		port.Close()
		return nil, err
	}

	ctx, bus.cancel = context.WithCancel(ctx)
	bus.wg.Add(1)
	go bus.readPump(ctx)

	d.logger.Info("slcan adapter opened", "port", d.portName)
	return bus, nil
}

// slcanBus is the live connection to an opened adapter.
type slcanBus struct {
	portName    string
	port        serial.Port
	broadcaster *canbus.Broadcaster
	logger      common.Logger
	closed      *atomic.Bool
	writeLock   sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// setup resets the channel, selects the bitrate and opens the CAN channel.
func (b *slcanBus) setup() error {
	commands := []string{
		string(slcanCmdClose) + string(slcanTerminator),
		string(slcanCmdBitrate) + string(slcanBitrate500k) + string(slcanTerminator),
		string(slcanCmdOpen) + string(slcanTerminator),
	}
	for _, cmd := range commands {
		if _, err := b.port.Write([]byte(cmd)); err != nil {
			return fmt.Errorf("drivers: adapter setup on %s: %w", b.portName, err)
		}
	}
	return nil
}

// SendFrame encodes one frame as an SLCAN transmit command and writes it
// to the adapter.
func (b *slcanBus) SendFrame(ctx context.Context, frame *canbus.Frame) error {
	if b.closed.Load() {
		return ErrDriverClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	line := encodeSLCAN(frame)
	b.writeLock.Lock()
	_, err := b.port.Write(line)
	b.writeLock.Unlock()
	if err != nil {
		return fmt.Errorf("drivers: send on %s: %w", b.portName, err)
	}
	return nil
}

func (b *slcanBus) SubscribeFrames() chan *canbus.Frame {
	return b.broadcaster.Subscribe()
}

func (b *slcanBus) UnsubscribeFrames(ch chan *canbus.Frame) {
	b.broadcaster.Unsubscribe(ch)
}

// Close shuts the CAN channel, stops the pump and releases the port.
func (b *slcanBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.cancel()

	b.writeLock.Lock()
	b.port.Write([]byte{slcanCmdClose, slcanTerminator})
	b.writeLock.Unlock()

	err := b.port.Close()
	b.wg.Wait()
	b.broadcaster.Close()

	b.logger.Info("slcan adapter closed", "port", b.portName)
	return err
}

// readPump assembles terminator-delimited lines from the serial port and
// broadcasts every decoded frame.
func (b *slcanBus) readPump(ctx context.Context) {
	defer b.wg.Done()

	var line []byte
	buf := make([]byte, 64)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := b.port.Read(buf)
		if err != nil {
			if b.closed.Load() || errors.Is(err, io.EOF) {
				return
			}
			b.logger.Error("slcan read failed", "port", b.portName, "error", err)
			return
		}

		for _, c := range buf[:n] {
			switch c {
			case slcanTerminator:
				if frame, ok := decodeSLCAN(line); ok {
					b.broadcaster.Broadcast(frame)
				}
				line = line[:0]
			case slcanBell:
				b.logger.Warn("slcan adapter reported error", "port", b.portName)
				line = line[:0]
			default:
				line = append(line, c)
			}
		}
	}
}

// encodeSLCAN renders a standard data frame as tIIILDD..DD<CR>.
func encodeSLCAN(frame *canbus.Frame) []byte {
	payload := frame.Payload()
	line := make([]byte, 0, 6+2*len(payload))
	line = append(line, slcanFrameStandard)
	line = append(line, fmt.Sprintf("%03X%d", frame.ID&0x7FF, len(payload))...)
	line = append(line, fmt.Sprintf("%X", payload)...)
	line = append(line, slcanTerminator)
	return line
}

// decodeSLCAN parses a standard transmit line back into a frame. Lines
// that are not standard data frames (command echoes, extended frames,
// status responses) are skipped.
func decodeSLCAN(line []byte) (*canbus.Frame, bool) {
	if len(line) < 5 || line[0] != slcanFrameStandard {
		return nil, false
	}
	id, err := strconv.ParseUint(string(line[1:4]), 16, 16)
	if err != nil || id > 0x7FF {
		return nil, false
	}
	dlc := int(line[4]) - '0'
	if dlc < 0 || dlc > 8 || len(line) < 5+2*dlc {
		return nil, false
	}
	data := make([]byte, dlc)
	if _, err = hex.Decode(data, line[5:5+2*dlc]); err != nil {
		return nil, false
	}
	return canbus.NewFrame(uint16(id), data), true
}
