package drivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	"github.com/younglifestyle/uds4go/canbus"
)

func TestEncodeSLCAN(t *testing.T) {
	frame := canbus.NewFrame(0x7E0, []byte{0x02, 0x10, 0x01})
	assert.Equal(t, []byte("t7E03021001\r"), encodeSLCAN(frame))

	empty := canbus.NewFrame(0x123, nil)
	assert.Equal(t, []byte("t1230\r"), encodeSLCAN(empty))
}

func TestDecodeSLCAN(t *testing.T) {
	frame, ok := decodeSLCAN([]byte("t7E83620AAB"))
	require.True(t, ok)
	assert.Equal(t, uint16(0x7E8), frame.ID)
	assert.Equal(t, byte(3), frame.DLC)
	assert.Equal(t, []byte{0x62, 0x0A, 0xAB}, frame.Payload())
}

func TestDecodeSLCANRoundTrip(t *testing.T) {
	frame := canbus.NewFrame(0x7E8, []byte{0x06, 0x50, 0x03, 0x00, 0x32, 0x01, 0xF4})
	line := encodeSLCAN(frame)

	decoded, ok := decodeSLCAN(line[:len(line)-1]) // pump strips the terminator
	require.True(t, ok)
	assert.Equal(t, frame.ID, decoded.ID)
	assert.Equal(t, frame.Payload(), decoded.Payload())
}

func TestDecodeSLCANRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("z"),
		[]byte("T12345678"), // extended frame, unsupported
		[]byte("t7E"),       // too short
		[]byte("t7E09"),     // DLC out of range
		[]byte("t7E0300"),   // truncated data
		[]byte("tXYZ10A"),   // bad identifier
		[]byte("t7E01GG"),   // bad hex data
		[]byte("tFFF10A"),   // identifier above 11 bits
	}
	for _, line := range cases {
		if _, ok := decodeSLCAN(line); ok {
			t.Fatalf("decoded %q", line)
		}
	}
}

func TestScanSLCANFiltersByVendor(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "16D0"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "2341"}, // Arduino, not SLCAN
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyACM2", IsUSB: true, VID: "AD50"},
	}

	found := scanSLCAN(ports, nil)
	require.Len(t, found, 2)
	assert.Equal(t, "SLCAN: /dev/ttyACM0", found[0].String())
	assert.Equal(t, "SLCAN: /dev/ttyACM2", found[1].String())
}
