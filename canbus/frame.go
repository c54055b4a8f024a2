package canbus

import "fmt"

// Standard 11-bit identifiers for physically addressed diagnostics on the
// powertrain bus.
const (
	TesterID uint16 = 0x7E0
	ECUID    uint16 = 0x7E8
)

// Frame is one classic CAN data frame with an 11-bit identifier.
type Frame struct {
	ID   uint16  // CAN identifier
	DLC  byte    // Data Length Code (0-8)
	Data [8]byte // Data payload
}

// NewFrame builds a frame from a payload slice, truncated at 8 bytes.
func NewFrame(id uint16, data []byte) *Frame {
	f := &Frame{ID: id}
	f.DLC = byte(copy(f.Data[:], data))
	return f
}

// Payload returns the DLC-bounded portion of the data array.
func (f *Frame) Payload() []byte {
	dlc := f.DLC
	if dlc > 8 {
		dlc = 8
	}
	return f.Data[:dlc]
}

func (f *Frame) String() string {
	return fmt.Sprintf("ID: 0x%03X, DLC: %d, Data: % X", f.ID, f.DLC, f.Payload())
}
