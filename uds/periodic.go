package uds

import (
	"fmt"
	"time"
)

// TransmissionMode selects the rate for ReadDataByPeriodicIdentifier (0x2A),
// or stops an ongoing transmission.
type TransmissionMode byte

const (
	TransmissionSlow   TransmissionMode = 0x01
	TransmissionMedium TransmissionMode = 0x02
	TransmissionFast   TransmissionMode = 0x03
	TransmissionStop   TransmissionMode = 0x04
)

// Nominal sample intervals behind the slow/medium/fast selectors.
const (
	PeriodicRateSlow   = 1000 * time.Millisecond
	PeriodicRateMedium = 300 * time.Millisecond
	PeriodicRateFast   = 100 * time.Millisecond
)

var transmissionModeNames = map[TransmissionMode]string{
	TransmissionSlow:   "Send At Slow Rate",
	TransmissionMedium: "Send At Medium Rate",
	TransmissionFast:   "Send At Fast Rate",
	TransmissionStop:   "Stop Sending",
}

func (m TransmissionMode) String() string {
	if name, ok := transmissionModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(m))
}

// Interval returns the nominal sample interval for the mode, or 0 for
// TransmissionStop and unknown selectors.
func (m TransmissionMode) Interval() time.Duration {
	switch m {
	case TransmissionSlow:
		return PeriodicRateSlow
	case TransmissionMedium:
		return PeriodicRateMedium
	case TransmissionFast:
		return PeriodicRateFast
	default:
		return 0
	}
}

// PeriodicDID is the one-byte periodic data identifier used by service 0x2A.
// It is the low byte of the full 0xF2xx data identifier.
type PeriodicDID byte

// DataIdentifier expands the periodic identifier to its full 16-bit form.
func (p PeriodicDID) DataIdentifier() DataIdentifier {
	return DataIdentifier(0xF200 | uint16(p))
}
