package uds

import "fmt"

// Sub-function values are only unique within the service that owns them, so
// each service gets its own scoped type instead of one flat namespace.

// SessionType selects the diagnostic session for DiagnosticSessionControl (0x10).
type SessionType byte

const (
	SessionDefault      SessionType = 0x01
	SessionProgramming  SessionType = 0x02
	SessionExtended     SessionType = 0x03
	SessionSafetySystem SessionType = 0x04
)

var sessionNames = map[SessionType]string{
	SessionDefault:      "Default Session",
	SessionProgramming:  "Programming Session",
	SessionExtended:     "Extended Diagnostic Session",
	SessionSafetySystem: "Safety System Diagnostic Session",
}

func (s SessionType) String() string {
	if name, ok := sessionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(s))
}

// ResetType selects the reset variant for ECUReset (0x11).
type ResetType byte

const (
	ResetHard                      ResetType = 0x01
	ResetKeyOffOn                  ResetType = 0x02
	ResetSoft                      ResetType = 0x03
	ResetEnableRapidPowerShutDown  ResetType = 0x04
	ResetDisableRapidPowerShutDown ResetType = 0x05
)

var resetNames = map[ResetType]string{
	ResetHard:                      "Hard Reset",
	ResetKeyOffOn:                  "Key Off On Reset",
	ResetSoft:                      "Soft Reset",
	ResetEnableRapidPowerShutDown:  "Enable Rapid Power Shut Down",
	ResetDisableRapidPowerShutDown: "Disable Rapid Power Shut Down",
}

func (r ResetType) String() string {
	if name, ok := resetNames[r]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(r))
}

// SecurityLevel is a SecurityAccess (0x27) security level. The wire carries
// the level encoded as an odd requestSeed / even sendKey sub-function pair.
type SecurityLevel byte

// RequestSeed returns the odd sub-function byte requesting a seed for this level.
func (l SecurityLevel) RequestSeed() byte {
	return byte(l)*2 - 1
}

// SendKey returns the even sub-function byte submitting the key for this level.
func (l SecurityLevel) SendKey() byte {
	return byte(l) * 2
}

// RoutineControlType selects the operation for RoutineControl (0x31).
type RoutineControlType byte

const (
	RoutineStart          RoutineControlType = 0x01
	RoutineStop           RoutineControlType = 0x02
	RoutineRequestResults RoutineControlType = 0x03
)

// CommunicationControlType selects the operation for CommunicationControl (0x28).
type CommunicationControlType byte

const (
	CommunicationEnableRxAndTx     CommunicationControlType = 0x00
	CommunicationEnableRxDisableTx CommunicationControlType = 0x01
	CommunicationDisableRxEnableTx CommunicationControlType = 0x02
	CommunicationDisableRxAndTx    CommunicationControlType = 0x03
)

// DTCSettingType selects the operation for ControlDTCSetting (0x85).
type DTCSettingType byte

const (
	DTCSettingOn  DTCSettingType = 0x01
	DTCSettingOff DTCSettingType = 0x02
)

// LinkControlType selects the operation for LinkControl (0x87).
type LinkControlType byte

const (
	LinkControlVerifyModeTransitionWithFixedParameter    LinkControlType = 0x01
	LinkControlVerifyModeTransitionWithSpecificParameter LinkControlType = 0x02
	LinkControlTransitionMode                            LinkControlType = 0x03
)

// BaudRate is the linkControlRecord selector used with the
// verifyModeTransitionWithFixedParameter (0x01) sub-function.
type BaudRate byte

const (
	BaudRate9600   BaudRate = 0x01
	BaudRate19200  BaudRate = 0x02
	BaudRate38400  BaudRate = 0x03
	BaudRate57600  BaudRate = 0x04
	BaudRate115200 BaudRate = 0x05
)

var baudRateValues = map[BaudRate]int{
	BaudRate9600:   9600,
	BaudRate19200:  19200,
	BaudRate38400:  38400,
	BaudRate57600:  57600,
	BaudRate115200: 115200,
}

// BitsPerSecond returns the baud rate the selector stands for, or 0 when the
// selector is not a fixed-parameter value.
func (b BaudRate) BitsPerSecond() int {
	return baudRateValues[b]
}
