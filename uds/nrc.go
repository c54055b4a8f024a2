package uds

// NRC is a UDS negative response code, the third byte of a 7F response frame.
type NRC byte

const (
	NRCGeneralReject                           NRC = 0x10
	NRCServiceNotSupported                     NRC = 0x11
	NRCSubFunctionNotSupported                 NRC = 0x12
	NRCIncorrectMessageLengthOrInvalidFormat   NRC = 0x13
	NRCResponseTooLong                         NRC = 0x14
	NRCBusyRepeatRequest                       NRC = 0x21
	NRCConditionsNotCorrect                    NRC = 0x22
	NRCRequestSequenceError                    NRC = 0x24
	NRCNoResponseFromSubnetComponent           NRC = 0x25
	NRCFailurePreventsExecution                NRC = 0x26
	NRCRequestOutOfRange                       NRC = 0x31
	NRCSecurityAccessDenied                    NRC = 0x33
	NRCInvalidKey                              NRC = 0x35
	NRCExceedNumberOfAttempts                  NRC = 0x36
	NRCRequiredTimeDelayNotExpired             NRC = 0x37
	NRCUploadDownloadNotAccepted               NRC = 0x70
	NRCTransferDataSuspended                   NRC = 0x71
	NRCGeneralProgrammingFailure               NRC = 0x72
	NRCWrongBlockSequenceCounter               NRC = 0x73
	NRCResponsePending                         NRC = 0x78
	NRCSubFunctionNotSupportedInActiveSession  NRC = 0x7E
	NRCServiceNotSupportedInActiveSession      NRC = 0x7F
	NRCRPMTooHigh                              NRC = 0x81
	NRCRPMTooLow                               NRC = 0x82
	NRCEngineIsRunning                         NRC = 0x83
	NRCEngineIsNotRunning                      NRC = 0x84
	NRCEngineRunTimeTooLow                     NRC = 0x85
	NRCTemperatureTooHigh                      NRC = 0x86
	NRCTemperatureTooLow                       NRC = 0x87
	NRCVehicleSpeedTooHigh                     NRC = 0x88
	NRCVehicleSpeedTooLow                      NRC = 0x89
	NRCThrottlePedalTooHigh                    NRC = 0x8A
	NRCThrottlePedalTooLow                     NRC = 0x8B
	NRCTransmissionRangeNotInNeutral           NRC = 0x8C
	NRCTransmissionRangeNotInGear              NRC = 0x8D
	NRCBrakeSwitchesNotClosed                  NRC = 0x8F
	NRCShifterLeverNotInPark                   NRC = 0x90
	NRCTorqueConverterClutchLocked             NRC = 0x91
	NRCVoltageTooHigh                          NRC = 0x92
	NRCVoltageTooLow                           NRC = 0x93
)

// UnknownNRCText is returned by Describe for codes outside the table.
const UnknownNRCText = "Unknown NRC"

// Map of NRC codes to their specification wording.
var nrcDescriptions = map[NRC]string{
	NRCGeneralReject:                          "General Reject",
	NRCServiceNotSupported:                    "Service Not Supported",
	NRCSubFunctionNotSupported:                "Sub-function Not Supported",
	NRCIncorrectMessageLengthOrInvalidFormat:  "Incorrect Message Length or Invalid Format",
	NRCResponseTooLong:                        "Response Too Long",
	NRCBusyRepeatRequest:                      "Busy Repeat Request",
	NRCConditionsNotCorrect:                   "Conditions Not Correct",
	NRCRequestSequenceError:                   "Request Sequence Error",
	NRCNoResponseFromSubnetComponent:          "No Response From Sub-net Component",
	NRCFailurePreventsExecution:               "Failure Prevents Execution Of Requested Action",
	NRCRequestOutOfRange:                      "Request Out Of Range",
	NRCSecurityAccessDenied:                   "Security Access Denied",
	NRCInvalidKey:                             "Invalid Key",
	NRCExceedNumberOfAttempts:                 "Exceed Number Of Attempts",
	NRCRequiredTimeDelayNotExpired:            "Required Time Delay Not Expired",
	NRCUploadDownloadNotAccepted:              "Upload Download Not Accepted",
	NRCTransferDataSuspended:                  "Transfer Data Suspended",
	NRCGeneralProgrammingFailure:              "General Programming Failure",
	NRCWrongBlockSequenceCounter:              "Wrong Block Sequence Counter",
	NRCResponsePending:                        "Request Correctly Received-Response Pending",
	NRCSubFunctionNotSupportedInActiveSession: "Sub-function Not Supported In Active Session",
	NRCServiceNotSupportedInActiveSession:     "Service Not Supported In Active Session",
	NRCRPMTooHigh:                             "RPM Too High",
	NRCRPMTooLow:                              "RPM Too Low",
	NRCEngineIsRunning:                        "Engine is Running",
	NRCEngineIsNotRunning:                     "Engine is Not Running",
	NRCEngineRunTimeTooLow:                    "Engine Run Time Too Low",
	NRCTemperatureTooHigh:                     "Temperature Too High",
	NRCTemperatureTooLow:                      "Temperature Too Low",
	NRCVehicleSpeedTooHigh:                    "Vehicle Speed Too High",
	NRCVehicleSpeedTooLow:                     "Vehicle Speed Too Low",
	NRCThrottlePedalTooHigh:                   "Throttle/Pedal Too High",
	NRCThrottlePedalTooLow:                    "Throttle/Pedal Too Low",
	NRCTransmissionRangeNotInNeutral:          "Transmission Range Not in Neutral",
	NRCTransmissionRangeNotInGear:             "Transmission Range Not in Gear",
	NRCBrakeSwitchesNotClosed:                 "Brake Switch(es) Not Closed",
	NRCShifterLeverNotInPark:                  "Shifter Lever Not in Park",
	NRCTorqueConverterClutchLocked:            "Torque Converter Clutch Locked",
	NRCVoltageTooHigh:                         "Voltage Too High",
	NRCVoltageTooLow:                          "Voltage Too Low",
}

// Describe maps an NRC to its specification wording. It is total over the
// 8-bit domain: codes outside the table yield UnknownNRCText, never a failure.
func Describe(code NRC) string {
	if text, ok := nrcDescriptions[code]; ok {
		return text
	}
	return UnknownNRCText
}

func (n NRC) String() string {
	return Describe(n)
}
