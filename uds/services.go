package uds

import "fmt"

// ServiceID identifies a UDS service (ISO 14229-1 request SID).
type ServiceID byte

const (
	ServiceDiagnosticSessionControl        ServiceID = 0x10
	ServiceECUReset                        ServiceID = 0x11
	ServiceClearDiagnosticInformation      ServiceID = 0x14
	ServiceReadDTCInformation              ServiceID = 0x19
	ServiceReadDataByIdentifier            ServiceID = 0x22
	ServiceReadMemoryByAddress             ServiceID = 0x23
	ServiceReadScalingDataByIdentifier     ServiceID = 0x24
	ServiceSecurityAccess                  ServiceID = 0x27
	ServiceCommunicationControl            ServiceID = 0x28
	ServiceAuthentication                  ServiceID = 0x29
	ServiceReadDataByPeriodicIdentifier    ServiceID = 0x2A
	ServiceDynamicallyDefineDataIdentifier ServiceID = 0x2C
	ServiceWriteDataByIdentifier           ServiceID = 0x2E
	ServiceInputOutputControlByIdentifier  ServiceID = 0x2F
	ServiceRoutineControl                  ServiceID = 0x31
	ServiceRequestDownload                 ServiceID = 0x34
	ServiceRequestUpload                   ServiceID = 0x35
	ServiceTransferData                    ServiceID = 0x36
	ServiceRequestTransferExit             ServiceID = 0x37
	ServiceRequestFileTransfer             ServiceID = 0x38
	ServiceWriteDataByLocalIdentifier      ServiceID = 0x3B
	ServiceWriteMemoryByAddress            ServiceID = 0x3D
	ServiceTesterPresent                   ServiceID = 0x3E
	ServiceAccessTimingParameter           ServiceID = 0x83
	ServiceSecuredDataTransmission         ServiceID = 0x84
	ServiceControlDTCSetting               ServiceID = 0x85
	// ServiceResponseOnEvent shares its wire value 0x86 with the
	// TemperatureTooHigh NRC. The overlap comes straight from the ISO 14229
	// tables; the two live in different namespaces and are never interchangeable.
	ServiceResponseOnEvent ServiceID = 0x86
	ServiceLinkControl     ServiceID = 0x87
)

const (
	// NegativeResponseSID is the first byte of every negative response frame.
	NegativeResponseSID byte = 0x7F
	// PositiveResponseOffset is added to the request SID to form the
	// positive response SID.
	PositiveResponseOffset byte = 0x40
)

// PositiveResponse returns the SID byte carried by a positive response to
// this service.
func (s ServiceID) PositiveResponse() byte {
	return byte(s) + PositiveResponseOffset
}

// Map of UDS service IDs to their names.
var serviceNames = map[ServiceID]string{
	ServiceDiagnosticSessionControl:        "Diagnostic Session Control",
	ServiceECUReset:                        "ECU Reset",
	ServiceClearDiagnosticInformation:      "Clear Diagnostic Information",
	ServiceReadDTCInformation:              "Read DTC Information",
	ServiceReadDataByIdentifier:            "Read Data By Identifier",
	ServiceReadMemoryByAddress:             "Read Memory By Address",
	ServiceReadScalingDataByIdentifier:     "Read Scaling Data By Identifier",
	ServiceSecurityAccess:                  "Security Access",
	ServiceCommunicationControl:            "Communication Control",
	ServiceAuthentication:                  "Authentication",
	ServiceReadDataByPeriodicIdentifier:    "Read Data By Periodic Identifier",
	ServiceDynamicallyDefineDataIdentifier: "Dynamically Define Data Identifier",
	ServiceWriteDataByIdentifier:           "Write Data By Identifier",
	ServiceInputOutputControlByIdentifier:  "Input Output Control By Identifier",
	ServiceRoutineControl:                  "Routine Control",
	ServiceRequestDownload:                 "Request Download",
	ServiceRequestUpload:                   "Request Upload",
	ServiceTransferData:                    "Transfer Data",
	ServiceRequestTransferExit:             "Request Transfer Exit",
	ServiceRequestFileTransfer:             "Request File Transfer",
	ServiceWriteDataByLocalIdentifier:      "Write Data By Local Identifier",
	ServiceWriteMemoryByAddress:            "Write Memory By Address",
	ServiceTesterPresent:                   "Tester Present",
	ServiceAccessTimingParameter:           "Access Timing Parameter",
	ServiceSecuredDataTransmission:         "Secured Data Transmission",
	ServiceControlDTCSetting:               "Control DTC Setting",
	ServiceResponseOnEvent:                 "Response On Event",
	ServiceLinkControl:                     "Link Control",
}

func (s ServiceID) String() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(s))
}
