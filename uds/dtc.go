package uds

import "fmt"

// DTC status mask bits used with ReadDTCInformation status-mask reports.
const (
	DTCStatusTestFailed                         byte = 0x01
	DTCStatusTestFailedThisOperationCycle       byte = 0x02
	DTCStatusPendingDTC                         byte = 0x04
	DTCStatusConfirmedDTC                       byte = 0x08
	DTCStatusTestNotCompletedSinceLastClear     byte = 0x10
	DTCStatusTestFailedSinceLastClear           byte = 0x20
	DTCStatusTestNotCompletedThisOperationCycle byte = 0x40
	DTCStatusWarningIndicatorRequested          byte = 0x80
)

// DTC is one diagnostic trouble code with its status byte, as extracted from
// a ReadDTCInformation reportDTCByStatusMask response.
type DTC struct {
	Code   string
	Status byte
}

// First DTC character, from the top two bits of the first code byte:
// 00 P (powertrain), 01 C (chassis), 10 B (body), 11 U (network).
var dtcSystemLetters = [4]byte{'P', 'C', 'B', 'U'}

// DecodeDTC expands the 3-byte wire form to the usual lettered
// representation, e.g. 0x01 0x05 0x00 -> "P0105-00".
func DecodeDTC(hi, mid, lo byte) string {
	letter := dtcSystemLetters[hi>>6]
	return fmt.Sprintf("%c%d%X%02X-%02X", letter, (hi>>4)&0x3, hi&0x0F, mid, lo)
}

// Map of the common powertrain codes to their descriptions, keyed by the four
// digits following the system letter.
var dtcDescriptions = map[string]string{
	"0001": "Fuel Volume Regulator Control Circuit/Open",
	"0002": "Fuel Volume Regulator Control Circuit Range/Performance",
	"0003": "Fuel Volume Regulator Control Circuit Low",
	"0004": "Fuel Volume Regulator Control Circuit High",
	"0100": "Mass or Volume Air Flow Circuit Malfunction",
	"0101": "Mass or Volume Air Flow Circuit Range/Performance Problem",
	"0102": "Mass or Volume Air Flow Circuit Low Input",
	"0103": "Mass or Volume Air Flow Circuit High Input",
	"0105": "Manifold Absolute Pressure/Barometric Pressure Circuit Malfunction",
	"0110": "Intake Air Temperature Circuit Malfunction",
	"0112": "Intake Air Temperature Sensor 1 Circuit Low Input",
	"0113": "Intake Air Temperature Sensor 1 Circuit High Input",
	"0115": "Engine Coolant Temperature Circuit Malfunction",
	"0120": "Throttle Pedal Position Sensor/Switch A Circuit Malfunction",
	"0201": "Injector Circuit Malfunction - Cylinder 1",
	"0202": "Injector Circuit Malfunction - Cylinder 2",
	"0220": "Throttle/Pedal Position Sensor/Switch B Circuit Malfunction",
	"0300": "Random/Multiple Cylinder Misfire Detected",
	"0301": "Cylinder 1 Misfire Detected",
	"0302": "Cylinder 2 Misfire Detected",
	"0303": "Cylinder 3 Misfire Detected",
	"0304": "Cylinder 4 Misfire Detected",
	"0401": "Exhaust Gas Recirculation (EGR) Flow Insufficient Detected",
	"0402": "Exhaust Gas Recirculation (EGR) Flow Excessive Detected",
	"0420": "Catalyst System Efficiency Below Threshold (Bank 1)",
	"0430": "Catalyst System Efficiency Below Threshold (Bank 2)",
	"0440": "Evaporative Emission Control System Malfunction",
	"0441": "Evaporative Emission Control System Incorrect Purge Flow",
	"0442": "Evaporative Emission Control System Leak Detected (small leak)",
	"0446": "Evaporative Emission Control System Vent Control Circuit Malfunction",
	"0500": "Vehicle Speed Sensor Malfunction",
	"0562": "System Voltage Low",
	"0563": "System Voltage High",
	"0600": "Serial Communication Link Malfunction",
	"0705": "Transmission Range Sensor Circuit Malfunction (PRNDL Input)",
	"0708": "Transmission Range Sensor Circuit High Input",
	"0715": "Input/Turbine Speed Sensor Circuit Malfunction",
	"0720": "Output Speed Sensor Circuit Malfunction",
	"0730": "Incorrect Gear Ratio",
	"0740": "Torque Converter Clutch Circuit Malfunction",
	"0750": "Shift Solenoid A Malfunction",
	"0755": "Shift Solenoid B Malfunction",
	"0760": "Shift Solenoid C Malfunction",
	"0765": "Shift Solenoid D Malfunction",
	"0850": "Park/Neutral Position (PNP) Switch Circuit Malfunction",
	"1100": "Engine Coolant Temperature Sensor 1 Circuit Range/Performance",
	"1120": "Throttle Position Sensor/Switch Circuit Malfunction",
	"1130": "Throttle Position Sensor Circuit Malfunction",
	"1237": "Fuel Pump Secondary Circuit Malfunction",
	"1402": "EGR System - Insufficient Flow Detected",
	"1500": "Vehicle Speed Sensor A Malfunction",
	"1632": "Module Supply Voltage Out Of Range",
	"2120": "Throttle/Pedal Pos Sensor/Switch D Circuit",
	"2125": "Throttle/Pedal Pos Sensor/Switch E Circuit",
	"2226": "Barometric Pressure Circuit",
}

// Label returns the code with its description when one is known, otherwise
// the bare code.
func (d DTC) Label() string {
	if len(d.Code) >= 5 {
		if desc, ok := dtcDescriptions[d.Code[1:5]]; ok {
			return fmt.Sprintf("%s: %s", d.Code, desc)
		}
	}
	return d.Code
}
