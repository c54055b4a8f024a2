package uds

import "fmt"

// DataIdentifier is the 16-bit key identifying a data element exposed by the
// ECU, used by ReadDataByIdentifier, WriteDataByIdentifier and friends.
type DataIdentifier uint16

// Well-known identification DIDs from the ISO 14229-1 F1 range.
const (
	DIDSystemSupplierID                     DataIdentifier = 0xF18A
	DIDECUManufacturingDate                 DataIdentifier = 0xF18B
	DIDECUSerialNumber                      DataIdentifier = 0xF18C
	DIDVIN                                  DataIdentifier = 0xF190
	DIDECUHardwareNumber                    DataIdentifier = 0xF191
	DIDECUSoftwareNumber                    DataIdentifier = 0xF194
	DIDVehicleManufacturerECUSoftwareNumber DataIdentifier = 0xF195
)

// Bytes returns the big-endian wire encoding of the identifier.
func (d DataIdentifier) Bytes() []byte {
	return []byte{byte(d >> 8), byte(d)}
}

func (d DataIdentifier) String() string {
	return fmt.Sprintf("0x%04X", uint16(d))
}
