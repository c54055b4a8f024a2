package main

import (
	"context"
	"encoding/binary"
	"flag"
	"log"
	"time"

	"github.com/younglifestyle/uds4go/canbus"
	"github.com/younglifestyle/uds4go/client"
	"github.com/younglifestyle/uds4go/common"
	"github.com/younglifestyle/uds4go/isotp"
	"github.com/younglifestyle/uds4go/uds"
)

// A complete diagnostic exchange against a simulated ECU on an in-memory
// bus: session control, identity reads, trouble codes, periodic live data
// and a ResponseOnEvent registration. No hardware required.
func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	logFile := flag.String("log", "", "log file path (stdout if empty)")
	flag.Parse()

	logger := common.NewZapLogger(common.ZapLoggerOptions{
		LogFile:    *logFile,
		DebugLevel: *debug,
		Console:    true,
	})

	bus := canbus.NewLoopback(logger)
	defer bus.Close()

	ecuCtx, stopECU := context.WithCancel(context.Background())
	defer stopECU()
	runVirtualECU(ecuCtx, bus, logger)

	c, err := client.NewClient(client.Options{
		Bus:    bus,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("create client: %v", err)
	}
	c.Start()
	defer c.Stop()

	c.Events().SessionChanged.AddCallback(func(data map[string]interface{}) {
		log.Printf("session changed: %s", data["session"])
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.DiagnosticSessionControl(ctx, uds.SessionExtended); err != nil {
		log.Fatalf("session control: %v", err)
	}

	vin, err := c.ReadVIN(ctx)
	if err != nil {
		log.Fatalf("read VIN: %v", err)
	}
	log.Printf("VIN: %s", vin)

	sw, err := c.ReadSoftwareVersion(ctx)
	if err != nil {
		log.Fatalf("read software version: %v", err)
	}
	log.Printf("software: %s", sw)

	dtcs, err := c.ReadDTCByStatusMask(ctx, uds.DTCStatusConfirmedDTC)
	if err != nil {
		log.Fatalf("read DTCs: %v", err)
	}
	for _, dtc := range dtcs {
		log.Printf("DTC %s (status 0x%02X)", dtc.Label(), dtc.Status)
	}

	// Live data: RPM samples on periodic identifier 0x0C.
	c.AddPeriodicSink(uds.PeriodicDataSinkFunc(func(did uds.PeriodicDID, data []byte) {
		if len(data) >= 2 {
			rpm := binary.BigEndian.Uint16(data) / 4
			log.Printf("rpm=%d (did %s)", rpm, did.DataIdentifier())
		}
	}), 0x0C)
	if err := c.StartPeriodic(ctx, uds.TransmissionFast, 0x0C); err != nil {
		log.Fatalf("start periodic: %v", err)
	}

	// Get notified when a DTC status changes.
	c.AddEventSink(uds.EventSinkFunc(func(eventType uds.EventType, data []byte) {
		log.Printf("event %s: % X", eventType, data)
	}))
	if err := c.SetupEvent(ctx, client.EventSetup{
		Type:               uds.EventOnDTCStatusChange,
		WindowTime:         0x02,
		TypeRecord:         []byte{uds.DTCStatusConfirmedDTC},
		ServiceToRespondTo: []byte{byte(uds.ServiceReadDTCInformation), byte(uds.ReportNumberOfDTCByStatusMask), 0xFF},
	}); err != nil {
		log.Fatalf("setup event: %v", err)
	}
	if err := c.StartReporting(ctx, 0x02); err != nil {
		log.Fatalf("start reporting: %v", err)
	}

	time.Sleep(2 * time.Second)

	if err := c.StopPeriodic(ctx, 0x0C); err != nil {
		log.Fatalf("stop periodic: %v", err)
	}
	if err := c.DiagnosticSessionControl(ctx, uds.SessionDefault); err != nil {
		log.Fatalf("back to default session: %v", err)
	}
	log.Println("done")
}

// runVirtualECU answers diagnostic requests and pushes periodic samples and
// one event notification, the way a real engine controller would.
func runVirtualECU(ctx context.Context, bus canbus.Bus, logger common.Logger) {
	transport := isotp.NewTransport(bus, canbus.ECUID, canbus.TesterID, nil, logger)

	send := func(payload []byte) {
		if err := transport.Send(ctx, payload); err != nil {
			logger.Error("virtual ecu send failed", "error", err)
		}
	}

	dids := map[uds.DataIdentifier][]byte{
		uds.DIDVIN:               []byte("WVWZZZ1JZXW000001"),
		uds.DIDECUSoftwareNumber: []byte("1.4.2"),
		uds.DIDECUHardwareNumber: []byte("H03"),
	}

	go transport.Listen(ctx, func(req []byte) {
		if len(req) == 0 {
			return
		}
		service := uds.ServiceID(req[0])
		switch service {
		case uds.ServiceDiagnosticSessionControl:
			// P2 = 50 ms, P2* = 5 s.
			send([]byte{service.PositiveResponse(), req[1], 0x00, 0x32, 0x01, 0xF4})
		case uds.ServiceTesterPresent:
			if len(req) > 1 && req[1]&uds.SuppressResponseMask != 0 {
				return
			}
			send([]byte{service.PositiveResponse(), 0x00})
		case uds.ServiceReadDataByIdentifier:
			if len(req) < 3 {
				send([]byte{uds.NegativeResponseSID, req[0], byte(uds.NRCIncorrectMessageLengthOrInvalidFormat)})
				return
			}
			did := uds.DataIdentifier(binary.BigEndian.Uint16(req[1:3]))
			value, ok := dids[did]
			if !ok {
				send([]byte{uds.NegativeResponseSID, req[0], byte(uds.NRCRequestOutOfRange)})
				return
			}
			send(append(append([]byte{service.PositiveResponse()}, did.Bytes()...), value...))
		case uds.ServiceReadDTCInformation:
			send([]byte{service.PositiveResponse(), req[1], 0xFF,
				0x01, 0x05, 0x00, 0x08,
				0x03, 0x01, 0x00, 0x09})
		case uds.ServiceReadDataByPeriodicIdentifier:
			send([]byte{service.PositiveResponse()})
			if len(req) >= 3 && uds.TransmissionMode(req[1]) != uds.TransmissionStop {
				startPeriodicPump(ctx, transport, uds.TransmissionMode(req[1]), uds.PeriodicDID(req[2]))
			}
		case uds.ServiceResponseOnEvent:
			send([]byte{service.PositiveResponse(), req[1], 0x00})
			eventType, _, _ := uds.SplitROESubFunction(req[1])
			if eventType == uds.EventStartReporting {
				// Simulate a DTC status change shortly after reporting starts.
				go func() {
					time.Sleep(500 * time.Millisecond)
					sub := uds.ROESubFunction(uds.EventOnDTCStatusChange, false, false)
					send([]byte{uds.ServiceResponseOnEvent.PositiveResponse(), sub, 0x01, 0x05, 0x00, 0x08})
				}()
			}
		default:
			send([]byte{uds.NegativeResponseSID, req[0], byte(uds.NRCServiceNotSupported)})
		}
	})
}

// startPeriodicPump transmits fake RPM samples at the requested rate until
// the context ends.
func startPeriodicPump(ctx context.Context, transport *isotp.Transport, mode uds.TransmissionMode, did uds.PeriodicDID) {
	go func() {
		ticker := time.NewTicker(mode.Interval())
		defer ticker.Stop()
		rpm := uint16(800)
		for {
			select {
			case <-ticker.C:
				rpm += 50
				sample := []byte{uds.ServiceReadDataByPeriodicIdentifier.PositiveResponse(), byte(did), 0x00, 0x00}
				binary.BigEndian.PutUint16(sample[2:], rpm*4)
				if err := transport.Send(ctx, sample); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
