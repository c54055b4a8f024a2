package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cast"

	"github.com/younglifestyle/uds4go/client"
	"github.com/younglifestyle/uds4go/common"
	"github.com/younglifestyle/uds4go/drivers"
	"github.com/younglifestyle/uds4go/uds"
)

// Reads and optionally clears trouble codes through an SLCAN USB adapter
// plugged into the vehicle's OBD-II port.
//
//	dtc_scanner [-clear] [-port /dev/ttyACM0] [adapter-index]
func main() {
	portName := flag.String("port", "", "serial port of the CAN adapter (auto-detect if empty)")
	clear := flag.Bool("clear", false, "clear all trouble codes after reading")
	mask := flag.Int("mask", int(uds.DTCStatusConfirmedDTC), "DTC status mask to match")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := common.NewZapLogger(common.ZapLoggerOptions{DebugLevel: *debug})

	driver, err := pickDriver(*portName, logger)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("using %s", driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-interrupt()
		cancel()
	}()

	bus, err := driver.Open(ctx)
	if err != nil {
		log.Fatalf("open adapter: %v", err)
	}
	defer bus.Close()

	c, err := client.NewClient(client.Options{Bus: bus, Logger: logger})
	if err != nil {
		log.Fatalf("create client: %v", err)
	}
	c.Start()
	defer c.Stop()

	opCtx, opCancel := context.WithTimeout(ctx, 30*time.Second)
	defer opCancel()

	if err := c.DiagnosticSessionControl(opCtx, uds.SessionExtended); err != nil {
		log.Fatalf("session control: %v", err)
	}

	if vin, err := c.ReadVIN(opCtx); err == nil {
		log.Printf("VIN: %s", vin)
	}
	if sw, err := c.ReadSoftwareVersion(opCtx); err == nil {
		log.Printf("software: %s", sw)
	}

	dtcs, err := c.ReadDTCByStatusMask(opCtx, byte(*mask))
	if err != nil {
		log.Fatalf("read DTCs: %v", err)
	}
	if len(dtcs) == 0 {
		log.Println("no trouble codes match the mask")
	}
	for _, dtc := range dtcs {
		log.Printf("%s (status 0x%02X)", dtc.Label(), dtc.Status)
	}

	if *clear && len(dtcs) > 0 {
		if err := c.ClearDiagnosticInformation(opCtx, 0xFFFFFF); err != nil {
			log.Fatalf("clear DTCs: %v", err)
		}
		log.Println("trouble codes cleared")
	}

	if err := c.DiagnosticSessionControl(opCtx, uds.SessionDefault); err != nil {
		log.Fatalf("back to default session: %v", err)
	}
}

// pickDriver resolves the adapter: an explicit port wins, otherwise the scan
// result selected by the optional positional index.
func pickDriver(portName string, logger common.Logger) (drivers.Driver, error) {
	if portName != "" {
		return drivers.NewSLCAN(portName, logger), nil
	}

	found, err := drivers.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan adapters: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no CAN adapter found; pass -port explicitly")
	}

	idx := cast.ToInt(flag.Arg(0))
	if idx < 0 || idx >= len(found) {
		return nil, fmt.Errorf("adapter index %d out of range, %d found", idx, len(found))
	}
	return found[idx], nil
}

func interrupt() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
