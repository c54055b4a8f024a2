// Package drivers binds physical CAN adapters to the canbus.Bus interface.
package drivers

import (
	"context"

	"go.bug.st/serial/enumerator"

	"github.com/younglifestyle/uds4go/canbus"
)

// Driver is a physical adapter that can be opened into a live canbus.Bus.
type Driver interface {
	// String names the adapter and its port, for menus and logs.
	String() string

	// Open claims the underlying device and starts the receive pump.
	// The returned Bus stays usable until Close is called on it.
	Open(ctx context.Context) (canbus.Bus, error)
}

// Scan enumerates serial ports and returns a driver for every adapter it
// recognizes. An enumeration failure returns the error with no drivers.
func Scan() ([]Driver, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	var found []Driver
	found = scanSLCAN(ports, found)
	return found, nil
}
