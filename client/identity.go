package client

import (
	"context"
	"strings"

	"github.com/younglifestyle/uds4go/uds"
)

// ReadVIN reads the vehicle identification number.
func (c *Client) ReadVIN(ctx context.Context) (string, error) {
	return c.readString(ctx, uds.DIDVIN)
}

// ReadHardwareVersion reads the ECU hardware number.
func (c *Client) ReadHardwareVersion(ctx context.Context) (string, error) {
	return c.readString(ctx, uds.DIDECUHardwareNumber)
}

// ReadSoftwareVersion reads the ECU software number.
func (c *Client) ReadSoftwareVersion(ctx context.Context) (string, error) {
	return c.readString(ctx, uds.DIDECUSoftwareNumber)
}

// ReadSerialNumber reads the ECU serial number.
func (c *Client) ReadSerialNumber(ctx context.Context) (string, error) {
	return c.readString(ctx, uds.DIDECUSerialNumber)
}

func (c *Client) readString(ctx context.Context, did uds.DataIdentifier) (string, error) {
	data, err := c.ReadDataByIdentifier(ctx, did)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\x00 "), nil
}
