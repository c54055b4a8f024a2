package client

import (
	"context"

	"github.com/younglifestyle/uds4go/uds"
)

// AddPeriodicSink registers a sink for periodic data. With no DIDs the sink
// receives every sample; otherwise only samples for the listed identifiers.
func (c *Client) AddPeriodicSink(sink uds.PeriodicDataSink, dids ...uds.PeriodicDID) {
	c.periodicMu.Lock()
	defer c.periodicMu.Unlock()
	if len(dids) == 0 {
		c.periodicAll = append(c.periodicAll, sink)
		return
	}
	for _, did := range dids {
		c.periodicSinks[did] = append(c.periodicSinks[did], sink)
	}
}

// StartPeriodic asks the server to transmit the given periodic identifiers at
// the rate the mode selects. Samples are delivered to the registered sinks.
func (c *Client) StartPeriodic(ctx context.Context, mode uds.TransmissionMode, dids ...uds.PeriodicDID) error {
	if mode == uds.TransmissionStop {
		return c.StopPeriodic(ctx, dids...)
	}
	payload := make([]byte, 0, 1+len(dids))
	payload = append(payload, byte(mode))
	for _, did := range dids {
		payload = append(payload, byte(did))
	}
	_, err := c.request(ctx, uds.NewRequest(uds.ServiceReadDataByPeriodicIdentifier, payload))
	if err != nil {
		return err
	}
	c.logger.Info("periodic transmission started", "mode", mode.String(), "dids", len(dids))
	return nil
}

// StopPeriodic stops the periodic transmission of the given identifiers. With
// no DIDs every active transmission is stopped.
func (c *Client) StopPeriodic(ctx context.Context, dids ...uds.PeriodicDID) error {
	payload := make([]byte, 0, 1+len(dids))
	payload = append(payload, byte(uds.TransmissionStop))
	for _, did := range dids {
		payload = append(payload, byte(did))
	}
	_, err := c.request(ctx, uds.NewRequest(uds.ServiceReadDataByPeriodicIdentifier, payload))
	if err != nil {
		return err
	}
	c.logger.Info("periodic transmission stopped", "dids", len(dids))
	return nil
}

// dispatchPeriodic fans one unsolicited periodic sample out to the sinks.
// The payload after the response SID is the periodic identifier followed by
// the data record.
func (c *Client) dispatchPeriodic(resp *uds.Response) {
	if resp.NRC != nil || len(resp.Data) < 1 {
		return
	}
	did := uds.PeriodicDID(resp.Data[0])
	data := resp.Data[1:]

	c.periodicMu.RLock()
	sinks := make([]uds.PeriodicDataSink, 0, len(c.periodicAll)+len(c.periodicSinks[did]))
	sinks = append(sinks, c.periodicAll...)
	sinks = append(sinks, c.periodicSinks[did]...)
	c.periodicMu.RUnlock()

	if len(sinks) == 0 {
		c.logger.Debug("periodic sample without sink", "did", did)
		return
	}
	for _, sink := range sinks {
		sink.OnPeriodicData(did, data)
	}
}
