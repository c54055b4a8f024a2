package client

import (
	"context"
	"errors"

	"github.com/younglifestyle/uds4go/uds"
)

// EventSetup describes one ResponseOnEvent registration.
type EventSetup struct {
	// Type of the event to arm.
	Type uds.EventType
	// WindowTime is the eventWindowTime byte; 0x02 means infinite in most
	// applications.
	WindowTime byte
	// TypeRecord is the event-type-specific record, at most 16 bytes.
	TypeRecord []byte
	// ServiceToRespondTo is the request the server executes when the event
	// fires, at most 32 bytes.
	ServiceToRespondTo []byte
	// StoreEvent asks the server to keep the registration across power cycles.
	StoreEvent bool
}

// AddEventSink registers a sink for asynchronous event notifications.
func (c *Client) AddEventSink(sink uds.EventSink) {
	c.eventMu.Lock()
	c.eventSinks = append(c.eventSinks, sink)
	c.eventMu.Unlock()
}

// SetupEvent arms one event on the server. Record lengths are bounded by the
// same capacities the activated-event report uses.
func (c *Client) SetupEvent(ctx context.Context, setup EventSetup) error {
	if len(setup.TypeRecord) > uds.MaxEventTypeRecordSize {
		return uds.ErrEventTypeRecordTooLong
	}
	if len(setup.ServiceToRespondTo) > uds.MaxServiceRecordSize {
		return uds.ErrServiceRecordTooLong
	}
	if len(setup.ServiceToRespondTo) == 0 {
		return errors.New("client: service to respond to is required")
	}

	sub := uds.ROESubFunction(setup.Type, setup.StoreEvent, false)
	payload := make([]byte, 0, 1+len(setup.TypeRecord)+len(setup.ServiceToRespondTo))
	payload = append(payload, setup.WindowTime)
	payload = append(payload, setup.TypeRecord...)
	payload = append(payload, setup.ServiceToRespondTo...)

	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceResponseOnEvent, sub, payload))
	if err != nil {
		return err
	}
	c.logger.Info("event armed", "type", setup.Type.String(), "window", setup.WindowTime)
	return nil
}

// StartReporting turns on the delivery of armed events.
func (c *Client) StartReporting(ctx context.Context, windowTime byte) error {
	sub := uds.ROESubFunction(uds.EventStartReporting, false, false)
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceResponseOnEvent, sub, []byte{windowTime}))
	if err != nil {
		return err
	}
	c.logger.Info("event reporting started")
	return nil
}

// StopReporting pauses the delivery of armed events without clearing them.
func (c *Client) StopReporting(ctx context.Context) error {
	sub := uds.ROESubFunction(uds.EventStopReporting, false, false)
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceResponseOnEvent, sub, nil))
	if err != nil {
		return err
	}
	c.logger.Info("event reporting stopped")
	return nil
}

// ClearReporting removes every armed event.
func (c *Client) ClearReporting(ctx context.Context) error {
	sub := uds.ROESubFunction(uds.EventClearReporting, false, false)
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceResponseOnEvent, sub, nil))
	if err != nil {
		return err
	}
	c.logger.Info("event registrations cleared")
	return nil
}

// ReportActivatedEvents asks the server which events are currently armed.
func (c *Client) ReportActivatedEvents(ctx context.Context) ([]uds.ActivatedEvent, error) {
	sub := uds.ROESubFunction(uds.EventReportActivatedEvents, false, false)
	resp, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceResponseOnEvent, sub, nil))
	if err != nil {
		return nil, err
	}
	// Data: echoed sub-function, numberOfActivatedEvents, then the entries.
	if len(resp.Data) < 2 {
		return nil, ErrUnexpectedResponse
	}
	count := int(resp.Data[1])
	rest := resp.Data[2:]

	events := make([]uds.ActivatedEvent, 0, count)
	for i := 0; i < count; i++ {
		ev, n, err := uds.UnmarshalActivatedEvent(rest)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
		rest = rest[n:]
	}
	return events, nil
}

// dispatchEvent fans one asynchronous event notification out to the sinks.
// The payload after the response SID carries the triggering event type byte
// and the event data.
func (c *Client) dispatchEvent(resp *uds.Response) {
	if resp.NRC != nil || len(resp.Data) < 1 {
		return
	}
	eventType, _, _ := uds.SplitROESubFunction(resp.Data[0])
	data := resp.Data[1:]

	c.eventMu.RLock()
	sinks := make([]uds.EventSink, len(c.eventSinks))
	copy(sinks, c.eventSinks)
	c.eventMu.RUnlock()

	if len(sinks) == 0 {
		c.logger.Debug("event notification without sink", "type", eventType.String())
		return
	}
	for _, sink := range sinks {
		sink.OnEvent(eventType, data)
	}
}
