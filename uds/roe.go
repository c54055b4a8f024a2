package uds

import (
	"errors"
	"fmt"
)

// EventType enumerates the ResponseOnEvent (0x86) event types carried in the
// low six bits of the sub-function byte.
type EventType byte

const (
	EventStopReporting            EventType = 0x00
	EventOnDTCStatusChange        EventType = 0x01
	EventOnTimerInterrupt         EventType = 0x02
	EventOnChangeOfDataIdentifier EventType = 0x03
	EventReportActivatedEvents    EventType = 0x04
	EventStartReporting           EventType = 0x05
	EventClearReporting           EventType = 0x06
	EventOnComparisonOfValues     EventType = 0x07
)

var eventTypeNames = map[EventType]string{
	EventStopReporting:            "Stop Reporting",
	EventOnDTCStatusChange:        "On DTC Status Change",
	EventOnTimerInterrupt:         "On Timer Interrupt",
	EventOnChangeOfDataIdentifier: "On Change Of Data Identifier",
	EventReportActivatedEvents:    "Report Activated Events",
	EventStartReporting:           "Start Reporting",
	EventClearReporting:           "Clear Reporting",
	EventOnComparisonOfValues:     "On Comparison Of Values",
}

func (e EventType) String() string {
	if name, ok := eventTypeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(e))
}

// Bit masks splitting the ResponseOnEvent sub-function byte.
const (
	// SuppressResponseMask is bit 7, requesting suppression of the positive
	// response message.
	SuppressResponseMask byte = 0x80
	// StoreEventMask is bit 6, requesting persistent storage of the event setup.
	StoreEventMask byte = 0x40
	// EventTypeMask covers the low six bits holding the event type itself.
	EventTypeMask byte = 0x3F
)

// ROESubFunction composes the ResponseOnEvent sub-function byte from an event
// type and the store/suppress flags.
func ROESubFunction(eventType EventType, storeEvent, suppressResponse bool) byte {
	b := byte(eventType) & EventTypeMask
	if storeEvent {
		b |= StoreEventMask
	}
	if suppressResponse {
		b |= SuppressResponseMask
	}
	return b
}

// SplitROESubFunction recovers the event type and flags from a sub-function byte.
func SplitROESubFunction(b byte) (eventType EventType, storeEvent, suppressResponse bool) {
	return EventType(b & EventTypeMask), b&StoreEventMask != 0, b&SuppressResponseMask != 0
}

// Capacity limits for the two variable-length records of an activated event.
const (
	MaxEventTypeRecordSize = 16
	MaxServiceRecordSize   = 32
)

var (
	// ErrEventTypeRecordTooLong is returned when an event type record exceeds
	// MaxEventTypeRecordSize bytes.
	ErrEventTypeRecordTooLong = errors.New("uds: event type record exceeds 16 bytes")
	// ErrServiceRecordTooLong is returned when a service-to-respond-to record
	// exceeds MaxServiceRecordSize bytes.
	ErrServiceRecordTooLong = errors.New("uds: service to respond to record exceeds 32 bytes")
	// ErrShortActivatedEvent is returned when unmarshalling runs out of bytes.
	ErrShortActivatedEvent = errors.New("uds: truncated activated event record")
)

// ActivatedEvent is one entry of a ResponseOnEvent reportActivatedEvents
// response. Both records keep their declared length alongside a fixed-capacity
// buffer; the length never exceeds the capacity, the constructor enforces it.
type ActivatedEvent struct {
	eventType       EventType
	eventWindowTime byte

	eventTypeRecord     [MaxEventTypeRecordSize]byte
	eventTypeRecordSize int

	serviceRecord     [MaxServiceRecordSize]byte
	serviceRecordSize int
}

// NewActivatedEvent builds an activated event entry, rejecting records longer
// than their wire capacity.
func NewActivatedEvent(eventType EventType, windowTime byte, eventTypeRecord, serviceRecord []byte) (ActivatedEvent, error) {
	var ev ActivatedEvent
	if len(eventTypeRecord) > MaxEventTypeRecordSize {
		return ev, ErrEventTypeRecordTooLong
	}
	if len(serviceRecord) > MaxServiceRecordSize {
		return ev, ErrServiceRecordTooLong
	}

	ev.eventType = eventType
	ev.eventWindowTime = windowTime
	ev.eventTypeRecordSize = copy(ev.eventTypeRecord[:], eventTypeRecord)
	ev.serviceRecordSize = copy(ev.serviceRecord[:], serviceRecord)
	return ev, nil
}

// EventType returns the event type of the entry.
func (ev *ActivatedEvent) EventType() EventType {
	return ev.eventType
}

// EventWindowTime returns the event window time byte of the entry.
func (ev *ActivatedEvent) EventWindowTime() byte {
	return ev.eventWindowTime
}

// EventTypeRecord returns a copy of the event-type-specific record, trimmed to
// its declared length.
func (ev *ActivatedEvent) EventTypeRecord() []byte {
	out := make([]byte, ev.eventTypeRecordSize)
	copy(out, ev.eventTypeRecord[:ev.eventTypeRecordSize])
	return out
}

// ServiceToRespondToRecord returns a copy of the service-to-respond-to record,
// trimmed to its declared length.
func (ev *ActivatedEvent) ServiceToRespondToRecord() []byte {
	out := make([]byte, ev.serviceRecordSize)
	copy(out, ev.serviceRecord[:ev.serviceRecordSize])
	return out
}

// Marshal encodes the entry in the wire layout used by
// reportActivatedEvents responses: eventType, windowTime, then each record as
// a length byte followed by that many bytes.
func (ev *ActivatedEvent) Marshal() []byte {
	out := make([]byte, 0, 4+ev.eventTypeRecordSize+ev.serviceRecordSize)
	out = append(out, byte(ev.eventType), ev.eventWindowTime)
	out = append(out, byte(ev.eventTypeRecordSize))
	out = append(out, ev.eventTypeRecord[:ev.eventTypeRecordSize]...)
	out = append(out, byte(ev.serviceRecordSize))
	out = append(out, ev.serviceRecord[:ev.serviceRecordSize]...)
	return out
}

// UnmarshalActivatedEvent decodes one entry from data and returns the number
// of bytes consumed.
func UnmarshalActivatedEvent(data []byte) (ActivatedEvent, int, error) {
	var ev ActivatedEvent
	if len(data) < 3 {
		return ev, 0, ErrShortActivatedEvent
	}
	eventType := EventType(data[0])
	windowTime := data[1]

	n := 2
	etrLen := int(data[n])
	n++
	if etrLen > MaxEventTypeRecordSize {
		return ev, 0, ErrEventTypeRecordTooLong
	}
	if len(data) < n+etrLen+1 {
		return ev, 0, ErrShortActivatedEvent
	}
	etr := data[n : n+etrLen]
	n += etrLen

	svcLen := int(data[n])
	n++
	if svcLen > MaxServiceRecordSize {
		return ev, 0, ErrServiceRecordTooLong
	}
	if len(data) < n+svcLen {
		return ev, 0, ErrShortActivatedEvent
	}
	svc := data[n : n+svcLen]
	n += svcLen

	ev, err := NewActivatedEvent(eventType, windowTime, etr, svc)
	if err != nil {
		return ev, 0, err
	}
	return ev, n, nil
}

func (ev *ActivatedEvent) String() string {
	return fmt.Sprintf("%s window=0x%02X eventTypeRecord=% X serviceRecord=% X",
		ev.eventType, ev.eventWindowTime,
		ev.eventTypeRecord[:ev.eventTypeRecordSize], ev.serviceRecord[:ev.serviceRecordSize])
}
