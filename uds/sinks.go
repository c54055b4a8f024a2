package uds

// PeriodicDataSink receives samples from an active periodic transmission.
// OnPeriodicData is called once per received sample, on the goroutine that
// runs the client receive loop; delivery is fire-and-forget with no error
// channel. Implementations must not retain data past the call.
type PeriodicDataSink interface {
	OnPeriodicData(did PeriodicDID, data []byte)
}

// PeriodicDataSinkFunc adapts a plain function to PeriodicDataSink.
type PeriodicDataSinkFunc func(did PeriodicDID, data []byte)

func (f PeriodicDataSinkFunc) OnPeriodicData(did PeriodicDID, data []byte) {
	f(did, data)
}

// EventSink receives asynchronous ResponseOnEvent notifications. OnEvent is
// called once per notification, in the order the transport delivered them.
// Implementations must not retain data past the call.
type EventSink interface {
	OnEvent(eventType EventType, data []byte)
}

// EventSinkFunc adapts a plain function to EventSink.
type EventSinkFunc func(eventType EventType, data []byte)

func (f EventSinkFunc) OnEvent(eventType EventType, data []byte) {
	f(eventType, data)
}
