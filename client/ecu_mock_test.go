package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/younglifestyle/uds4go/canbus"
	"github.com/younglifestyle/uds4go/isotp"
	"github.com/younglifestyle/uds4go/uds"
)

// mockECU simulates a diagnostic server on an in-memory bus. Handlers are
// keyed by request SID and return the raw response payloads to transmit; a
// handler may return several payloads to model response-pending sequences.
type mockECU struct {
	bus       *canbus.Loopback
	transport *isotp.Transport
	cancel    context.CancelFunc

	mu       sync.Mutex
	handlers map[uds.ServiceID]func(req []byte) [][]byte
	requests [][]byte
}

func newMockECU(t *testing.T) *mockECU {
	t.Helper()

	e := &mockECU{
		bus:      canbus.NewLoopback(nil),
		handlers: make(map[uds.ServiceID]func(req []byte) [][]byte),
	}
	e.transport = isotp.NewTransport(e.bus, canbus.ECUID, canbus.TesterID, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.transport.Listen(ctx, e.serve)

	t.Cleanup(func() {
		cancel()
		e.bus.Close()
	})
	return e
}

func (e *mockECU) handle(service uds.ServiceID, fn func(req []byte) [][]byte) {
	e.mu.Lock()
	e.handlers[service] = fn
	e.mu.Unlock()
}

func (e *mockECU) serve(req []byte) {
	if len(req) == 0 {
		return
	}
	e.mu.Lock()
	e.requests = append(e.requests, append([]byte(nil), req...))
	fn := e.handlers[uds.ServiceID(req[0])]
	e.mu.Unlock()

	if fn == nil {
		e.transport.Send(context.Background(), negative(uds.ServiceID(req[0]), uds.NRCServiceNotSupported))
		return
	}
	for _, payload := range fn(req) {
		e.transport.Send(context.Background(), payload)
	}
}

// inject transmits an unsolicited payload, the way periodic samples and
// event notifications arrive.
func (e *mockECU) inject(payload []byte) {
	e.transport.Send(context.Background(), payload)
}

// requestCount returns how many requests with the given SID were served.
func (e *mockECU) requestCount(service uds.ServiceID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, req := range e.requests {
		if uds.ServiceID(req[0]) == service {
			n++
		}
	}
	return n
}

// positive builds a positive response payload for a request SID.
func positive(service uds.ServiceID, data ...byte) []byte {
	return append([]byte{service.PositiveResponse()}, data...)
}

// negative builds a 7F response payload.
func negative(service uds.ServiceID, nrc uds.NRC) []byte {
	return []byte{uds.NegativeResponseSID, byte(service), byte(nrc)}
}

// newTestClient starts a client against a fresh mock ECU with short timeouts.
func newTestClient(t *testing.T) (*Client, *mockECU) {
	t.Helper()

	ecu := newMockECU(t)

	timing := isotp.NewTiming()
	timing.SetP2(500 * time.Millisecond)
	timing.SetP2Star(2 * time.Second)

	c, err := NewClient(Options{
		Bus:                   ecu.bus,
		Timing:                timing,
		TesterPresentInterval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.Start()
	t.Cleanup(c.Stop)

	// Let the client's receive pump subscribe before the first request.
	time.Sleep(20 * time.Millisecond)
	return c, ecu
}
