package client

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/atomic"

	"github.com/younglifestyle/uds4go/canbus"
	"github.com/younglifestyle/uds4go/common"
	"github.com/younglifestyle/uds4go/isotp"
	"github.com/younglifestyle/uds4go/uds"
	"github.com/younglifestyle/uds4go/utils"
)

var (
	// ErrNotStarted is returned when operations are invoked before Start.
	ErrNotStarted = errors.New("client: not started")
	// ErrTimeout indicates the server did not answer within P2 (or P2* while
	// it kept reporting response pending).
	ErrTimeout = errors.New("client: timeout waiting for response")
	// ErrUnexpectedResponse is returned when a positive response does not
	// match the request that is waiting for it.
	ErrUnexpectedResponse = errors.New("client: unexpected response payload")
)

// NegativeResponseError is returned when the server rejects a request.
type NegativeResponseError struct {
	Service uds.ServiceID
	NRC     uds.NRC
}

func (e *NegativeResponseError) Error() string {
	return fmt.Sprintf("client: %s rejected: %s (0x%02X)", e.Service, uds.Describe(e.NRC), byte(e.NRC))
}

// Events exposes client callbacks.
type Events struct {
	SessionChanged   *common.Event
	SecurityUnlocked *common.Event
}

// KeyFunc derives the SecurityAccess key for a seed. Implementations are
// vehicle specific.
type KeyFunc func(level uds.SecurityLevel, seed []byte) ([]byte, error)

// Options configures a Client.
type Options struct {
	// Bus is the CAN adapter to talk through. Required.
	Bus canbus.Bus
	// TesterID and ECUID are the physical addressing pair.
	// They default to 0x7E0 / 0x7E8.
	TesterID uint16
	ECUID    uint16
	// Timing holds the transport and session timing parameters.
	Timing *isotp.Timing
	// TesterPresentInterval is the keepalive period while a non-default
	// session is active. Defaults to 2 seconds.
	TesterPresentInterval time.Duration
	// Logger defaults to the silent logger.
	Logger common.Logger
}

func (o *Options) applyDefaults() {
	if o.TesterID == 0 {
		o.TesterID = canbus.TesterID
	}
	if o.ECUID == 0 {
		o.ECUID = canbus.ECUID
	}
	if o.Timing == nil {
		o.Timing = isotp.NewTiming()
	}
	if o.TesterPresentInterval == 0 {
		o.TesterPresentInterval = 2 * time.Second
	}
	if o.Logger == nil {
		o.Logger = common.NopLogger()
	}
}

type pendingRequest struct {
	service   uds.ServiceID
	responses *utils.Deque
}

// Client is a UDS diagnostic client bound to one ECU.
type Client struct {
	transport *isotp.Transport
	timing    *isotp.Timing
	logger    common.Logger

	started *atomic.Bool

	session *SessionStateMachine
	events  Events

	requestMu sync.Mutex
	pendingMu sync.Mutex
	pending   *pendingRequest

	periodicMu    sync.RWMutex
	periodicSinks map[uds.PeriodicDID][]uds.PeriodicDataSink
	periodicAll   []uds.PeriodicDataSink

	eventMu    sync.RWMutex
	eventSinks []uds.EventSink

	keepaliveMu       sync.Mutex
	keepaliveCancel   context.CancelFunc
	keepaliveInterval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a client. Start must be called before any operation.
func NewClient(opts Options) (*Client, error) {
	if opts.Bus == nil {
		return nil, errors.New("client: bus is required")
	}
	opts.applyDefaults()

	c := &Client{
		transport:     isotp.NewTransport(opts.Bus, opts.TesterID, opts.ECUID, opts.Timing, opts.Logger),
		timing:        opts.Timing,
		logger:        opts.Logger,
		started:       atomic.NewBool(false),
		session:       NewSessionStateMachine(nil),
		periodicSinks: make(map[uds.PeriodicDID][]uds.PeriodicDataSink),
		events: Events{
			SessionChanged:   &common.Event{},
			SecurityUnlocked: &common.Event{},
		},
	}
	c.keepaliveInterval = opts.TesterPresentInterval
	return c, nil
}

// Start launches the receive pump. It returns immediately.
func (c *Client) Start() {
	if c.started.Swap(true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.transport.Listen(ctx, c.dispatch); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("receive pump stopped", "error", err)
		}
	}()
}

// Stop cancels the receive pump and the keepalive, and waits for both.
func (c *Client) Stop() {
	if !c.started.Swap(false) {
		return
	}
	c.stopKeepalive()
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// Events returns the client's notification points.
func (c *Client) Events() *Events {
	return &c.events
}

// Session returns the tracked diagnostic session.
func (c *Client) Session() uds.SessionType {
	return c.session.CurrentSession()
}

// dispatch routes one reassembled payload: to the waiting request if any,
// otherwise to the periodic or event sinks.
func (c *Client) dispatch(payload []byte) {
	resp, err := uds.UnmarshalResponse(payload)
	if err != nil {
		c.logger.Warn("undecodable payload", "error", err)
		return
	}

	c.pendingMu.Lock()
	pending := c.pending
	c.pendingMu.Unlock()

	if pending != nil && pending.service == resp.Service {
		pending.responses.Put(resp)
		return
	}

	switch resp.Service {
	case uds.ServiceReadDataByPeriodicIdentifier:
		c.dispatchPeriodic(resp)
	case uds.ServiceResponseOnEvent:
		c.dispatchEvent(resp)
	default:
		c.logger.Debug("unsolicited response dropped", "service", resp.Service.String())
	}
}

// request performs one request/response exchange. Only one request is in
// flight at a time; response pending (NRC 0x78) stretches the wait to P2*.
func (c *Client) request(ctx context.Context, req *uds.Request) (*uds.Response, error) {
	if !c.started.Load() {
		return nil, ErrNotStarted
	}
	c.requestMu.Lock()
	defer c.requestMu.Unlock()

	pending := &pendingRequest{service: req.Service, responses: utils.NewDeque()}
	c.pendingMu.Lock()
	c.pending = pending
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		c.pending = nil
		c.pendingMu.Unlock()
	}()

	if err := c.transport.Send(ctx, req.Marshal()); err != nil {
		return nil, err
	}

	wait := c.timing.P2()
	for {
		item, err := pending.responses.Get(wait)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrTimeout
		}
		resp := item.(*uds.Response)
		if resp.NRC != nil {
			if *resp.NRC == uds.NRCResponsePending {
				wait = c.timing.P2Star()
				continue
			}
			return resp, &NegativeResponseError{Service: resp.Service, NRC: *resp.NRC}
		}
		return resp, nil
	}
}

// send transmits a request without waiting for any answer. Used for
// suppressed-response services.
func (c *Client) send(ctx context.Context, req *uds.Request) error {
	if !c.started.Load() {
		return ErrNotStarted
	}
	c.requestMu.Lock()
	defer c.requestMu.Unlock()
	return c.transport.Send(ctx, req.Marshal())
}

// DiagnosticSessionControl switches the diagnostic session. The keepalive
// ticker runs while a non-default session is active so the server's S3 timer
// never expires.
func (c *Client) DiagnosticSessionControl(ctx context.Context, session uds.SessionType) error {
	resp, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceDiagnosticSessionControl, byte(session), nil))
	if err != nil {
		return err
	}

	// sessionParameterRecord: P2 in ms, P2* in 10 ms units.
	if len(resp.Data) >= 5 {
		c.timing.SetP2(time.Duration(binary.BigEndian.Uint16(resp.Data[1:3])) * time.Millisecond)
		c.timing.SetP2Star(time.Duration(binary.BigEndian.Uint16(resp.Data[3:5])) * 10 * time.Millisecond)
	}

	if err := c.session.EnterSession(session); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return err
		}
	}

	if session == uds.SessionDefault {
		c.stopKeepalive()
	} else {
		c.startKeepalive()
	}

	c.events.SessionChanged.Fire(map[string]interface{}{"session": session})
	c.logger.Info("session changed", "session", session.String())
	return nil
}

// ECUReset requests a reset and resets the tracked session: the server boots
// back into the default session.
func (c *Client) ECUReset(ctx context.Context, reset uds.ResetType) error {
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceECUReset, byte(reset), nil))
	if err != nil {
		return err
	}
	c.stopKeepalive()
	if err := c.session.ECUReset(); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return err
		}
	}
	c.logger.Warn("ecu reset executed", "type", reset.String())
	return nil
}

// TesterPresent sends a keepalive with the suppress-response bit so the
// server does not answer.
func (c *Client) TesterPresent(ctx context.Context) error {
	sub := uds.SuppressResponseMask // zeroSubFunction with response suppressed
	return c.send(ctx, uds.NewSubFunctionRequest(uds.ServiceTesterPresent, sub, nil))
}

// SecurityAccess unlocks a security level with the seed/key handshake. An
// all-zero (or empty) seed means the level is already unlocked and no key is
// sent, per ISO 14229-1.
func (c *Client) SecurityAccess(ctx context.Context, level uds.SecurityLevel, keyFn KeyFunc) error {
	if keyFn == nil {
		return errors.New("client: key function is required")
	}

	resp, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceSecurityAccess, level.RequestSeed(), nil))
	if err != nil {
		return err
	}
	if len(resp.Data) < 1 {
		return ErrUnexpectedResponse
	}
	seed := resp.Data[1:]

	if allZero(seed) {
		c.logger.Info("security level already unlocked", "level", level)
		return nil
	}

	key, err := keyFn(level, seed)
	if err != nil {
		return fmt.Errorf("client: key derivation failed: %w", err)
	}

	if _, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceSecurityAccess, level.SendKey(), key)); err != nil {
		return err
	}

	c.events.SecurityUnlocked.Fire(map[string]interface{}{"level": level})
	c.logger.Info("security access granted", "level", level)
	return nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// ReadDataByIdentifier reads one DID and returns its data record.
func (c *Client) ReadDataByIdentifier(ctx context.Context, did uds.DataIdentifier) ([]byte, error) {
	resp, err := c.request(ctx, uds.NewRequest(uds.ServiceReadDataByIdentifier, did.Bytes()))
	if err != nil {
		return nil, err
	}
	if len(resp.Data) < 2 || uds.DataIdentifier(binary.BigEndian.Uint16(resp.Data[:2])) != did {
		return nil, ErrUnexpectedResponse
	}
	return resp.Data[2:], nil
}

// WriteDataByIdentifier writes one DID.
func (c *Client) WriteDataByIdentifier(ctx context.Context, did uds.DataIdentifier, data []byte) error {
	payload := append(did.Bytes(), data...)
	resp, err := c.request(ctx, uds.NewRequest(uds.ServiceWriteDataByIdentifier, payload))
	if err != nil {
		return err
	}
	if len(resp.Data) < 2 || uds.DataIdentifier(binary.BigEndian.Uint16(resp.Data[:2])) != did {
		return ErrUnexpectedResponse
	}
	c.logger.Info("wrote data identifier", "did", did.String(), "bytes", len(data))
	return nil
}

// ReadDTCInformation performs a raw ReadDTCInformation report and returns the
// payload after the echoed report type.
func (c *Client) ReadDTCInformation(ctx context.Context, report uds.DTCReportType, data []byte) ([]byte, error) {
	resp, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceReadDTCInformation, byte(report), data))
	if err != nil {
		return nil, err
	}
	if len(resp.Data) < 1 {
		return nil, ErrUnexpectedResponse
	}
	return resp.Data[1:], nil
}

// ReadDTCByStatusMask reads all DTCs matching a status mask.
func (c *Client) ReadDTCByStatusMask(ctx context.Context, mask byte) ([]uds.DTC, error) {
	data, err := c.ReadDTCInformation(ctx, uds.ReportDTCByStatusMask, []byte{mask})
	if err != nil {
		return nil, err
	}
	// data[0] is the DTC status availability mask, then 4-byte entries.
	if len(data) < 1 {
		return nil, ErrUnexpectedResponse
	}
	var dtcs []uds.DTC
	for rest := data[1:]; len(rest) >= 4; rest = rest[4:] {
		dtcs = append(dtcs, uds.DTC{
			Code:   uds.DecodeDTC(rest[0], rest[1], rest[2]),
			Status: rest[3],
		})
	}
	return dtcs, nil
}

// ClearDiagnosticInformation clears the DTC group (0xFFFFFF clears all).
func (c *Client) ClearDiagnosticInformation(ctx context.Context, group uint32) error {
	payload := []byte{byte(group >> 16), byte(group >> 8), byte(group)}
	_, err := c.request(ctx, uds.NewRequest(uds.ServiceClearDiagnosticInformation, payload))
	if err != nil {
		return err
	}
	c.logger.Info("cleared diagnostic information", "group", fmt.Sprintf("0x%06X", group))
	return nil
}

// RoutineControl starts, stops or queries a routine and returns the routine
// status record.
func (c *Client) RoutineControl(ctx context.Context, control uds.RoutineControlType, routineID uint16, params []byte) ([]byte, error) {
	payload := make([]byte, 0, 2+len(params))
	payload = append(payload, byte(routineID>>8), byte(routineID))
	payload = append(payload, params...)

	resp, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceRoutineControl, byte(control), payload))
	if err != nil {
		return nil, err
	}
	if len(resp.Data) < 3 {
		return nil, ErrUnexpectedResponse
	}
	return resp.Data[3:], nil
}

// CommunicationControl enables or disables message transmission on the server.
func (c *Client) CommunicationControl(ctx context.Context, control uds.CommunicationControlType, communicationType byte) error {
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceCommunicationControl, byte(control), []byte{communicationType}))
	return err
}

// ControlDTCSetting toggles DTC updating on the server.
func (c *Client) ControlDTCSetting(ctx context.Context, setting uds.DTCSettingType) error {
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceControlDTCSetting, byte(setting), nil))
	return err
}

// LinkControlVerifyFixedBaudRate verifies a fixed baud rate transition.
func (c *Client) LinkControlVerifyFixedBaudRate(ctx context.Context, rate uds.BaudRate) error {
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceLinkControl,
		byte(uds.LinkControlVerifyModeTransitionWithFixedParameter), []byte{byte(rate)}))
	return err
}

// LinkControlTransition commits a previously verified baud rate transition.
func (c *Client) LinkControlTransition(ctx context.Context) error {
	_, err := c.request(ctx, uds.NewSubFunctionRequest(uds.ServiceLinkControl,
		byte(uds.LinkControlTransitionMode), nil))
	return err
}

// ---------------------------------------------------------------------------
// Tester present keepalive
// ---------------------------------------------------------------------------

func (c *Client) startKeepalive() {
	c.keepaliveMu.Lock()
	defer c.keepaliveMu.Unlock()
	if c.keepaliveCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.keepaliveCancel = cancel
	c.wg.Add(1)
	go c.keepaliveLoop(ctx)
}

func (c *Client) stopKeepalive() {
	c.keepaliveMu.Lock()
	defer c.keepaliveMu.Unlock()
	if c.keepaliveCancel != nil {
		c.keepaliveCancel()
		c.keepaliveCancel = nil
	}
}

func (c *Client) keepaliveLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.TesterPresent(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("tester present failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
