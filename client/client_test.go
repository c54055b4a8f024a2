package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younglifestyle/uds4go/uds"
)

func TestClientRequiresBus(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestOperationsBeforeStart(t *testing.T) {
	ecu := newMockECU(t)
	c, err := NewClient(Options{Bus: ecu.bus})
	require.NoError(t, err)

	_, err = c.ReadDataByIdentifier(context.Background(), uds.DIDVIN)
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, c.TesterPresent(context.Background()), ErrNotStarted)
}

func TestDiagnosticSessionControl(t *testing.T) {
	c, ecu := newTestClient(t)

	// sessionParameterRecord: P2 = 0x0032 ms, P2* = 0x01F4 * 10 ms.
	ecu.handle(uds.ServiceDiagnosticSessionControl, func(req []byte) [][]byte {
		return [][]byte{positive(uds.ServiceDiagnosticSessionControl, req[1], 0x00, 0x32, 0x01, 0xF4)}
	})
	ecu.handle(uds.ServiceTesterPresent, func(req []byte) [][]byte {
		return nil // suppressed response
	})

	changed := make(chan uds.SessionType, 1)
	c.Events().SessionChanged.AddCallback(func(data map[string]interface{}) {
		changed <- data["session"].(uds.SessionType)
	})

	require.NoError(t, c.DiagnosticSessionControl(context.Background(), uds.SessionExtended))
	assert.Equal(t, uds.SessionExtended, c.Session())

	select {
	case session := <-changed:
		assert.Equal(t, uds.SessionExtended, session)
	case <-time.After(time.Second):
		t.Fatal("session change callback never fired")
	}

	// The server's timing record must take effect.
	assert.Equal(t, 50*time.Millisecond, c.timing.P2())
	assert.Equal(t, 5*time.Second, c.timing.P2Star())
}

// In a non-default session the client keeps the server awake with suppressed
// TesterPresent requests until the default session returns.
func TestTesterPresentKeepalive(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceDiagnosticSessionControl, func(req []byte) [][]byte {
		return [][]byte{positive(uds.ServiceDiagnosticSessionControl, req[1], 0x00, 0xFA, 0x01, 0xF4)}
	})
	ecu.handle(uds.ServiceTesterPresent, func(req []byte) [][]byte {
		return nil
	})

	require.NoError(t, c.DiagnosticSessionControl(context.Background(), uds.SessionExtended))
	time.Sleep(200 * time.Millisecond)
	assert.Greater(t, ecu.requestCount(uds.ServiceTesterPresent), 1)

	require.NoError(t, c.DiagnosticSessionControl(context.Background(), uds.SessionDefault))
	time.Sleep(60 * time.Millisecond)
	settled := ecu.requestCount(uds.ServiceTesterPresent)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, settled, ecu.requestCount(uds.ServiceTesterPresent))
}

func TestTesterPresentSuppressesResponse(t *testing.T) {
	c, ecu := newTestClient(t)

	require.NoError(t, c.TesterPresent(context.Background()))
	time.Sleep(50 * time.Millisecond)

	ecu.mu.Lock()
	defer ecu.mu.Unlock()
	require.Len(t, ecu.requests, 1)
	assert.Equal(t, []byte{0x3E, 0x80}, ecu.requests[0])
}

func TestNegativeResponse(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceReadDataByIdentifier, func(req []byte) [][]byte {
		return [][]byte{negative(uds.ServiceReadDataByIdentifier, uds.NRCSecurityAccessDenied)}
	})

	_, err := c.ReadDataByIdentifier(context.Background(), uds.DIDVIN)
	var negErr *NegativeResponseError
	require.ErrorAs(t, err, &negErr)
	assert.Equal(t, uds.ServiceReadDataByIdentifier, negErr.Service)
	assert.Equal(t, uds.NRCSecurityAccessDenied, negErr.NRC)
	assert.Contains(t, negErr.Error(), "Security Access Denied")
}

// Response pending stretches the wait to P2* instead of failing at P2.
func TestResponsePending(t *testing.T) {
	c, ecu := newTestClient(t)
	c.timing.SetP2(100 * time.Millisecond)

	ecu.handle(uds.ServiceRoutineControl, func(req []byte) [][]byte {
		return [][]byte{
			negative(uds.ServiceRoutineControl, uds.NRCResponsePending),
			positive(uds.ServiceRoutineControl, req[1], req[2], req[3], 0x01),
		}
	})

	status, err := c.RoutineControl(context.Background(), uds.RoutineStart, 0x0203, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, status)
}

func TestRequestTimeout(t *testing.T) {
	c, ecu := newTestClient(t)
	c.timing.SetP2(100 * time.Millisecond)

	ecu.handle(uds.ServiceECUReset, func(req []byte) [][]byte {
		return nil // never answer
	})

	err := c.ECUReset(context.Background(), uds.ResetHard)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSecurityAccess(t *testing.T) {
	c, ecu := newTestClient(t)

	seed := []byte{0x12, 0x34, 0x56, 0x78}
	ecu.handle(uds.ServiceSecurityAccess, func(req []byte) [][]byte {
		switch req[1] {
		case uds.SecurityLevel(1).RequestSeed():
			return [][]byte{positive(uds.ServiceSecurityAccess, append([]byte{req[1]}, seed...)...)}
		case uds.SecurityLevel(1).SendKey():
			if string(req[2:]) == "\x21\x43\x65\x87" {
				return [][]byte{positive(uds.ServiceSecurityAccess, req[1])}
			}
			return [][]byte{negative(uds.ServiceSecurityAccess, uds.NRCInvalidKey)}
		}
		return [][]byte{negative(uds.ServiceSecurityAccess, uds.NRCSubFunctionNotSupported)}
	})

	unlocked := make(chan struct{}, 1)
	c.Events().SecurityUnlocked.AddCallback(func(map[string]interface{}) {
		unlocked <- struct{}{}
	})

	swapNibbles := func(level uds.SecurityLevel, seed []byte) ([]byte, error) {
		key := make([]byte, len(seed))
		for i, b := range seed {
			key[i] = b>>4 | b<<4
		}
		return key, nil
	}

	require.NoError(t, c.SecurityAccess(context.Background(), 1, swapNibbles))
	select {
	case <-unlocked:
	case <-time.After(time.Second):
		t.Fatal("security unlocked callback never fired")
	}
}

func TestSecurityAccessAlreadyUnlocked(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceSecurityAccess, func(req []byte) [][]byte {
		// A zero seed means the level is already unlocked.
		return [][]byte{positive(uds.ServiceSecurityAccess, req[1], 0x00, 0x00, 0x00, 0x00)}
	})

	called := false
	require.NoError(t, c.SecurityAccess(context.Background(), 1,
		func(level uds.SecurityLevel, seed []byte) ([]byte, error) {
			called = true
			return seed, nil
		}))
	assert.False(t, called, "key function ran for an already unlocked level")
	// Only the seed request went out.
	assert.Equal(t, 1, ecu.requestCount(uds.ServiceSecurityAccess))
}

func TestSecurityAccessRejectedKey(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceSecurityAccess, func(req []byte) [][]byte {
		if req[1] == uds.SecurityLevel(1).RequestSeed() {
			return [][]byte{positive(uds.ServiceSecurityAccess, req[1], 0xAB, 0xCD)}
		}
		return [][]byte{negative(uds.ServiceSecurityAccess, uds.NRCInvalidKey)}
	})

	err := c.SecurityAccess(context.Background(), 1,
		func(level uds.SecurityLevel, seed []byte) ([]byte, error) {
			return []byte{0x00, 0x00}, nil
		})
	var negErr *NegativeResponseError
	require.ErrorAs(t, err, &negErr)
	assert.Equal(t, uds.NRCInvalidKey, negErr.NRC)
}

func TestReadDataByIdentifier(t *testing.T) {
	c, ecu := newTestClient(t)

	vin := "WVWZZZ1JZXW000001"
	ecu.handle(uds.ServiceReadDataByIdentifier, func(req []byte) [][]byte {
		if req[1] == 0xF1 && req[2] == 0x90 {
			return [][]byte{positive(uds.ServiceReadDataByIdentifier, append([]byte{0xF1, 0x90}, vin...)...)}
		}
		return [][]byte{negative(uds.ServiceReadDataByIdentifier, uds.NRCRequestOutOfRange)}
	})

	got, err := c.ReadVIN(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vin, got)
}

// A response echoing the wrong DID must not be handed to the caller.
func TestReadDataByIdentifierEchoMismatch(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceReadDataByIdentifier, func(req []byte) [][]byte {
		return [][]byte{positive(uds.ServiceReadDataByIdentifier, 0xF1, 0x8C, 0x41)}
	})

	_, err := c.ReadDataByIdentifier(context.Background(), uds.DIDVIN)
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestWriteDataByIdentifier(t *testing.T) {
	c, ecu := newTestClient(t)

	var written []byte
	ecu.handle(uds.ServiceWriteDataByIdentifier, func(req []byte) [][]byte {
		written = append([]byte(nil), req[3:]...)
		return [][]byte{positive(uds.ServiceWriteDataByIdentifier, req[1], req[2])}
	})

	require.NoError(t, c.WriteDataByIdentifier(context.Background(), 0x1234, []byte{0xDE, 0xAD}))
	assert.Equal(t, []byte{0xDE, 0xAD}, written)
}

func TestReadDTCByStatusMask(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceReadDTCInformation, func(req []byte) [][]byte {
		if req[1] != byte(uds.ReportDTCByStatusMask) {
			return [][]byte{negative(uds.ServiceReadDTCInformation, uds.NRCSubFunctionNotSupported)}
		}
		return [][]byte{positive(uds.ServiceReadDTCInformation,
			req[1], 0xFF, // availability mask
			0x01, 0x05, 0x00, 0x08,
			0x03, 0x01, 0x00, 0x01,
		)}
	})

	dtcs, err := c.ReadDTCByStatusMask(context.Background(), uds.DTCStatusConfirmedDTC)
	require.NoError(t, err)
	require.Len(t, dtcs, 2)
	assert.Equal(t, "P0105-00", dtcs[0].Code)
	assert.Equal(t, uds.DTCStatusConfirmedDTC, dtcs[0].Status)
	assert.Equal(t, "P0301-00", dtcs[1].Code)
	assert.Equal(t, uds.DTCStatusTestFailed, dtcs[1].Status)
}

func TestClearDiagnosticInformation(t *testing.T) {
	c, ecu := newTestClient(t)

	var group []byte
	ecu.handle(uds.ServiceClearDiagnosticInformation, func(req []byte) [][]byte {
		group = append([]byte(nil), req[1:]...)
		return [][]byte{positive(uds.ServiceClearDiagnosticInformation)}
	})

	require.NoError(t, c.ClearDiagnosticInformation(context.Background(), 0xFFFFFF))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, group)
}

func TestECUResetReturnsToDefaultSession(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceDiagnosticSessionControl, func(req []byte) [][]byte {
		return [][]byte{positive(uds.ServiceDiagnosticSessionControl, req[1], 0x00, 0xFA, 0x01, 0xF4)}
	})
	ecu.handle(uds.ServiceECUReset, func(req []byte) [][]byte {
		return [][]byte{positive(uds.ServiceECUReset, req[1])}
	})
	ecu.handle(uds.ServiceTesterPresent, func(req []byte) [][]byte { return nil })

	require.NoError(t, c.DiagnosticSessionControl(context.Background(), uds.SessionProgramming))
	require.NoError(t, c.ECUReset(context.Background(), uds.ResetHard))
	assert.Equal(t, uds.SessionDefault, c.Session())
}

func TestCommunicationControl(t *testing.T) {
	c, ecu := newTestClient(t)

	ecu.handle(uds.ServiceCommunicationControl, func(req []byte) [][]byte {
		return [][]byte{positive(uds.ServiceCommunicationControl, req[1])}
	})

	require.NoError(t, c.CommunicationControl(context.Background(), uds.CommunicationDisableRxAndTx, 0x01))
}

func TestLinkControlSequence(t *testing.T) {
	c, ecu := newTestClient(t)

	var subs []byte
	ecu.handle(uds.ServiceLinkControl, func(req []byte) [][]byte {
		subs = append(subs, req[1])
		return [][]byte{positive(uds.ServiceLinkControl, req[1])}
	})

	require.NoError(t, c.LinkControlVerifyFixedBaudRate(context.Background(), uds.BaudRate115200))
	require.NoError(t, c.LinkControlTransition(context.Background()))
	assert.Equal(t, []byte{
		byte(uds.LinkControlVerifyModeTransitionWithFixedParameter),
		byte(uds.LinkControlTransitionMode),
	}, subs)
}

func TestStopIsIdempotent(t *testing.T) {
	c, _ := newTestClient(t)
	c.Stop()
	c.Stop()

	err := c.TesterPresent(context.Background())
	assert.True(t, errors.Is(err, ErrNotStarted))
}
