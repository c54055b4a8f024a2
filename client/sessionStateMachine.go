package client

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/younglifestyle/uds4go/uds"
)

var (
	StateDefaultSession     = "DEFAULT"
	StateProgrammingSession = "PROGRAMMING"
	StateExtendedSession    = "EXTENDED"
	StateSafetySession      = "SAFETY"
)

var allSessionStates = []string{
	StateDefaultSession, StateProgrammingSession, StateExtendedSession, StateSafetySession,
}

var sessionStateNames = map[uds.SessionType]string{
	uds.SessionDefault:      StateDefaultSession,
	uds.SessionProgramming:  StateProgrammingSession,
	uds.SessionExtended:     StateExtendedSession,
	uds.SessionSafetySystem: StateSafetySession,
}

// SessionStateMachine tracks which diagnostic session the server currently
// has active. The server falls back to the default session on its own when
// the tester stays silent past S3, which is what the timeoutS3 event models.
type SessionStateMachine struct {
	fsm *fsm.FSM
}

// NewSessionStateMachine Callbacks : enter_DEFAULT、leave_DEFAULT
func NewSessionStateMachine(callbacks fsm.Callbacks) *SessionStateMachine {

	sm := &SessionStateMachine{}

	sm.fsm = fsm.NewFSM(
		StateDefaultSession,
		fsm.Events{
			{Name: "enterDefault", Src: allSessionStates, Dst: StateDefaultSession},
			{Name: "enterProgramming", Src: allSessionStates, Dst: StateProgrammingSession},
			{Name: "enterExtended", Src: allSessionStates, Dst: StateExtendedSession},
			{Name: "enterSafety", Src: allSessionStates, Dst: StateSafetySession},
			{Name: "timeoutS3", Src: []string{StateProgrammingSession, StateExtendedSession, StateSafetySession}, Dst: StateDefaultSession},
			{Name: "ecuReset", Src: allSessionStates, Dst: StateDefaultSession},
		},
		callbacks,
	)

	return sm
}

func (sm *SessionStateMachine) CurrentState() string {
	return sm.fsm.Current()
}

// CurrentSession maps the machine state back to the wire-level session type.
func (sm *SessionStateMachine) CurrentSession() uds.SessionType {
	switch sm.fsm.Current() {
	case StateProgrammingSession:
		return uds.SessionProgramming
	case StateExtendedSession:
		return uds.SessionExtended
	case StateSafetySession:
		return uds.SessionSafetySystem
	default:
		return uds.SessionDefault
	}
}

// EnterSession fires the transition for a confirmed DiagnosticSessionControl.
func (sm *SessionStateMachine) EnterSession(session uds.SessionType) error {
	var event string
	switch session {
	case uds.SessionDefault:
		event = "enterDefault"
	case uds.SessionProgramming:
		event = "enterProgramming"
	case uds.SessionExtended:
		event = "enterExtended"
	case uds.SessionSafetySystem:
		event = "enterSafety"
	default:
		event = "enterDefault"
	}
	return sm.fsm.Event(context.Background(), event)
}

func (sm *SessionStateMachine) TimeoutS3() error {
	return sm.fsm.Event(context.Background(), "timeoutS3")
}

func (sm *SessionStateMachine) ECUReset() error {
	return sm.fsm.Event(context.Background(), "ecuReset")
}
