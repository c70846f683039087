package ctp

import "strconv"

type SessionState uint8

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
	StateLoggingIn
	StateLoggedIn

	stateDisconnectedStr   = "disconnected"
	stateConnectingStr     = "connecting"
	stateConnectedStr      = "connected"
	stateAuthenticatingStr = "authenticating"
	stateAuthenticatedStr  = "authenticated"
	stateLoggingInStr      = "loggingIn"
	stateLoggedInStr       = "loggedIn"
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return stateDisconnectedStr
	case StateConnecting:
		return stateConnectingStr
	case StateConnected:
		return stateConnectedStr
	case StateAuthenticating:
		return stateAuthenticatingStr
	case StateAuthenticated:
		return stateAuthenticatedStr
	case StateLoggingIn:
		return stateLoggingInStr
	case StateLoggedIn:
		return stateLoggedInStr
	}
	panic("invalid session state string conversion" + strconv.Itoa(int(s)))
}

// session is one connection incarnation to a front. Identity fields are
// populated only after a successful login and cleared on disconnect;
// authentication is never resumable, every re-entry to connected restarts
// it from scratch. Guarded by the owning gateway's mutex.
type session struct {
	gate       string
	state      SessionState
	frontID    int
	sessionID  int
	tradingDay string
}

func (s *session) onLogin(rsp *RspUserLogin) {
	s.frontID = rsp.FrontID
	s.sessionID = rsp.SessionID
	s.tradingDay = rsp.TradingDay
	s.state = StateLoggedIn
}

func (s *session) clear() {
	s.frontID = 0
	s.sessionID = 0
	s.tradingDay = ""
	s.state = StateDisconnected
}

// matches reports whether the given identity belongs to this incarnation.
func (s *session) matches(frontID, sessionID int) bool {
	return s.state == StateLoggedIn && s.frontID == frontID && s.sessionID == sessionID
}

// SessionInfo is a point-in-time snapshot of the session for callers.
type SessionInfo struct {
	State      SessionState
	FrontID    int
	SessionID  int
	TradingDay string
}
