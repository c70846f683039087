package ctp

import (
	"strconv"

	"github.com/pkg/errors"
)

// RspError carries a business rejection reported by the counterparty:
// a non-zero error code and its message, attached to a response or an
// error-return event.
type RspError struct {
	Code    int    `json:"errorId"`
	Message string `json:"errorMsg"`
}

func (e *RspError) Error() string {
	return "ctp error " + strconv.Itoa(e.Code) + ": " + e.Message
}

var (
	ErrNotConnected      = errors.New("front is not connected")
	ErrNotLoggedIn       = errors.New("session is not logged in")
	ErrConnectionLost    = errors.New("connection to front lost")
	ErrStaleSession      = errors.New("order belongs to a previous session, address it by orderSysId")
	ErrUnknownOrder      = errors.New("order is not known to the registry")
	ErrUnknownOrderSysID = errors.New("orderSysId is not known to the registry")
	ErrBadMarketPrice    = errors.New("any-price order requires a zero price")
	ErrBadVolume         = errors.New("order volume must be positive")
)

// reasonBridgeLost is the synthetic disconnect reason injected when the zmq
// link to the gate bridge drops, as opposed to the front dropping the bridge.
const reasonBridgeLost = 0x0001

// disconnectReason maps the numeric reason codes of the front disconnect
// callback to readable text for logging.
func disconnectReason(code int) string {
	switch code {
	case reasonBridgeLost:
		return "bridge link lost"
	case 0x1001:
		return "network read failed"
	case 0x1002:
		return "network write failed"
	case 0x2001:
		return "heartbeat receive timeout"
	case 0x2002:
		return "heartbeat send failed"
	case 0x2003:
		return "invalid packet received"
	}
	return "unknown (" + strconv.Itoa(code) + ")"
}
