package ctp

import "errors"

// The vendor callback surface is one method per message type. Internally it
// is collapsed into this closed event set, delivered on a single channel per
// front so that every event of a session is observed in order.

type EventType uint8

const (
	EventConnected EventType = iota
	EventDisconnected
	EventHeartbeatWarning
	EventResponse
	EventReturn

	eventConnectedStr        = "connected"
	eventDisconnectedStr     = "disconnected"
	eventHeartbeatWarningStr = "heartbeatWarning"
	eventResponseStr         = "response"
	eventReturnStr           = "return"
)

func (et EventType) String() string {
	switch et {
	case EventConnected:
		return eventConnectedStr
	case EventDisconnected:
		return eventDisconnectedStr
	case EventHeartbeatWarning:
		return eventHeartbeatWarningStr
	case EventResponse:
		return eventResponseStr
	case EventReturn:
		return eventReturnStr
	}
	return "unknown"
}

func eventTypeStrToType(value string) (EventType, error) {
	switch value {
	case eventConnectedStr:
		return EventConnected, nil
	case eventDisconnectedStr:
		return EventDisconnected, nil
	case eventHeartbeatWarningStr:
		return EventHeartbeatWarning, nil
	case eventResponseStr:
		return EventResponse, nil
	case eventReturnStr:
		return EventReturn, nil
	}
	return 0, errors.New("unsupported event type: " + value)
}

// Event is one asynchronous occurrence on a front connection. Reason carries
// the disconnect reason code or the heartbeat lapse in seconds; Response and
// Return are set for the corresponding types only.
type Event struct {
	Type     EventType
	Reason   int
	Response *Response
	Return   *Return
}

// Response is a request-triggered record. A response stream delivers zero or
// more records followed by exactly one record flagged IsLast.
type Response struct {
	Kind      requestKind
	RequestID uint64
	IsLast    bool
	Error     *RspError
	Record    interface{}
}

// Return is an unsolicited push message from the counterparty.
type Return struct {
	Kind   returnKind
	Error  *RspError
	Record interface{}
}

type requestKind uint8

const (
	reqAuthenticate requestKind = iota
	reqUserLogin
	reqUserLogout
	reqSettlementConfirm
	reqOrderInsert
	reqOrderAction
	reqQryInstrument
	reqQryTradingAccount
	reqQryInvestorPosition
	reqSubMarketData
	reqUnSubMarketData

	reqAuthenticateStr        = "authenticate"
	reqUserLoginStr           = "userLogin"
	reqUserLogoutStr          = "userLogout"
	reqSettlementConfirmStr   = "settlementConfirm"
	reqOrderInsertStr         = "orderInsert"
	reqOrderActionStr         = "orderAction"
	reqQryInstrumentStr       = "qryInstrument"
	reqQryTradingAccountStr   = "qryTradingAccount"
	reqQryInvestorPositionStr = "qryInvestorPosition"
	reqSubMarketDataStr       = "subMarketData"
	reqUnSubMarketDataStr     = "unSubMarketData"
)

func (k requestKind) String() string {
	switch k {
	case reqAuthenticate:
		return reqAuthenticateStr
	case reqUserLogin:
		return reqUserLoginStr
	case reqUserLogout:
		return reqUserLogoutStr
	case reqSettlementConfirm:
		return reqSettlementConfirmStr
	case reqOrderInsert:
		return reqOrderInsertStr
	case reqOrderAction:
		return reqOrderActionStr
	case reqQryInstrument:
		return reqQryInstrumentStr
	case reqQryTradingAccount:
		return reqQryTradingAccountStr
	case reqQryInvestorPosition:
		return reqQryInvestorPositionStr
	case reqSubMarketData:
		return reqSubMarketDataStr
	case reqUnSubMarketData:
		return reqUnSubMarketDataStr
	}
	return "unknown"
}

func requestKindStrToType(value string) (requestKind, error) {
	switch value {
	case reqAuthenticateStr:
		return reqAuthenticate, nil
	case reqUserLoginStr:
		return reqUserLogin, nil
	case reqUserLogoutStr:
		return reqUserLogout, nil
	case reqSettlementConfirmStr:
		return reqSettlementConfirm, nil
	case reqOrderInsertStr:
		return reqOrderInsert, nil
	case reqOrderActionStr:
		return reqOrderAction, nil
	case reqQryInstrumentStr:
		return reqQryInstrument, nil
	case reqQryTradingAccountStr:
		return reqQryTradingAccount, nil
	case reqQryInvestorPositionStr:
		return reqQryInvestorPosition, nil
	case reqSubMarketDataStr:
		return reqSubMarketData, nil
	case reqUnSubMarketDataStr:
		return reqUnSubMarketData, nil
	}
	return 0, errors.New("unsupported request kind: " + value)
}

type returnKind uint8

const (
	rtnOrder returnKind = iota
	rtnTrade
	rtnDepthMarketData
	rtnErrOrderInsert
	rtnErrOrderAction

	rtnOrderStr           = "order"
	rtnTradeStr           = "trade"
	rtnDepthMarketDataStr = "depthMarketData"
	rtnErrOrderInsertStr  = "errOrderInsert"
	rtnErrOrderActionStr  = "errOrderAction"
)

func (k returnKind) String() string {
	switch k {
	case rtnOrder:
		return rtnOrderStr
	case rtnTrade:
		return rtnTradeStr
	case rtnDepthMarketData:
		return rtnDepthMarketDataStr
	case rtnErrOrderInsert:
		return rtnErrOrderInsertStr
	case rtnErrOrderAction:
		return rtnErrOrderActionStr
	}
	return "unknown"
}

func returnKindStrToType(value string) (returnKind, error) {
	switch value {
	case rtnOrderStr:
		return rtnOrder, nil
	case rtnTradeStr:
		return rtnTrade, nil
	case rtnDepthMarketDataStr:
		return rtnDepthMarketData, nil
	case rtnErrOrderInsertStr:
		return rtnErrOrderInsert, nil
	case rtnErrOrderActionStr:
		return rtnErrOrderAction, nil
	}
	return 0, errors.New("unsupported return kind: " + value)
}

// typeLabel is the metric label for income message counters.
func (ev *Event) typeLabel() string {
	switch ev.Type {
	case EventResponse:
		return ev.Response.Kind.String()
	case EventReturn:
		return ev.Return.Kind.String()
	}
	return ev.Type.String()
}
