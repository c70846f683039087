package ctp

import "fmt"

// Request is one outgoing message handed to a front connection. The payload
// is the kind-specific field block; the request identifier is allocated by
// the correlation table before the send.
type Request struct {
	Kind      requestKind
	RequestID uint64
	Payload   interface{}
}

type requestEnvelope struct {
	Kind      string      `json:"kind"`
	RequestID uint64      `json:"requestId"`
	Payload   interface{} `json:"payload,omitempty"`
}

type reqAuthenticateField struct {
	BrokerID string `json:"brokerId"`
	UserID   string `json:"userId"`
	AppID    string `json:"appId"`
	AuthCode string `json:"authCode"`
}

type reqUserLoginField struct {
	BrokerID string `json:"brokerId"`
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type reqUserLogoutField struct {
	BrokerID string `json:"brokerId"`
	UserID   string `json:"userId"`
}

type reqSettlementConfirmField struct {
	BrokerID   string `json:"brokerId"`
	InvestorID string `json:"investorId"`
}

type inputOrderField struct {
	BrokerID            string  `json:"brokerId"`
	InvestorID          string  `json:"investorId"`
	InstrumentID        string  `json:"instrumentId"`
	ExchangeID          string  `json:"exchangeId"`
	OrderRef            string  `json:"orderRef"`
	Direction           string  `json:"direction"`
	OffsetFlag          string  `json:"offsetFlag"`
	HedgeFlag           string  `json:"hedgeFlag"`
	OrderPriceType      string  `json:"orderPriceType"`
	LimitPrice          float64 `json:"limitPrice"`
	StopPrice           float64 `json:"stopPrice,omitempty"`
	VolumeTotalOriginal int     `json:"volumeTotalOriginal"`
	MinVolume           int     `json:"minVolume"`
	TimeCondition       string  `json:"timeCondition"`
	VolumeCondition     string  `json:"volumeCondition"`
	ContingentCondition string  `json:"contingentCondition"`
	ForceCloseReason    string  `json:"forceCloseReason"`
	IsAutoSuspend       int     `json:"isAutoSuspend"`
}

type inputOrderActionField struct {
	BrokerID     string  `json:"brokerId"`
	InvestorID   string  `json:"investorId"`
	InstrumentID string  `json:"instrumentId,omitempty"`
	ExchangeID   string  `json:"exchangeId"`
	OrderRef     string  `json:"orderRef,omitempty"`
	FrontID      int     `json:"frontId,omitempty"`
	SessionID    int     `json:"sessionId,omitempty"`
	OrderSysID   string  `json:"orderSysId,omitempty"`
	ActionFlag   string  `json:"actionFlag"`
	LimitPrice   float64 `json:"limitPrice,omitempty"`
	VolumeChange int     `json:"volumeChange,omitempty"`
}

type qryInstrumentField struct {
	InstrumentID string `json:"instrumentId,omitempty"`
	ExchangeID   string `json:"exchangeId,omitempty"`
}

type qryTradingAccountField struct {
	BrokerID   string `json:"brokerId"`
	InvestorID string `json:"investorId"`
}

type qryInvestorPositionField struct {
	BrokerID     string `json:"brokerId"`
	InvestorID   string `json:"investorId"`
	InstrumentID string `json:"instrumentId,omitempty"`
}

type subMarketDataField struct {
	Instruments []string `json:"instruments"`
}

// The order reference travels as a 12-digit zero-padded decimal, the format
// the counterparty expects in the order ref field.
func formatOrderRef(ref uint64) string {
	return fmt.Sprintf("%012d", ref)
}

// RequestOrderInsert describes one order to submit. Every order variant is a
// combination of price type, time condition, volume condition and contingent
// condition over this single shape; use the preset constructors below for
// the common ones.
type RequestOrderInsert struct {
	InstrumentID        string
	ExchangeID          string
	Direction           Direction
	Offset              OffsetFlag
	PriceType           OrderPriceType
	Price               float64
	StopPrice           float64
	Volume              int
	TimeCondition       TimeCondition
	VolumeCondition     VolumeCondition
	ContingentCondition ContingentCondition
}

// NewLimitOrder rests at the given price until traded or canceled.
func NewLimitOrder(instrumentID, exchangeID string, direction Direction, offset OffsetFlag, price float64, volume int) *RequestOrderInsert {
	return &RequestOrderInsert{
		InstrumentID: instrumentID,
		ExchangeID:   exchangeID,
		Direction:    direction,
		Offset:       offset,
		PriceType:    OrderPriceLimit,
		Price:        price,
		Volume:       volume,
	}
}

// NewMarketOrder trades at any price. The price field must stay zero.
func NewMarketOrder(instrumentID, exchangeID string, direction Direction, offset OffsetFlag, volume int) *RequestOrderInsert {
	return &RequestOrderInsert{
		InstrumentID: instrumentID,
		ExchangeID:   exchangeID,
		Direction:    direction,
		Offset:       offset,
		PriceType:    OrderPriceAny,
		Volume:       volume,
	}
}

// NewFOKOrder trades the complete volume immediately or cancels.
func NewFOKOrder(instrumentID, exchangeID string, direction Direction, offset OffsetFlag, price float64, volume int) *RequestOrderInsert {
	return &RequestOrderInsert{
		InstrumentID:    instrumentID,
		ExchangeID:      exchangeID,
		Direction:       direction,
		Offset:          offset,
		PriceType:       OrderPriceLimit,
		Price:           price,
		Volume:          volume,
		TimeCondition:   TimeConditionIOC,
		VolumeCondition: VolumeConditionComplete,
	}
}

// NewFAKOrder trades whatever volume is immediately available and cancels
// the remainder.
func NewFAKOrder(instrumentID, exchangeID string, direction Direction, offset OffsetFlag, price float64, volume int) *RequestOrderInsert {
	return &RequestOrderInsert{
		InstrumentID:  instrumentID,
		ExchangeID:    exchangeID,
		Direction:     direction,
		Offset:        offset,
		PriceType:     OrderPriceLimit,
		Price:         price,
		Volume:        volume,
		TimeCondition: TimeConditionIOC,
	}
}

// NewStopOrder becomes a limit order once the stop price is touched.
func NewStopOrder(instrumentID, exchangeID string, direction Direction, offset OffsetFlag, price, stopPrice float64, volume int) *RequestOrderInsert {
	return &RequestOrderInsert{
		InstrumentID:        instrumentID,
		ExchangeID:          exchangeID,
		Direction:           direction,
		Offset:              offset,
		PriceType:           OrderPriceLimit,
		Price:               price,
		StopPrice:           stopPrice,
		Volume:              volume,
		ContingentCondition: ContingentTouch,
	}
}

func (r *RequestOrderInsert) payload(brokerID, investorID string, orderRef uint64) inputOrderField {
	return inputOrderField{
		BrokerID:            brokerID,
		InvestorID:          investorID,
		InstrumentID:        r.InstrumentID,
		ExchangeID:          r.ExchangeID,
		OrderRef:            formatOrderRef(orderRef),
		Direction:           r.Direction.wire(),
		OffsetFlag:          r.Offset.wire(),
		HedgeFlag:           "1",
		OrderPriceType:      r.PriceType.wire(),
		LimitPrice:          r.Price,
		StopPrice:           r.StopPrice,
		VolumeTotalOriginal: r.Volume,
		MinVolume:           1,
		TimeCondition:       r.TimeCondition.wire(),
		VolumeCondition:     r.VolumeCondition.wire(),
		ContingentCondition: r.ContingentCondition.wire(),
		ForceCloseReason:    "0",
	}
}
