package ctp

import (
	"encoding/json"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// eventEnvelope is the frame the front bridge publishes for every callback
// of the vendor API. The payload block is decoded by kind.
type eventEnvelope struct {
	Type      string          `json:"type"`
	Kind      string          `json:"kind,omitempty"`
	RequestID uint64          `json:"requestId,omitempty"`
	IsLast    bool            `json:"isLast,omitempty"`
	Reason    int             `json:"reason,omitempty"`
	Error     *RspError       `json:"error,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type RspAuthenticate struct {
	BrokerID string `json:"brokerId"`
	UserID   string `json:"userId"`
	AppID    string `json:"appId"`
}

type RspUserLogin struct {
	TradingDay  string `json:"tradingDay"`
	LoginTime   string `json:"loginTime"`
	BrokerID    string `json:"brokerId"`
	UserID      string `json:"userId"`
	FrontID     int    `json:"frontId"`
	SessionID   int    `json:"sessionId"`
	MaxOrderRef string `json:"maxOrderRef"`
}

type RspUserLogout struct {
	BrokerID string `json:"brokerId"`
	UserID   string `json:"userId"`
}

type RspSettlementConfirm struct {
	ConfirmDate string `json:"confirmDate"`
	ConfirmTime string `json:"confirmTime"`
}

type InstrumentRecord struct {
	InstrumentID   string  `json:"instrumentId"`
	ExchangeID     string  `json:"exchangeId"`
	InstrumentName string  `json:"instrumentName"`
	ProductID      string  `json:"productId"`
	VolumeMultiple int     `json:"volumeMultiple"`
	PriceTick      float64 `json:"priceTick"`
	ExpireDate     string  `json:"expireDate"`
}

type TradingAccountRecord struct {
	AccountID      string  `json:"accountId"`
	Balance        float64 `json:"balance"`
	Available      float64 `json:"available"`
	FrozenCash     float64 `json:"frozenCash"`
	CurrMargin     float64 `json:"currMargin"`
	CloseProfit    float64 `json:"closeProfit"`
	PositionProfit float64 `json:"positionProfit"`
}

type InvestorPositionRecord struct {
	InstrumentID  string  `json:"instrumentId"`
	Direction     string  `json:"direction"`
	Position      int     `json:"position"`
	TodayPosition int     `json:"todayPosition"`
	YdPosition    int     `json:"ydPosition"`
	PositionCost  float64 `json:"positionCost"`
}

// OrderReturn is the unsolicited order update. The status field carries the
// counterparty's single-character wire code.
type OrderReturn struct {
	InstrumentID        string  `json:"instrumentId"`
	ExchangeID          string  `json:"exchangeId"`
	OrderRef            string  `json:"orderRef"`
	OrderSysID          string  `json:"orderSysId"`
	Direction           string  `json:"direction"`
	OffsetFlag          string  `json:"offsetFlag"`
	LimitPrice          float64 `json:"limitPrice"`
	VolumeTotalOriginal int     `json:"volumeTotalOriginal"`
	VolumeTraded        int     `json:"volumeTraded"`
	OrderStatus         string  `json:"orderStatus"`
	StatusMsg           string  `json:"statusMsg"`
	FrontID             int     `json:"frontId"`
	SessionID           int     `json:"sessionId"`
	TradingDay          string  `json:"tradingDay"`
	InsertTime          string  `json:"insertTime"`
}

type TradeReturn struct {
	InstrumentID string  `json:"instrumentId"`
	ExchangeID   string  `json:"exchangeId"`
	OrderRef     string  `json:"orderRef"`
	OrderSysID   string  `json:"orderSysId"`
	TradeID      string  `json:"tradeId"`
	Direction    string  `json:"direction"`
	Price        float64 `json:"price"`
	Volume       int     `json:"volume"`
	TradeDate    string  `json:"tradeDate"`
	TradeTime    string  `json:"tradeTime"`
}

// InputOrderRecord echoes the rejected insert on an error response or an
// error return.
type InputOrderRecord struct {
	InstrumentID        string  `json:"instrumentId"`
	ExchangeID          string  `json:"exchangeId"`
	OrderRef            string  `json:"orderRef"`
	LimitPrice          float64 `json:"limitPrice"`
	VolumeTotalOriginal int     `json:"volumeTotalOriginal"`
}

type OrderActionRecord struct {
	InstrumentID string `json:"instrumentId"`
	ExchangeID   string `json:"exchangeId"`
	OrderRef     string `json:"orderRef"`
	FrontID      int    `json:"frontId"`
	SessionID    int    `json:"sessionId"`
	OrderSysID   string `json:"orderSysId"`
}

type SpecificInstrument struct {
	InstrumentID string `json:"instrumentId"`
}

type DepthMarketData struct {
	InstrumentID   string  `json:"instrumentId"`
	ExchangeID     string  `json:"exchangeId"`
	LastPrice      float64 `json:"lastPrice"`
	Volume         int     `json:"volume"`
	OpenInterest   float64 `json:"openInterest"`
	BidPrice1      float64 `json:"bidPrice1"`
	BidVolume1     int     `json:"bidVolume1"`
	AskPrice1      float64 `json:"askPrice1"`
	AskVolume1     int     `json:"askVolume1"`
	HighestPrice   float64 `json:"highestPrice"`
	LowestPrice    float64 `json:"lowestPrice"`
	OpenPrice      float64 `json:"openPrice"`
	PreClosePrice  float64 `json:"preClosePrice"`
	UpdateTime     string  `json:"updateTime"`
	UpdateMillisec int     `json:"updateMillisec"`
	TradingDay     string  `json:"tradingDay"`
}

func parseOrderRef(ref string) (uint64, error) {
	value, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, "fail parse orderRef "+ref)
	}
	return value, nil
}

func decodeEvent(msg []byte) (Event, error) {
	var env eventEnvelope
	if err := jsoniter.Unmarshal(msg, &env); err != nil {
		return Event{}, errors.WithMessage(err, "fail parse event envelope")
	}
	evType, err := eventTypeStrToType(env.Type)
	if err != nil {
		return Event{}, err
	}

	ev := Event{Type: evType, Reason: env.Reason}
	switch evType {
	case EventResponse:
		kind, err := requestKindStrToType(env.Kind)
		if err != nil {
			return Event{}, err
		}
		record, err := decodeResponseRecord(kind, env.Payload)
		if err != nil {
			return Event{}, err
		}
		ev.Response = &Response{
			Kind:      kind,
			RequestID: env.RequestID,
			IsLast:    env.IsLast,
			Error:     env.Error,
			Record:    record,
		}
	case EventReturn:
		kind, err := returnKindStrToType(env.Kind)
		if err != nil {
			return Event{}, err
		}
		record, err := decodeReturnRecord(kind, env.Payload)
		if err != nil {
			return Event{}, err
		}
		ev.Return = &Return{Kind: kind, Error: env.Error, Record: record}
	}
	return ev, nil
}

func decodeResponseRecord(kind requestKind, raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var record interface{}
	switch kind {
	case reqAuthenticate:
		record = &RspAuthenticate{}
	case reqUserLogin:
		record = &RspUserLogin{}
	case reqUserLogout:
		record = &RspUserLogout{}
	case reqSettlementConfirm:
		record = &RspSettlementConfirm{}
	case reqOrderInsert:
		record = &InputOrderRecord{}
	case reqOrderAction:
		record = &OrderActionRecord{}
	case reqQryInstrument:
		record = &InstrumentRecord{}
	case reqQryTradingAccount:
		record = &TradingAccountRecord{}
	case reqQryInvestorPosition:
		record = &InvestorPositionRecord{}
	case reqSubMarketData, reqUnSubMarketData:
		record = &SpecificInstrument{}
	default:
		return nil, errors.New("no record decoder for response kind " + kind.String())
	}
	if err := jsoniter.Unmarshal(raw, record); err != nil {
		return nil, errors.WithMessage(err, "fail parse "+kind.String()+" record")
	}
	return record, nil
}

func decodeReturnRecord(kind returnKind, raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty payload for return kind " + kind.String())
	}
	var record interface{}
	switch kind {
	case rtnOrder:
		record = &OrderReturn{}
	case rtnTrade:
		record = &TradeReturn{}
	case rtnDepthMarketData:
		record = &DepthMarketData{}
	case rtnErrOrderInsert:
		record = &InputOrderRecord{}
	case rtnErrOrderAction:
		record = &OrderActionRecord{}
	default:
		return nil, errors.New("no record decoder for return kind " + kind.String())
	}
	if err := jsoniter.Unmarshal(raw, record); err != nil {
		return nil, errors.WithMessage(err, "fail parse "+kind.String()+" record")
	}
	return record, nil
}
