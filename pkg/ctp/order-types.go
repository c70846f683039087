package ctp

import (
	"bytes"
	"errors"
	"strconv"
)

type Direction uint8

const (
	DirectionBuy Direction = iota
	DirectionSell

	directionBuyStr  = "buy"
	directionSellStr = "sell"
)

var (
	directionBuyBytes  = []byte(`"buy"`)
	directionSellBytes = []byte(`"sell"`)
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return directionBuyStr
	case DirectionSell:
		return directionSellStr
	}
	panic("invalid direction string conversion" + strconv.Itoa(int(d)))
}

func (d Direction) MarshalJSON() ([]byte, error) {
	switch d {
	case DirectionBuy:
		return directionBuyBytes, nil
	case DirectionSell:
		return directionSellBytes, nil
	}
	return nil, errors.New("invalid direction json conversion: " + strconv.Itoa(int(d)))
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, directionBuyBytes) {
		*d = DirectionBuy
		return nil
	}
	if bytes.Equal(data, directionSellBytes) {
		*d = DirectionSell
		return nil
	}
	return errors.New("unsupported direction: " + string(data))
}

func DirectionStrToType(value string) (Direction, error) {
	switch value {
	case directionBuyStr:
		return DirectionBuy, nil
	case directionSellStr:
		return DirectionSell, nil
	}
	return 0, errors.New("unsupported direction: " + value)
}

func (d Direction) wire() string {
	if d == DirectionSell {
		return "1"
	}
	return "0"
}

type OffsetFlag uint8

const (
	OffsetOpen OffsetFlag = iota
	OffsetClose
	OffsetForceClose
	OffsetCloseToday
	OffsetCloseYesterday

	offsetOpenStr           = "open"
	offsetCloseStr          = "close"
	offsetForceCloseStr     = "forceClose"
	offsetCloseTodayStr     = "closeToday"
	offsetCloseYesterdayStr = "closeYesterday"
)

var (
	offsetOpenBytes           = []byte(`"open"`)
	offsetCloseBytes          = []byte(`"close"`)
	offsetForceCloseBytes     = []byte(`"forceClose"`)
	offsetCloseTodayBytes     = []byte(`"closeToday"`)
	offsetCloseYesterdayBytes = []byte(`"closeYesterday"`)
)

func (of OffsetFlag) String() string {
	switch of {
	case OffsetOpen:
		return offsetOpenStr
	case OffsetClose:
		return offsetCloseStr
	case OffsetForceClose:
		return offsetForceCloseStr
	case OffsetCloseToday:
		return offsetCloseTodayStr
	case OffsetCloseYesterday:
		return offsetCloseYesterdayStr
	}
	panic("invalid offset flag string conversion" + strconv.Itoa(int(of)))
}

func (of OffsetFlag) MarshalJSON() ([]byte, error) {
	switch of {
	case OffsetOpen:
		return offsetOpenBytes, nil
	case OffsetClose:
		return offsetCloseBytes, nil
	case OffsetForceClose:
		return offsetForceCloseBytes, nil
	case OffsetCloseToday:
		return offsetCloseTodayBytes, nil
	case OffsetCloseYesterday:
		return offsetCloseYesterdayBytes, nil
	}
	return nil, errors.New("invalid offset flag json conversion: " + strconv.Itoa(int(of)))
}

func (of *OffsetFlag) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, offsetOpenBytes) {
		*of = OffsetOpen
		return nil
	}
	if bytes.Equal(data, offsetCloseBytes) {
		*of = OffsetClose
		return nil
	}
	if bytes.Equal(data, offsetForceCloseBytes) {
		*of = OffsetForceClose
		return nil
	}
	if bytes.Equal(data, offsetCloseTodayBytes) {
		*of = OffsetCloseToday
		return nil
	}
	if bytes.Equal(data, offsetCloseYesterdayBytes) {
		*of = OffsetCloseYesterday
		return nil
	}
	return errors.New("unsupported offset flag: " + string(data))
}

func OffsetFlagStrToType(value string) (OffsetFlag, error) {
	switch value {
	case offsetOpenStr:
		return OffsetOpen, nil
	case offsetCloseStr:
		return OffsetClose, nil
	case offsetForceCloseStr:
		return OffsetForceClose, nil
	case offsetCloseTodayStr:
		return OffsetCloseToday, nil
	case offsetCloseYesterdayStr:
		return OffsetCloseYesterday, nil
	}
	return 0, errors.New("unsupported offset flag: " + value)
}

func (of OffsetFlag) wire() string {
	switch of {
	case OffsetClose:
		return "1"
	case OffsetForceClose:
		return "2"
	case OffsetCloseToday:
		return "3"
	case OffsetCloseYesterday:
		return "4"
	}
	return "0"
}

// OrderPriceType selects between a limit price and the any-price (market)
// convention of the trading front. All order variants are parameter presets
// over the same insert path, so there is no dedicated market order type.
type OrderPriceType uint8

const (
	OrderPriceLimit OrderPriceType = iota
	OrderPriceAny
)

func (pt OrderPriceType) String() string {
	if pt == OrderPriceAny {
		return "any"
	}
	return "limit"
}

func (pt OrderPriceType) wire() string {
	if pt == OrderPriceAny {
		return "1"
	}
	return "2"
}

type TimeCondition uint8

const (
	TimeConditionGFD TimeCondition = iota
	TimeConditionIOC
)

func (tc TimeCondition) String() string {
	if tc == TimeConditionIOC {
		return "ioc"
	}
	return "gfd"
}

func (tc TimeCondition) wire() string {
	if tc == TimeConditionIOC {
		return "1"
	}
	return "3"
}

type VolumeCondition uint8

const (
	VolumeConditionAny VolumeCondition = iota
	VolumeConditionComplete
)

func (vc VolumeCondition) String() string {
	if vc == VolumeConditionComplete {
		return "complete"
	}
	return "any"
}

func (vc VolumeCondition) wire() string {
	if vc == VolumeConditionComplete {
		return "3"
	}
	return "1"
}

type ContingentCondition uint8

const (
	ContingentImmediately ContingentCondition = iota
	ContingentTouch
)

func (cc ContingentCondition) String() string {
	if cc == ContingentTouch {
		return "touch"
	}
	return "immediately"
}

func (cc ContingentCondition) wire() string {
	if cc == ContingentTouch {
		return "5"
	}
	return "1"
}

type ActionFlag uint8

const (
	ActionDelete ActionFlag = iota
	ActionModify
)

func (af ActionFlag) String() string {
	if af == ActionModify {
		return "modify"
	}
	return "delete"
}

func (af ActionFlag) wire() string {
	if af == ActionModify {
		return "3"
	}
	return "0"
}
