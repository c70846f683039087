package ctp

import (
	"bytes"
	"errors"
	"strconv"
)

type OrderStatus uint8

const (
	OrderStatusPendingSubmit OrderStatus = iota
	OrderStatusAccepted
	OrderStatusPartiallyTraded
	OrderStatusAllTraded
	OrderStatusCanceled
	OrderStatusRejected
	OrderStatusNotTouched
	OrderStatusTouched

	orderStatusPendingSubmitStr   = "pendingSubmit"
	orderStatusAcceptedStr        = "accepted"
	orderStatusPartiallyTradedStr = "partiallyTraded"
	orderStatusAllTradedStr       = "allTraded"
	orderStatusCanceledStr        = "canceled"
	orderStatusRejectedStr        = "rejected"
	orderStatusNotTouchedStr      = "notTouched"
	orderStatusTouchedStr         = "touched"
)

var (
	orderStatusPendingSubmitBytes   = []byte(`"pendingSubmit"`)
	orderStatusAcceptedBytes        = []byte(`"accepted"`)
	orderStatusPartiallyTradedBytes = []byte(`"partiallyTraded"`)
	orderStatusAllTradedBytes       = []byte(`"allTraded"`)
	orderStatusCanceledBytes        = []byte(`"canceled"`)
	orderStatusRejectedBytes        = []byte(`"rejected"`)
	orderStatusNotTouchedBytes      = []byte(`"notTouched"`)
	orderStatusTouchedBytes         = []byte(`"touched"`)
)

func (os OrderStatus) String() string {
	switch os {
	case OrderStatusPendingSubmit:
		return orderStatusPendingSubmitStr
	case OrderStatusAccepted:
		return orderStatusAcceptedStr
	case OrderStatusPartiallyTraded:
		return orderStatusPartiallyTradedStr
	case OrderStatusAllTraded:
		return orderStatusAllTradedStr
	case OrderStatusCanceled:
		return orderStatusCanceledStr
	case OrderStatusRejected:
		return orderStatusRejectedStr
	case OrderStatusNotTouched:
		return orderStatusNotTouchedStr
	case OrderStatusTouched:
		return orderStatusTouchedStr
	}
	panic("invalid order status string conversion" + strconv.Itoa(int(os)))
}

func (os OrderStatus) MarshalJSON() ([]byte, error) {
	switch os {
	case OrderStatusPendingSubmit:
		return orderStatusPendingSubmitBytes, nil
	case OrderStatusAccepted:
		return orderStatusAcceptedBytes, nil
	case OrderStatusPartiallyTraded:
		return orderStatusPartiallyTradedBytes, nil
	case OrderStatusAllTraded:
		return orderStatusAllTradedBytes, nil
	case OrderStatusCanceled:
		return orderStatusCanceledBytes, nil
	case OrderStatusRejected:
		return orderStatusRejectedBytes, nil
	case OrderStatusNotTouched:
		return orderStatusNotTouchedBytes, nil
	case OrderStatusTouched:
		return orderStatusTouchedBytes, nil
	}
	return nil, errors.New("invalid order status json conversion: " + strconv.Itoa(int(os)))
}

func (os *OrderStatus) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, orderStatusPendingSubmitBytes) {
		*os = OrderStatusPendingSubmit
		return nil
	}
	if bytes.Equal(data, orderStatusAcceptedBytes) {
		*os = OrderStatusAccepted
		return nil
	}
	if bytes.Equal(data, orderStatusPartiallyTradedBytes) {
		*os = OrderStatusPartiallyTraded
		return nil
	}
	if bytes.Equal(data, orderStatusAllTradedBytes) {
		*os = OrderStatusAllTraded
		return nil
	}
	if bytes.Equal(data, orderStatusCanceledBytes) {
		*os = OrderStatusCanceled
		return nil
	}
	if bytes.Equal(data, orderStatusRejectedBytes) {
		*os = OrderStatusRejected
		return nil
	}
	if bytes.Equal(data, orderStatusNotTouchedBytes) {
		*os = OrderStatusNotTouched
		return nil
	}
	if bytes.Equal(data, orderStatusTouchedBytes) {
		*os = OrderStatusTouched
		return nil
	}
	return errors.New("unsupported order status: " + string(data))
}

func OrderStatusStrToType(value string) (OrderStatus, error) {
	switch value {
	case orderStatusPendingSubmitStr:
		return OrderStatusPendingSubmit, nil
	case orderStatusAcceptedStr:
		return OrderStatusAccepted, nil
	case orderStatusPartiallyTradedStr:
		return OrderStatusPartiallyTraded, nil
	case orderStatusAllTradedStr:
		return OrderStatusAllTraded, nil
	case orderStatusCanceledStr:
		return OrderStatusCanceled, nil
	case orderStatusRejectedStr:
		return OrderStatusRejected, nil
	case orderStatusNotTouchedStr:
		return OrderStatusNotTouched, nil
	case orderStatusTouchedStr:
		return OrderStatusTouched, nil
	}
	return 0, errors.New("unsupported order status: " + value)
}

// isTerminal reports whether no further status transitions are possible.
func (os OrderStatus) isTerminal() bool {
	return os == OrderStatusAllTraded || os == OrderStatusCanceled || os == OrderStatusRejected
}

// Wire codes used by the trading front for the order status field.
const (
	wireStatusAllTraded             = "0"
	wireStatusPartTradedQueueing    = "1"
	wireStatusPartTradedNotQueueing = "2"
	wireStatusNoTradeQueueing       = "3"
	wireStatusNoTradeNotQueueing    = "4"
	wireStatusCanceled              = "5"
	wireStatusUnknown               = "a"
	wireStatusNotTouched            = "b"
	wireStatusTouched               = "c"
)

func orderStatusFromWire(code string) (OrderStatus, error) {
	switch code {
	case wireStatusAllTraded:
		return OrderStatusAllTraded, nil
	case wireStatusPartTradedQueueing, wireStatusPartTradedNotQueueing:
		return OrderStatusPartiallyTraded, nil
	case wireStatusNoTradeQueueing, wireStatusNoTradeNotQueueing:
		return OrderStatusAccepted, nil
	case wireStatusCanceled:
		return OrderStatusCanceled, nil
	case wireStatusUnknown:
		return OrderStatusPendingSubmit, nil
	case wireStatusNotTouched:
		return OrderStatusNotTouched, nil
	case wireStatusTouched:
		return OrderStatusTouched, nil
	}
	return 0, errors.New("unsupported wire order status: " + code)
}
