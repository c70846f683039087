package ctp

// OrderTarget selects one of the two mutually exclusive addressing modes of
// an order action, mirroring the wire protocol. Addressing by order ref is
// valid only while the session that placed the order is still the current
// one; addressing by orderSysId is valid once the registry has learned the
// identifier and survives reconnects. The router never falls back from one
// mode to the other silently.
type OrderTarget interface {
	isOrderTarget()
}

type ByOrderRef struct {
	FrontID      int
	SessionID    int
	OrderRef     uint64
	InstrumentID string
	ExchangeID   string
}

func (ByOrderRef) isOrderTarget() {}

type ByOrderSysID struct {
	OrderSysID string
	ExchangeID string
}

func (ByOrderSysID) isOrderTarget() {}

// TargetByRef builds the order-ref addressing of a local order.
func TargetByRef(order LocalOrder) ByOrderRef {
	return ByOrderRef{
		FrontID:      order.FrontID,
		SessionID:    order.SessionID,
		OrderRef:     order.OrderRef,
		InstrumentID: order.InstrumentID,
		ExchangeID:   order.ExchangeID,
	}
}

// TargetBySysID builds the exchange-identifier addressing of a local order.
func TargetBySysID(order LocalOrder) ByOrderSysID {
	return ByOrderSysID{
		OrderSysID: order.OrderSysID,
		ExchangeID: order.ExchangeID,
	}
}
