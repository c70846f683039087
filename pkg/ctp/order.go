package ctp

import "time"

// LocalOrder is the authoritative local view of one order this client has
// submitted. OrderRef is assigned before the network call; OrderSysID is
// assigned by the counterparty and becomes known with the first order
// update that carries it. FrontID and SessionID record the session
// incarnation that placed the order, which the order-action addressing by
// order ref depends on.
type LocalOrder struct {
	OrderRef     uint64
	InstrumentID string
	ExchangeID   string
	Direction    Direction
	Offset       OffsetFlag
	PriceType    OrderPriceType
	Price        float64
	StopPrice    float64
	Volume       int
	VolumeTraded int
	OrderSysID   string
	Status       OrderStatus
	StatusMsg    string
	FrontID      int
	SessionID    int
	InsertedAt   time.Time
	UpdatedAt    time.Time

	requestID uint64
}
