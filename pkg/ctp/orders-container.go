package ctp

import (
	"sync"
	"time"
)

// ordersContainer tracks every locally known order, keyed by order ref and,
// once learned, by the exchange-assigned orderSysId. It also owns the order
// ref allocator: refs are strictly increasing within the gateway lifetime
// and never reused, because the counterparty addresses order actions by
// (frontId, sessionId, orderRef).
type ordersContainer struct {
	mx      sync.Mutex
	nextRef uint64
	byRef   map[uint64]*LocalOrder
	bySysID map[string]uint64
}

func newOrdersContainer() *ordersContainer {
	return &ordersContainer{
		byRef:   make(map[uint64]*LocalOrder),
		bySysID: make(map[string]uint64),
	}
}

func sysKey(exchangeID, orderSysID string) string {
	return exchangeID + "." + orderSysID
}

func (con *ordersContainer) nextOrderRef() uint64 {
	con.mx.Lock()
	defer con.mx.Unlock()
	con.nextRef++
	return con.nextRef
}

// seed raises the allocator to the counterparty-reported maximum, avoiding
// collisions with orders placed by a prior session incarnation. It never
// lowers the counter.
func (con *ordersContainer) seed(maxRef uint64) {
	con.mx.Lock()
	if maxRef > con.nextRef {
		con.nextRef = maxRef
	}
	con.mx.Unlock()
}

func (con *ordersContainer) insert(order *LocalOrder) {
	cp := *order
	con.mx.Lock()
	con.byRef[cp.OrderRef] = &cp
	con.mx.Unlock()
}

// markRejected transitions the order to rejected. The order is retained so
// callers can inspect why. Terminal orders are left untouched.
func (con *ordersContainer) markRejected(ref uint64, msg string) (LocalOrder, bool) {
	con.mx.Lock()
	defer con.mx.Unlock()
	order, ok := con.byRef[ref]
	if !ok {
		return LocalOrder{}, false
	}
	if order.Status.isTerminal() {
		return *order, true
	}
	order.Status = OrderStatusRejected
	order.StatusMsg = msg
	order.UpdatedAt = time.Now()
	return *order, true
}

// applyUpdate applies one unsolicited order update, matched by order ref.
// The first update carrying an orderSysId records it in the index. Applying
// an identical status and traded volume twice is a no-op, and terminal
// states never regress. The second return reports whether the state
// changed; the third whether the ref was known at all.
func (con *ordersContainer) applyUpdate(ref uint64, orderSysID string, status OrderStatus, volumeTraded int, statusMsg string) (LocalOrder, bool, bool) {
	con.mx.Lock()
	defer con.mx.Unlock()
	order, ok := con.byRef[ref]
	if !ok {
		return LocalOrder{}, false, false
	}
	changed := false
	if order.OrderSysID == "" && orderSysID != "" {
		order.OrderSysID = orderSysID
		con.bySysID[sysKey(order.ExchangeID, orderSysID)] = ref
		changed = true
	}
	if order.Status == status && order.VolumeTraded == volumeTraded {
		return *order, changed, true
	}
	if order.Status.isTerminal() {
		return *order, changed, true
	}
	order.Status = status
	order.VolumeTraded = volumeTraded
	order.StatusMsg = statusMsg
	order.UpdatedAt = time.Now()
	return *order, true, true
}

func (con *ordersContainer) get(ref uint64) (LocalOrder, bool) {
	con.mx.Lock()
	defer con.mx.Unlock()
	order, ok := con.byRef[ref]
	if !ok {
		return LocalOrder{}, false
	}
	return *order, true
}

func (con *ordersContainer) getBySysID(exchangeID, orderSysID string) (LocalOrder, bool) {
	con.mx.Lock()
	defer con.mx.Unlock()
	ref, ok := con.bySysID[sysKey(exchangeID, orderSysID)]
	if !ok {
		return LocalOrder{}, false
	}
	order, ok := con.byRef[ref]
	if !ok {
		return LocalOrder{}, false
	}
	return *order, true
}

func (con *ordersContainer) snapshot() []LocalOrder {
	con.mx.Lock()
	defer con.mx.Unlock()
	result := make([]LocalOrder, 0, len(con.byRef))
	for _, order := range con.byRef {
		result = append(result, *order)
	}
	return result
}

// evictTerminalBefore removes terminal orders last updated before the
// cutoff. This is the only way an order leaves the container.
func (con *ordersContainer) evictTerminalBefore(cutoff time.Time) int {
	con.mx.Lock()
	defer con.mx.Unlock()
	evicted := 0
	for ref, order := range con.byRef {
		if !order.Status.isTerminal() || !order.UpdatedAt.Before(cutoff) {
			continue
		}
		if order.OrderSysID != "" {
			delete(con.bySysID, sysKey(order.ExchangeID, order.OrderSysID))
		}
		delete(con.byRef, ref)
		evicted++
	}
	return evicted
}
