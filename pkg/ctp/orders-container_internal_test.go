package ctp

import (
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestOrdersContainerRefAllocation(t *testing.T) {
	t.Run("refs are strictly increasing", func(t *testing.T) {
		container := newOrdersContainer()
		assert.Equal(t, container.nextOrderRef(), uint64(1))
		assert.Equal(t, container.nextOrderRef(), uint64(2))
		assert.Equal(t, container.nextOrderRef(), uint64(3))
	})

	t.Run("seed raises the allocator", func(t *testing.T) {
		container := newOrdersContainer()
		container.seed(41)
		assert.Equal(t, container.nextOrderRef(), uint64(42))
	})

	t.Run("seed never lowers the allocator", func(t *testing.T) {
		container := newOrdersContainer()
		container.seed(100)
		container.seed(5)
		assert.Equal(t, container.nextOrderRef(), uint64(101))
	})
}

func TestOrdersContainerFlow(t *testing.T) {
	makeOrder := func(ref uint64) *LocalOrder {
		return &LocalOrder{
			OrderRef:     ref,
			InstrumentID: "ES2503",
			ExchangeID:   "CFFEX",
			Direction:    DirectionBuy,
			Price:        5000.0,
			Volume:       2,
			Status:       OrderStatusPendingSubmit,
		}
	}

	t.Run("insert and get", func(t *testing.T) {
		container := newOrdersContainer()
		container.insert(makeOrder(1))

		order, ok := container.get(1)
		assert.Check(t, ok, "order exists")
		assert.Equal(t, order.InstrumentID, "ES2503")

		_, ok = container.get(2)
		assert.Check(t, !ok, "unknown ref")
	})

	t.Run("first update indexes the orderSysId", func(t *testing.T) {
		container := newOrdersContainer()
		container.insert(makeOrder(1))

		order, changed, known := container.applyUpdate(1, "100001", OrderStatusAccepted, 0, "accepted")
		assert.Check(t, known, "ref known")
		assert.Check(t, changed, "state changed")
		assert.Equal(t, order.Status, OrderStatusAccepted)

		bySys, ok := container.getBySysID("CFFEX", "100001")
		assert.Check(t, ok, "sysId indexed")
		assert.Equal(t, bySys.OrderRef, uint64(1))
	})

	t.Run("identical update is a no-op", func(t *testing.T) {
		container := newOrdersContainer()
		container.insert(makeOrder(1))

		container.applyUpdate(1, "100001", OrderStatusAccepted, 0, "accepted")
		_, changed, known := container.applyUpdate(1, "100001", OrderStatusAccepted, 0, "accepted")
		assert.Check(t, known, "ref known")
		assert.Check(t, !changed, "duplicate must not change state")
	})

	t.Run("terminal status never regresses", func(t *testing.T) {
		container := newOrdersContainer()
		container.insert(makeOrder(1))

		container.applyUpdate(1, "100001", OrderStatusAllTraded, 2, "")
		order, changed, known := container.applyUpdate(1, "100001", OrderStatusPartiallyTraded, 1, "")
		assert.Check(t, known, "ref known")
		assert.Check(t, !changed, "no regress from terminal")
		assert.Equal(t, order.Status, OrderStatusAllTraded)
		assert.Equal(t, order.VolumeTraded, 2)
	})

	t.Run("unknown ref reported", func(t *testing.T) {
		container := newOrdersContainer()
		_, _, known := container.applyUpdate(7, "100007", OrderStatusAccepted, 0, "")
		assert.Check(t, !known, "unknown ref")
	})

	t.Run("mark rejected keeps the order", func(t *testing.T) {
		container := newOrdersContainer()
		container.insert(makeOrder(1))

		order, known := container.markRejected(1, "insufficient margin")
		assert.Check(t, known, "ref known")
		assert.Equal(t, order.Status, OrderStatusRejected)
		assert.Equal(t, order.StatusMsg, "insufficient margin")

		kept, ok := container.get(1)
		assert.Check(t, ok, "rejected order retained")
		assert.Equal(t, kept.Status, OrderStatusRejected)
	})

	t.Run("mark rejected leaves terminal untouched", func(t *testing.T) {
		container := newOrdersContainer()
		container.insert(makeOrder(1))
		container.applyUpdate(1, "100001", OrderStatusAllTraded, 2, "")

		order, known := container.markRejected(1, "late reject")
		assert.Check(t, known, "ref known")
		assert.Equal(t, order.Status, OrderStatusAllTraded)
	})

	t.Run("snapshot returns copies", func(t *testing.T) {
		container := newOrdersContainer()
		container.insert(makeOrder(1))
		container.insert(makeOrder(2))

		orders := container.snapshot()
		assert.Equal(t, len(orders), 2)
		orders[0].Status = OrderStatusCanceled

		stored, _ := container.get(orders[0].OrderRef)
		assert.Equal(t, stored.Status, OrderStatusPendingSubmit, "container state untouched")
	})
}

func TestOrdersContainerEviction(t *testing.T) {
	container := newOrdersContainer()

	resting := &LocalOrder{OrderRef: 1, ExchangeID: "CFFEX", Status: OrderStatusAccepted, UpdatedAt: time.Now().Add(-time.Hour)}
	done := &LocalOrder{OrderRef: 2, ExchangeID: "CFFEX", OrderSysID: "100002", Status: OrderStatusAllTraded, UpdatedAt: time.Now().Add(-time.Hour)}
	fresh := &LocalOrder{OrderRef: 3, ExchangeID: "CFFEX", Status: OrderStatusCanceled, UpdatedAt: time.Now()}
	container.insert(resting)
	container.insert(done)
	container.bySysID[sysKey("CFFEX", "100002")] = 2
	container.insert(fresh)

	evicted := container.evictTerminalBefore(time.Now().Add(-time.Minute))
	assert.Equal(t, evicted, 1, "only stale terminal orders leave")

	_, ok := container.get(1)
	assert.Check(t, ok, "resting order stays")
	_, ok = container.get(2)
	assert.Check(t, !ok, "stale terminal order evicted")
	_, ok = container.getBySysID("CFFEX", "100002")
	assert.Check(t, !ok, "sysId index cleaned")
	_, ok = container.get(3)
	assert.Check(t, ok, "fresh terminal order stays")
}
