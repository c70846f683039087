package ctp

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"gotest.tools/assert"
)

func TestClusterTraderRouting(t *testing.T) {
	frontA := NewMockFront(zap.NewNop(), true, true)
	gateA := newCtpTrader(zap.NewNop(), frontA, gateConfig{BrokerID: "9999", UserID: "42", InvestorID: "42"})
	frontB := NewMockFront(zap.NewNop(), true, true)
	gateB := newCtpTrader(zap.NewNop(), frontB, gateConfig{BrokerID: "9999", UserID: "42", InvestorID: "42"})

	cluster := newClusterTrader(zap.NewNop(), []Trader{gateA, gateB})

	_, _, err := cluster.InsertOrder(NewLimitOrder("ES2503", "CFFEX", DirectionBuy, OffsetOpen, 5000.0, 2))
	assert.Equal(t, err, ErrNotConnected, "no gates available yet")

	frontA.Connect()
	select {
	case ready := <-cluster.Ready():
		assert.Check(t, ready, "cluster ready once one gate is up")
	case <-time.After(2 * time.Second):
		t.Fatal("cluster never became ready")
	}

	ref, call, err := cluster.InsertOrder(NewLimitOrder("ES2503", "CFFEX", DirectionBuy, OffsetOpen, 5000.0, 2))
	assert.NilError(t, err)

	ctxRecords, err := awaitCall(t, call)
	assert.NilError(t, err)
	accepted := ctxRecords[len(ctxRecords)-1].(LocalOrder)
	assert.Equal(t, accepted.Status, OrderStatusAccepted)

	order, ok := cluster.GetOrder(ref)
	assert.Check(t, ok, "order reachable through the cluster")
	assert.Equal(t, len(frontA.RequestsOfKind(reqOrderInsert)), 1, "flow pinned to the ready gate")
	assert.Equal(t, len(frontB.RequestsOfKind(reqOrderInsert)), 0)

	cancel, err := cluster.CancelOrder(TargetByRef(order))
	assert.NilError(t, err, "ref addressing routed by session identity")
	records, err := awaitCall(t, cancel)
	assert.NilError(t, err)
	assert.Equal(t, records[len(records)-1].(LocalOrder).Status, OrderStatusCanceled)

	select {
	case update := <-cluster.OrderUpdates():
		assert.Equal(t, update.OrderRef, ref, "updates fan in through the cluster")
	case <-time.After(time.Second):
		t.Fatal("no order update forwarded")
	}
}

func TestClusterTraderTargetRouting(t *testing.T) {
	frontA := NewMockFront(zap.NewNop(), true, true)
	gateA := newCtpTrader(zap.NewNop(), frontA, gateConfig{BrokerID: "9999", UserID: "42", InvestorID: "42"})
	cluster := newClusterTrader(zap.NewNop(), []Trader{gateA})

	_, err := cluster.CancelOrder(ByOrderRef{FrontID: 9, SessionID: 9, OrderRef: 1})
	assert.Equal(t, err, ErrStaleSession, "no gate owns that session")

	_, err = cluster.CancelOrder(ByOrderSysID{OrderSysID: "999999", ExchangeID: "CFFEX"})
	assert.Equal(t, err, ErrUnknownOrderSysID)
}
