package ctp

import (
	"container/ring"
	"sync"
	"time"

	"sync/atomic"

	"go.uber.org/zap"
)

// clusterTrader spreads trading over several gates. Each instrument is
// pinned to one gate so its order flow stays on a single session; when a
// gate drops, its instruments migrate to the next ready one. Order actions
// route by session identity or exchange identifier, never by the pin, so
// orders placed before a migration stay reachable.
type clusterTrader struct {
	logger    *zap.Logger
	available []Trader
	mx        sync.Mutex
	enabled   *ring.Ring
	assigned  sync.Map
	ready     chan bool
	isReady   uint32

	orderUpdates chan LocalOrder
	tradeUpdates chan TradeReturn
}

func (c *clusterTrader) getGate(instrumentID string) (Trader, error) {
	gateInterface, ok := c.assigned.Load(instrumentID)
	if !ok {
		gate := c.getNextEnabled()
		if gate == nil {
			return nil, ErrNotConnected
		}
		gateInterface, _ = c.assigned.LoadOrStore(instrumentID, gate)
	}
	if gate, casting := gateInterface.(Trader); casting {
		return gate, nil
	}
	return nil, ErrNotConnected
}

func (c *clusterTrader) InsertOrder(req *RequestOrderInsert) (uint64, *Call, error) {
	gate, err := c.getGate(req.InstrumentID)
	if err != nil {
		return 0, nil, err
	}
	return gate.InsertOrder(req)
}

// CancelOrder routes by the addressing mode: session identity selects the
// gate for ref addressing, the registry lookup selects it for orderSysId
// addressing.
func (c *clusterTrader) CancelOrder(target OrderTarget) (*Call, error) {
	gate, err := c.gateForTarget(target)
	if err != nil {
		return nil, err
	}
	return gate.CancelOrder(target)
}

func (c *clusterTrader) ModifyOrder(target OrderTarget, price float64, volume int) (*Call, error) {
	gate, err := c.gateForTarget(target)
	if err != nil {
		return nil, err
	}
	return gate.ModifyOrder(target, price, volume)
}

func (c *clusterTrader) gateForTarget(target OrderTarget) (Trader, error) {
	switch t := target.(type) {
	case ByOrderRef:
		for _, gate := range c.available {
			info := gate.Session()
			if info.State == StateLoggedIn && info.FrontID == t.FrontID && info.SessionID == t.SessionID {
				return gate, nil
			}
		}
		return nil, ErrStaleSession
	case ByOrderSysID:
		for _, gate := range c.available {
			if _, ok := gate.GetOrderBySysID(t.ExchangeID, t.OrderSysID); ok {
				return gate, nil
			}
		}
		return nil, ErrUnknownOrderSysID
	}
	return nil, ErrUnknownOrder
}

func (c *clusterTrader) GetOrder(orderRef uint64) (LocalOrder, bool) {
	for _, gate := range c.available {
		if order, ok := gate.GetOrder(orderRef); ok {
			return order, true
		}
	}
	return LocalOrder{}, false
}

func (c *clusterTrader) GetOrderBySysID(exchangeID, orderSysID string) (LocalOrder, bool) {
	for _, gate := range c.available {
		if order, ok := gate.GetOrderBySysID(exchangeID, orderSysID); ok {
			return order, true
		}
	}
	return LocalOrder{}, false
}

func (c *clusterTrader) Orders() []LocalOrder {
	result := make([]LocalOrder, 0)
	for _, gate := range c.available {
		result = append(result, gate.Orders()...)
	}
	return result
}

func (c *clusterTrader) QueryInstruments(instrumentID, exchangeID string) (*Call, error) {
	gate := c.anyReady()
	if gate == nil {
		return nil, ErrNotConnected
	}
	return gate.QueryInstruments(instrumentID, exchangeID)
}

func (c *clusterTrader) QueryTradingAccount() (*Call, error) {
	gate := c.anyReady()
	if gate == nil {
		return nil, ErrNotConnected
	}
	return gate.QueryTradingAccount()
}

func (c *clusterTrader) QueryInvestorPositions(instrumentID string) (*Call, error) {
	gate := c.anyReady()
	if gate == nil {
		return nil, ErrNotConnected
	}
	return gate.QueryInvestorPositions(instrumentID)
}

func (c *clusterTrader) Logout() (*Call, error) {
	gate := c.anyReady()
	if gate == nil {
		return nil, ErrNotConnected
	}
	return gate.Logout()
}

func (c *clusterTrader) OrderUpdates() <-chan LocalOrder {
	return c.orderUpdates
}

func (c *clusterTrader) TradeUpdates() <-chan TradeReturn {
	return c.tradeUpdates
}

// Session reports the session of the first ready gate. Per gate sessions
// stay reachable through the gates themselves.
func (c *clusterTrader) Session() SessionInfo {
	if gate := c.anyReady(); gate != nil {
		return gate.Session()
	}
	return SessionInfo{State: StateDisconnected}
}

func (c *clusterTrader) EvictOrders(cutoff time.Time) int {
	evicted := 0
	for _, gate := range c.available {
		evicted += gate.EvictOrders(cutoff)
	}
	return evicted
}

func (c *clusterTrader) Close() error {
	var firstErr error
	for _, gate := range c.available {
		if err := gate.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *clusterTrader) IsReady() bool {
	return atomic.LoadUint32(&c.isReady) == 1
}

func (c *clusterTrader) setReady(val bool) {
	var state uint32
	if val {
		state = 1
	}

	if atomic.SwapUint32(&c.isReady, state) != state {
		if val {
			c.logger.Info("cluster trading: ready")
		} else {
			c.logger.Error("cluster trading: no gates available")
		}
		select {
		case c.ready <- val:
			// ok
		default:
			c.logger.Error("cluster trading: discarding ready call chan capacity")
		}
	}
}

func (c *clusterTrader) Ready() chan bool {
	return c.ready
}

func (c *clusterTrader) anyReady() Trader {
	for _, gate := range c.available {
		if gate.IsReady() {
			return gate
		}
	}
	return nil
}

func (c *clusterTrader) getNextEnabled() interface{} {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.enabled == nil || c.enabled.Len() == 0 {
		return nil
	}
	c.enabled = c.enabled.Next()
	return c.enabled.Value
}

// move each instrument one by one to prevent a burst of fresh order flow on
// a single surviving gate
func (c *clusterTrader) moveInstrumentsForAvailableGates() {
	c.assigned.Range(func(key, value interface{}) bool {
		instrumentID := key.(string)
		if gate, casting := value.(Trader); casting {
			if !gate.IsReady() {
				nextGateInt := c.getNextEnabled()
				if nextGateInt == nil {
					return false
				}
				if nextGate, casting := nextGateInt.(Trader); casting {
					c.assigned.Store(instrumentID, nextGate)
					c.logger.Info("cluster trading: instrument moved", zap.String("instrument", instrumentID))
				}
			}
		}
		return true
	})
}

// update enabled (ready for serve) list of trading gates
func (c *clusterTrader) updateEnabled() {
	c.mx.Lock()
	enabledCount := 0
	for _, gate := range c.available {
		if gate.IsReady() {
			enabledCount++
		}
	}
	c.enabled = ring.New(enabledCount)
	for _, gate := range c.available {
		if gate.IsReady() {
			c.enabled = c.enabled.Next()
			c.enabled.Value = gate
		}
	}
	c.mx.Unlock()
	c.setReady(enabledCount > 0)
}

func (c *clusterTrader) handleReady() {
	statusChanged := make(chan interface{}, 10)
	for _, gateVal := range c.available {
		go func(gateObj Trader) {
			for status := range gateObj.Ready() {
				statusChanged <- status
			}
		}(gateVal)
	}

	for range statusChanged {
		c.updateEnabled()

		go c.moveInstrumentsForAvailableGates()
	}
}

func (c *clusterTrader) forwardUpdates() {
	for _, gateVal := range c.available {
		go func(gateObj Trader) {
			for order := range gateObj.OrderUpdates() {
				c.orderUpdates <- order
			}
		}(gateVal)
		go func(gateObj Trader) {
			for trade := range gateObj.TradeUpdates() {
				c.tradeUpdates <- trade
			}
		}(gateVal)
	}
}

func newClusterTrader(logger *zap.Logger, gates []Trader) *clusterTrader {
	cluster := &clusterTrader{
		logger:       logger,
		available:    gates,
		ready:        make(chan bool, 2),
		orderUpdates: make(chan LocalOrder, 1000),
		tradeUpdates: make(chan TradeReturn, 1000),
	}
	go cluster.handleReady()
	cluster.forwardUpdates()

	return cluster
}
