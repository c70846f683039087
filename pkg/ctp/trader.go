package ctp

import (
	"strconv"
	"sync"
	"time"

	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var readyState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "ctp_ready_state",
	Help: "Ctp trading gate status",
}, []string{"gate"})

var rejectCounters = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ctp_reject_count",
	Help: "ctp income reject counters",
}, []string{"gate", "code"})

func init() {
	prometheus.MustRegister(readyState, rejectCounters)
}

// Trader is the trading gateway surface. Methods never block waiting for the
// counterparty: they validate, send and hand back a Call the caller may
// await. Unsolicited order and trade updates flow on the update channels.
type Trader interface {
	InsertOrder(req *RequestOrderInsert) (uint64, *Call, error)
	CancelOrder(target OrderTarget) (*Call, error)
	ModifyOrder(target OrderTarget, price float64, volume int) (*Call, error)
	GetOrder(orderRef uint64) (LocalOrder, bool)
	GetOrderBySysID(exchangeID, orderSysID string) (LocalOrder, bool)
	Orders() []LocalOrder
	QueryInstruments(instrumentID, exchangeID string) (*Call, error)
	QueryTradingAccount() (*Call, error)
	QueryInvestorPositions(instrumentID string) (*Call, error)
	Logout() (*Call, error)
	OrderUpdates() <-chan LocalOrder
	TradeUpdates() <-chan TradeReturn
	Session() SessionInfo
	EvictOrders(cutoff time.Time) int
	IsReady() bool
	Ready() chan bool
	Close() error
}

// ctpTrader drives one front connection through the authenticate, login and
// settlement confirm sequence and owns the order registry of the gateway.
// The mutex guards the session and the action index; containers carry their
// own locks.
type ctpTrader struct {
	logger *zap.Logger
	front  frontConnecter
	cfg    gateConfig

	mu      sync.Mutex
	sess    *session
	actions map[uint64][]uint64

	calls  *correlationTable
	orders *ordersContainer

	orderUpdates chan LocalOrder
	tradeUpdates chan TradeReturn
	ready        chan bool
	isReady      uint32
}

func (c *ctpTrader) OrderUpdates() <-chan LocalOrder {
	return c.orderUpdates
}

func (c *ctpTrader) TradeUpdates() <-chan TradeReturn {
	return c.tradeUpdates
}

func (c *ctpTrader) Ready() chan bool {
	return c.ready
}

func (c *ctpTrader) IsReady() bool {
	return atomic.LoadUint32(&c.isReady) == 1
}

func (c *ctpTrader) setReady(val bool) {
	var promStatus float64
	var state uint32
	if val {
		promStatus = 1
		state = 1
	}
	readyState.WithLabelValues(c.front.GetAddr()).Set(promStatus)

	if atomic.SwapUint32(&c.isReady, state) != state {
		select {
		case c.ready <- val:
			// ok
		default:
			// We don't want to block here. It is the caller's responsibility to make
			// sure the channel has enough buffer space.
			c.logger.Error("ctp: ready call discarding due to insufficient chan capacity")
		}
	}
}

// Session returns a point-in-time view of the session identity.
func (c *ctpTrader) Session() SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SessionInfo{
		State:      c.sess.state,
		FrontID:    c.sess.frontID,
		SessionID:  c.sess.sessionID,
		TradingDay: c.sess.tradingDay,
	}
}

func (c *ctpTrader) GetOrder(orderRef uint64) (LocalOrder, bool) {
	return c.orders.get(orderRef)
}

func (c *ctpTrader) GetOrderBySysID(exchangeID, orderSysID string) (LocalOrder, bool) {
	return c.orders.getBySysID(exchangeID, orderSysID)
}

func (c *ctpTrader) Orders() []LocalOrder {
	return c.orders.snapshot()
}

func (c *ctpTrader) EvictOrders(cutoff time.Time) int {
	return c.orders.evictTerminalBefore(cutoff)
}

func (c *ctpTrader) Close() error {
	return c.front.Close()
}

// InsertOrder validates the order, registers it locally under a fresh order
// ref and sends it. The returned Call completes with the first order update
// or with the rejection. A synchronous send failure leaves the order in the
// registry as rejected so the ref is never resurrected.
func (c *ctpTrader) InsertOrder(req *RequestOrderInsert) (uint64, *Call, error) {
	if req.PriceType == OrderPriceAny && req.Price != 0 {
		return 0, nil, ErrBadMarketPrice
	}
	if req.Volume <= 0 {
		return 0, nil, ErrBadVolume
	}

	c.mu.Lock()
	if c.sess.state != StateLoggedIn {
		c.mu.Unlock()
		return 0, nil, ErrNotLoggedIn
	}
	frontID, sessionID := c.sess.frontID, c.sess.sessionID
	c.mu.Unlock()

	ref := c.orders.nextOrderRef()
	call := c.calls.allocate(reqOrderInsert)
	now := time.Now()
	c.orders.insert(&LocalOrder{
		OrderRef:     ref,
		InstrumentID: req.InstrumentID,
		ExchangeID:   req.ExchangeID,
		Direction:    req.Direction,
		Offset:       req.Offset,
		PriceType:    req.PriceType,
		Price:        req.Price,
		StopPrice:    req.StopPrice,
		Volume:       req.Volume,
		Status:       OrderStatusPendingSubmit,
		FrontID:      frontID,
		SessionID:    sessionID,
		InsertedAt:   now,
		UpdatedAt:    now,
		requestID:    call.RequestID,
	})

	err := c.front.Send(&Request{
		Kind:      reqOrderInsert,
		RequestID: call.RequestID,
		Payload:   req.payload(c.cfg.BrokerID, c.cfg.InvestorID, ref),
	})
	if err != nil {
		c.calls.drop(call.RequestID)
		c.orders.markRejected(ref, err.Error())
		return ref, nil, err
	}
	return ref, call, nil
}

// CancelOrder requests deletion of an order addressed either by its order
// ref or by its exchange identifier. Addressing by ref is rejected locally
// with ErrStaleSession when the identity no longer matches the current
// session; there is no silent fallback to the other mode.
func (c *ctpTrader) CancelOrder(target OrderTarget) (*Call, error) {
	return c.orderAction(target, ActionDelete, 0, 0)
}

// ModifyOrder requests a price or volume change of a resting order. Not
// every exchange supports in-place modification; unsupported requests come
// back as an action error return.
func (c *ctpTrader) ModifyOrder(target OrderTarget, price float64, volume int) (*Call, error) {
	return c.orderAction(target, ActionModify, price, volume)
}

func (c *ctpTrader) orderAction(target OrderTarget, flag ActionFlag, price float64, volume int) (*Call, error) {
	payload := inputOrderActionField{
		BrokerID:     c.cfg.BrokerID,
		InvestorID:   c.cfg.InvestorID,
		ActionFlag:   flag.wire(),
		LimitPrice:   price,
		VolumeChange: volume,
	}

	var ref uint64

	c.mu.Lock()
	if c.sess.state != StateLoggedIn {
		c.mu.Unlock()
		return nil, ErrNotLoggedIn
	}

	switch t := target.(type) {
	case ByOrderRef:
		if !c.sess.matches(t.FrontID, t.SessionID) {
			c.mu.Unlock()
			return nil, ErrStaleSession
		}
		ref = t.OrderRef
		payload.InstrumentID = t.InstrumentID
		payload.ExchangeID = t.ExchangeID
		payload.OrderRef = formatOrderRef(t.OrderRef)
		payload.FrontID = t.FrontID
		payload.SessionID = t.SessionID
	case ByOrderSysID:
		order, ok := c.orders.getBySysID(t.ExchangeID, t.OrderSysID)
		if !ok {
			c.mu.Unlock()
			return nil, ErrUnknownOrderSysID
		}
		ref = order.OrderRef
		payload.InstrumentID = order.InstrumentID
		payload.ExchangeID = t.ExchangeID
		payload.OrderSysID = t.OrderSysID
	}
	c.mu.Unlock()

	call := c.calls.allocate(reqOrderAction)
	c.mu.Lock()
	c.actions[ref] = append(c.actions[ref], call.RequestID)
	c.mu.Unlock()

	err := c.front.Send(&Request{Kind: reqOrderAction, RequestID: call.RequestID, Payload: payload})
	if err != nil {
		c.calls.drop(call.RequestID)
		c.removeAction(ref, call.RequestID)
		return nil, err
	}
	return call, nil
}

func (c *ctpTrader) removeAction(ref, requestID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.actions[ref]
	for i, id := range ids {
		if id == requestID {
			c.actions[ref] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(c.actions[ref]) == 0 {
		delete(c.actions, ref)
	}
}

// takeActions removes and returns every outstanding action request of the
// given order ref.
func (c *ctpTrader) takeActions(ref uint64) []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := c.actions[ref]
	delete(c.actions, ref)
	return ids
}

func (c *ctpTrader) QueryInstruments(instrumentID, exchangeID string) (*Call, error) {
	return c.query(reqQryInstrument, qryInstrumentField{InstrumentID: instrumentID, ExchangeID: exchangeID})
}

func (c *ctpTrader) QueryTradingAccount() (*Call, error) {
	return c.query(reqQryTradingAccount, qryTradingAccountField{BrokerID: c.cfg.BrokerID, InvestorID: c.cfg.InvestorID})
}

func (c *ctpTrader) QueryInvestorPositions(instrumentID string) (*Call, error) {
	return c.query(reqQryInvestorPosition, qryInvestorPositionField{BrokerID: c.cfg.BrokerID, InvestorID: c.cfg.InvestorID, InstrumentID: instrumentID})
}

func (c *ctpTrader) Logout() (*Call, error) {
	return c.query(reqUserLogout, reqUserLogoutField{BrokerID: c.cfg.BrokerID, UserID: c.cfg.UserID})
}

func (c *ctpTrader) query(kind requestKind, payload interface{}) (*Call, error) {
	c.mu.Lock()
	if c.sess.state != StateLoggedIn {
		c.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	c.mu.Unlock()

	call := c.calls.allocate(kind)
	err := c.front.Send(&Request{Kind: kind, RequestID: call.RequestID, Payload: payload})
	if err != nil {
		c.calls.drop(call.RequestID)
		return nil, err
	}
	return call, nil
}

// send used by the login sequence where a failure only gets logged; the
// front reconnect produces a fresh connected event and the sequence
// restarts from scratch.
func (c *ctpTrader) send(kind requestKind, payload interface{}) {
	call := c.calls.allocate(kind)
	err := c.front.Send(&Request{Kind: kind, RequestID: call.RequestID, Payload: payload})
	if err != nil {
		c.calls.drop(call.RequestID)
		c.logger.Error("ctp: fail send "+kind.String(), zap.Error(err), zap.String("gate", c.front.GetAddr()))
	}
}

func (c *ctpTrader) input() {
	for ev := range c.front.Events() {
		switch ev.Type {
		case EventConnected:
			c.onConnected()
		case EventDisconnected:
			c.onDisconnected(ev.Reason)
		case EventHeartbeatWarning:
			c.logger.Warn("ctp: heartbeat lapse", zap.Int("seconds", ev.Reason), zap.String("gate", c.front.GetAddr()))
		case EventResponse:
			c.handleResponse(ev.Response)
		case EventReturn:
			c.handleReturn(ev.Return)
		}
	}
}

func (c *ctpTrader) onConnected() {
	c.logger.Info("ctp: front connected", zap.String("gate", c.front.GetAddr()))
	c.mu.Lock()
	c.sess.state = StateAuthenticating
	c.mu.Unlock()
	c.send(reqAuthenticate, reqAuthenticateField{
		BrokerID: c.cfg.BrokerID,
		UserID:   c.cfg.UserID,
		AppID:    c.cfg.AppID,
		AuthCode: c.cfg.AuthCode,
	})
}

func (c *ctpTrader) onDisconnected(reason int) {
	c.setReady(false)
	c.mu.Lock()
	c.sess.clear()
	c.actions = make(map[uint64][]uint64)
	c.mu.Unlock()
	failed := c.calls.failAll(ErrConnectionLost)
	c.logger.Warn("ctp: front disconnected",
		zap.String("reason", disconnectReason(reason)),
		zap.Int("failed calls", failed),
		zap.String("gate", c.front.GetAddr()))
}

func (c *ctpTrader) handleResponse(rsp *Response) {
	switch rsp.Kind {
	case reqAuthenticate:
		c.onRspAuthenticate(rsp)
	case reqUserLogin:
		c.onRspUserLogin(rsp)
	case reqSettlementConfirm:
		c.onRspSettlementConfirm(rsp)
	case reqUserLogout:
		c.onRspUserLogout(rsp)
	case reqOrderInsert:
		c.onRspOrderInsert(rsp)
	}

	if !c.calls.resolve(rsp.RequestID, rsp.Record, rsp.Error, rsp.IsLast) {
		c.logger.Warn("ctp: response without pending request",
			zap.Uint64("requestId", rsp.RequestID),
			zap.String("kind", rsp.Kind.String()),
			zap.String("gate", c.front.GetAddr()))
	}
}

func (c *ctpTrader) onRspAuthenticate(rsp *Response) {
	if rsp.Error != nil {
		rejectCounters.WithLabelValues(c.front.GetAddr(), strconv.Itoa(rsp.Error.Code)).Inc()
		c.logger.Error("ctp: authenticate rejected", zap.Error(rsp.Error), zap.String("gate", c.front.GetAddr()))
		c.mu.Lock()
		c.sess.state = StateConnected
		c.mu.Unlock()
		return
	}
	c.mu.Lock()
	c.sess.state = StateLoggingIn
	c.mu.Unlock()
	c.send(reqUserLogin, reqUserLoginField{
		BrokerID: c.cfg.BrokerID,
		UserID:   c.cfg.UserID,
		Password: c.cfg.Password,
	})
}

func (c *ctpTrader) onRspUserLogin(rsp *Response) {
	if rsp.Error != nil {
		rejectCounters.WithLabelValues(c.front.GetAddr(), strconv.Itoa(rsp.Error.Code)).Inc()
		c.logger.Error("ctp: login rejected", zap.Error(rsp.Error), zap.String("gate", c.front.GetAddr()))
		c.mu.Lock()
		c.sess.state = StateAuthenticated
		c.mu.Unlock()
		return
	}
	login, ok := rsp.Record.(*RspUserLogin)
	if !ok {
		c.logger.Error("ctp: login response without record", zap.String("gate", c.front.GetAddr()))
		return
	}

	if login.MaxOrderRef != "" {
		maxRef, err := parseOrderRef(login.MaxOrderRef)
		if err != nil {
			c.logger.Error("ctp: fail parse maxOrderRef", zap.Error(err), zap.String("gate", c.front.GetAddr()))
		} else {
			c.orders.seed(maxRef)
		}
	}

	c.mu.Lock()
	c.sess.onLogin(login)
	c.mu.Unlock()

	c.logger.Info("ctp: logged in",
		zap.Int("frontId", login.FrontID),
		zap.Int("sessionId", login.SessionID),
		zap.String("tradingDay", login.TradingDay),
		zap.String("gate", c.front.GetAddr()))

	c.send(reqSettlementConfirm, reqSettlementConfirmField{
		BrokerID:   c.cfg.BrokerID,
		InvestorID: c.cfg.InvestorID,
	})
}

func (c *ctpTrader) onRspSettlementConfirm(rsp *Response) {
	if rsp.Error != nil {
		rejectCounters.WithLabelValues(c.front.GetAddr(), strconv.Itoa(rsp.Error.Code)).Inc()
		c.logger.Error("ctp: settlement confirm rejected", zap.Error(rsp.Error), zap.String("gate", c.front.GetAddr()))
		return
	}
	c.logger.Info("ctp: settlement confirmed", zap.String("gate", c.front.GetAddr()))
	c.setReady(true)
}

func (c *ctpTrader) onRspUserLogout(rsp *Response) {
	if rsp.Error != nil {
		c.logger.Error("ctp: logout rejected", zap.Error(rsp.Error), zap.String("gate", c.front.GetAddr()))
		return
	}
	c.setReady(false)
	c.mu.Lock()
	c.sess.clear()
	c.sess.state = StateConnected
	c.mu.Unlock()
	c.logger.Info("ctp: logged out", zap.String("gate", c.front.GetAddr()))
}

// onRspOrderInsert handles the synchronous insert rejection path. The
// success path produces no response at all, only order returns.
func (c *ctpTrader) onRspOrderInsert(rsp *Response) {
	if rsp.Error == nil {
		return
	}
	rejectCounters.WithLabelValues(c.front.GetAddr(), strconv.Itoa(rsp.Error.Code)).Inc()
	record, ok := rsp.Record.(*InputOrderRecord)
	if !ok {
		c.logger.Error("ctp: insert rejection without record", zap.Uint64("requestId", rsp.RequestID), zap.String("gate", c.front.GetAddr()))
		return
	}
	ref, err := parseOrderRef(record.OrderRef)
	if err != nil {
		c.logger.Error("ctp: insert rejection with bad orderRef", zap.Error(err), zap.String("gate", c.front.GetAddr()))
		return
	}
	if order, known := c.orders.markRejected(ref, rsp.Error.Message); known {
		c.publishOrder(order)
	}
}

func (c *ctpTrader) handleReturn(ret *Return) {
	switch ret.Kind {
	case rtnOrder:
		c.handleOrderReturn(ret.Record.(*OrderReturn))
	case rtnTrade:
		c.handleTradeReturn(ret.Record.(*TradeReturn))
	case rtnErrOrderInsert:
		c.handleErrOrderInsert(ret.Record.(*InputOrderRecord), ret.Error)
	case rtnErrOrderAction:
		c.handleErrOrderAction(ret.Record.(*OrderActionRecord), ret.Error)
	default:
		c.logger.Error("ctp: unexpected return", zap.String("kind", ret.Kind.String()), zap.String("gate", c.front.GetAddr()))
	}
}

func (c *ctpTrader) handleOrderReturn(rec *OrderReturn) {
	ref, err := parseOrderRef(rec.OrderRef)
	if err != nil {
		c.logger.Error("ctp: order return with bad orderRef", zap.Error(err), zap.String("orderRef", rec.OrderRef), zap.String("gate", c.front.GetAddr()))
		return
	}
	status, err := orderStatusFromWire(rec.OrderStatus)
	if err != nil {
		c.logger.Error("ctp: order return with bad status", zap.Error(err), zap.String("gate", c.front.GetAddr()))
		return
	}

	order, changed, known := c.orders.applyUpdate(ref, rec.OrderSysID, status, rec.VolumeTraded, rec.StatusMsg)
	if !known {
		// orders of other clients on the same account arrive here too
		c.logger.Warn("ctp: order return for unknown ref", zap.Uint64("orderRef", ref), zap.String("gate", c.front.GetAddr()))
		return
	}

	// the insert request has no success response; the first order update
	// settles its pending call
	c.calls.resolve(order.requestID, order, nil, true)

	if order.Status.isTerminal() {
		for _, requestID := range c.takeActions(ref) {
			c.calls.resolve(requestID, order, nil, true)
		}
	}

	if changed {
		c.publishOrder(order)
	}
}

func (c *ctpTrader) handleTradeReturn(rec *TradeReturn) {
	select {
	case c.tradeUpdates <- *rec:
		// ok
	default:
		c.logger.Error("ctp: discarding trade update due to insufficient chan capacity", zap.String("gate", c.front.GetAddr()))
	}
}

func (c *ctpTrader) handleErrOrderInsert(rec *InputOrderRecord, rspErr *RspError) {
	if rspErr == nil {
		rspErr = &RspError{Code: -1, Message: "order insert rejected"}
	}
	rejectCounters.WithLabelValues(c.front.GetAddr(), strconv.Itoa(rspErr.Code)).Inc()

	ref, err := parseOrderRef(rec.OrderRef)
	if err != nil {
		c.logger.Error("ctp: insert error return with bad orderRef", zap.Error(err), zap.String("gate", c.front.GetAddr()))
		return
	}
	order, known := c.orders.markRejected(ref, rspErr.Message)
	if !known {
		c.logger.Warn("ctp: insert error return for unknown ref", zap.Uint64("orderRef", ref), zap.String("gate", c.front.GetAddr()))
		return
	}
	c.calls.resolve(order.requestID, order, rspErr, true)
	c.publishOrder(order)
}

func (c *ctpTrader) handleErrOrderAction(rec *OrderActionRecord, rspErr *RspError) {
	if rspErr == nil {
		rspErr = &RspError{Code: -1, Message: "order action rejected"}
	}
	rejectCounters.WithLabelValues(c.front.GetAddr(), strconv.Itoa(rspErr.Code)).Inc()

	var ref uint64
	if rec.OrderRef != "" {
		parsed, err := parseOrderRef(rec.OrderRef)
		if err != nil {
			c.logger.Error("ctp: action error return with bad orderRef", zap.Error(err), zap.String("gate", c.front.GetAddr()))
			return
		}
		ref = parsed
	} else if rec.OrderSysID != "" {
		order, ok := c.orders.getBySysID(rec.ExchangeID, rec.OrderSysID)
		if !ok {
			c.logger.Warn("ctp: action error return for unknown orderSysId", zap.String("orderSysId", rec.OrderSysID), zap.String("gate", c.front.GetAddr()))
			return
		}
		ref = order.OrderRef
	} else {
		c.logger.Error("ctp: action error return without order identity", zap.String("gate", c.front.GetAddr()))
		return
	}

	for _, requestID := range c.takeActions(ref) {
		c.calls.resolve(requestID, nil, rspErr, true)
	}
}

func (c *ctpTrader) publishOrder(order LocalOrder) {
	select {
	case c.orderUpdates <- order:
		// ok
	default:
		c.logger.Error("ctp: discarding order update due to insufficient chan capacity", zap.String("gate", c.front.GetAddr()))
	}
}

// newCtpTrader wires the trader over an established front connection and
// starts the event loop.
func newCtpTrader(logger *zap.Logger, front frontConnecter, cfg gateConfig) *ctpTrader {
	trader := &ctpTrader{
		logger:       logger,
		front:        front,
		cfg:          cfg,
		sess:         &session{gate: front.GetAddr()},
		actions:      make(map[uint64][]uint64),
		calls:        newCorrelationTable(front.GetAddr()),
		orders:       newOrdersContainer(),
		orderUpdates: make(chan LocalOrder, 1000),
		tradeUpdates: make(chan TradeReturn, 1000),
		ready:        make(chan bool, 2),
	}
	go trader.input()
	return trader
}
