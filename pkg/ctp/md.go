package ctp

import (
	"sync"

	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var quotesReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ctp_md_quote_count",
	Help: "ctp market data quote counters",
}, []string{"gate"})

func init() {
	prometheus.MustRegister(quotesReceived)
}

// MarketData is the quote gateway surface. Subscriptions taken while the
// session is down are replayed after the next login, so Subscribe never
// fails for being offline.
type MarketData interface {
	Subscribe(instruments ...string) error
	Unsubscribe(instruments ...string) error
	Subscriptions() []string
	Quotes() <-chan DepthMarketData
	Session() SessionInfo
	IsReady() bool
	Ready() chan bool
	Close() error
}

// mdClient drives one market data front. The flow is shorter than the
// trading one: no authenticate and no settlement step, login alone makes
// the session ready.
type mdClient struct {
	logger *zap.Logger
	front  frontConnecter
	cfg    gateConfig

	mu   sync.Mutex
	sess *session

	calls   *correlationTable
	subs    *subscriptionSet
	quotes  chan DepthMarketData
	ready   chan bool
	isReady uint32
}

func (c *mdClient) Quotes() <-chan DepthMarketData {
	return c.quotes
}

func (c *mdClient) Ready() chan bool {
	return c.ready
}

func (c *mdClient) IsReady() bool {
	return atomic.LoadUint32(&c.isReady) == 1
}

func (c *mdClient) setReady(val bool) {
	var state uint32
	if val {
		state = 1
	}
	if atomic.SwapUint32(&c.isReady, state) != state {
		select {
		case c.ready <- val:
			// ok
		default:
			c.logger.Error("md: ready call discarding due to insufficient chan capacity")
		}
	}
}

func (c *mdClient) Session() SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SessionInfo{
		State:      c.sess.state,
		FrontID:    c.sess.frontID,
		SessionID:  c.sess.sessionID,
		TradingDay: c.sess.tradingDay,
	}
}

func (c *mdClient) Subscriptions() []string {
	return c.subs.list()
}

func (c *mdClient) Close() error {
	return c.front.Close()
}

// Subscribe records the instruments in the desired set and, when the
// session is up, sends the subscription for the new ones.
func (c *mdClient) Subscribe(instruments ...string) error {
	added := c.subs.add(instruments...)
	if len(added) == 0 {
		return nil
	}
	c.logger.Info("md: subscribe", zap.Strings("instruments", added), zap.String("gate", c.front.GetAddr()))
	if !c.loggedIn() {
		// deferred until the next login replay
		return nil
	}
	return c.sendSubscription(reqSubMarketData, added)
}

func (c *mdClient) Unsubscribe(instruments ...string) error {
	removed := c.subs.remove(instruments...)
	if len(removed) == 0 {
		return nil
	}
	c.logger.Info("md: unsubscribe", zap.Strings("instruments", removed), zap.String("gate", c.front.GetAddr()))
	if !c.loggedIn() {
		return nil
	}
	return c.sendSubscription(reqUnSubMarketData, removed)
}

func (c *mdClient) loggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.state == StateLoggedIn
}

func (c *mdClient) sendSubscription(kind requestKind, instruments []string) error {
	call := c.calls.allocate(kind)
	err := c.front.Send(&Request{Kind: kind, RequestID: call.RequestID, Payload: subMarketDataField{Instruments: instruments}})
	if err != nil {
		c.calls.drop(call.RequestID)
		return err
	}
	return nil
}

func (c *mdClient) input() {
	for ev := range c.front.Events() {
		switch ev.Type {
		case EventConnected:
			c.onConnected()
		case EventDisconnected:
			c.onDisconnected(ev.Reason)
		case EventHeartbeatWarning:
			c.logger.Warn("md: heartbeat lapse", zap.Int("seconds", ev.Reason), zap.String("gate", c.front.GetAddr()))
		case EventResponse:
			c.handleResponse(ev.Response)
		case EventReturn:
			c.handleReturn(ev.Return)
		}
	}
}

func (c *mdClient) onConnected() {
	c.logger.Info("md: front connected", zap.String("gate", c.front.GetAddr()))
	c.mu.Lock()
	c.sess.state = StateLoggingIn
	c.mu.Unlock()

	call := c.calls.allocate(reqUserLogin)
	err := c.front.Send(&Request{Kind: reqUserLogin, RequestID: call.RequestID, Payload: reqUserLoginField{
		BrokerID: c.cfg.BrokerID,
		UserID:   c.cfg.UserID,
		Password: c.cfg.Password,
	}})
	if err != nil {
		c.calls.drop(call.RequestID)
		c.logger.Error("md: fail send login", zap.Error(err), zap.String("gate", c.front.GetAddr()))
	}
}

func (c *mdClient) onDisconnected(reason int) {
	c.setReady(false)
	c.mu.Lock()
	c.sess.clear()
	c.mu.Unlock()
	failed := c.calls.failAll(ErrConnectionLost)
	c.logger.Warn("md: front disconnected",
		zap.String("reason", disconnectReason(reason)),
		zap.Int("failed calls", failed),
		zap.String("gate", c.front.GetAddr()))
}

func (c *mdClient) handleResponse(rsp *Response) {
	if rsp.Kind == reqUserLogin {
		c.onRspUserLogin(rsp)
	}
	if !c.calls.resolve(rsp.RequestID, rsp.Record, rsp.Error, rsp.IsLast) {
		c.logger.Warn("md: response without pending request",
			zap.Uint64("requestId", rsp.RequestID),
			zap.String("kind", rsp.Kind.String()),
			zap.String("gate", c.front.GetAddr()))
	}
}

func (c *mdClient) onRspUserLogin(rsp *Response) {
	if rsp.Error != nil {
		c.logger.Error("md: login rejected", zap.Error(rsp.Error), zap.String("gate", c.front.GetAddr()))
		c.mu.Lock()
		c.sess.state = StateConnected
		c.mu.Unlock()
		return
	}
	login, ok := rsp.Record.(*RspUserLogin)
	if !ok {
		c.logger.Error("md: login response without record", zap.String("gate", c.front.GetAddr()))
		return
	}

	c.mu.Lock()
	c.sess.onLogin(login)
	c.mu.Unlock()

	c.logger.Info("md: logged in", zap.String("tradingDay", login.TradingDay), zap.String("gate", c.front.GetAddr()))

	// the front forgets subscriptions on disconnect, replay the whole set
	if pending := c.subs.list(); len(pending) > 0 {
		if err := c.sendSubscription(reqSubMarketData, pending); err != nil {
			c.logger.Error("md: fail replay subscriptions", zap.Error(err), zap.String("gate", c.front.GetAddr()))
		}
	}
	c.setReady(true)
}

func (c *mdClient) handleReturn(ret *Return) {
	if ret.Kind != rtnDepthMarketData {
		c.logger.Error("md: unexpected return", zap.String("kind", ret.Kind.String()), zap.String("gate", c.front.GetAddr()))
		return
	}
	quote := ret.Record.(*DepthMarketData)
	quotesReceived.WithLabelValues(c.front.GetAddr()).Inc()
	select {
	case c.quotes <- *quote:
		// ok
	default:
		c.logger.Error("md: discarding quote due to insufficient chan capacity", zap.String("gate", c.front.GetAddr()), zap.String("instrument", quote.InstrumentID))
	}
}

// newMdClient wires the quote client over an established front connection
// and starts the event loop.
func newMdClient(logger *zap.Logger, front frontConnecter, cfg gateConfig) *mdClient {
	client := &mdClient{
		logger: logger,
		front:  front,
		cfg:    cfg,
		sess:   &session{gate: front.GetAddr()},
		calls:  newCorrelationTable(front.GetAddr()),
		subs:   newSubscriptionSet(),
		quotes: make(chan DepthMarketData, 1000),
		ready:  make(chan bool, 2),
	}
	go client.input()
	return client
}
