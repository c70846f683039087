package ctp

import (
	"fmt"
	"sync"
	"time"

	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/pebbe/zmq4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var requestCounters = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ctp_request_count",
	Help: "ctp outgoing request counters",
}, []string{"gate", "kind"})

var messageCounters = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ctp_message_count",
	Help: "ctp income message counters",
}, []string{"gate", "type"})

func init() {
	prometheus.MustRegister(requestCounters, messageCounters)
}

// zmqFrontConnection talks to the gate bridge process over a PUSH socket for
// requests and a SUB socket for events. Socket level reconnects are left to
// zmq; a dropped bridge link surfaces as a disconnect event so the owner can
// fail outstanding calls.
type zmqFrontConnection struct {
	logger  *zap.Logger
	push    *zmq4.Socket
	sub     *zmq4.Socket
	addr    string
	events  chan Event
	sendMx  sync.Mutex
	ready   chan bool
	isReady uint32
	closed  uint32
}

func (c *zmqFrontConnection) Events() <-chan Event {
	return c.events
}

func (c *zmqFrontConnection) Ready() chan bool {
	return c.ready
}

// GetAddr get front endpoint address
func (c *zmqFrontConnection) GetAddr() string {
	return c.addr
}

// IsReady reports whether the bridge link is up
func (c *zmqFrontConnection) IsReady() bool {
	return atomic.LoadUint32(&c.isReady) == 1
}

func (c *zmqFrontConnection) Send(req *Request) error {
	if !c.IsReady() {
		return ErrNotConnected
	}
	data, err := jsoniter.Marshal(requestEnvelope{
		Kind:      req.Kind.String(),
		RequestID: req.RequestID,
		Payload:   req.Payload,
	})
	if err != nil {
		return errors.WithMessage(err, "fail marshal request "+req.Kind.String()+":")
	}
	requestCounters.WithLabelValues(c.addr, req.Kind.String()).Inc()

	c.logger.Info("front: send", zap.ByteString("msg", data), zap.String("gate", c.addr))

	c.sendMx.Lock()
	defer c.sendMx.Unlock()
	_, err = c.push.SendBytes(data, zmq4.DONTWAIT)

	if err != nil {
		c.logger.Error("front: fail send", zap.ByteString("msg", data), zap.String("gate", c.addr), zap.Error(err))
		return errors.WithMessage(err, "fail send via zmq request "+req.Kind.String()+":")
	}
	return nil
}

func (c *zmqFrontConnection) setReady(val bool) {
	var state uint32
	if val {
		state = 1
	}

	if atomic.SwapUint32(&c.isReady, state) != state {
		if val {
			c.logger.Info("front: bridge link ready", zap.String("addr", c.addr))
		} else {
			c.logger.Warn("front: bridge link lost", zap.String("addr", c.addr))
		}
		select {
		case c.ready <- val:
			// ok
		default:
			// Nobody is obliged to drain this channel; IsReady carries the
			// current state, the channel only wakes waiters that exist.
			c.logger.Error("front: ready call discarding due to insufficient chan capacity", zap.String("addr", c.addr))
		}
	}
}

func (c *zmqFrontConnection) Close() error {
	atomic.StoreUint32(&c.closed, 1)
	if err := c.push.Close(); err != nil {
		return err
	}
	return c.sub.Close()
}

func (c *zmqFrontConnection) String() string {
	return "front:" + c.addr
}

func (c *zmqFrontConnection) handleMonitor(online chan bool) {
	for status := range online {
		c.setReady(status)
		if !status {
			// the owner treats a lost bridge link the same as a front
			// disconnect: outstanding calls cannot complete anymore
			c.events <- Event{Type: EventDisconnected, Reason: reasonBridgeLost}
		}
	}
}

func (c *zmqFrontConnection) readMessages() {
	defer close(c.events)
	for {
		msg, err := c.sub.RecvBytes(0)
		if err != nil {
			if atomic.LoadUint32(&c.closed) == 1 {
				return
			}
			c.logger.Fatal("front: receive data error", zap.Error(err), zap.String("addr", c.addr))
			panic(err)
		}

		ev, err := decodeEvent(msg)
		if err != nil {
			c.logger.Error("front: parse fail event", zap.Error(err), zap.ByteString("msg", msg))
			continue
		}
		messageCounters.WithLabelValues(c.addr, ev.typeLabel()).Inc()
		c.events <- ev
	}
}

func newPushSocket(zmqCtx *zmq4.Context, monitorAddr, addr, publicKey string) (*zmq4.Socket, error) {
	sock, err := zmqCtx.NewSocket(zmq4.PUSH)
	if err != nil {
		return nil, errors.WithMessage(err, "fail create socket")
	}
	if err = sock.Monitor(monitorAddr, zmq4.EVENT_ALL); err != nil {
		return nil, errors.WithMessage(err, "fail set monitor address")
	}

	if err = sock.SetReconnectIvl(time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set reconnect interval")
	}
	if err = sock.SetSndhwm(100000); err != nil {
		return nil, errors.WithMessage(err, "fail set send buffer messages count")
	}
	if err = sock.SetLinger(time.Duration(5) * time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set linger timeout")
	}
	if err = sock.SetConnectTimeout(time.Duration(5) * time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set connect timeout")
	}
	if err = sock.SetHeartbeatIvl(time.Duration(2) * time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set heartbeat interval")
	}
	if err = sock.SetHeartbeatTimeout(time.Duration(5) * time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set heartbeat timeout")
	}
	if err = sock.SetImmediate(true); err != nil {
		return nil, errors.WithMessage(err, "fail set immediate send flag")
	}

	if publicKey != "" {
		// auth zmq using curve algorithm
		var keyPublic, keySecret string
		keyPublic, keySecret, err = zmq4.NewCurveKeypair()
		if err != nil {
			return nil, errors.WithMessage(err, "fail generate curve pair")
		}
		if err = sock.ClientAuthCurve(publicKey, keyPublic, keySecret); err != nil {
			return nil, errors.WithMessage(err, "fail set auth curve")
		}
	}

	if err = sock.Connect(addr); err != nil {
		return nil, errors.WithMessage(err, "fail connect "+addr)
	}
	return sock, nil
}

func newSubSocket(zmqCtx *zmq4.Context, addr, publicKey string) (*zmq4.Socket, error) {
	sock, err := zmqCtx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, errors.WithMessage(err, "fail create socket")
	}

	if err = sock.SetReconnectIvl(time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set reconnect interval")
	}
	if err = sock.SetConnectTimeout(time.Duration(5) * time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set connect timeout")
	}
	if err = sock.SetHeartbeatIvl(time.Duration(10) * time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set heartbeat interval")
	}
	if err = sock.SetHeartbeatTimeout(time.Duration(20) * time.Second); err != nil {
		return nil, errors.WithMessage(err, "fail set heartbeat timeout")
	}
	if err = sock.SetSubscribe(""); err != nil {
		return nil, errors.WithMessage(err, "fail set subscription")
	}

	if publicKey != "" {
		var keyPublic, keySecret string
		keyPublic, keySecret, err = zmq4.NewCurveKeypair()
		if err != nil {
			return nil, errors.WithMessage(err, "fail generate curve pair")
		}
		if err = sock.ClientAuthCurve(publicKey, keyPublic, keySecret); err != nil {
			return nil, errors.WithMessage(err, "fail set auth curve")
		}
	}

	if err = sock.Connect(addr); err != nil {
		return nil, errors.WithMessage(err, "fail connect "+addr)
	}
	return sock, nil
}

// newZmqFrontConnection creates both bridge sockets, wires the link monitor
// and starts the receive handler.
func newZmqFrontConnection(pushAddr, subAddr, publicKey string, logger *zap.Logger) (*zmqFrontConnection, error) {
	zmqCtx, err := zmq4.NewContext()
	if err != nil {
		return nil, errors.WithMessage(err, "fail create zmq context")
	}
	monitorAddr := generateMonitorAddr()
	online := make(chan bool)
	go runSocketMonitor(zmqCtx, monitorAddr, online, logger)

	push, err := newPushSocket(zmqCtx, monitorAddr, pushAddr, publicKey)
	if err != nil {
		return nil, errors.WithMessage(err, "fail create push socket")
	}

	sub, err := newSubSocket(zmqCtx, subAddr, publicKey)
	if err != nil {
		return nil, errors.WithMessage(err, "fail create sub socket")
	}

	front := &zmqFrontConnection{
		logger: logger,
		push:   push,
		sub:    sub,
		addr:   pushAddr,
		ready:  make(chan bool, 2),
		events: make(chan Event, 1000),
	}

	go front.handleMonitor(online)

	go front.readMessages()

	return front, nil
}

// runSocketMonitor monitors zmq socket connection status
func runSocketMonitor(zmqCtx *zmq4.Context, addr string, online chan bool, logger *zap.Logger) {
	s, err := zmqCtx.NewSocket(zmq4.PAIR)
	if err != nil {
		logger.Fatal("front-monitor: fail create new socket", zap.Error(err))
		panic(err)
	}
	if err = s.SetLinger(0); err != nil {
		logger.Error("front-monitor: fail setLinger", zap.Error(err))
	}
	defer func() {
		if err = s.Close(); err != nil {
			logger.Error("front-monitor: fail close socket", zap.Error(err))
		}
	}()

	err = s.Connect(addr)
	if err != nil {
		logger.Fatal("front-monitor: fail connect", zap.Error(err))
		panic(err)
	}

	for {
		event, address, _, err := s.RecvEvent(0)
		if err != nil {
			logger.Error("front-monitor: fail receive event", zap.Error(err))
		} else {
			if event == zmq4.EVENT_CONNECTED {
				logger.Info("front-monitor: connection established", zap.String("addr", address))
				online <- true
			} else if event == zmq4.EVENT_CONNECT_DELAYED {
				logger.Warn("front-monitor: trying to connect", zap.String("addr", address))
			} else if event == zmq4.EVENT_CONNECT_RETRIED {
				logger.Warn("front-monitor: retry connect", zap.String("addr", address))
			} else if event == zmq4.EVENT_CLOSED {
				logger.Warn("front-monitor: closed", zap.String("addr", address))
				online <- false
			} else if event.String() == "<NONE>" {
				logger.Warn("front-monitor: stop monitor")
			} else {
				logger.Warn("front-monitor: unprocessed event", zap.String("addr", address), zap.String("event", event.String()))
			}
		}
	}
}

var monitorID int64

func generateMonitorAddr() string {
	nextID := atomic.AddInt64(&monitorID, 1)
	return fmt.Sprintf("inproc://monitor_f.%d", nextID)
}
