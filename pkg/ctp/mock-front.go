package ctp

import (
	"strconv"
	"sync"
	"time"

	"sync/atomic"

	"go.uber.org/zap"
)

// MockFront is an in-process front connection for tests and dry runs. With
// autoLogin it answers the whole login sequence by itself; with autoTrade it
// accepts every order and assigns exchange identifiers. Every sent request
// is recorded for assertions.
type MockFront struct {
	logger    *zap.Logger
	events    chan Event
	ready     chan bool
	isReady   uint32
	autoLogin bool
	autoTrade bool

	mx          sync.Mutex
	requests    []Request
	failNext    error
	sessionID   int
	maxOrderRef uint64
	nextSysID   int
}

func NewMockFront(logger *zap.Logger, autoLogin, autoTrade bool) *MockFront {
	front := &MockFront{
		logger:    logger,
		events:    make(chan Event, 1000),
		ready:     make(chan bool, 2),
		autoLogin: autoLogin,
		autoTrade: autoTrade,
	}
	logger.Info("mock-front: created")
	return front
}

func (m *MockFront) Events() <-chan Event {
	return m.events
}

func (m *MockFront) Ready() chan bool {
	return m.ready
}

func (m *MockFront) GetAddr() string {
	return "mock"
}

func (m *MockFront) IsReady() bool {
	return atomic.LoadUint32(&m.isReady) == 1
}

func (m *MockFront) Close() error {
	close(m.events)
	return nil
}

// Connect emits the connected event, starting the login sequence of the
// owner.
func (m *MockFront) Connect() {
	atomic.StoreUint32(&m.isReady, 1)
	m.Emit(Event{Type: EventConnected})
}

// Disconnect emits a disconnect with the given reason code.
func (m *MockFront) Disconnect(reason int) {
	atomic.StoreUint32(&m.isReady, 0)
	m.Emit(Event{Type: EventDisconnected, Reason: reason})
}

// Emit injects an arbitrary event, as if the front produced it.
func (m *MockFront) Emit(ev Event) {
	m.events <- ev
}

// FailNext makes the next Send return the given error without recording
// the request.
func (m *MockFront) FailNext(err error) {
	m.mx.Lock()
	m.failNext = err
	m.mx.Unlock()
}

// SeedMaxOrderRef sets the order ref maximum the next login reports.
func (m *MockFront) SeedMaxOrderRef(ref uint64) {
	m.mx.Lock()
	m.maxOrderRef = ref
	m.mx.Unlock()
}

// Requests returns a copy of every request sent so far.
func (m *MockFront) Requests() []Request {
	m.mx.Lock()
	defer m.mx.Unlock()
	result := make([]Request, len(m.requests))
	copy(result, m.requests)
	return result
}

// RequestsOfKind returns the sent requests of one kind.
func (m *MockFront) RequestsOfKind(kind requestKind) []Request {
	m.mx.Lock()
	defer m.mx.Unlock()
	result := make([]Request, 0)
	for _, req := range m.requests {
		if req.Kind == kind {
			result = append(result, req)
		}
	}
	return result
}

func (m *MockFront) Send(req *Request) error {
	m.mx.Lock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		m.mx.Unlock()
		return err
	}
	m.requests = append(m.requests, *req)
	m.mx.Unlock()

	if m.autoLogin {
		m.answerLoginSequence(req)
	}
	if m.autoTrade {
		m.answerTrade(req)
	}
	return nil
}

func (m *MockFront) respond(req *Request, record interface{}, rspErr *RspError) {
	m.events <- Event{Type: EventResponse, Response: &Response{
		Kind:      req.Kind,
		RequestID: req.RequestID,
		IsLast:    true,
		Error:     rspErr,
		Record:    record,
	}}
}

func (m *MockFront) answerLoginSequence(req *Request) {
	switch req.Kind {
	case reqAuthenticate:
		field := req.Payload.(reqAuthenticateField)
		m.respond(req, &RspAuthenticate{BrokerID: field.BrokerID, UserID: field.UserID, AppID: field.AppID}, nil)
	case reqUserLogin:
		field := req.Payload.(reqUserLoginField)
		m.mx.Lock()
		m.sessionID++
		sessionID := m.sessionID
		maxRef := m.maxOrderRef
		m.mx.Unlock()
		m.respond(req, &RspUserLogin{
			TradingDay:  "20260829",
			LoginTime:   "09:00:00",
			BrokerID:    field.BrokerID,
			UserID:      field.UserID,
			FrontID:     1,
			SessionID:   sessionID,
			MaxOrderRef: formatOrderRef(maxRef),
		}, nil)
	case reqSettlementConfirm:
		m.respond(req, &RspSettlementConfirm{ConfirmDate: "20260829", ConfirmTime: "09:00:01"}, nil)
	case reqUserLogout:
		field := req.Payload.(reqUserLogoutField)
		m.respond(req, &RspUserLogout{BrokerID: field.BrokerID, UserID: field.UserID}, nil)
	}
}

func (m *MockFront) answerTrade(req *Request) {
	switch req.Kind {
	case reqOrderInsert:
		field := req.Payload.(inputOrderField)
		m.mx.Lock()
		m.nextSysID++
		sysID := strconv.Itoa(100000 + m.nextSysID)
		sessionID := m.sessionID
		m.mx.Unlock()
		m.Emit(Event{Type: EventReturn, Return: &Return{Kind: rtnOrder, Record: &OrderReturn{
			InstrumentID:        field.InstrumentID,
			ExchangeID:          field.ExchangeID,
			OrderRef:            field.OrderRef,
			OrderSysID:          sysID,
			Direction:           field.Direction,
			OffsetFlag:          field.OffsetFlag,
			LimitPrice:          field.LimitPrice,
			VolumeTotalOriginal: field.VolumeTotalOriginal,
			OrderStatus:         wireStatusNoTradeQueueing,
			StatusMsg:           "order accepted",
			FrontID:             1,
			SessionID:           sessionID,
			TradingDay:          "20260829",
			InsertTime:          time.Now().Format("15:04:05"),
		}}})
	case reqOrderAction:
		field := req.Payload.(inputOrderActionField)
		order := m.findActionTarget(field)
		if order == nil {
			m.Emit(Event{Type: EventReturn, Return: &Return{
				Kind:  rtnErrOrderAction,
				Error: &RspError{Code: 26, Message: "order not found"},
				Record: &OrderActionRecord{
					InstrumentID: field.InstrumentID,
					ExchangeID:   field.ExchangeID,
					OrderRef:     field.OrderRef,
					OrderSysID:   field.OrderSysID,
				},
			}})
			return
		}
		canceled := *order
		canceled.OrderStatus = wireStatusCanceled
		canceled.StatusMsg = "order canceled"
		m.Emit(Event{Type: EventReturn, Return: &Return{Kind: rtnOrder, Record: &canceled}})
	}
}

// findActionTarget locates the insert behind an action request, by ref or
// by the assigned exchange identifier.
func (m *MockFront) findActionTarget(field inputOrderActionField) *OrderReturn {
	m.mx.Lock()
	defer m.mx.Unlock()
	sysIDBase := 100000
	for _, req := range m.requests {
		if req.Kind != reqOrderInsert {
			continue
		}
		insert := req.Payload.(inputOrderField)
		sysIDBase++
		sysID := strconv.Itoa(sysIDBase)
		if (field.OrderRef != "" && insert.OrderRef == field.OrderRef) ||
			(field.OrderSysID != "" && sysID == field.OrderSysID) {
			return &OrderReturn{
				InstrumentID:        insert.InstrumentID,
				ExchangeID:          insert.ExchangeID,
				OrderRef:            insert.OrderRef,
				OrderSysID:          sysID,
				Direction:           insert.Direction,
				OffsetFlag:          insert.OffsetFlag,
				LimitPrice:          insert.LimitPrice,
				VolumeTotalOriginal: insert.VolumeTotalOriginal,
				FrontID:             1,
				SessionID:           m.sessionID,
				TradingDay:          "20260829",
			}
		}
	}
	return nil
}
