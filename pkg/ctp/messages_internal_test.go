package ctp

import (
	"testing"

	"gotest.tools/assert"
)

func TestFormatOrderRef(t *testing.T) {
	assert.Equal(t, formatOrderRef(1), "000000000001")
	assert.Equal(t, formatOrderRef(123456789012), "123456789012")

	ref, err := parseOrderRef("000000000042")
	assert.NilError(t, err)
	assert.Equal(t, ref, uint64(42))

	_, err = parseOrderRef("abc")
	assert.ErrorContains(t, err, "fail parse orderRef")
}

func TestOrderStatusFromWire(t *testing.T) {
	expect := map[string]OrderStatus{
		"0": OrderStatusAllTraded,
		"1": OrderStatusPartiallyTraded,
		"2": OrderStatusPartiallyTraded,
		"3": OrderStatusAccepted,
		"4": OrderStatusAccepted,
		"5": OrderStatusCanceled,
		"a": OrderStatusPendingSubmit,
		"b": OrderStatusNotTouched,
		"c": OrderStatusTouched,
	}
	for code, status := range expect {
		resolved, err := orderStatusFromWire(code)
		assert.NilError(t, err)
		assert.Equal(t, resolved, status, "wire code "+code)
	}

	_, err := orderStatusFromWire("z")
	assert.ErrorContains(t, err, "unsupported wire order status: z")
}

func TestDecodeEvent(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		ev, err := decodeEvent([]byte(`{"type":"connected"}`))
		assert.NilError(t, err)
		assert.Equal(t, ev.Type, EventConnected)
	})

	t.Run("disconnected with reason", func(t *testing.T) {
		ev, err := decodeEvent([]byte(`{"type":"disconnected","reason":4097}`))
		assert.NilError(t, err)
		assert.Equal(t, ev.Type, EventDisconnected)
		assert.Equal(t, ev.Reason, 0x1001)
	})

	t.Run("login response", func(t *testing.T) {
		msg := `{"type":"response","kind":"userLogin","requestId":2,"isLast":true,` +
			`"payload":{"tradingDay":"20260829","frontId":1,"sessionId":7,"maxOrderRef":"000000000005"}}`
		ev, err := decodeEvent([]byte(msg))
		assert.NilError(t, err)
		assert.Equal(t, ev.Type, EventResponse)
		assert.Equal(t, ev.Response.Kind, reqUserLogin)
		assert.Equal(t, ev.Response.RequestID, uint64(2))
		assert.Check(t, ev.Response.IsLast)

		login := ev.Response.Record.(*RspUserLogin)
		assert.Equal(t, login.FrontID, 1)
		assert.Equal(t, login.SessionID, 7)
		assert.Equal(t, login.MaxOrderRef, "000000000005")
	})

	t.Run("response with business error", func(t *testing.T) {
		msg := `{"type":"response","kind":"orderInsert","requestId":3,"isLast":true,` +
			`"error":{"errorId":31,"errorMsg":"insufficient money"},` +
			`"payload":{"orderRef":"000000000001"}}`
		ev, err := decodeEvent([]byte(msg))
		assert.NilError(t, err)
		assert.Equal(t, ev.Response.Error.Code, 31)
		assert.ErrorContains(t, ev.Response.Error, "insufficient money")
		assert.Equal(t, ev.Response.Record.(*InputOrderRecord).OrderRef, "000000000001")
	})

	t.Run("order return", func(t *testing.T) {
		msg := `{"type":"return","kind":"order",` +
			`"payload":{"instrumentId":"ES2503","orderRef":"000000000001","orderSysId":"100001",` +
			`"orderStatus":"3","volumeTraded":0,"frontId":1,"sessionId":7}}`
		ev, err := decodeEvent([]byte(msg))
		assert.NilError(t, err)
		assert.Equal(t, ev.Type, EventReturn)
		assert.Equal(t, ev.Return.Kind, rtnOrder)

		order := ev.Return.Record.(*OrderReturn)
		assert.Equal(t, order.InstrumentID, "ES2503")
		assert.Equal(t, order.OrderSysID, "100001")
		assert.Equal(t, order.OrderStatus, "3")
	})

	t.Run("depth market data return", func(t *testing.T) {
		msg := `{"type":"return","kind":"depthMarketData",` +
			`"payload":{"instrumentId":"ES2503","lastPrice":5001.5,"bidPrice1":5001.0,"askPrice1":5002.0}}`
		ev, err := decodeEvent([]byte(msg))
		assert.NilError(t, err)
		quote := ev.Return.Record.(*DepthMarketData)
		assert.Equal(t, quote.LastPrice, 5001.5)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := decodeEvent([]byte(`{"type":"mystery"}`))
		assert.ErrorContains(t, err, "unsupported event type: mystery")
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := decodeEvent([]byte(`{`))
		assert.ErrorContains(t, err, "fail parse event envelope")
	})
}
