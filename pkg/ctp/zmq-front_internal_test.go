package ctp

import (
	"testing"

	"go.uber.org/zap"
	"gotest.tools/assert"
)

func TestFrontReadyTransitions(t *testing.T) {
	front := &zmqFrontConnection{
		logger: zap.NewNop(),
		addr:   "tcp://gate:17001",
		ready:  make(chan bool, 2),
		events: make(chan Event, 1000),
	}

	online := make(chan bool)
	done := make(chan struct{})
	go func() {
		defer close(done)
		front.handleMonitor(online)
	}()

	// a lost and recovered bridge link produces three state swaps; the
	// third one lands on a full ready buffer and must not kill the process
	online <- true
	online <- false
	online <- true
	close(online)
	<-done

	assert.Assert(t, front.IsReady())

	assert.Equal(t, true, <-front.ready)
	assert.Equal(t, false, <-front.ready)

	select {
	case ev := <-front.events:
		assert.Equal(t, EventDisconnected, ev.Type)
		assert.Equal(t, reasonBridgeLost, ev.Reason)
	default:
		t.Fatal("no disconnect event after the link loss")
	}
}

func TestFrontReadyIdempotentSwap(t *testing.T) {
	front := &zmqFrontConnection{
		logger: zap.NewNop(),
		addr:   "tcp://gate:17001",
		ready:  make(chan bool, 2),
		events: make(chan Event, 1000),
	}

	front.setReady(true)
	front.setReady(true)
	front.setReady(false)
	front.setReady(false)

	assert.Assert(t, !front.IsReady())
	assert.Equal(t, true, <-front.ready)
	assert.Equal(t, false, <-front.ready)
	select {
	case <-front.ready:
		t.Fatal("repeated state must not queue ready calls")
	default:
	}
}
