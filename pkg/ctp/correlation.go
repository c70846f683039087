package ctp

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var requestDurations = prometheus.NewSummaryVec(prometheus.SummaryOpts{
	Name:       "ctp_request_duration_us",
	Help:       "ctp request durations microseconds",
	AgeBuckets: 1,
}, []string{"gate", "kind"})

func init() {
	prometheus.MustRegister(requestDurations)
}

// Call is the pending half of one request. Records accumulates the response
// stream; Done fires once after the record flagged last (or a failure)
// arrives. SubmittedAt is exposed so a caller can implement its own
// staleness detection; the core itself never times out a request.
type Call struct {
	RequestID   uint64
	SubmittedAt time.Time
	Records     []interface{}
	Error       error
	Done        chan *Call

	kind requestKind
	gate string
}

func (call *Call) finish() {
	requestDurations.WithLabelValues(call.gate, call.kind.String()).Observe(float64(time.Since(call.SubmittedAt) / time.Microsecond))
	select {
	case call.Done <- call:
		// ok
	default:
		// We don't want to block here. It is the caller's responsibility to make
		// sure the channel has enough buffer space.
		log.Println("ctp: discarding call reply due to insufficient Done chan capacity")
	}
}

// Await blocks the caller until the call completes or the context expires.
func (call *Call) Await(ctx context.Context) ([]interface{}, error) {
	select {
	case result := <-call.Done:
		return result.Records, result.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// correlationTable pairs outgoing requests with their asynchronous response
// streams. Request identifiers are monotonic for the life of the table and
// never reused, even across reconnects. allocate and resolve run on
// different execution contexts (caller vs the front delivery loop) with no
// ordering between them, hence the mutex around the storage.
type correlationTable struct {
	mx      sync.Mutex
	gate    string
	nextID  uint64
	pending map[uint64]*Call
}

func newCorrelationTable(gate string) *correlationTable {
	return &correlationTable{
		gate:    gate,
		pending: make(map[uint64]*Call),
	}
}

func (t *correlationTable) allocate(kind requestKind) *Call {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.nextID++
	call := &Call{
		RequestID:   t.nextID,
		SubmittedAt: time.Now(),
		Done:        make(chan *Call, 1),
		kind:        kind,
		gate:        t.gate,
	}
	t.pending[call.RequestID] = call
	return call
}

// resolve feeds one response record to the pending call. An absent
// identifier is reported to the caller by the false return and is never an
// error: duplicate or late delivery is an accepted characteristic of the
// wire protocol. The entry is removed exactly when isLast is true.
func (t *correlationTable) resolve(requestID uint64, record interface{}, rspErr *RspError, isLast bool) bool {
	t.mx.Lock()
	call, ok := t.pending[requestID]
	if !ok {
		t.mx.Unlock()
		return false
	}
	if record != nil {
		call.Records = append(call.Records, record)
	}
	if rspErr != nil {
		call.Error = rspErr
	}
	if isLast {
		delete(t.pending, requestID)
	}
	t.mx.Unlock()

	if isLast {
		call.finish()
	}
	return true
}

// drop removes the entry of a request that never reached the counterparty
// (synchronous send failure).
func (t *correlationTable) drop(requestID uint64) {
	t.mx.Lock()
	delete(t.pending, requestID)
	t.mx.Unlock()
}

// failAll resolves every outstanding call with the given error. Called on a
// front disconnect so that no request is left pending forever.
func (t *correlationTable) failAll(err error) int {
	t.mx.Lock()
	calls := make([]*Call, 0, len(t.pending))
	for _, call := range t.pending {
		calls = append(calls, call)
	}
	t.pending = make(map[uint64]*Call)
	t.mx.Unlock()

	for _, call := range calls {
		call.Error = err
		call.finish()
	}
	return len(calls)
}

func (t *correlationTable) outstanding() int {
	t.mx.Lock()
	defer t.mx.Unlock()
	return len(t.pending)
}
