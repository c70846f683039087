package ctp

// frontConnecter is the transport toward one front. It carries request
// envelopes out and delivers decoded events in. Implementations never retry
// a failed send on their own; a send error surfaces to the caller and the
// caller decides.
type frontConnecter interface {
	Send(req *Request) error
	Events() <-chan Event
	GetAddr() string
	IsReady() bool
	Ready() chan bool
	Close() error
}
