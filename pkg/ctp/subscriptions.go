package ctp

import (
	"sort"
	"sync"
)

// subscriptionSet is the desired market data subscription state. It survives
// disconnects: after every login the whole set is replayed to the front, so
// subscribing while offline simply defers the network call.
type subscriptionSet struct {
	mx          sync.Mutex
	instruments map[string]bool
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{instruments: make(map[string]bool)}
}

// add records the instruments and returns the ones not present before.
func (s *subscriptionSet) add(instruments ...string) []string {
	s.mx.Lock()
	defer s.mx.Unlock()
	added := make([]string, 0, len(instruments))
	for _, instrument := range instruments {
		if !s.instruments[instrument] {
			s.instruments[instrument] = true
			added = append(added, instrument)
		}
	}
	return added
}

// remove drops the instruments and returns the ones actually present.
func (s *subscriptionSet) remove(instruments ...string) []string {
	s.mx.Lock()
	defer s.mx.Unlock()
	removed := make([]string, 0, len(instruments))
	for _, instrument := range instruments {
		if s.instruments[instrument] {
			delete(s.instruments, instrument)
			removed = append(removed, instrument)
		}
	}
	return removed
}

func (s *subscriptionSet) list() []string {
	s.mx.Lock()
	defer s.mx.Unlock()
	result := make([]string, 0, len(s.instruments))
	for instrument := range s.instruments {
		result = append(result, instrument)
	}
	sort.Strings(result)
	return result
}
