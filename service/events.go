package service

import (
	"sort"
	"sync"

	"github.com/phantom/wallet-sdk-sub001/core"
)

// EventType identifies a provider lifecycle event.
type EventType string

const (
	EventConnectStart         EventType = "connect_start"
	EventConnect              EventType = "connect"
	EventConnectError         EventType = "connect_error"
	EventDisconnect           EventType = "disconnect"
	EventSpendingLimitReached EventType = "spending_limit_reached"
)

// ConnectSource distinguishes how a connection attempt was initiated.
type ConnectSource string

const (
	// SourceAutoConnect is passive reconnection at application start.
	SourceAutoConnect ConnectSource = "auto-connect"

	// SourceManualConnect is an explicit Connect call running a fresh flow.
	SourceManualConnect ConnectSource = "manual-connect"

	// SourceExistingSession is an explicit Connect call satisfied by a
	// persisted session.
	SourceExistingSession ConnectSource = "existing-session"
)

// Event is the payload delivered to subscribers. Fields are populated per
// event type; Error mirrors Err for out-of-process observers.
type Event struct {
	Type         EventType            `json:"type"`
	Source       ConnectSource        `json:"source,omitempty"`
	WalletID     string               `json:"walletId,omitempty"`
	Addresses    []core.WalletAddress `json:"addresses,omitempty"`
	Status       core.SessionStatus   `json:"status,omitempty"`
	AuthProvider core.AuthProvider    `json:"authProvider,omitempty"`
	AuthUserID   string               `json:"authUserId,omitempty"`
	Error        string               `json:"error,omitempty"`

	Err error `json:"-"`
}

// emitter is a per-instance publish/subscribe registry. Dispatch is
// synchronous, in subscription order. There is no process-wide singleton;
// each provider owns its own registry.
type emitter struct {
	mu   sync.Mutex
	next int
	subs map[EventType]map[int]func(Event)
}

func newEmitter() *emitter {
	return &emitter{subs: make(map[EventType]map[int]func(Event))}
}

// subscribe registers fn for events of type t and returns an unsubscribe
// function. Unsubscribing twice is a no-op.
func (e *emitter) subscribe(t EventType, fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++

	if e.subs[t] == nil {
		e.subs[t] = make(map[int]func(Event))
	}
	e.subs[t][id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs[t], id)
	}
}

// emit delivers ev to every subscriber of its type. Subscribers are invoked
// outside the registry lock so they may subscribe or unsubscribe reentrantly.
func (e *emitter) emit(ev Event) {
	if ev.Err != nil && ev.Error == "" {
		ev.Error = ev.Err.Error()
	}

	e.mu.Lock()
	ids := make([]int, 0, len(e.subs[ev.Type]))
	for id := range e.subs[ev.Type] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.subs[ev.Type][id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
