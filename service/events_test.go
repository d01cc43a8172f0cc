package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	e := newEmitter()

	var order []int
	e.subscribe(EventConnect, func(Event) { order = append(order, 1) })
	e.subscribe(EventConnect, func(Event) { order = append(order, 2) })
	e.subscribe(EventConnect, func(Event) { order = append(order, 3) })

	e.emit(Event{Type: EventConnect})

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEmitterScopesByEventType(t *testing.T) {
	e := newEmitter()

	var got int
	e.subscribe(EventDisconnect, func(Event) { got++ })

	e.emit(Event{Type: EventConnect})
	assert.Zero(t, got)

	e.emit(Event{Type: EventDisconnect})
	assert.Equal(t, 1, got)
}

func TestEmitterUnsubscribeIsIdempotent(t *testing.T) {
	e := newEmitter()

	var got int
	unsub := e.subscribe(EventConnect, func(Event) { got++ })
	unsub()
	unsub()

	e.emit(Event{Type: EventConnect})
	assert.Zero(t, got)
}

func TestEmitterFillsErrorStringFromErr(t *testing.T) {
	e := newEmitter()

	var seen Event
	e.subscribe(EventConnectError, func(ev Event) { seen = ev })

	e.emit(Event{Type: EventConnectError, Err: errors.New("boom")})
	assert.Equal(t, "boom", seen.Error)
}

func TestEmitterReentrantUnsubscribe(t *testing.T) {
	e := newEmitter()

	var unsub func()
	var got int
	unsub = e.subscribe(EventConnect, func(Event) {
		got++
		unsub()
	})

	e.emit(Event{Type: EventConnect})
	e.emit(Event{Type: EventConnect})
	assert.Equal(t, 1, got)
}
