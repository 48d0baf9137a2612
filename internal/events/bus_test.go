// internal/events/bus_test.go
package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEmitDeliversInRegistrationOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var order []string
	bus.SubscribeFunc(CallFailed, func(Event) error {
		order = append(order, "first")
		return nil
	})
	bus.SubscribeFunc(CallFailed, func(Event) error {
		order = append(order, "second")
		return nil
	})
	bus.SubscribeFunc(CallSucceeded, func(Event) error {
		order = append(order, "other-type")
		return nil
	})

	bus.Emit(Event{Type: CallFailed, Node: "https://api.hive.blog"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEmitIsolatesFailingListeners(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var reached bool
	bus.SubscribeFunc(CircuitOpened, func(Event) error {
		panic("listener bug")
	})
	bus.SubscribeFunc(CircuitOpened, func(Event) error {
		return errors.New("listener error")
	})
	bus.SubscribeFunc(CircuitOpened, func(Event) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit(Event{Type: CircuitOpened})
	})
	assert.True(t, reached, "a throwing listener must not abort dispatch to the rest")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var calls int
	sub := bus.SubscribeFunc(NodeProbed, func(Event) error {
		calls++
		return nil
	})

	bus.Emit(Event{Type: NodeProbed})
	sub.Unsubscribe()
	bus.Emit(Event{Type: NodeProbed})

	assert.Equal(t, 1, calls)
}

func TestEmitOnNilBusIsSafe(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() {
		bus.Emit(Event{Type: CallSucceeded})
	})
}
