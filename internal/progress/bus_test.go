package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishesToAllSubscribers(t *testing.T) {
	bus := New(nil)
	var mu sync.Mutex
	var got []EventType

	bus.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Type)
	})
	bus.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Type)
	})

	bus.Publish(Event{Type: ExecutionStart})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, ExecutionStart, got[0])
}

func TestBus_HandlerPanicDoesNotAbortOtherHandlersOrFutureEvents(t *testing.T) {
	bus := New(nil)
	var calledSecond, calledNext bool

	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(Event) { calledSecond = true })

	bus.Publish(Event{Type: StepStart})
	assert.True(t, calledSecond, "second handler must still run after first panics")

	bus.Subscribe(func(Event) { calledNext = true })
	bus.Publish(Event{Type: StepComplete})
	assert.True(t, calledNext, "bus must keep accepting events after a prior panic")
}

func TestBus_UnsubscribeStopsFutureDelivery(t *testing.T) {
	bus := New(nil)
	count := 0
	unsub := bus.Subscribe(func(Event) { count++ })

	bus.Publish(Event{Type: ExecutionStart})
	unsub()
	bus.Publish(Event{Type: ExecutionComplete})

	assert.Equal(t, 1, count)
}
