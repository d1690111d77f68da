package client_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nightingale-hq/chatwire/internal/client"
)

func TestBusHandlersRunInRegistrationOrder(t *testing.T) {
	bus := client.NewBus(testLogger())

	var order []string
	bus.On(client.KindConnected, func(client.Event) { order = append(order, "first") })
	bus.On(client.KindConnected, func(client.Event) { order = append(order, "second") })

	bus.Trigger(client.Connected{URL: "ws://chat.test"})
	require.Equal(t, []string{"first", "second"}, order)
}

func TestBusHandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := client.NewBus(testLogger())
	events := bus.Subscribe(4)

	reached := false
	bus.On(client.KindConnected, func(client.Event) { panic("handler blew up") })
	bus.On(client.KindConnected, func(client.Event) { reached = true })

	require.NotPanics(t, func() {
		bus.Trigger(client.Connected{URL: "ws://chat.test"})
	})
	require.True(t, reached, "the handler after the panicking one still ran")
	require.Len(t, events, 1, "the subscriber still got the event")
}

func TestBusHandlerOnlyReceivesItsKind(t *testing.T) {
	bus := client.NewBus(testLogger())

	var seen []client.Kind
	bus.On(client.KindUserJoined, func(evt client.Event) { seen = append(seen, evt.Kind()) })

	bus.Trigger(client.Connected{URL: "ws://chat.test"})
	bus.Trigger(client.UserJoined{})
	bus.Trigger(client.UserLeft{})

	require.Equal(t, []client.Kind{client.KindUserJoined}, seen)
}

func TestBusSubscriberReceivesInOrder(t *testing.T) {
	bus := client.NewBus(testLogger())
	events := bus.Subscribe(4)

	published := []client.Event{
		client.Connected{URL: "ws://chat.test"},
		client.Reconnecting{Attempt: 1, Delay: time.Second},
		client.Disconnected{Code: 1000, Deliberate: true},
	}
	for _, evt := range published {
		bus.Trigger(evt)
	}

	for _, want := range published {
		require.Equal(t, want, <-events)
	}
}

func TestBusSubscriberDropsWhenFull(t *testing.T) {
	bus := client.NewBus(testLogger())
	events := bus.Subscribe(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		bus.Trigger(client.Connected{URL: "one"})
		bus.Trigger(client.Connected{URL: "two"})
		bus.Trigger(client.Connected{URL: "three"})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked on a full subscriber")
	}

	evt := <-events
	require.Equal(t, client.Connected{URL: "one"}, evt)
	require.Empty(t, events, "the overflow events were dropped, not queued")

	// A drained subscriber receives again.
	bus.Trigger(client.Connected{URL: "four"})
	require.Equal(t, client.Connected{URL: "four"}, <-events)
}

func TestBusCloseClosesSubscribers(t *testing.T) {
	bus := client.NewBus(testLogger())
	events := bus.Subscribe(1)

	bus.Close()

	_, ok := <-events
	require.False(t, ok, "subscriber channel closed with the bus")

	require.NotPanics(t, func() {
		bus.Trigger(client.Connected{URL: "ws://chat.test"})
		bus.Close()
	})

	late := bus.Subscribe(1)
	_, ok = <-late
	require.False(t, ok, "a subscription after Close is born closed")
}
