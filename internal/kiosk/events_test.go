package kiosk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgate/kiosk/internal/constants"
)

func TestBroadcaster_FanOut(t *testing.T) {
	var b Broadcaster
	a := b.AddListener()
	c := b.AddListener()

	b.Send(StateEvent{Type: "state"})

	assert.Equal(t, "state", (<-a).Type)
	assert.Equal(t, "state", (<-c).Type)
}

func TestBroadcaster_RemoveListenerCloses(t *testing.T) {
	var b Broadcaster
	ch := b.AddListener()
	b.RemoveListener(ch)

	_, open := <-ch
	assert.False(t, open)

	// Sending after removal must not panic.
	b.Send(StateEvent{Type: "state"})
}

func TestBroadcaster_FullListenerDropsEvents(t *testing.T) {
	var b Broadcaster
	ch := b.AddListener()

	for i := 0; i < constants.EventChannelBuffer+10; i++ {
		b.Send(StateEvent{Type: "state", Data: i})
	}

	require.Len(t, ch, constants.EventChannelBuffer)
}

func TestBroadcaster_Close(t *testing.T) {
	var b Broadcaster
	ch := b.AddListener()
	b.Close()

	_, open := <-ch
	assert.False(t, open)
}
