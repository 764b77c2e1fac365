package kiosk

import (
	"sync"

	"github.com/classgate/kiosk/internal/constants"
)

// StateEvent is a broadcast update pushed to UI listeners.
type StateEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Broadcaster fans state events out to an arbitrary number of listeners.
// Listeners with a full buffer miss events instead of blocking the sender.
type Broadcaster struct {
	listeners []chan StateEvent
	mu        sync.RWMutex
}

// AddListener registers a new event listener channel.
func (b *Broadcaster) AddListener() chan StateEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan StateEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener unregisters and closes a listener channel.
func (b *Broadcaster) RemoveListener(ch chan StateEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Send delivers an event to all listeners.
func (b *Broadcaster) Send(event StateEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Close removes and closes every listener.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, listener := range b.listeners {
		close(listener)
	}
	b.listeners = nil
}
