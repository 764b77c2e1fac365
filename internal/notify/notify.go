// Package notify implements the single-slot notification banner. At most one
// message is visible at a time; each message auto-expires after the center's
// TTL unless a newer one replaced it first.
package notify

import (
	"sync"
	"time"
)

// Severity controls how a notification is presented.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Error   Severity = "error"
)

// Message is a notification currently occupying the slot.
type Message struct {
	Text     string    `json:"text"`
	Severity Severity  `json:"severity"`
	PostedAt time.Time `json:"posted_at"`
}

// Listener receives the new slot content after every change. A nil message
// means the slot was cleared.
type Listener func(*Message)

// Center holds the notification slot. Pushing replaces the current message
// immediately; expiry is guarded by a sequence number so the timer of an old
// message can never clear a newer one. Every message therefore gets the full
// TTL from the moment it was posted.
type Center struct {
	ttl time.Duration

	mu       sync.Mutex
	current  *Message
	seq      uint64
	listener Listener
}

// NewCenter creates a center whose messages expire after ttl. A ttl of zero
// disables auto-expiry.
func NewCenter(ttl time.Duration) *Center {
	return &Center{ttl: ttl}
}

// SetListener registers the change callback. The callback runs outside the
// center's lock.
func (c *Center) SetListener(fn Listener) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

// Push replaces the slot with a new message and schedules its expiry.
func (c *Center) Push(text string, severity Severity) {
	msg := &Message{Text: text, Severity: severity, PostedAt: time.Now()}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.current = msg
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(msg)
	}

	if c.ttl > 0 {
		time.AfterFunc(c.ttl, func() {
			c.expire(seq)
		})
	}
}

// expire clears the slot only when it still holds the message the timer was
// armed for.
func (c *Center) expire(seq uint64) {
	c.mu.Lock()
	if c.seq != seq || c.current == nil {
		c.mu.Unlock()
		return
	}
	c.current = nil
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(nil)
	}
}

// Clear empties the slot immediately. Pending expiry timers become no-ops.
func (c *Center) Clear() {
	c.mu.Lock()
	c.seq++
	cleared := c.current != nil
	c.current = nil
	listener := c.listener
	c.mu.Unlock()

	if cleared && listener != nil {
		listener(nil)
	}
}

// Current returns the message occupying the slot, or nil.
func (c *Center) Current() *Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
