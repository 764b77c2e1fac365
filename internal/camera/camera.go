package camera

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"sync"
	"time"
)

// Controller owns one camera session at a time. It consumes the source's
// frame channel, keeps the latest frame, and flips to ready when the first
// frame arrives. Capturing before readiness returns ErrNotReady.
type Controller struct {
	src    Source
	grace  time.Duration // max wait for the first frame during Start
	settle time.Duration // delay after device acquisition before waiting

	mu        sync.Mutex
	running   bool
	ready     bool
	latest    *Frame
	readyCh   chan struct{}
	consumeWg sync.WaitGroup
}

// NewController wraps a source. The settle delay is applied after the device
// is acquired; grace bounds how long Start waits for the first frame.
func NewController(src Source, settle, grace time.Duration) *Controller {
	return &Controller{src: src, settle: settle, grace: grace}
}

// Start acquires the camera. Any previous session is torn down first so a
// stale stream never leaks into the new one. Start returns once the device is
// acquired; it waits up to the grace period for the first frame but does not
// fail when none arrived yet. Readiness flips as soon as a frame lands.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.Stop(); err != nil {
		slog.Warn("camera: teardown before restart failed", "error", err)
	}

	frames, err := c.src.Start(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.running = true
	c.ready = false
	c.latest = nil
	c.readyCh = make(chan struct{})
	readyCh := c.readyCh
	c.mu.Unlock()

	c.consumeWg.Add(1)
	go c.consume(frames, readyCh)

	if c.settle > 0 {
		select {
		case <-time.After(c.settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-readyCh:
	case <-time.After(c.grace):
		slog.Debug("camera: no frame within grace period, continuing")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// consume stores the newest frame and closes readyCh on the first one. It
// exits when the source closes its channel.
func (c *Controller) consume(frames <-chan Frame, readyCh chan struct{}) {
	defer c.consumeWg.Done()

	first := true
	for frame := range frames {
		f := frame
		c.mu.Lock()
		c.latest = &f
		if first {
			c.ready = true
			first = false
			close(readyCh)
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.readyCh == readyCh {
		c.ready = false
	}
	c.mu.Unlock()
}

// Stop releases the camera and resets readiness. Safe to call when the
// controller never started.
func (c *Controller) Stop() error {
	c.mu.Lock()
	wasRunning := c.running
	c.running = false
	c.ready = false
	c.latest = nil
	c.readyCh = nil
	c.mu.Unlock()

	if !wasRunning {
		return nil
	}

	err := c.src.Stop()
	c.consumeWg.Wait()
	return err
}

// ReadySignal returns a channel closed when the current session's first
// frame arrives. Returns nil when no session is running; a nil channel
// blocks forever, so callers must pair the wait with a context.
func (c *Controller) ReadySignal() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyCh
}

// Ready reports whether at least one frame arrived in the current session.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// LatestFrame returns the newest frame of the current session, or nil.
func (c *Controller) LatestFrame() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// CaptureFrame encodes the latest frame as JPEG at the given quality.
// It fails with ErrNotReady until the first frame of the session arrived.
func (c *Controller) CaptureFrame(quality int) ([]byte, error) {
	c.mu.Lock()
	frame := c.latest
	ready := c.ready
	c.mu.Unlock()

	if !ready || frame == nil {
		return nil, ErrNotReady
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("could not encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
