package camera

import (
	"context"
	"image"
	"time"
)

// Frame is a single decoded video frame with metadata.
type Frame struct {
	// Seq is the monotonic sequence number assigned by the source.
	Seq uint64
	// Timestamp is when the frame was captured.
	Timestamp time.Time
	// Width in pixels.
	Width int
	// Height in pixels.
	Height int
	// Image holds the decoded pixel data.
	Image image.Image
	// TraceID is a unique identifier for correlating a frame across logs.
	TraceID string
}

// Source delivers frames from a capture device.
//
// Implementations must guarantee:
//   - Start() returns a channel that stays open until Stop()
//   - Stop() is idempotent (safe to call multiple times)
//   - frames are dropped, never queued, when the consumer lags
type Source interface {
	// Start acquires the device and returns a read-only channel of frames.
	// Frames arrive asynchronously once the device is delivering.
	Start(ctx context.Context) (<-chan Frame, error)

	// Stop releases the device and closes the frame channel.
	Stop() error
}
