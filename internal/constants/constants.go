// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Event streaming constants
const (
	// EventChannelBuffer is the buffer size of per-listener event channels.
	// Slow listeners drop events instead of blocking the broadcaster.
	EventChannelBuffer = 64

	// SSEKeepAliveSeconds is the interval between SSE keep-alive comments
	SSEKeepAliveSeconds = 15
)

// Capture constants
const (
	// MaxRequestBody is the maximum accepted size of a request body in bytes
	MaxRequestBody = 1 << 20

	// FrameChannelBuffer is the buffer size of camera frame channels
	FrameChannelBuffer = 4
)
