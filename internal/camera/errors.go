package camera

import (
	"errors"
	"strings"
)

// Sentinel errors for camera failures. Device errors are wrapped with one of
// these so callers can map them to user-facing messages.
var (
	// ErrNotReady is returned by CaptureFrame before the first frame arrived.
	ErrNotReady = errors.New("camera: not ready")
	// ErrPermission means access to the capture device was denied.
	ErrPermission = errors.New("camera: permission denied")
	// ErrNotFound means no capture device was found.
	ErrNotFound = errors.New("camera: device not found")
	// ErrBusy means the capture device is in use by another process.
	ErrBusy = errors.New("camera: device busy")
)

// Cause classifies a camera start failure.
type Cause int

const (
	CauseOther Cause = iota
	CausePermission
	CauseNotFound
	CauseBusy
)

// Classify maps a start error to its cause. Wrapped sentinels win; otherwise
// the error text is matched against the usual V4L2/GStreamer phrasings.
func Classify(err error) Cause {
	switch {
	case errors.Is(err, ErrPermission):
		return CausePermission
	case errors.Is(err, ErrNotFound):
		return CauseNotFound
	case errors.Is(err, ErrBusy):
		return CauseBusy
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "not allowed"):
		return CausePermission
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "no such device"),
		strings.Contains(msg, "not found"):
		return CauseNotFound
	case strings.Contains(msg, "busy"), strings.Contains(msg, "resource unavailable"),
		strings.Contains(msg, "in use"):
		return CauseBusy
	}
	return CauseOther
}

// Message returns the user-facing notification text for a cause.
func (c Cause) Message() string {
	switch c {
	case CausePermission:
		return "Camera access denied. Please allow camera access."
	case CauseNotFound:
		return "No camera found. Please connect a camera."
	case CauseBusy:
		return "Camera is in use by another application."
	default:
		return "Failed to start camera."
	}
}
