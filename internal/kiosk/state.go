// Package kiosk holds the kiosk's view state machine and the session that
// drives it: navigation between views, capture bookkeeping, registration
// submission, and the recognition polling loop.
package kiosk

import "github.com/classgate/kiosk/internal/recognizer"

// View identifies which screen the kiosk shows.
type View string

const (
	ViewHome      View = "home"
	ViewCapture   View = "capture"
	ViewRecognize View = "recognize"
)

// Valid reports whether v names a known view.
func (v View) Valid() bool {
	switch v {
	case ViewHome, ViewCapture, ViewRecognize:
		return true
	}
	return false
}

// Form holds the registration fields typed so far.
type Form struct {
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Salary    string `json:"salary"`
}

// State is a snapshot of the kiosk. Transitions go through Apply so every
// state change is a pure function of the previous state and one event.
type State struct {
	View        View                    `json:"view"`
	Form        Form                    `json:"form"`
	Captured    int                     `json:"captured"`
	CameraReady bool                    `json:"camera_ready"`
	Recognizing bool                    `json:"recognizing"`
	Submitting  bool                    `json:"submitting"`
	Result      *recognizer.Recognition `json:"result,omitempty"`
}

// InitialState is the kiosk at boot: home view, everything idle.
func InitialState() State {
	return State{View: ViewHome}
}

// Event is a state machine input. Each concrete event describes one thing
// that happened; Apply folds it into the state.
type Event interface {
	isEvent()
}

type (
	// Navigated switches the active view.
	Navigated struct{ To View }
	// CameraReady marks the camera as delivering frames.
	CameraReady struct{}
	// CameraStopped marks the camera as released.
	CameraStopped struct{}
	// FrameCaptured records one more captured registration image.
	FrameCaptured struct{}
	// CapturesCleared discards the captured images.
	CapturesCleared struct{}
	// FormUpdated replaces the registration form fields.
	FormUpdated struct{ Form Form }
	// SubmitStarted marks a registration submission in progress.
	SubmitStarted struct{}
	// SubmitFinished ends a submission. OK resets the form and captures.
	SubmitFinished struct{ OK bool }
	// RecognitionStarted begins the polling loop.
	RecognitionStarted struct{}
	// RecognitionStopped ends the polling loop and discards the result.
	RecognitionStopped struct{}
	// ResultReceived installs the latest recognition response.
	ResultReceived struct{ Result *recognizer.Recognition }
)

func (Navigated) isEvent()          {}
func (CameraReady) isEvent()        {}
func (CameraStopped) isEvent()      {}
func (FrameCaptured) isEvent()      {}
func (CapturesCleared) isEvent()    {}
func (FormUpdated) isEvent()        {}
func (SubmitStarted) isEvent()      {}
func (SubmitFinished) isEvent()     {}
func (RecognitionStarted) isEvent() {}
func (RecognitionStopped) isEvent() {}
func (ResultReceived) isEvent()     {}

// Apply folds one event into the state. It never mutates its input and has
// no side effects, so the same state and event always produce the same
// successor.
func Apply(s State, ev Event) State {
	switch e := ev.(type) {
	case Navigated:
		if !e.To.Valid() || e.To == s.View {
			return s
		}
		// Leaving a view abandons everything that belonged to it.
		next := InitialState()
		next.View = e.To
		return next

	case CameraReady:
		s.CameraReady = true
		return s

	case CameraStopped:
		s.CameraReady = false
		s.Recognizing = false
		s.Result = nil
		return s

	case FrameCaptured:
		if s.View != ViewCapture || !s.CameraReady {
			return s
		}
		s.Captured++
		return s

	case CapturesCleared:
		s.Captured = 0
		return s

	case FormUpdated:
		s.Form = e.Form
		return s

	case SubmitStarted:
		if s.View != ViewCapture {
			return s
		}
		s.Submitting = true
		return s

	case SubmitFinished:
		s.Submitting = false
		if e.OK {
			s.Form = Form{}
			s.Captured = 0
		}
		return s

	case RecognitionStarted:
		if s.View != ViewRecognize {
			return s
		}
		// Recognition may begin while the camera is still warming up; ticks
		// skip silently until frames arrive.
		s.Recognizing = true
		return s

	case RecognitionStopped:
		s.Recognizing = false
		s.Result = nil
		return s

	case ResultReceived:
		if !s.Recognizing {
			// A straggler response after stop must not resurrect the view.
			return s
		}
		s.Result = e.Result
		return s
	}
	return s
}
