package kiosk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/classgate/kiosk/internal/camera"
	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/notify"
	"github.com/classgate/kiosk/internal/overlay"
	"github.com/classgate/kiosk/internal/recognizer"
)

// ErrNotRecognizing is returned by operations that require an active
// recognition loop.
var ErrNotRecognizing = errors.New("recognition is not running")

// Recognizer is the slice of the recognition client the session needs.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (*recognizer.Recognition, error)
	RegisterTeacher(ctx context.Context, reg recognizer.TeacherRegistration) (*recognizer.RegisterResult, error)
}

// Camera is the slice of the camera controller the session needs.
type Camera interface {
	Start(ctx context.Context) error
	Stop() error
	Ready() bool
	ReadySignal() <-chan struct{}
	LatestFrame() *camera.Frame
	CaptureFrame(quality int) ([]byte, error)
}

// Session drives one kiosk instance: it owns the state machine, the camera
// lifecycle per view, the captured registration images, and the recognition
// polling loop.
type Session struct {
	Events Broadcaster

	cfg   *config.Config
	rec   Recognizer
	cam   Camera
	notes *notify.Center

	mu       sync.Mutex
	state    State
	captures [][]byte

	pollCancel context.CancelFunc
	pollWg     sync.WaitGroup

	// Polling discipline: at most one recognition request in flight, and
	// responses apply in issue order. A response older than the newest
	// applied one is discarded.
	inFlight   atomic.Bool
	tickSeq    atomic.Uint64
	appliedSeq uint64

	recognizeFailing bool
	noMatchNotified  bool
}

// NewSession wires the session's collaborators. Notification changes are
// re-broadcast to UI listeners.
func NewSession(cfg *config.Config, rec Recognizer, cam Camera, notes *notify.Center) *Session {
	s := &Session{
		cfg:   cfg,
		rec:   rec,
		cam:   cam,
		notes: notes,
		state: InitialState(),
	}
	notes.SetListener(func(m *notify.Message) {
		s.Events.Send(StateEvent{Type: "notification", Data: m})
	})
	return s
}

// State returns a snapshot of the current kiosk state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CapturedImages returns copies of the captured registration frames.
func (s *Session) CapturedImages() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.captures))
	copy(out, s.captures)
	return out
}

// apply folds an event into the state and broadcasts the new snapshot.
func (s *Session) apply(ev Event) State {
	s.mu.Lock()
	s.state = Apply(s.state, ev)
	next := s.state
	s.mu.Unlock()

	s.Events.Send(StateEvent{Type: "state", Data: next})
	return next
}

// Navigate switches views. The previous view's resources are torn down
// before the new view starts: the polling loop stops, the camera is
// released, captures and form are dropped. Views that need the camera
// acquire it after the switch.
func (s *Session) Navigate(ctx context.Context, to View) error {
	if !to.Valid() {
		return fmt.Errorf("unknown view %q", to)
	}
	if s.State().View == to {
		return nil
	}

	s.stopPolling()
	if err := s.cam.Stop(); err != nil {
		slog.Warn("failed to stop camera during navigation", "error", err)
	}

	s.mu.Lock()
	s.captures = nil
	s.mu.Unlock()

	s.apply(Navigated{To: to})
	slog.Info("view changed", "view", to)

	if to == ViewCapture || to == ViewRecognize {
		// The view switch stands even when the camera fails; the error has
		// already been surfaced as a notification.
		_ = s.acquireCamera(ctx)
	}
	return nil
}

// acquireCamera starts the camera for the active view. Start failures
// surface as an error notification; readiness flips when the first frame
// arrives, which may be after Start returns.
func (s *Session) acquireCamera(ctx context.Context) error {
	view := s.State().View

	if err := s.cam.Start(ctx); err != nil {
		cause := camera.Classify(err)
		slog.Error("camera start failed", "view", view, "cause", cause, "error", err)
		s.notes.Push(cause.Message(), notify.Error)
		return err
	}

	if s.cam.Ready() {
		s.cameraBecameReady()
		return nil
	}

	// The device is acquired but no frame arrived within the grace period.
	// Wait for the first frame in the background and flip readiness then.
	signal := s.cam.ReadySignal()
	go func() {
		select {
		case <-signal:
			if s.State().View == view {
				s.cameraBecameReady()
			}
		case <-ctx.Done():
		}
	}()
	return nil
}

func (s *Session) cameraBecameReady() {
	s.apply(CameraReady{})
	s.notes.Push("Camera ready.", notify.Success)
}

// CaptureImage grabs the current frame for registration and returns it with
// the new capture count.
func (s *Session) CaptureImage() ([]byte, int, error) {
	st := s.State()
	if st.View != ViewCapture {
		return nil, 0, fmt.Errorf("capture is only available on the capture view")
	}

	data, err := s.cam.CaptureFrame(s.cfg.Capture.ManualJPEGQuality)
	if err != nil {
		if errors.Is(err, camera.ErrNotReady) {
			s.notes.Push("Camera is still starting, try again.", notify.Info)
		}
		return nil, 0, err
	}

	s.mu.Lock()
	s.captures = append(s.captures, data)
	count := len(s.captures)
	s.mu.Unlock()

	s.apply(FrameCaptured{})
	return data, count, nil
}

// ClearCaptures discards all captured frames.
func (s *Session) ClearCaptures() {
	s.mu.Lock()
	s.captures = nil
	s.mu.Unlock()
	s.apply(CapturesCleared{})
}

// UpdateForm replaces the registration form fields.
func (s *Session) UpdateForm(f Form) {
	s.apply(FormUpdated{Form: f})
}

// SubmitRegistration validates the form and captured frames locally, sends
// the registration, and on success schedules the return to the home view
// after the redirect delay.
func (s *Session) SubmitRegistration(ctx context.Context) (*recognizer.RegisterResult, error) {
	st := s.State()
	if st.View != ViewCapture {
		return nil, fmt.Errorf("registration is only available on the capture view")
	}
	if st.Submitting {
		return nil, fmt.Errorf("a registration is already in progress")
	}

	images := s.CapturedImages()
	if err := s.validateRegistration(st.Form, images); err != nil {
		s.notes.Push(err.Error(), notify.Error)
		return nil, err
	}

	s.apply(SubmitStarted{})

	result, err := s.rec.RegisterTeacher(ctx, recognizer.TeacherRegistration{
		TeacherID: st.Form.TeacherID,
		Name:      st.Form.Name,
		Phone:     st.Form.Phone,
		Email:     st.Form.Email,
		Salary:    st.Form.Salary,
		Images:    images,
	})
	if err != nil {
		slog.Error("registration failed", "teacher_id", st.Form.TeacherID, "error", err)
		detail := recognizer.ErrorDetail(err)
		if detail == "" {
			detail = "Registration failed. Please try again."
		}
		s.notes.Push(detail, notify.Error)
		s.apply(SubmitFinished{OK: false})
		return nil, err
	}

	slog.Info("teacher registered", "teacher_id", st.Form.TeacherID, "name", st.Form.Name)
	s.notes.Push(result.Message, notify.Success)
	s.apply(SubmitFinished{OK: true})
	s.scheduleRedirect()
	return result, nil
}

func (s *Session) validateRegistration(f Form, images [][]byte) error {
	if f.Name == "" || f.TeacherID == "" {
		return fmt.Errorf("name and teacher ID are required")
	}
	if min := s.cfg.Capture.MinImages; len(images) < min {
		return fmt.Errorf("need at least %d captured images, have %d", min, len(images))
	}
	return nil
}

// scheduleRedirect returns to the home view after the configured delay, so
// the success notification stays visible for a moment.
func (s *Session) scheduleRedirect() {
	time.AfterFunc(s.cfg.Timing.RedirectDelay, func() {
		if s.State().View == ViewCapture {
			if err := s.Navigate(context.Background(), ViewHome); err != nil {
				slog.Warn("redirect to home failed", "error", err)
			}
		}
	})
}

// StartRecognition begins the polling loop. A stopped camera is restarted
// first, so a re-click recovers from an earlier camera failure. The first
// request goes out after the warmup delay, then one per poll interval, with
// at most one in flight.
func (s *Session) StartRecognition(ctx context.Context) error {
	st := s.State()
	if st.View != ViewRecognize {
		return fmt.Errorf("recognition is only available on the recognize view")
	}
	if st.Recognizing {
		return nil
	}
	if !st.CameraReady {
		if err := s.acquireCamera(ctx); err != nil {
			return err
		}
	}

	pollCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.pollCancel = cancel
	s.recognizeFailing = false
	s.noMatchNotified = false
	s.mu.Unlock()

	s.apply(RecognitionStarted{})

	s.pollWg.Add(1)
	go s.pollLoop(pollCtx)
	return nil
}

// StopRecognition halts the polling loop and releases the camera. No tick
// fires after it returns, and any straggler response is discarded by the
// state machine.
func (s *Session) StopRecognition() {
	s.stopPolling()
	if err := s.cam.Stop(); err != nil {
		slog.Warn("failed to stop camera after recognition", "error", err)
	}
	s.apply(RecognitionStopped{})
	s.apply(CameraStopped{})
	s.notes.Push("Recognition stopped.", notify.Info)
}

func (s *Session) stopPolling() {
	s.mu.Lock()
	cancel := s.pollCancel
	s.pollCancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.pollWg.Wait()
}

func (s *Session) pollLoop(ctx context.Context) {
	defer s.pollWg.Done()

	select {
	case <-time.After(s.cfg.Timing.CameraWarmup):
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(s.cfg.Timing.PollInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick issues one recognition request unless one is already in flight. The
// request runs off the loop goroutine so a slow service never delays the
// ticker; the in-flight guard keeps requests serialized anyway.
func (s *Session) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	seq := s.tickSeq.Add(1)

	go func() {
		defer s.inFlight.Store(false)

		frame, err := s.cam.CaptureFrame(s.cfg.Capture.PollingJPEGQuality)
		if err != nil {
			slog.Debug("skipping recognition tick", "seq", seq, "error", err)
			return
		}

		result, err := s.rec.Recognize(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.reportRecognizeError(err)
			return
		}
		s.applyResult(seq, result)
	}()
}

// applyResult installs a recognition response unless a newer one already
// landed or the loop stopped meanwhile.
func (s *Session) applyResult(seq uint64, result *recognizer.Recognition) {
	s.mu.Lock()
	if seq <= s.appliedSeq {
		s.mu.Unlock()
		slog.Debug("discarding stale recognition response", "seq", seq)
		return
	}
	s.appliedSeq = seq
	s.recognizeFailing = false
	s.mu.Unlock()

	s.apply(ResultReceived{Result: result})
	if result.Match {
		s.mu.Lock()
		s.noMatchNotified = false
		s.mu.Unlock()
		slog.Info("face recognized",
			"name", result.Name,
			"role", result.Role,
			"confidence", result.Confidence,
		)
		return
	}
	s.reportNoMatch()
}

// reportNoMatch raises the no-match notification once per streak of Unknown
// results, so an empty room does not re-trigger the banner every tick.
func (s *Session) reportNoMatch() {
	s.mu.Lock()
	first := !s.noMatchNotified
	s.noMatchNotified = true
	s.mu.Unlock()

	if first {
		s.notes.Push("Face not recognized.", notify.Error)
	}
}

// reportRecognizeError notifies once per failure streak instead of every
// tick, so a dead service does not flood the banner.
func (s *Session) reportRecognizeError(err error) {
	s.mu.Lock()
	first := !s.recognizeFailing
	s.recognizeFailing = true
	s.mu.Unlock()

	slog.Warn("recognition request failed", "error", err)
	if first {
		s.notes.Push("Recognition service unavailable.", notify.Error)
	}
}

// RecognizeOnce sends a single out-of-cadence recognition request with the
// current frame. It is only available while the polling loop is active and
// shares the loop's sequence numbering, so ticks and manual requests apply
// in one order.
func (s *Session) RecognizeOnce(ctx context.Context) (*recognizer.Recognition, error) {
	if !s.State().Recognizing {
		return nil, ErrNotRecognizing
	}

	frame, err := s.cam.CaptureFrame(s.cfg.Capture.ManualJPEGQuality)
	if err != nil {
		return nil, err
	}

	result, err := s.rec.Recognize(ctx, frame)
	if err != nil {
		return nil, err
	}

	seq := s.tickSeq.Add(1)
	s.applyResult(seq, result)
	return result, nil
}

// Snapshot returns the latest frame as JPEG, annotated with the current
// recognition result when one is present.
func (s *Session) Snapshot() ([]byte, error) {
	frame := s.cam.LatestFrame()
	if frame == nil || !s.cam.Ready() {
		return nil, camera.ErrNotReady
	}

	st := s.State()
	annotated := overlay.Render(frame.Image, st.Result)
	return encodeJPEG(annotated, s.cfg.Capture.ManualJPEGQuality)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("could not encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Close tears the session down: polling loop, camera, listeners.
func (s *Session) Close() error {
	s.stopPolling()
	err := s.cam.Stop()
	s.Events.Close()
	return err
}
