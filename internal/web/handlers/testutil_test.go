package handlers

import (
	"context"
	"image"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/classgate/kiosk/internal/camera"
	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/kiosk"
	"github.com/classgate/kiosk/internal/notify"
	"github.com/classgate/kiosk/internal/recognizer"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Timing: config.TimingConfig{
			PollInterval:    20 * time.Millisecond,
			CameraWarmup:    time.Millisecond,
			NotificationTTL: time.Minute,
			RedirectDelay:   time.Minute, // keep tests on the capture view
		},
		Capture: config.CaptureConfig{
			MinImages:          2,
			DisplayCap:         10,
			ManualJPEGQuality:  95,
			PollingJPEGQuality: 80,
		},
	}
}

// stubCamera is always ready and serves a tiny frame.
type stubCamera struct {
	mu      sync.Mutex
	ready   bool
	readyCh chan struct{}
}

func (c *stubCamera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true
	c.readyCh = make(chan struct{})
	close(c.readyCh)
	return nil
}

func (c *stubCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = false
	return nil
}

func (c *stubCamera) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *stubCamera) ReadySignal() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyCh
}

func (c *stubCamera) LatestFrame() *camera.Frame {
	if !c.Ready() {
		return nil
	}
	return &camera.Frame{Width: 4, Height: 4, Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}
}

func (c *stubCamera) CaptureFrame(quality int) ([]byte, error) {
	if !c.Ready() {
		return nil, camera.ErrNotReady
	}
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

// stubRecognizer answers every request with a fixed result.
type stubRecognizer struct {
	mu         sync.Mutex
	result     *recognizer.Recognition
	registered int
}

func (s *stubRecognizer) Recognize(ctx context.Context, img []byte) (*recognizer.Recognition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return s.result, nil
	}
	return &recognizer.Recognition{Name: recognizer.UnknownName, ID: "N/A"}, nil
}

func (s *stubRecognizer) RegisterTeacher(ctx context.Context, reg recognizer.TeacherRegistration) (*recognizer.RegisterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered++
	return &recognizer.RegisterResult{Message: "Teacher registered successfully"}, nil
}

// newTestSession builds a session wired to stubs, torn down with the test.
func newTestSession(t *testing.T) (*kiosk.Session, *notify.Center, *config.Config) {
	t.Helper()
	cfg := testConfig()
	notes := notify.NewCenter(cfg.Timing.NotificationTTL)
	session := kiosk.NewSession(cfg, &stubRecognizer{}, &stubCamera{}, notes)
	t.Cleanup(func() { _ = session.Close() })
	return session, notes, cfg
}

// newMockServiceClient creates a recognizer client pointed at a mock service.
func newMockServiceClient(t *testing.T, mux *httptest.Server) *recognizer.Client {
	t.Helper()
	client, err := recognizer.NewClient(mux.URL, "", "")
	if err != nil {
		t.Fatalf("failed to create recognizer client: %v", err)
	}
	return client
}
