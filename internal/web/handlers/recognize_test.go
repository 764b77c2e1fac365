package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/classgate/kiosk/internal/kiosk"
)

func TestRecognizeHandler_StartRequiresRecognizeView(t *testing.T) {
	session, _, cfg := newTestSession(t)
	h := NewRecognizeHandler(cfg, session, context.Background())

	recorder := httptest.NewRecorder()
	h.Start(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/recognize/start", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 outside recognize view, got %d", recorder.Code)
	}
}

func TestRecognizeHandler_StartStop(t *testing.T) {
	session, _, cfg := newTestSession(t)
	h := NewRecognizeHandler(cfg, session, context.Background())

	if err := session.Navigate(context.Background(), kiosk.ViewRecognize); err != nil {
		t.Fatalf("navigation failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	h.Start(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/recognize/start", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !session.State().Recognizing {
		t.Fatal("expected recognizing state after start")
	}

	recorder = httptest.NewRecorder()
	h.Stop(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/recognize/stop", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if session.State().Recognizing {
		t.Error("expected recognition stopped")
	}
}

func TestRecognizeHandler_Once(t *testing.T) {
	session, _, cfg := newTestSession(t)
	h := NewRecognizeHandler(cfg, session, context.Background())

	// The loop is not running: conflict.
	recorder := httptest.NewRecorder()
	h.Once(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/recognize/once", nil))
	if recorder.Code != http.StatusConflict {
		t.Errorf("expected status 409 while not recognizing, got %d", recorder.Code)
	}

	if err := session.Navigate(context.Background(), kiosk.ViewRecognize); err != nil {
		t.Fatalf("navigation failed: %v", err)
	}

	// Still not recognizing on the recognize view: conflict.
	recorder = httptest.NewRecorder()
	h.Once(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/recognize/once", nil))
	if recorder.Code != http.StatusConflict {
		t.Errorf("expected status 409 before start, got %d", recorder.Code)
	}

	if err := session.StartRecognition(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	recorder = httptest.NewRecorder()
	h.Once(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/recognize/once", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestRecognizeHandler_Frame(t *testing.T) {
	session, _, cfg := newTestSession(t)
	h := NewRecognizeHandler(cfg, session, context.Background())

	recorder := httptest.NewRecorder()
	h.Frame(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/frame", nil))
	if recorder.Code != http.StatusConflict {
		t.Errorf("expected status 409 without camera, got %d", recorder.Code)
	}

	if err := session.Navigate(context.Background(), kiosk.ViewRecognize); err != nil {
		t.Fatalf("navigation failed: %v", err)
	}

	recorder = httptest.NewRecorder()
	h.Frame(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/frame", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}
	if recorder.Body.Len() == 0 {
		t.Error("expected non-empty frame body")
	}
}

func TestRecognizeHandler_LoopSurvivesRequestEnd(t *testing.T) {
	session, _, cfg := newTestSession(t)
	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewRecognizeHandler(cfg, session, baseCtx)

	if err := session.Navigate(context.Background(), kiosk.ViewRecognize); err != nil {
		t.Fatalf("navigation failed: %v", err)
	}

	// Simulate a request whose context dies as soon as the handler returns.
	reqCtx, cancelReq := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recognize/start", nil).WithContext(reqCtx)
	recorder := httptest.NewRecorder()
	h.Start(recorder, req)
	cancelReq()

	time.Sleep(50 * time.Millisecond)
	if !session.State().Recognizing {
		t.Error("polling loop must not stop with the request context")
	}
}
