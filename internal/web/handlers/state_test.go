package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classgate/kiosk/internal/kiosk"
)

func TestStateHandler_Get(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	recorder := httptest.NewRecorder()
	h.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var body struct {
		State     kiosk.State `json:"state"`
		MinImages int         `json:"min_images"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.State.View != kiosk.ViewHome {
		t.Errorf("expected home view, got %q", body.State.View)
	}
	if body.MinImages != cfg.Capture.MinImages {
		t.Errorf("expected min_images %d, got %d", cfg.Capture.MinImages, body.MinImages)
	}
}

func TestStateHandler_Navigate(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/navigate", strings.NewReader(`{"view":"capture"}`))
	h.Navigate(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if session.State().View != kiosk.ViewCapture {
		t.Errorf("expected capture view, got %q", session.State().View)
	}
}

func TestStateHandler_NavigateRejectsUnknownView(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/navigate", strings.NewReader(`{"view":"admin"}`))
	h.Navigate(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestStateHandler_NavigateRejectsInvalidBody(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/navigate", strings.NewReader("not json"))
	h.Navigate(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestStateHandler_CaptureFlow(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	// Capture before entering the capture view fails.
	recorder := httptest.NewRecorder()
	h.Capture(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/capture", nil))
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 before capture view, got %d", recorder.Code)
	}

	if err := session.Navigate(context.Background(), kiosk.ViewCapture); err != nil {
		t.Fatalf("navigation failed: %v", err)
	}

	recorder = httptest.NewRecorder()
	h.Capture(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/capture", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var body map[string]int
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["captured"] != 1 {
		t.Errorf("expected 1 capture, got %d", body["captured"])
	}

	recorder = httptest.NewRecorder()
	h.ClearCaptures(recorder, httptest.NewRequest(http.MethodDelete, "/api/v1/capture", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if session.State().Captured != 0 {
		t.Errorf("expected captures cleared, got %d", session.State().Captured)
	}
}

func TestStateHandler_UpdateForm(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/form",
		strings.NewReader(`{"name":"Ada Lovelace","teacher_id":"T1","email":"ada@example.com"}`))
	h.UpdateForm(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	form := session.State().Form
	if form.Name != "Ada Lovelace" || form.TeacherID != "T1" {
		t.Errorf("form not stored: %+v", form)
	}
}

func TestStateHandler_RegisterValidation(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	if err := session.Navigate(context.Background(), kiosk.ViewCapture); err != nil {
		t.Fatalf("navigation failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	h.Register(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/register", nil))
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for empty form, got %d", recorder.Code)
	}
}

func TestStateHandler_RegisterSuccess(t *testing.T) {
	session, notes, cfg := newTestSession(t)
	h := NewStateHandler(cfg, session, notes, context.Background())

	if err := session.Navigate(context.Background(), kiosk.ViewCapture); err != nil {
		t.Fatalf("navigation failed: %v", err)
	}
	session.UpdateForm(kiosk.Form{Name: "Ada", TeacherID: "T1"})
	for i := 0; i < cfg.Capture.MinImages; i++ {
		if _, _, err := session.CaptureImage(); err != nil {
			t.Fatalf("capture failed: %v", err)
		}
	}

	recorder := httptest.NewRecorder()
	h.Register(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/register", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
}
