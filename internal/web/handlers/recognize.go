package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/classgate/kiosk/internal/camera"
	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/kiosk"
)

// RecognizeHandler controls the recognition polling loop and serves the
// annotated camera frame.
type RecognizeHandler struct {
	config  *config.Config
	session *kiosk.Session
	baseCtx context.Context
}

// NewRecognizeHandler creates a recognize handler. The base context bounds
// the polling loop's lifetime, since the loop outlives the request that
// started it.
func NewRecognizeHandler(cfg *config.Config, session *kiosk.Session, baseCtx context.Context) *RecognizeHandler {
	return &RecognizeHandler{config: cfg, session: session, baseCtx: baseCtx}
}

// Start begins the polling loop.
func (h *RecognizeHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StartRecognition(h.baseCtx); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, camera.ErrNotReady) {
			status = http.StatusConflict
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.session.State())
}

// Stop halts the polling loop.
func (h *RecognizeHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.session.StopRecognition()
	respondJSON(w, http.StatusOK, h.session.State())
}

// Once sends a single recognition request with the current frame. Only
// available while the polling loop is running.
func (h *RecognizeHandler) Once(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.RecognizeOnce(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, camera.ErrNotReady) || errors.Is(err, kiosk.ErrNotRecognizing) {
			status = http.StatusConflict
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Frame serves the latest camera frame as JPEG, annotated with the current
// recognition result.
func (h *RecognizeHandler) Frame(w http.ResponseWriter, r *http.Request) {
	data, err := h.session.Snapshot()
	if err != nil {
		if errors.Is(err, camera.ErrNotReady) {
			respondError(w, http.StatusConflict, "camera not ready")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
