package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/classgate/kiosk/internal/camera"
	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/kiosk"
	"github.com/classgate/kiosk/internal/notify"
)

// StateHandler serves the kiosk state machine: snapshots, navigation, form
// edits, and registration captures.
type StateHandler struct {
	config  *config.Config
	session *kiosk.Session
	notes   *notify.Center
	baseCtx context.Context
}

// NewStateHandler creates a state handler. The base context bounds camera
// sessions started by navigation, which outlive the triggering request.
func NewStateHandler(cfg *config.Config, session *kiosk.Session, notes *notify.Center, baseCtx context.Context) *StateHandler {
	return &StateHandler{config: cfg, session: session, notes: notes, baseCtx: baseCtx}
}

// Get returns the current kiosk state plus the active notification.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"state":        h.session.State(),
		"notification": h.notes.Current(),
		"min_images":   h.config.Capture.MinImages,
		"display_cap":  h.config.Capture.DisplayCap,
	})
}

// Navigate switches the active view.
func (h *StateHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.session.Navigate(h.baseCtx, kiosk.View(req.View)); err != nil {
		slog.Warn("navigation rejected", "view", sanitizeForLog(req.View))
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.session.State())
}

// UpdateForm replaces the registration form fields.
func (h *StateHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var form kiosk.Form
	if !decodeJSON(w, r, &form) {
		return
	}

	h.session.UpdateForm(form)
	respondJSON(w, http.StatusOK, h.session.State())
}

// Capture grabs the current frame for registration.
func (h *StateHandler) Capture(w http.ResponseWriter, r *http.Request) {
	_, count, err := h.session.CaptureImage()
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, camera.ErrNotReady) {
			status = http.StatusConflict
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"captured": count})
}

// ClearCaptures discards the captured registration frames.
func (h *StateHandler) ClearCaptures(w http.ResponseWriter, r *http.Request) {
	h.session.ClearCaptures()
	respondJSON(w, http.StatusOK, map[string]int{"captured": 0})
}

// Register validates and submits the registration.
func (h *StateHandler) Register(w http.ResponseWriter, r *http.Request) {
	result, err := h.session.SubmitRegistration(r.Context())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
