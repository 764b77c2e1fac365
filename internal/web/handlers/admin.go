package handlers

import (
	"log/slog"
	"net/http"

	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/recognizer"
)

// AdminHandler proxies maintenance operations to the recognition service:
// model training and the registered-teacher listing.
type AdminHandler struct {
	config *config.Config
	client *recognizer.Client
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(cfg *config.Config, client *recognizer.Client) *AdminHandler {
	return &AdminHandler{config: cfg, client: client}
}

// Train triggers model training. An empty section and year trains the
// teacher model.
func (h *AdminHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Section string `json:"section"`
		Year    string `json:"year"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.client.Train(r.Context(), req.Section, req.Year)
	if err != nil {
		slog.Error("training failed", "section", sanitizeForLog(req.Section), "error", err)
		respondError(w, http.StatusBadGateway, serviceError(err))
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Teachers lists the registered teachers.
func (h *AdminHandler) Teachers(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.ListTeachers(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, serviceError(err))
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// ServiceHealth reports whether the recognition service is reachable.
func (h *AdminHandler) ServiceHealth(w http.ResponseWriter, r *http.Request) {
	status, err := h.client.Health(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, serviceError(err))
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// serviceError prefers the service's detail message over the raw error text.
func serviceError(err error) string {
	if detail := recognizer.ErrorDetail(err); detail != "" {
		return detail
	}
	return err.Error()
}
