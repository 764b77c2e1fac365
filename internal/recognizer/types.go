package recognizer

import (
	"errors"
	"fmt"
)

// UnknownName is the sentinel the service returns when no face matched.
const UnknownName = "Unknown"

// Recognition is the mapped result of a single recognition request.
type Recognition struct {
	Match      bool    `json:"match"`
	Name       string  `json:"name"`
	ID         string  `json:"id"`
	Role       string  `json:"role"`
	Confidence float64 `json:"confidence"` // 0-1
	Message    string  `json:"message,omitempty"`
	// Box is the detected face bounding box as relative corner coordinates
	// [x1, y1, x2, y2]. The current service does not report one; renderers
	// fall back to placeholder geometry when nil.
	Box []float64 `json:"box,omitempty"`
}

// rawRecognition is the wire shape of the /test response.
type rawRecognition struct {
	Name       string    `json:"name"`
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Confidence float64   `json:"confidence"`
	Message    string    `json:"message"`
	Box        []float64 `json:"box"`
}

// mapRecognition converts a wire response into a Recognition.
// A missing id becomes "N/A" and a missing confidence stays 0.
func mapRecognition(raw *rawRecognition) Recognition {
	rec := Recognition{
		Match:      raw.Name != "" && raw.Name != UnknownName,
		Name:       raw.Name,
		ID:         raw.ID,
		Role:       raw.Role,
		Confidence: raw.Confidence,
		Message:    raw.Message,
	}
	if rec.ID == "" {
		rec.ID = "N/A"
	}
	if len(raw.Box) == 4 {
		rec.Box = raw.Box
	}
	return rec
}

// TeacherRegistration is the payload for registering a teacher.
type TeacherRegistration struct {
	TeacherID string
	Name      string
	Phone     string
	Email     string
	Salary    string
	Images    [][]byte // JPEG blobs, at least five
}

// Teacher is one entry of the service's teacher listing.
type Teacher struct {
	TeacherID string `json:"teacher_id"`
	Name      string `json:"teacher_name"`
	Phone     string `json:"phone_number"`
	Email     string `json:"email"`
	Salary    string `json:"salary"`
}

// TeacherList is the /debug/teachers response.
type TeacherList struct {
	TotalCount int       `json:"total_count"`
	Teachers   []Teacher `json:"teachers"`
}

// RegisterResult is the /register/teacher response.
type RegisterResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ImagesUploaded int    `json:"images_uploaded"`
	Folder         string `json:"folder"`
}

// TrainResult is the /train response. The service fills exactly one of the
// trained counters depending on whether it trained the teacher or a
// section/year student model.
type TrainResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ModelPath       string `json:"model_path"`
	TeachersTrained int    `json:"teachers_trained"`
	StudentsTrained int    `json:"students_trained"`
	EncodingsCount  int    `json:"encodings_count"`
}

// HealthStatus is the /health response.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// APIError is a non-2xx response from the service. Detail carries the
// server-provided message when present.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("recognizer: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("recognizer: request failed with status %d", e.StatusCode)
}

// ErrorDetail returns the server-provided detail message from err, or the
// empty string when err is not an APIError or carries no detail.
func ErrorDetail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
