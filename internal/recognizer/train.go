package recognizer

import (
	"context"
	"net/url"
	"strings"
)

// Train asks the service to retrain its face model. With empty section/year
// qualifiers the service trains the teacher model; otherwise the student
// model for that section and year.
func (c *Client) Train(ctx context.Context, section, year string) (*TrainResult, error) {
	form := url.Values{}
	form.Set("section", section)
	form.Set("year", year)

	return doPostJSON[TrainResult](ctx, c, "train",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

// ListTeachers fetches all registered teachers from the service.
func (c *Client) ListTeachers(ctx context.Context) (*TeacherList, error) {
	return doGetJSON[TeacherList](ctx, c, "debug/teachers")
}

// Health reports whether the service and its database are reachable.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	return doGetJSON[HealthStatus](ctx, c, "health")
}
