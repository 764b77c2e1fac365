package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
)

// MinRegistrationImages is the minimum number of face images the service
// accepts for a registration.
const MinRegistrationImages = 5

// RegisterTeacher submits teacher metadata plus face images as a single
// multipart request. The service overwrites an existing record with the same
// teacher ID, replacing its stored images.
func (c *Client) RegisterTeacher(ctx context.Context, reg TeacherRegistration) (*RegisterResult, error) {
	if reg.Name == "" || reg.TeacherID == "" {
		return nil, fmt.Errorf("recognizer: name and teacher ID are required")
	}
	if len(reg.Images) < MinRegistrationImages {
		return nil, fmt.Errorf("recognizer: at least %d images required, got %d",
			MinRegistrationImages, len(reg.Images))
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"name":       reg.Name,
		"teacher_id": reg.TeacherID,
	}
	// Optional fields are omitted entirely when empty.
	if reg.Phone != "" {
		fields["phone"] = reg.Phone
	}
	if reg.Email != "" {
		fields["email"] = reg.Email
	}
	if reg.Salary != "" {
		fields["salary"] = reg.Salary
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("could not write field %s: %w", name, err)
		}
	}

	for idx, image := range reg.Images {
		part, err := writer.CreateFormFile("images", fmt.Sprintf("image_%d.jpg", idx))
		if err != nil {
			return nil, fmt.Errorf("could not create form file: %w", err)
		}
		if _, err := part.Write(image); err != nil {
			return nil, fmt.Errorf("could not write image data: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	return doPostJSON[RegisterResult](ctx, c, "register/teacher", writer.FormDataContentType(), &body)
}
