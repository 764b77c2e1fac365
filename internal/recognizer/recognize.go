package recognizer

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
)

// Recognize submits a single JPEG frame to the recognition endpoint and maps
// the response. The client's section/year qualifiers are sent with every
// request; empty strings select the teacher model.
func (c *Client) Recognize(ctx context.Context, image []byte) (*Recognition, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("recognizer: empty image")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("could not write image data: %w", err)
	}
	if err := writer.WriteField("section", c.section); err != nil {
		return nil, fmt.Errorf("could not write section field: %w", err)
	}
	if err := writer.WriteField("year", c.year); err != nil {
		return nil, fmt.Errorf("could not write year field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	raw, err := doPostJSON[rawRecognition](ctx, c, "test", writer.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}

	rec := mapRecognition(raw)
	return &rec, nil
}
