package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// doGetJSON performs a GET request and unmarshals the JSON response into the result type.
// The endpoint should be the path after the base URL (e.g., "debug/teachers").
func doGetJSON[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	url := c.resolveURL(strings.Split(endpoint, "/")...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	return decodeJSONResponse[T](c, endpoint, resp)
}

// doPostJSON performs a POST request with a pre-built body and content type,
// then unmarshals the JSON response. All POST endpoints of the service accept
// either multipart or url-encoded forms, never JSON bodies.
func doPostJSON[T any](ctx context.Context, c *Client, endpoint, contentType string, body io.Reader) (*T, error) {
	url := c.resolveURL(strings.Split(endpoint, "/")...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	return decodeJSONResponse[T](c, endpoint, resp)
}

// decodeJSONResponse checks the status code, captures the body if enabled,
// and unmarshals it into the result type. Non-2xx responses become APIError
// carrying the server's detail message when one is present.
func decodeJSONResponse[T any](c *Client, endpoint string, resp *http.Response) (*T, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	c.captureResponse(endpoint, body)

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}

// newAPIError extracts the "detail" field from an error body when present.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &APIError{StatusCode: status, Detail: payload.Detail}
	}
	return &APIError{StatusCode: status, Detail: strings.TrimSpace(string(body))}
}
