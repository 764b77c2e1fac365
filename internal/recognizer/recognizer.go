package recognizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client talks to the face recognition service.
type Client struct {
	Url        string
	parsedURL  *url.URL
	section    string
	year       string
	httpClient *http.Client
	captureDir string
}

// NewClient creates a client for the recognition service at rawURL.
// Section and year qualify recognition and training requests; empty strings
// select the teacher model on the service side.
func NewClient(rawURL, section, year string) (*Client, error) {
	return NewClientWithCapture(rawURL, section, year, "")
}

// NewClientWithCapture creates a client with optional response capturing.
// Pass an empty captureDir to disable capturing.
func NewClientWithCapture(rawURL, section, year, captureDir string) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid recognizer URL: %w", err)
	}
	c := &Client{
		Url:       strings.TrimSuffix(rawURL, "/"),
		parsedURL: parsed,
		section:   section,
		year:      year,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	if captureDir != "" {
		if err := c.SetCaptureDir(captureDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// resolveURL builds a full URL from the base URL and the given path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// SetCaptureDir enables API response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the API response body to a file if capturing is enabled.
func (c *Client) captureResponse(endpoint string, body []byte) {
	if c.captureDir == "" {
		return
	}

	// Sanitize endpoint for filename
	filename := strings.ReplaceAll(endpoint, "/", "_")
	filename = strings.TrimPrefix(filename, "_")
	timestamp := time.Now().Format("20060102_150405")
	filename = fmt.Sprintf("%s_%s.json", filename, timestamp)

	path := filepath.Join(c.captureDir, filename)

	// Pretty-print JSON if possible
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
		body = prettyJSON.Bytes()
	}

	// WriteFile error is non-critical for capturing - log and continue
	if err := os.WriteFile(path, body, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to capture response to %s: %v\n", path, err)
	}
}
