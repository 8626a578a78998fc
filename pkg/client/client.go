// Package client talks to the scrubber HTTP API from Go programs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bryanwahyu/resume-scrubber/internal/domain/candidate"
)

// ErrUploadFailed is wrapped by UploadFile when the server answers non-2xx.
var ErrUploadFailed = errors.New("failed to upload file")

// ErrScrubFailed is wrapped by Scrub when the server answers non-2xx.
var ErrScrubFailed = errors.New("failed to scrub text")

type Client struct {
	BaseURL string
	APIKey  string // sent as a bearer token when set
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		// uploads wait the whole assistant run
		HTTP: &http.Client{Timeout: 6 * time.Minute},
	}
}

// UploadFile posts the file as the multipart field "file" and returns the
// fileId field of the reply. The field is empty when the server does not send it.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, "/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, statusText(resp.StatusCode))
	}

	var out struct {
		FileID string `json:"fileId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return out.FileID, nil
}

// Scrub posts text for the given job and returns the scrubbed Candidate.
func (c *Client) Scrub(ctx context.Context, text, jobID string) (candidate.Candidate, error) {
	body, err := json.Marshal(map[string]string{"text": text, "jobId": jobID})
	if err != nil {
		return candidate.Candidate{}, err
	}
	req, err := c.newRequest(ctx, "/scrub", "application/json", bytes.NewReader(body))
	if err != nil {
		return candidate.Candidate{}, err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return candidate.Candidate{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = statusText(resp.StatusCode)
		}
		return candidate.Candidate{}, fmt.Errorf("%w: %s", ErrScrubFailed, e.Error)
	}

	var out struct {
		Candidate candidate.Candidate `json:"candidate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return candidate.Candidate{}, fmt.Errorf("decode scrub response: %w", err)
	}
	return out.Candidate, nil
}

func (c *Client) newRequest(ctx context.Context, path, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	return req, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func statusText(code int) string {
	if t := http.StatusText(code); t != "" {
		return t
	}
	return fmt.Sprintf("status %d", code)
}
