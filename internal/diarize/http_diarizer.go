package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// HTTPDiarizer implements Diarizer for a pyannote-style HTTP sidecar. The
// sidecar owns the model handle; this client only posts audio and speaker
// hints and parses the segment list.
type HTTPDiarizer struct {
	apiURL     string
	httpClient *http.Client
}

// NewHTTPDiarizer creates a client for the sidecar at apiURL. Diarization
// over a long recording is slow, so the client allows up to 30 minutes.
func NewHTTPDiarizer(apiURL string) *HTTPDiarizer {
	return &HTTPDiarizer{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

type diarizeResponse struct {
	Segments []Segment `json:"segments"`
	Error    string    `json:"error,omitempty"`
}

// Diarize posts the full audio to POST {apiURL}/api/v1/diarize as
// multipart/form-data. Hint fields num_speakers / min_speakers /
// max_speakers are only written when set.
func (h *HTTPDiarizer) Diarize(ctx context.Context, audioPath string, hints Hints) ([]Segment, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}

	if hints.NumSpeakers > 0 {
		if err := writer.WriteField("num_speakers", strconv.Itoa(hints.NumSpeakers)); err != nil {
			return nil, fmt.Errorf("failed to write num_speakers field: %w", err)
		}
	} else {
		if hints.MinSpeakers > 0 {
			if err := writer.WriteField("min_speakers", strconv.Itoa(hints.MinSpeakers)); err != nil {
				return nil, fmt.Errorf("failed to write min_speakers field: %w", err)
			}
		}
		if hints.MaxSpeakers > 0 {
			if err := writer.WriteField("max_speakers", strconv.Itoa(hints.MaxSpeakers)); err != nil {
				return nil, fmt.Errorf("failed to write max_speakers field: %w", err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/diarize", h.apiURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var wire diarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if wire.Error != "" {
		return nil, fmt.Errorf("backend error: %s", wire.Error)
	}

	return wire.Segments, nil
}

// HealthCheck sends GET {apiURL}/api/v1/health and reports 200 OK as
// healthy.
func (h *HTTPDiarizer) HealthCheck(ctx context.Context) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/health", h.apiURL)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	return false, fmt.Errorf("health check failed: status %d", resp.StatusCode)
}

// Name returns the identifier of this diarizer implementation.
func (h *HTTPDiarizer) Name() string {
	return "pyannote-http"
}
