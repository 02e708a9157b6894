package asr

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
	"time"

	"github.com/speechforge/transcript-pipeline/internal/transcript"
)

// HTTPTranscriber implements Transcriber for whisper-compatible HTTP
// services. It posts the audio file plus window offsets as
// multipart/form-data and expects a verbose-JSON response with per-word
// timing.
type HTTPTranscriber struct {
	apiURL     string
	httpClient *http.Client
}

// NewHTTPTranscriber creates a client for the service at apiURL.
//
// The HTTP client uses a 10-minute timeout: windows are at most a couple of
// minutes of audio and recognition time is roughly proportional to audio
// duration, so 10 minutes leaves headroom for slow hardware.
func NewHTTPTranscriber(apiURL string) *HTTPTranscriber {
	return &HTTPTranscriber{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// httpWord mirrors the wire shape of a word entry in the verbose-JSON
// response ("word"/"probability" rather than "text"/"confidence").
type httpWord struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

type httpSegment struct {
	Start float64    `json:"start"`
	End   float64    `json:"end"`
	Text  string     `json:"text"`
	Words []httpWord `json:"words"`
}

type httpResponse struct {
	Segments []httpSegment `json:"segments"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Transcribe sends the window to POST {apiURL}/api/v1/transcribe.
//
// Form fields: audio (file), offset, duration (seconds into the source
// file), model, language, temperature, prompt, response_format=verbose_json.
// The service is responsible for seeking to the requested window.
func (h *HTTPTranscriber) Transcribe(ctx context.Context, audioPath string, win Window, opts *Options) (*Result, error) {
	if opts != nil && opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

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

	fields := map[string]string{
		"offset":          fmt.Sprintf("%.3f", win.Start),
		"duration":        fmt.Sprintf("%.3f", win.Duration()),
		"response_format": "verbose_json",
	}
	model := "ggml-base"
	if opts != nil && opts.Model != "" {
		model = opts.Model
	}
	fields["model"] = model
	temperature := 0.0
	if opts != nil && opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	fields["temperature"] = fmt.Sprintf("%.1f", temperature)
	if opts != nil && opts.Language != "" {
		fields["language"] = opts.Language
	}
	if opts != nil && opts.Prompt != "" {
		fields["prompt"] = opts.Prompt
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", k, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/transcribe", h.apiURL)
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

	var wire httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if wire.Error != "" {
		return nil, fmt.Errorf("backend error: %s", wire.Error)
	}

	return wire.toResult(), nil
}

// toResult converts the wire response into the domain Result. Segments
// without word detail keep the backend's segment timing and text verbatim.
func (w *httpResponse) toResult() *Result {
	res := &Result{
		Segments: make([]transcript.Segment, 0, len(w.Segments)),
		Language: w.Language,
		Duration: w.Duration,
	}
	for _, s := range w.Segments {
		if len(s.Words) == 0 {
			res.Segments = append(res.Segments, transcript.Segment{
				Start: s.Start,
				End:   s.End,
				Text:  s.Text,
			})
			continue
		}
		words := make([]transcript.Word, 0, len(s.Words))
		for _, hw := range s.Words {
			words = append(words, transcript.Word{
				Text:       hw.Word,
				Start:      hw.Start,
				End:        hw.End,
				Confidence: hw.Probability,
			})
		}
		res.Segments = append(res.Segments, transcript.SegmentFromWords(words, ""))
	}
	return res
}

// HealthCheck sends GET {apiURL}/api/v1/models and reports 200 OK as
// healthy.
func (h *HTTPTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	endpoint := fmt.Sprintf("%s/api/v1/models", h.apiURL)
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

// Name returns the identifier of this transcriber implementation.
func (h *HTTPTranscriber) Name() string {
	return "whisper-http"
}
