package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// GoWhisperImpl implements WhisperTranscriber for the go-whisper HTTP service
// (ghcr.io/mutablelogic/go-whisper). The service keeps the model loaded for the
// lifetime of its process, so one GoWhisperImpl is shared by all requests.
type GoWhisperImpl struct {
	apiURL     string       // Base URL of the go-whisper service (e.g., "http://whisper:80")
	httpClient *http.Client // Reusable HTTP client; no client-side timeout
	logger     *slog.Logger
}

// NewGoWhisperImpl creates a new GoWhisperImpl for the service at apiURL
// (e.g., "http://whisper:80" or "http://localhost:8082").
//
// The HTTP client carries no timeout: a transcription runs until the service answers,
// and callers that want a bound pass a context deadline.
func NewGoWhisperImpl(apiURL string, logger *slog.Logger) *GoWhisperImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoWhisperImpl{
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.With("engine", "go-whisper"),
	}
}

// Transcribe sends the audio file as multipart/form-data to POST {apiURL}/api/whisper/transcribe
// and decodes the JSON response.
//
// Reference: https://github.com/mutablelogic/go-whisper/blob/main/doc/API.md#transcription
func (g *GoWhisperImpl) Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, newEngineError(WHISPER_BAD_INPUT, g.Name(), "failed to open audio file", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	model := ggmlModelID(modelOrDefault(options))

	if err := writeTranscribeForm(writer, file, filepath.Base(audioPath), model, options); err != nil {
		return nil, newEngineError(WHISPER_BAD_INPUT, g.Name(), "failed to build multipart request", err)
	}

	endpoint := g.apiURL + "/api/whisper/transcribe"
	g.logger.Debug("sending transcription request", "endpoint", endpoint, "audio", audioPath, "model", model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, newEngineError(WHISPER_UNAVAILABLE, g.Name(), "failed to create HTTP request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, newEngineError(WHISPER_UNAVAILABLE, g.Name(), "HTTP request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		g.logger.Warn("transcription request rejected", "status", resp.StatusCode, "body", string(bodyBytes))
		return nil, newEngineError(WHISPER_HTTP_ERROR, g.Name(),
			fmt.Sprintf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))), nil)
	}

	var result TranscriptionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, newEngineError(WHISPER_BAD_RESPONSE, g.Name(), "failed to parse JSON response", err)
	}
	if result.Segments == nil {
		result.Segments = []TranscriptionSegment{}
	}
	if result.Text == "" && len(result.Segments) > 0 {
		result.Text = joinSegmentText(result.Segments)
	}

	return &result, nil
}

func writeTranscribeForm(writer *multipart.Writer, audio io.Reader, filename, model string, options *TranscribeOptions) error {
	// go-whisper API uses the 'audio' field name
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return fmt.Errorf("failed to copy file data: %w", err)
	}

	fields := [][2]string{
		{"model", model},
		{"response_format", "json"},
	}

	temperature := 0.0
	if options != nil && options.Temperature > 0 {
		temperature = options.Temperature
	}
	fields = append(fields, [2]string{"temperature", fmt.Sprintf("%.1f", temperature)})

	if options != nil && options.Language != "" {
		fields = append(fields, [2]string{"language", options.Language})
	}
	if options != nil && options.Prompt != "" {
		fields = append(fields, [2]string{"prompt", options.Prompt})
	}

	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}

	return writer.Close()
}

// HealthCheck sends GET {apiURL}/api/whisper/model and reports healthy on 200 OK.
//
// Reference: https://github.com/mutablelogic/go-whisper/blob/main/doc/API.md#models
func (g *GoWhisperImpl) HealthCheck(ctx context.Context) (bool, error) {
	endpoint := g.apiURL + "/api/whisper/model"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
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
func (g *GoWhisperImpl) Name() string {
	return "go-whisper"
}
