package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIImpl implements WhisperTranscriber against an OpenAI-compatible
// /audio/transcriptions endpoint (OpenAI itself, LocalAI, speaches, ...).
// It requests verbose_json so that segment timings are returned.
type OpenAIImpl struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIImpl creates a client for the given API key. baseURL overrides the default
// https://api.openai.com/v1 when non-empty; model defaults to whisper-1.
func NewOpenAIImpl(apiKey, baseURL, model string, logger *slog.Logger) (*OpenAIImpl, error) {
	if apiKey == "" {
		return nil, errors.New("missing OpenAI API key")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIImpl{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.With("engine", "openai"),
	}, nil
}

// Transcribe uploads the file and maps the verbose_json response. The model is fixed at
// construction; options.Model names a local ggml model and is ignored here.
func (o *OpenAIImpl) Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, newEngineError(WHISPER_BAD_INPUT, o.Name(), "failed to open audio file", err)
	}

	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	if options != nil {
		req.Language = options.Language
		req.Prompt = options.Prompt
		req.Temperature = float32(options.Temperature)
	}

	o.logger.Debug("sending transcription request", "audio", audioPath, "model", o.model)
	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, newEngineError(WHISPER_HTTP_ERROR, o.Name(),
				fmt.Sprintf("API returned status %d", apiErr.HTTPStatusCode), err)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, newEngineError(WHISPER_HTTP_ERROR, o.Name(),
				fmt.Sprintf("API returned status %d", reqErr.HTTPStatusCode), err)
		}
		return nil, newEngineError(WHISPER_UNAVAILABLE, o.Name(), "transcription request failed", err)
	}

	result := &TranscriptionResult{
		Segments: make([]TranscriptionSegment, 0, len(resp.Segments)),
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}
	for _, s := range resp.Segments {
		result.Segments = append(result.Segments, TranscriptionSegment{
			ID:    s.ID,
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}

	return result, nil
}

// HealthCheck lists models; any successful response means the API is reachable and the key is accepted.
func (o *OpenAIImpl) HealthCheck(ctx context.Context) (bool, error) {
	if _, err := o.client.ListModels(ctx); err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	return true, nil
}

// Name returns the identifier of this transcriber implementation.
func (o *OpenAIImpl) Name() string {
	return "openai"
}
