package whisper

import (
	"context"
	"log/slog"
	"os"
)

// MockTranscriber implements WhisperTranscriber without a model. It is selected with
// WHISPER_MODE=mock for local development of clients (and refused in production).
//
// Behavior:
//   - Transcribe: checks that the audio file exists, returns an empty result
//   - HealthCheck: always (true, nil); there is nothing to be unhealthy
type MockTranscriber struct {
	logger *slog.Logger
}

// NewMockTranscriber creates a new MockTranscriber instance.
func NewMockTranscriber(logger *slog.Logger) *MockTranscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockTranscriber{logger: logger.With("engine", "mock")}
}

// Transcribe returns an empty TranscriptionResult for any readable file.
func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, newEngineError(WHISPER_BAD_INPUT, m.Name(), "failed to open audio file", err)
	}

	m.logger.Warn("mock transcription, returning empty result", "audio", audioPath)

	return &TranscriptionResult{
		Segments: []TranscriptionSegment{},
		Text:     "",
		Language: "unknown",
		Duration: 0,
	}, nil
}

// HealthCheck always succeeds.
func (m *MockTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

// Name returns the identifier of this transcriber implementation.
func (m *MockTranscriber) Name() string {
	return "mock"
}
