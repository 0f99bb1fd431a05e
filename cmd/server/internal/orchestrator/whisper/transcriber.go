// Package whisper provides an abstraction layer for Whisper audio transcription engines.
// It defines the standard interface and data structures shared by every implementation
// (go-whisper HTTP service, local whisper program, OpenAI-compatible API, and mock).
package whisper

import (
	"context"
	"strings"
	"time"
)

// TranscriptionSegment represents a single segment of transcribed audio with timing information.
// Each segment corresponds to a continuous speech interval in the audio.
type TranscriptionSegment struct {
	// ID is the sequential identifier of this segment within the transcription
	ID int `json:"id"`

	// Start is the beginning time of this segment in seconds from the audio start
	Start float64 `json:"start"`

	// End is the ending time of this segment in seconds from the audio start
	End float64 `json:"end"`

	// Text is the transcribed text content of this segment
	Text string `json:"text"`
}

// TranscriptionResult represents the complete result of an audio transcription operation.
// It includes all segments, the full text, detected language, and audio duration.
type TranscriptionResult struct {
	// Segments is the ordered list of transcribed segments with timing information
	Segments []TranscriptionSegment `json:"segments"`

	// Text is the complete transcribed text
	Text string `json:"text"`

	// Language is the detected or specified language code (e.g., "en", "zh")
	Language string `json:"language"`

	// Duration is the total duration of the audio in seconds
	Duration float64 `json:"duration"`
}

// WhisperTranscriber defines the standard interface for audio transcription engines.
// An engine is constructed once at process startup and shared by every request;
// implementations must not mutate shared state inside Transcribe.
type WhisperTranscriber interface {
	// Transcribe performs audio transcription on the file at audioPath.
	//
	// Parameters:
	//   - ctx: Context for cancellation; the caller decides whether a deadline applies
	//   - audioPath: Absolute path to the audio file (any container the engine can decode)
	//   - options: Optional transcription parameters (model, language, prompt, temperature)
	//
	// Returns:
	//   - *TranscriptionResult: Complete transcription with segments and metadata
	//   - error: Non-nil if transcription fails; engine failures are *EngineError
	//
	// Empty audio must return a valid TranscriptionResult with an empty Segments slice, not an error.
	Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error)

	// HealthCheck verifies that the transcription engine is operational.
	// It should be lightweight; callers bound it with a short context timeout.
	HealthCheck(ctx context.Context) (bool, error)

	// Name returns the human-readable identifier of this implementation
	// (e.g., "go-whisper", "local-whisper", "openai", "mock").
	Name() string
}

// TranscribeOptions defines optional parameters for the Transcribe operation.
// All fields are optional; implementations provide sensible defaults.
type TranscribeOptions struct {
	// Model specifies the Whisper model to use (e.g., "base", "small", "large-v3").
	// Default: "base"
	Model string

	// Language forces transcription in a specific language (ISO 639-1 code, e.g., "en", "zh").
	// Empty string means auto-detection.
	Language string

	// Prompt provides context to improve transcription accuracy.
	Prompt string

	// Temperature controls sampling; 0 reduces hallucinations and repetitions.
	Temperature float64

	// Timeout bounds a single transcription. Zero means no limit.
	Timeout time.Duration
}

// modelOrDefault returns the requested model, falling back to "base".
func modelOrDefault(options *TranscribeOptions) string {
	if options != nil && options.Model != "" {
		return options.Model
	}
	return "base"
}

// ggmlModelID normalizes a model name to the ggml file id used by whisper.cpp based
// engines: "base" -> "ggml-base", "ggml-small.bin" -> "ggml-small".
func ggmlModelID(model string) string {
	model = strings.TrimSuffix(model, ".bin")
	if !strings.HasPrefix(model, "ggml-") {
		model = "ggml-" + model
	}
	return model
}

// joinSegmentText builds the full transcript from segment texts.
func joinSegmentText(segments []TranscriptionSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
