package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// LocalWhisperImpl implements WhisperTranscriber for a local whisper executable
// (e.g., a whisper.cpp based binary mounted into the container).
type LocalWhisperImpl struct {
	programPath string // Path to the whisper executable (e.g., /app/bin/whisper)
	modelPath   string // Directory containing ggml model files; used as the working directory
	logger      *slog.Logger
}

// NewLocalWhisperImpl creates a new LocalWhisperImpl with startup validation.
//
// Validation:
//   - programPath must exist
//   - at least one execute bit must be set (owner, group or other)
func NewLocalWhisperImpl(programPath, modelPath string, logger *slog.Logger) (*LocalWhisperImpl, error) {
	info, err := os.Stat(programPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("whisper program not found: %s", programPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat whisper program: %w", err)
	}

	if info.Mode()&0111 == 0 {
		return nil, fmt.Errorf("whisper program is not executable: %s (mode: %s)", programPath, info.Mode())
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &LocalWhisperImpl{
		programPath: programPath,
		modelPath:   modelPath,
		logger:      logger.With("engine", "local-whisper"),
	}, nil
}

// Transcribe invokes the local whisper program:
//
//	whisper transcribe <model> <audio> --format json --temperature <t> [--language <l>] [--prompt <p>]
//
// The program writes a stream of (possibly pretty-printed) segment JSON objects to stdout.
// Diagnostics on stderr are kept out of the JSON stream.
func (l *LocalWhisperImpl) Transcribe(ctx context.Context, audioPath string, options *TranscribeOptions) (*TranscriptionResult, error) {
	model := ggmlModelID(modelOrDefault(options))

	// program path should NOT be in args array
	args := []string{"transcribe", model, audioPath, "--format", "json"}

	temperature := 0.0
	if options != nil && options.Temperature > 0 {
		temperature = options.Temperature
	}
	args = append(args, "--temperature", fmt.Sprintf("%.1f", temperature))

	if options != nil && options.Language != "" {
		args = append(args, "--language", options.Language)
	}
	if options != nil && options.Prompt != "" {
		args = append(args, "--prompt", options.Prompt)
	}

	cmd := exec.CommandContext(ctx, l.programPath, args...)
	if l.modelPath != "" {
		if info, err := os.Stat(l.modelPath); err == nil && info.IsDir() {
			cmd.Dir = l.modelPath
		}
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	l.logger.Debug("executing whisper program", "program", l.programPath, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		l.logger.Warn("whisper program failed", "error", err, "stderr", truncate(stderr.String(), 500))
		return nil, newEngineError(WHISPER_CLI_ERROR, l.Name(),
			fmt.Sprintf("CLI execution failed, stderr: %s", truncate(stderr.String(), 500)), err)
	}

	segments, err := decodeSegments(stdout.Bytes())
	if err != nil {
		return nil, newEngineError(WHISPER_BAD_RESPONSE, l.Name(), "failed to parse JSON segment", err)
	}

	l.logger.Debug("whisper program output parsed", "segments", len(segments), "bytes", stdout.Len())
	return &TranscriptionResult{
		Segments: segments,
		Text:     joinSegmentText(segments),
	}, nil
}

// decodeSegments parses consecutive JSON segment objects. Empty output is an empty
// transcript (silent audio), not an error.
func decodeSegments(output []byte) ([]TranscriptionSegment, error) {
	segments := []TranscriptionSegment{}
	decoder := json.NewDecoder(bytes.NewReader(output))
	for {
		var segment TranscriptionSegment
		if err := decoder.Decode(&segment); err != nil {
			if errors.Is(err, io.EOF) {
				return segments, nil
			}
			return nil, err
		}
		segments = append(segments, segment)
	}
}

// HealthCheck runs `whisper version` and reports healthy when it exits 0 with output.
func (l *LocalWhisperImpl) HealthCheck(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, l.programPath, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("version check failed: %w, output: %s", err, string(output))
	}

	if len(output) > 0 {
		return true, nil
	}

	return false, fmt.Errorf("unexpected empty version output")
}

// Name returns the identifier of this transcriber implementation.
func (l *LocalWhisperImpl) Name() string {
	return "local-whisper"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
