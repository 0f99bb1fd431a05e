package whisper

import (
	"errors"
	"fmt"
)

// ErrorCode classifies engine failures.
type ErrorCode string

const (
	// WHISPER_UNAVAILABLE the engine could not be reached (network error, service down)
	WHISPER_UNAVAILABLE ErrorCode = "WHISPER_UNAVAILABLE"

	// WHISPER_HTTP_ERROR the engine answered with a non-200 status
	WHISPER_HTTP_ERROR ErrorCode = "WHISPER_HTTP_ERROR"

	// WHISPER_CLI_ERROR the local whisper program failed
	WHISPER_CLI_ERROR ErrorCode = "WHISPER_CLI_ERROR"

	// WHISPER_BAD_RESPONSE the engine output could not be parsed
	WHISPER_BAD_RESPONSE ErrorCode = "WHISPER_BAD_RESPONSE"

	// WHISPER_BAD_INPUT the audio file could not be read or sent
	WHISPER_BAD_INPUT ErrorCode = "WHISPER_BAD_INPUT"
)

// EngineError is returned by every WhisperTranscriber implementation when Transcribe fails.
type EngineError struct {
	Code    ErrorCode
	Engine  string
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Code, e.Engine, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Engine, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

func newEngineError(code ErrorCode, engine, message string, cause error) *EngineError {
	return &EngineError{Code: code, Engine: engine, Message: message, Cause: cause}
}

// CodeOf returns the engine error code carried by err, or "" when err is not an *EngineError.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
