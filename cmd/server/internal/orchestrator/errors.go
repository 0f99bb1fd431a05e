package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/whisper"
)

// ErrorCode 表示转写请求错误类型代码
type ErrorCode string

const (
	// TEMP_FILE_FAILED 上传音频无法写入临时文件
	TEMP_FILE_FAILED ErrorCode = "TEMP_FILE_FAILED"

	// ENGINE_BUSY 在排队超时内未获得引擎槽位
	ENGINE_BUSY ErrorCode = "ENGINE_BUSY"

	// TRANSCRIBE_FAILED 引擎失败但未给出分类
	TRANSCRIBE_FAILED ErrorCode = "TRANSCRIBE_FAILED"
)

// TranscribeError 表示一次转写请求的失败
type TranscribeError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error 实现 error 接口
func (e *TranscribeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现错误链支持
func (e *TranscribeError) Unwrap() error {
	return e.Cause
}

// NewTranscribeError 创建新的转写错误
func NewTranscribeError(code ErrorCode, message string, cause error) *TranscribeError {
	return &TranscribeError{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewTempFileError 创建临时文件错误
func NewTempFileError(cause error) *TranscribeError {
	return NewTranscribeError(TEMP_FILE_FAILED, "临时文件写入失败", cause)
}

// NewEngineBusyError 创建引擎繁忙错误
func NewEngineBusyError(cause error) *TranscribeError {
	return NewTranscribeError(ENGINE_BUSY, "等待转写引擎超时", cause)
}

// NewEngineError 将引擎错误包装为转写错误，错误码沿用引擎分类
func NewEngineError(cause error) *TranscribeError {
	code := TRANSCRIBE_FAILED
	if engineCode := whisper.CodeOf(cause); engineCode != "" {
		code = ErrorCode(engineCode)
	}
	return NewTranscribeError(code, "转写引擎执行失败", cause)
}

// CodeOf 返回 err 携带的错误码，非 TranscribeError 时返回空字符串
func CodeOf(err error) ErrorCode {
	var te *TranscribeError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
