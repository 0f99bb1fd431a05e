package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/metrics"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/whisper"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/tempstore"
	"github.com/houzhh15/whisper-gateway/pkg/logger"
)

// Upload 单次上传的音频
type Upload struct {
	Filename string
	Content  io.Reader
}

// Result 返回给调用方的转写结果
type Result struct {
	Text     string                         `json:"text"`
	Segments []whisper.TranscriptionSegment `json:"segments"`
}

// TranscriptionService 串联临时文件、引擎槽位与引擎调用
type TranscriptionService struct {
	engine  whisper.WhisperTranscriber
	store   *tempstore.Store
	limiter *EngineLimiter
	options whisper.TranscribeOptions
	timeout time.Duration
	logger  *slog.Logger
}

// NewTranscriptionService 创建转写服务，engine 与 store 在进程生命周期内共享
func NewTranscriptionService(engine whisper.WhisperTranscriber, store *tempstore.Store, log *slog.Logger) *TranscriptionService {
	if log == nil {
		log = slog.Default()
	}
	return &TranscriptionService{
		engine: engine,
		store:  store,
		logger: log.With("component", "transcription-service"),
	}
}

// WithLimiter 设置引擎并发限制，nil 表示不限制
func (s *TranscriptionService) WithLimiter(l *EngineLimiter) *TranscriptionService {
	s.limiter = l
	return s
}

// WithTimeout 设置单次引擎调用超时，0 表示不设超时
func (s *TranscriptionService) WithTimeout(d time.Duration) *TranscriptionService {
	s.timeout = d
	return s
}

// WithOptions 设置每次调用传给引擎的默认参数
func (s *TranscriptionService) WithOptions(opts whisper.TranscribeOptions) *TranscriptionService {
	s.options = opts
	return s
}

// EngineName 返回引擎实现名称
func (s *TranscriptionService) EngineName() string {
	return s.engine.Name()
}

// Transcribe 将上传写入临时文件、同步调用引擎并在返回前删除临时文件。
// 引擎调用不随请求取消而中断。
func (s *TranscriptionService) Transcribe(ctx context.Context, upload Upload) (result *Result, err error) {
	start := time.Now()
	engineName := s.engine.Name()
	var size int64

	defer func() {
		r := recover()
		code := string(CodeOf(err))
		if r != nil {
			code = "PANIC"
		}
		failed := err != nil || r != nil
		metrics.RecordTranscription(engineName, !failed)
		if failed {
			metrics.RecordError(engineName, code)
		}
		logger.LogTranscription(s.logger, engineName, upload.Filename, size, time.Since(start).Milliseconds(), code)
		if r != nil {
			panic(r)
		}
	}()

	handle, err := s.store.Store(upload.Content, upload.Filename)
	if err != nil {
		return nil, NewTempFileError(err)
	}
	defer func() {
		if releaseErr := handle.Release(); releaseErr != nil {
			s.logger.Warn("failed to remove temp file", "path", handle.Path(), "error", releaseErr)
		}
	}()

	size = handle.Size()
	metrics.RecordUpload(size)

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, NewEngineBusyError(err)
	}
	defer s.limiter.Release()

	res, err := s.runEngine(ctx, handle.Path())
	if err != nil {
		return nil, NewEngineError(err)
	}

	if res == nil {
		res = &whisper.TranscriptionResult{}
	}
	segments := res.Segments
	if segments == nil {
		segments = []whisper.TranscriptionSegment{}
	}
	return &Result{Text: res.Text, Segments: segments}, nil
}

func (s *TranscriptionService) runEngine(ctx context.Context, path string) (*whisper.TranscriptionResult, error) {
	engineCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		engineCtx, cancel = context.WithTimeout(engineCtx, s.timeout)
		defer cancel()
	}

	done := metrics.TrackInFlight()
	defer done()

	begin := time.Now()
	defer func() {
		metrics.RecordDuration(s.engine.Name(), time.Since(begin).Seconds())
	}()

	opts := s.options
	return s.engine.Transcribe(engineCtx, path, &opts)
}
