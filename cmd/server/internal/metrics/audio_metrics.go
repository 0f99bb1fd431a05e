package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TranscriptionsTotal 转写请求总数计数器
	// Labels: engine (go-whisper/local-whisper/openai/mock), status (success/error)
	TranscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whisper_gateway_transcriptions_total",
			Help: "Total number of transcription requests by engine and status",
		},
		[]string{"engine", "status"},
	)

	// TranscriptionErrorsTotal 转写错误总数计数器
	// Labels: engine, error_code (WHISPER_UNAVAILABLE/WHISPER_HTTP_ERROR/TEMP_FILE_FAILED/...)
	TranscriptionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whisper_gateway_transcription_errors_total",
			Help: "Total number of transcription errors by engine and error code",
		},
		[]string{"engine", "error_code"},
	)

	// EngineReady 引擎健康状态量规（0=不健康，1=健康）
	EngineReady = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whisper_gateway_engine_ready",
			Help: "Engine health status from the periodic probe (0=unhealthy, 1=healthy)",
		},
		[]string{"engine"},
	)

	// TranscriptionsInFlight 正在执行的转写数量
	TranscriptionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "whisper_gateway_transcriptions_in_flight",
			Help: "Number of transcriptions currently running in the engine",
		},
	)

	// TranscriptionDuration 引擎调用耗时直方图（秒）
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s, 120s, 300s
	TranscriptionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whisper_gateway_transcription_duration_seconds",
			Help:    "Engine transcription duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"engine"},
	)

	// UploadBytes 上传音频大小直方图（字节）
	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "whisper_gateway_upload_bytes",
			Help:    "Size of uploaded audio files in bytes",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8), // 16KiB .. 256MiB
		},
	)
)

// RecordTranscription 记录一次转写完成
func RecordTranscription(engine string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	TranscriptionsTotal.WithLabelValues(engine, status).Inc()
}

// RecordError 记录转写错误
func RecordError(engine, errorCode string) {
	TranscriptionErrorsTotal.WithLabelValues(engine, errorCode).Inc()
}

// SetEngineReady 设置引擎健康状态
func SetEngineReady(engine string, ready bool) {
	if ready {
		EngineReady.WithLabelValues(engine).Set(1)
	} else {
		EngineReady.WithLabelValues(engine).Set(0)
	}
}

// RecordDuration 记录引擎调用耗时（秒）
func RecordDuration(engine string, durationSeconds float64) {
	TranscriptionDuration.WithLabelValues(engine).Observe(durationSeconds)
}

// RecordUpload 记录上传大小
func RecordUpload(sizeBytes int64) {
	UploadBytes.Observe(float64(sizeBytes))
}

// TrackInFlight 增加进行中计数，返回的函数用于结束计数
func TrackInFlight() func() {
	TranscriptionsInFlight.Inc()
	return TranscriptionsInFlight.Dec
}
