package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/config"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/whisper"
)

// startupProbeTimeout 启动时引擎探测的超时时间
const startupProbeTimeout = 30 * time.Second

// NewTranscriber 按 WhisperConfig.Mode 构造转写引擎
func NewTranscriber(cfg config.WhisperConfig, logger *slog.Logger) (whisper.WhisperTranscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch strings.ToLower(cfg.Mode) {
	case "", "go-whisper", "http":
		logger.Info("using go-whisper HTTP engine", "api_url", cfg.APIURL)
		return whisper.NewGoWhisperImpl(cfg.APIURL, logger), nil
	case "cli", "local-whisper":
		impl, err := whisper.NewLocalWhisperImpl(cfg.ProgramPath, cfg.ModelPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create local whisper engine: %w", err)
		}
		logger.Info("using local whisper engine", "program", cfg.ProgramPath, "model_path", cfg.ModelPath)
		return impl, nil
	case "openai":
		impl, err := whisper.NewOpenAIImpl(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai engine: %w", err)
		}
		logger.Info("using openai engine", "base_url", cfg.OpenAIBaseURL, "model", cfg.OpenAIModel)
		return impl, nil
	case "mock":
		logger.Warn("using mock engine, transcripts will be empty")
		return whisper.NewMockTranscriber(logger), nil
	default:
		return nil, fmt.Errorf("unsupported whisper mode: %s", cfg.Mode)
	}
}

// Load 构造引擎并执行一次启动探测。任何失败都应终止进程。
func Load(ctx context.Context, cfg config.WhisperConfig, logger *slog.Logger) (whisper.WhisperTranscriber, error) {
	transcriber, err := NewTranscriber(cfg, logger)
	if err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
	defer cancel()

	healthy, err := transcriber.HealthCheck(probeCtx)
	if err != nil {
		return nil, fmt.Errorf("engine %s failed startup probe: %w", transcriber.Name(), err)
	}
	if !healthy {
		return nil, fmt.Errorf("engine %s reported unhealthy at startup", transcriber.Name())
	}
	return transcriber, nil
}
