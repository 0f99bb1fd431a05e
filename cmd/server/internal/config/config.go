package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 统一配置结构
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Whisper WhisperConfig `yaml:"whisper"`
	Upload  UploadConfig  `yaml:"upload"`
	CORS    CORSConfig    `yaml:"cors"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env             string        `yaml:"env"` // dev, staging, production
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // console, json
	File       string `yaml:"file"`   // 为空时输出到 stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// WhisperConfig 转写引擎配置
type WhisperConfig struct {
	Mode        string `yaml:"mode"` // go-whisper, cli, openai, mock
	APIURL      string `yaml:"api_url"`
	ProgramPath string `yaml:"program_path"`
	ModelPath   string `yaml:"model_path"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	Prompt      string `yaml:"prompt"`

	// Timeout 为 0 表示不限制单次转写时长
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrent 为 0 表示不限制并发，由引擎自身处理
	MaxConcurrent int           `yaml:"max_concurrent"`
	QueueTimeout  time.Duration `yaml:"queue_timeout"`

	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	HealthFailThreshold int           `yaml:"health_fail_threshold"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`
}

// UploadConfig 上传与临时文件配置
type UploadConfig struct {
	TempDir           string `yaml:"temp_dir"`
	FallbackExtension string `yaml:"fallback_extension"`
	// MaxBytes 为 0 表示不限制上传大小
	MaxBytes int64 `yaml:"max_bytes"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// GlobalConfig 全局配置实例
var GlobalConfig *Config

// Default 返回默认配置（与原始服务行为一致）
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Env:             "dev",
			Port:            "8000",
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
		},
		Whisper: WhisperConfig{
			Mode:                "go-whisper",
			APIURL:              "http://localhost:8082",
			ProgramPath:         "/app/bin/whisper",
			ModelPath:           "/models/whisper",
			Model:               "base",
			QueueTimeout:        30 * time.Second,
			HealthCheckInterval: 5 * time.Minute,
			HealthFailThreshold: 3,
			OpenAIModel:         "whisper-1",
		},
		Upload: UploadConfig{
			TempDir:           os.TempDir(),
			FallbackExtension: ".webm",
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowCredentials: true,
		},
	}
}

// LoadConfig 加载配置：默认值 -> CONFIG_FILE 指定的 YAML -> 环境变量
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	GlobalConfig = cfg
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	cfg.Whisper.Mode = getEnv("WHISPER_MODE", cfg.Whisper.Mode)
	cfg.Whisper.APIURL = getEnv("WHISPER_API_URL", cfg.Whisper.APIURL)
	cfg.Whisper.ProgramPath = getEnv("WHISPER_PROGRAM_PATH", cfg.Whisper.ProgramPath)
	cfg.Whisper.ModelPath = getEnv("WHISPER_MODEL_PATH", cfg.Whisper.ModelPath)
	cfg.Whisper.Model = getEnv("WHISPER_MODEL", cfg.Whisper.Model)
	cfg.Whisper.Language = getEnv("WHISPER_LANGUAGE", cfg.Whisper.Language)
	cfg.Whisper.Prompt = getEnv("WHISPER_PROMPT", cfg.Whisper.Prompt)
	cfg.Whisper.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.Whisper.OpenAIAPIKey)
	cfg.Whisper.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.Whisper.OpenAIBaseURL)
	cfg.Whisper.OpenAIModel = getEnv("OPENAI_MODEL", cfg.Whisper.OpenAIModel)

	cfg.Upload.TempDir = getEnv("UPLOAD_TEMP_DIR", cfg.Upload.TempDir)
	cfg.Upload.FallbackExtension = getEnv("UPLOAD_FALLBACK_EXTENSION", cfg.Upload.FallbackExtension)

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = parseStringList(v)
	}

	var errs []string
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
		{"WHISPER_TIMEOUT", &cfg.Whisper.Timeout},
		{"WHISPER_QUEUE_TIMEOUT", &cfg.Whisper.QueueTimeout},
		{"WHISPER_HEALTH_CHECK_INTERVAL", &cfg.Whisper.HealthCheckInterval},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("invalid %s: %s", d.key, v))
				continue
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"WHISPER_MAX_CONCURRENT", &cfg.Whisper.MaxConcurrent},
		{"WHISPER_HEALTH_FAIL_THRESHOLD", &cfg.Whisper.HealthFailThreshold},
		{"LOG_MAX_SIZE_MB", &cfg.Log.MaxSizeMB},
		{"LOG_MAX_BACKUPS", &cfg.Log.MaxBackups},
		{"LOG_MAX_AGE_DAYS", &cfg.Log.MaxAgeDays},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("invalid %s: %s", i.key, v))
				continue
			}
			*i.dst = parsed
		}
	}

	if v := os.Getenv("UPLOAD_MAX_BYTES"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid UPLOAD_MAX_BYTES: %s", v))
		} else {
			cfg.Upload.MaxBytes = parsed
		}
	}

	if v := os.Getenv("CORS_ALLOW_CREDENTIALS"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid CORS_ALLOW_CREDENTIALS: %s", v))
		} else {
			cfg.CORS.AllowCredentials = parsed
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to parse environment:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	if cfg.Server.ShutdownTimeout <= 0 {
		errors = append(errors, "SHUTDOWN_TIMEOUT must be positive")
	}

	// 2. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 3. 日志格式验证
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	// 4. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	// 5. 转写引擎验证
	switch cfg.Whisper.Mode {
	case "go-whisper":
		if cfg.Whisper.APIURL == "" {
			errors = append(errors, "WHISPER_API_URL is required in go-whisper mode")
		}
	case "cli":
		if cfg.Whisper.ProgramPath == "" {
			errors = append(errors, "WHISPER_PROGRAM_PATH is required in cli mode")
		}
	case "openai":
		if cfg.Whisper.OpenAIAPIKey == "" {
			errors = append(errors, "OPENAI_API_KEY is required in openai mode")
		}
	case "mock":
		if cfg.Server.Env == "production" {
			errors = append(errors, "WHISPER_MODE=mock is not allowed in production")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid WHISPER_MODE: %s (must be: go-whisper, cli, openai, mock)", cfg.Whisper.Mode))
	}

	if cfg.Whisper.Timeout < 0 {
		errors = append(errors, "WHISPER_TIMEOUT cannot be negative")
	}
	if cfg.Whisper.MaxConcurrent < 0 {
		errors = append(errors, "WHISPER_MAX_CONCURRENT cannot be negative")
	}
	if cfg.Whisper.HealthCheckInterval <= 0 {
		errors = append(errors, "WHISPER_HEALTH_CHECK_INTERVAL must be positive")
	}
	if cfg.Whisper.HealthFailThreshold < 1 {
		errors = append(errors, "WHISPER_HEALTH_FAIL_THRESHOLD must be at least 1")
	}

	// 6. 上传配置验证
	if cfg.Upload.TempDir == "" {
		errors = append(errors, "UPLOAD_TEMP_DIR cannot be empty")
	}
	if ext := cfg.Upload.FallbackExtension; !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\*`) {
		errors = append(errors, fmt.Sprintf("invalid UPLOAD_FALLBACK_EXTENSION: %q (must start with '.')", ext))
	}
	if cfg.Upload.MaxBytes < 0 {
		errors = append(errors, "UPLOAD_MAX_BYTES cannot be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Logging:
    - Level: %s
    - Format: %s
    - File: %s
  Whisper:
    - Mode: %s
    - API URL: %s
    - Program: %s
    - Model: %s
    - Timeout: %s
    - Max Concurrent: %d
    - OpenAI Key: %s
  Upload:
    - Temp Dir: %s
    - Fallback Extension: %s
    - Max Bytes: %d
  CORS:
    - Origins: %v
    - Credentials: %t`,
		c.Server.Env,
		c.Server.Port,
		c.Log.Level,
		c.Log.Format,
		orNotSet(c.Log.File),
		c.Whisper.Mode,
		c.Whisper.APIURL,
		c.Whisper.ProgramPath,
		c.Whisper.Model,
		c.Whisper.Timeout,
		c.Whisper.MaxConcurrent,
		maskSecret(c.Whisper.OpenAIAPIKey),
		c.Upload.TempDir,
		c.Upload.FallbackExtension,
		c.Upload.MaxBytes,
		c.CORS.AllowedOrigins,
		c.CORS.AllowCredentials,
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseStringList 解析逗号分隔的字符串列表
func parseStringList(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}

func orNotSet(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}
