// Package health provides periodic health probing for the loaded Whisper engine.
// The probe result is informational (readiness and status endpoints); it never
// changes which engine serves requests and never affects GET /health.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/whisper"
)

// ServiceStatus represents the current health state of the transcription engine.
// All fields are safe for JSON serialization and can be exposed via API endpoints.
type ServiceStatus struct {
	// IsHealthy indicates whether the engine passed recent health checks
	IsHealthy bool `json:"is_healthy"`

	// LastCheckTime records when the most recent health check was performed
	LastCheckTime time.Time `json:"last_check_time"`

	// ConsecutiveFails counts how many health checks have failed in a row.
	// Reset to 0 when a check succeeds.
	ConsecutiveFails int `json:"consecutive_fails"`

	// ErrorMessage contains the last error message if the health check failed
	ErrorMessage string `json:"error_message"`
}

// StatusListener is notified after every check.
type StatusListener func(engine string, status ServiceStatus)

// HealthChecker performs periodic health checks on a WhisperTranscriber implementation
// and tracks consecutive failures.
//
// Thread-safety: All public methods are thread-safe via sync.RWMutex.
type HealthChecker struct {
	transcriber   whisper.WhisperTranscriber
	status        *ServiceStatus // protected by mu
	mu            sync.RWMutex
	checkInterval time.Duration
	failThreshold int
	stopChan      chan struct{}
	stopOnce      sync.Once
	listener      StatusListener
	logger        *slog.Logger
}

// NewHealthChecker creates a new HealthChecker.
//
// Parameters:
//   - transcriber: The WhisperTranscriber implementation to monitor
//   - checkInterval: Duration between health checks (e.g., 5*time.Minute)
//   - failThreshold: Number of consecutive failures before marking unhealthy (e.g., 3)
//
// The checker starts in a healthy state: the engine already passed its startup probe
// before the checker is created. Call Start() to begin periodic checks.
func NewHealthChecker(transcriber whisper.WhisperTranscriber, checkInterval time.Duration, failThreshold int) *HealthChecker {
	if failThreshold < 1 {
		failThreshold = 1
	}
	return &HealthChecker{
		transcriber:   transcriber,
		checkInterval: checkInterval,
		failThreshold: failThreshold,
		stopChan:      make(chan struct{}),
		logger:        slog.Default().With("component", "health-checker"),
		status: &ServiceStatus{
			IsHealthy:        true,
			LastCheckTime:    time.Now(),
			ConsecutiveFails: 0,
			ErrorMessage:     "",
		},
	}
}

// WithLogger replaces the logger used for check results.
func (hc *HealthChecker) WithLogger(logger *slog.Logger) *HealthChecker {
	if logger != nil {
		hc.logger = logger
	}
	return hc
}

// OnStatus registers a listener called after every check (used for metrics).
func (hc *HealthChecker) OnStatus(listener StatusListener) *HealthChecker {
	hc.listener = listener
	return hc
}

// Start runs periodic health checks until Stop() is called or ctx is cancelled.
// It blocks; run it in its own goroutine.
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			hc.Check(ctx)
		case <-hc.stopChan:
			hc.logger.Info("health checker stopped", "engine", hc.transcriber.Name())
			return
		case <-ctx.Done():
			hc.logger.Info("health checker context cancelled", "engine", hc.transcriber.Name())
			return
		}
	}
}

// Check executes a single health check (bounded to 10 seconds) and updates the status.
func (hc *HealthChecker) Check(ctx context.Context) ServiceStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	isHealthy, err := hc.transcriber.HealthCheck(checkCtx)

	hc.mu.Lock()
	hc.status.LastCheckTime = time.Now()

	if isHealthy {
		if !hc.status.IsHealthy {
			hc.logger.Info("engine recovered", "engine", hc.transcriber.Name())
		}
		hc.status.IsHealthy = true
		hc.status.ConsecutiveFails = 0
		hc.status.ErrorMessage = ""
	} else {
		hc.status.ConsecutiveFails++
		errMsg := "unknown error"
		if err != nil {
			errMsg = err.Error()
		}
		hc.status.ErrorMessage = fmt.Sprintf("Health check failed: %s", errMsg)

		if hc.status.ConsecutiveFails >= hc.failThreshold {
			hc.status.IsHealthy = false
			hc.logger.Error("engine marked unhealthy",
				"engine", hc.transcriber.Name(), "consecutive_fails", hc.status.ConsecutiveFails, "error", errMsg)
		} else {
			hc.logger.Warn("health check failed",
				"engine", hc.transcriber.Name(), "attempt", hc.status.ConsecutiveFails, "threshold", hc.failThreshold, "error", errMsg)
		}
	}
	status := *hc.status
	hc.mu.Unlock()

	if hc.listener != nil {
		hc.listener(hc.transcriber.Name(), status)
	}
	return status
}

// GetStatus returns a copy of the current health status.
func (hc *HealthChecker) GetStatus() ServiceStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return *hc.status
}

// EngineName returns the name of the monitored engine.
func (hc *HealthChecker) EngineName() string {
	return hc.transcriber.Name()
}

// Stop terminates the health checking goroutine. Safe to call multiple times.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() {
		close(hc.stopChan)
	})
}
