package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/health"
)

// HandleHealth 存活探针，不访问转写引擎
// GET /health
func HandleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadinessCheckResponse 就绪探针响应
type ReadinessCheckResponse struct {
	Ready     bool             `json:"ready"`
	Checks    []ReadinessCheck `json:"checks"`
	Timestamp time.Time        `json:"timestamp"`
}

// ReadinessCheck 单项就绪检查
type ReadinessCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Error  string `json:"error,omitempty"`
}

// WritableDir 可写目录检查，由 tempstore.Store 实现
type WritableDir interface {
	Writable() error
}

// HandleReadiness 就绪探针：临时目录可写且引擎最近一次探测健康
// GET /readiness
func HandleReadiness(tempDir WritableDir, checker *health.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := make([]ReadinessCheck, 0, 2)
		allReady := true

		// 临时目录
		dirCheck := ReadinessCheck{Name: "temp_dir", Status: "ok"}
		if err := tempDir.Writable(); err != nil {
			dirCheck.Status = "fail"
			dirCheck.Error = err.Error()
			allReady = false
		}
		checks = append(checks, dirCheck)

		// 转写引擎
		whisperCheck := ReadinessCheck{Name: "whisper", Status: "ok"}
		if checker == nil {
			whisperCheck.Status = "fail"
			whisperCheck.Error = "health checker not initialized"
			allReady = false
		} else if status := checker.GetStatus(); !status.IsHealthy {
			whisperCheck.Status = "fail"
			whisperCheck.Error = status.ErrorMessage
			allReady = false
		}
		checks = append(checks, whisperCheck)

		httpStatus := http.StatusOK
		if !allReady {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, ReadinessCheckResponse{
			Ready:     allReady,
			Checks:    checks,
			Timestamp: time.Now(),
		})
	}
}
