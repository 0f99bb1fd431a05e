package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/health"
)

// HandleWhisperHealthCheck 创建Whisper健康检查的HTTP处理函数
// 参数:
//
//	healthChecker: 后台健康检查器实例
//
// 响应格式:
//
//	{
//	  "success": true,
//	  "data": {
//	    "implementation": "go-whisper",
//	    "is_healthy": true,
//	    "last_check_time": "2025-10-11T02:20:00Z",
//	    "consecutive_fails": 0,
//	    "error_message": ""
//	  }
//	}
func HandleWhisperHealthCheck(healthChecker *health.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if healthChecker == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   "Whisper service not initialized",
			})
			return
		}

		status := healthChecker.GetStatus()

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"implementation":    healthChecker.EngineName(),
				"is_healthy":        status.IsHealthy,
				"last_check_time":   status.LastCheckTime,
				"consecutive_fails": status.ConsecutiveFails,
				"error_message":     status.ErrorMessage,
			},
		})
	}
}
