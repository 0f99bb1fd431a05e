package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/health"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/whisper"
)

type probeEngine struct {
	healthy bool
}

func (p *probeEngine) Transcribe(ctx context.Context, audioPath string, options *whisper.TranscribeOptions) (*whisper.TranscriptionResult, error) {
	return &whisper.TranscriptionResult{}, nil
}

func (p *probeEngine) HealthCheck(ctx context.Context) (bool, error) {
	if p.healthy {
		return true, nil
	}
	return false, errors.New("connection refused")
}

func (p *probeEngine) Name() string { return "probe" }

type dirStub struct{ err error }

func (d dirStub) Writable() error { return d.err }

func serve(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func TestHandleHealth(t *testing.T) {
	w := serve(HandleHealth())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandleHealth_IgnoresEngineState(t *testing.T) {
	checker := health.NewHealthChecker(&probeEngine{healthy: false}, time.Hour, 1)
	checker.Check(context.Background())
	require.False(t, checker.GetStatus().IsHealthy)

	w := serve(HandleHealth())
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandleReadiness(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		checker := health.NewHealthChecker(&probeEngine{healthy: true}, time.Hour, 1)
		w := serve(HandleReadiness(dirStub{}, checker))

		assert.Equal(t, http.StatusOK, w.Code)
		var response ReadinessCheckResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Ready)
		assert.Len(t, response.Checks, 2)
	})

	t.Run("temp dir not writable", func(t *testing.T) {
		checker := health.NewHealthChecker(&probeEngine{healthy: true}, time.Hour, 1)
		w := serve(HandleReadiness(dirStub{err: errors.New("read-only file system")}, checker))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var response ReadinessCheckResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.False(t, response.Ready)
		assert.Equal(t, "fail", response.Checks[0].Status)
		assert.Equal(t, "ok", response.Checks[1].Status)
	})

	t.Run("engine unhealthy", func(t *testing.T) {
		checker := health.NewHealthChecker(&probeEngine{healthy: false}, time.Hour, 1)
		checker.Check(context.Background())
		w := serve(HandleReadiness(dirStub{}, checker))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var response ReadinessCheckResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "whisper", response.Checks[1].Name)
		assert.Equal(t, "fail", response.Checks[1].Status)
		assert.NotEmpty(t, response.Checks[1].Error)
	})
}

func TestHandleWhisperHealthCheck(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		w := serve(HandleWhisperHealthCheck(nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("reports checker status", func(t *testing.T) {
		checker := health.NewHealthChecker(&probeEngine{healthy: false}, time.Hour, 3)
		checker.Check(context.Background())

		w := serve(HandleWhisperHealthCheck(checker))
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Success bool `json:"success"`
			Data    struct {
				Implementation   string `json:"implementation"`
				IsHealthy        bool   `json:"is_healthy"`
				ConsecutiveFails int    `json:"consecutive_fails"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Equal(t, "probe", response.Data.Implementation)
		assert.True(t, response.Data.IsHealthy, "below threshold still healthy")
		assert.Equal(t, 1, response.Data.ConsecutiveFails)
	})
}
