package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator"
)

// AudioField multipart 表单中音频文件的字段名
const AudioField = "audio"

// Transcriber 转写服务抽象，由 orchestrator.TranscriptionService 实现
type Transcriber interface {
	Transcribe(ctx context.Context, upload orchestrator.Upload) (*orchestrator.Result, error)
}

// HandleTranscribe 处理音频转写请求
// POST /transcribe
//
// 请求: multipart/form-data，字段 audio 为音频文件
// 响应:
//
//	{
//	  "text": "hello world",
//	  "segments": [{"id": 0, "start": 0, "end": 1.5, "text": "hello world"}]
//	}
//
// 缺少 audio 字段返回 422；maxBytes > 0 时超限返回 413；转写失败返回不带响应体的 500。
func HandleTranscribe(svc Transcriber, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		file, err := c.FormFile(AudioField)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				errorResponse(c, http.StatusRequestEntityTooLarge, "audio file exceeds upload limit")
				return
			}
			errorResponse(c, http.StatusUnprocessableEntity, "field required: audio")
			return
		}

		src, err := file.Open()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		defer src.Close()

		result, err := svc.Transcribe(c.Request.Context(), orchestrator.Upload{
			Filename: file.Filename,
			Content:  src,
		})
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}
