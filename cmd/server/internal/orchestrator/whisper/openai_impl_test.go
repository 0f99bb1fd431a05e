package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIImpl(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewOpenAIImpl("", "", "", nil)
		require.Error(t, err)
	})

	t.Run("verbose json is mapped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whisper-1", r.FormValue("model"))
			assert.Equal(t, "verbose_json", r.FormValue("response_format"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"task": "transcribe",
				"language": "english",
				"duration": 2.5,
				"text": "Hello world",
				"segments": [
					{"id": 0, "seek": 0, "start": 0.0, "end": 1.1, "text": " Hello"},
					{"id": 1, "seek": 0, "start": 1.1, "end": 2.5, "text": " world"}
				]
			}`))
		}))
		defer server.Close()

		impl, err := NewOpenAIImpl("sk-test", server.URL+"/v1", "", quietLogger())
		require.NoError(t, err)

		result, err := impl.Transcribe(context.Background(), writeAudio(t), &TranscribeOptions{Language: "en"})
		require.NoError(t, err)

		assert.Equal(t, "Hello world", result.Text)
		assert.Equal(t, "english", result.Language)
		assert.InDelta(t, 2.5, result.Duration, 1e-9)
		require.Len(t, result.Segments, 2)
		assert.Equal(t, 1, result.Segments[1].ID)
		assert.InDelta(t, 1.1, result.Segments[1].Start, 1e-9)
	})

	t.Run("api error is classified", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"message": "Invalid file format.", "type": "invalid_request_error"}}`))
		}))
		defer server.Close()

		impl, err := NewOpenAIImpl("sk-test", server.URL+"/v1", "whisper-1", quietLogger())
		require.NoError(t, err)

		_, err = impl.Transcribe(context.Background(), writeAudio(t), nil)
		require.Error(t, err)
		assert.Equal(t, WHISPER_HTTP_ERROR, CodeOf(err))
	})

	t.Run("health check lists models", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"object": "list", "data": []}`))
		}))
		defer server.Close()

		impl, err := NewOpenAIImpl("sk-test", server.URL+"/v1", "", quietLogger())
		require.NoError(t, err)

		healthy, err := impl.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.True(t, healthy)
		assert.Equal(t, "openai", impl.Name())
	})
}
