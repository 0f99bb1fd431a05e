package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter != nil {
		return metric.Counter.GetValue()
	}
	return metric.Gauge.GetValue()
}

func TestRecordTranscription(t *testing.T) {
	TranscriptionsTotal.Reset()

	RecordTranscription("go-whisper", true)
	RecordTranscription("go-whisper", true)
	RecordTranscription("go-whisper", false)

	if v := counterValue(t, TranscriptionsTotal.WithLabelValues("go-whisper", "success")); v != 2 {
		t.Errorf("Expected success counter 2, got %f", v)
	}
	if v := counterValue(t, TranscriptionsTotal.WithLabelValues("go-whisper", "error")); v != 1 {
		t.Errorf("Expected error counter 1, got %f", v)
	}
}

func TestRecordError(t *testing.T) {
	TranscriptionErrorsTotal.Reset()

	RecordError("openai", "WHISPER_HTTP_ERROR")

	if v := counterValue(t, TranscriptionErrorsTotal.WithLabelValues("openai", "WHISPER_HTTP_ERROR")); v != 1 {
		t.Errorf("Expected counter value 1, got %f", v)
	}
}

func TestSetEngineReady(t *testing.T) {
	SetEngineReady("local-whisper", true)
	if v := counterValue(t, EngineReady.WithLabelValues("local-whisper")); v != 1 {
		t.Errorf("Expected gauge 1, got %f", v)
	}

	SetEngineReady("local-whisper", false)
	if v := counterValue(t, EngineReady.WithLabelValues("local-whisper")); v != 0 {
		t.Errorf("Expected gauge 0, got %f", v)
	}
}

func TestTrackInFlight(t *testing.T) {
	before := counterValue(t, TranscriptionsInFlight)

	done := TrackInFlight()
	if v := counterValue(t, TranscriptionsInFlight); v != before+1 {
		t.Errorf("Expected in-flight %f, got %f", before+1, v)
	}

	done()
	if v := counterValue(t, TranscriptionsInFlight); v != before {
		t.Errorf("Expected in-flight %f, got %f", before, v)
	}
}

func TestHistogramsAcceptObservations(t *testing.T) {
	RecordDuration("mock", 0.25)
	RecordUpload(64 * 1024)

	metric := &dto.Metric{}
	if err := UploadBytes.Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Histogram.GetSampleCount() < 1 {
		t.Errorf("Expected at least one upload sample, got %d", metric.Histogram.GetSampleCount())
	}
}
