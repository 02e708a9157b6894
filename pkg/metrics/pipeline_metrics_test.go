package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestRecordChunkProcessed(t *testing.T) {
	// Reset metrics before test
	ChunksTotal.Reset()

	RecordChunkProcessed("asr", true)

	metric := &dto.Metric{}
	if err := ChunksTotal.WithLabelValues("asr", "success").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected counter value 1, got %f", metric.Counter.GetValue())
	}

	RecordChunkProcessed("asr", false)

	metric = &dto.Metric{}
	if err := ChunksTotal.WithLabelValues("asr", "error").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Expected error counter value 1, got %f", metric.Counter.GetValue())
	}
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("diarize", "DIARIZATION_FAILED")
	RecordError("diarize", "DIARIZATION_FAILED")

	metric := &dto.Metric{}
	if err := ErrorsTotal.WithLabelValues("diarize", "DIARIZATION_FAILED").Write(metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Expected counter value 2, got %f", metric.Counter.GetValue())
	}
}

func TestRecordStageDuration(t *testing.T) {
	StageDuration.Reset()

	// Histograms are verified by recording without panic; bucket contents
	// are not inspected in unit tests.
	RecordStageDuration("asr", 42.5)
	RecordStageDuration("merge", 0.3)
	RecordStageDuration("asr", 118.0)
}

func TestRecordUnassignedSegments(t *testing.T) {
	before := &dto.Metric{}
	if err := UnassignedSegments.Write(before); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	RecordUnassignedSegments(3)

	after := &dto.Metric{}
	if err := UnassignedSegments.Write(after); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := after.Counter.GetValue() - before.Counter.GetValue(); got != 3 {
		t.Errorf("Expected counter delta 3, got %f", got)
	}
}
