package telemetry

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

type mockCloudWatch struct {
	calls  int
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.calls++
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecord_LogsIdentifiersOnly(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(nil, "")
	r.logger = log.New(&buf, "", 0)

	r.Record(context.Background(), Event{
		Phase:          "UPLOADING",
		Outcome:        "ok",
		CorrelationID:  "corr-1",
		IdempotencyKey: "key-1",
		Provider:       "photo_assets",
		Attempt:        2,
		Elapsed:        1500 * time.Millisecond,
	})

	line := buf.String()
	for _, want := range []string{"phase=UPLOADING", "outcome=ok", "correlation_id=corr-1", "idempotency_key=key-1", "provider=photo_assets", "attempt=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %q: %s", want, line)
		}
	}
}

func TestRecord_EmitsCloudWatchMetric(t *testing.T) {
	cw := &mockCloudWatch{}
	r := NewRecorder(cw, "HuntPhotoflow")
	r.logger = log.New(&bytes.Buffer{}, "", 0)

	r.Record(context.Background(), Event{Phase: "PERSISTING", Outcome: "error", Provider: "hunt_progress"})

	if cw.calls != 1 {
		t.Fatalf("expected 1 PutMetricData call, got %d", cw.calls)
	}
	in := cw.inputs[0]
	if *in.Namespace != "HuntPhotoflow" {
		t.Fatalf("namespace mismatch: %s", *in.Namespace)
	}
	if len(in.MetricData) != 1 || len(in.MetricData[0].Dimensions) != 3 {
		t.Fatalf("unexpected metric shape: %+v", in.MetricData)
	}
}

func TestRecord_MetricFailureIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	cw := &mockCloudWatch{err: context.DeadlineExceeded}
	r := NewRecorder(cw, "HuntPhotoflow")
	r.logger = log.New(&buf, "", 0)

	// must not panic or propagate
	r.Record(context.Background(), Event{Phase: "DONE", Outcome: "ok"})
	if !strings.Contains(buf.String(), "put metric failed") {
		t.Fatalf("expected failure log line, got: %s", buf.String())
	}
}
