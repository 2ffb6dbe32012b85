package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	internalaws "github.com/questcraft/go-hunt-photoflow/internal/aws"
)

// Event is one saga phase transition. It carries identifiers and outcomes
// only — payload bytes and personal data never pass through here.
type Event struct {
	Phase          string
	Outcome        string // ok | error | skipped
	CorrelationID  string
	IdempotencyKey string
	Provider       string // set for phases that called a provider
	Attempt        int    // attempts consumed by the resilient call, 0 otherwise
	Elapsed        time.Duration
	Detail         string // short outcome detail, e.g. an error code
}

// Recorder writes one log line per phase transition and mirrors a counter
// metric to CloudWatch when a client is configured.
type Recorder struct {
	logger     *log.Logger
	cloudwatch internalaws.CloudWatchAPI
	namespace  string
	nowFunc    func() time.Time
}

// NewRecorder returns a Recorder. cw may be nil; metrics are then skipped.
func NewRecorder(cw internalaws.CloudWatchAPI, namespace string) *Recorder {
	return &Recorder{
		logger:     log.Default(),
		cloudwatch: cw,
		namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// Record emits exactly one log line for the event plus a best-effort metric.
// Metric delivery failures are logged, never surfaced to the saga.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if ev.Provider != "" {
		r.logger.Printf("[saga] phase=%s outcome=%s correlation_id=%s idempotency_key=%s provider=%s attempt=%d elapsed=%s detail=%q",
			ev.Phase, ev.Outcome, ev.CorrelationID, ev.IdempotencyKey, ev.Provider, ev.Attempt, ev.Elapsed, ev.Detail)
	} else {
		r.logger.Printf("[saga] phase=%s outcome=%s correlation_id=%s idempotency_key=%s elapsed=%s detail=%q",
			ev.Phase, ev.Outcome, ev.CorrelationID, ev.IdempotencyKey, ev.Elapsed, ev.Detail)
	}

	if r.cloudwatch == nil {
		return
	}
	now := r.nowFunc()
	datum := cwtypes.MetricDatum{
		MetricName: awsString("SagaPhase"),
		Timestamp:  &now,
		Value:      awsFloat64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: awsString("Phase"), Value: awsString(ev.Phase)},
			{Name: awsString("Outcome"), Value: awsString(ev.Outcome)},
		},
	}
	if ev.Provider != "" {
		datum.Dimensions = append(datum.Dimensions, cwtypes.Dimension{
			Name: awsString("Provider"), Value: awsString(ev.Provider),
		})
	}
	_, err := r.cloudwatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &r.namespace,
		MetricData: []cwtypes.MetricDatum{datum},
	})
	if err != nil {
		r.logger.Printf("[telemetry] put metric failed: %v", err)
	}
}

func awsString(s string) *string    { return &s }
func awsFloat64(f float64) *float64 { return &f }
