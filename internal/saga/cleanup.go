package saga

import (
	"context"

	internalaws "github.com/questcraft/go-hunt-photoflow/internal/aws"
)

// SQSCleanup publishes orphan-cleanup tasks to the cleanup queue, where the
// worker retries the delete out-of-band.
type SQSCleanup struct {
	publisher *internalaws.Publisher
}

func NewSQSCleanup(publisher *internalaws.Publisher) *SQSCleanup {
	return &SQSCleanup{publisher: publisher}
}

func (c *SQSCleanup) NotifyOrphan(ctx context.Context, task CleanupTask) error {
	attrs := map[string]string{
		"idempotency_key": task.IdempotencyKey,
	}
	if task.CorrelationID != "" {
		attrs["correlation_id"] = task.CorrelationID
	}
	return c.publisher.PublishJSON(ctx, task, attrs)
}
