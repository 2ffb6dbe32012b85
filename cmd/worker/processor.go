package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/questcraft/go-hunt-photoflow/internal/assetstore"
	"github.com/questcraft/go-hunt-photoflow/internal/aws"
	"github.com/questcraft/go-hunt-photoflow/internal/saga"
)

// Processor drains orphan-cleanup tasks published by the API when a saga's
// compensation failed. Deleting here is safe: the task names an asset whose
// completion row was never written.
type Processor struct {
	assets *assetstore.Store
}

// NewProcessor creates a cleanup processor with AWS clients injected. The
// store's bucket is unused; each task carries its own bucket.
func NewProcessor(clients *aws.AWSClients) *Processor {
	return &Processor{
		assets: assetstore.NewStore(clients.S3, ""),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("cleanup worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var task saga.CleanupTask
	if err := json.Unmarshal([]byte(rec.Body), &task); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if task.Bucket == "" || task.AssetKey == "" {
		return fmt.Errorf("cleanup task missing asset reference: %s", rec.Body)
	}

	log.Printf("[cleanup] received asset=%s bucket=%s idempotency_key=%s corr=%s",
		task.AssetKey, task.Bucket, task.IdempotencyKey, task.CorrelationID)

	asset := &assetstore.AssetRecord{
		Bucket:    task.Bucket,
		ObjectKey: task.AssetKey,
	}
	// Destroy treats already-deleted as success, so redelivered tasks are harmless.
	if err := p.assets.Destroy(ctx, asset); err != nil {
		return fmt.Errorf("delete orphaned asset %s: %w", task.AssetKey, err)
	}

	log.Printf("[cleanup] removed asset=%s", task.AssetKey)
	return nil
}
