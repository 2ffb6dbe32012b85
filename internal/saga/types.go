package saga

import (
	"context"
	"time"

	"github.com/questcraft/go-hunt-photoflow/internal/assetstore"
	"github.com/questcraft/go-hunt-photoflow/internal/idempotency"
	"github.com/questcraft/go-hunt-photoflow/internal/progress"
	"github.com/questcraft/go-hunt-photoflow/internal/telemetry"
)

// Provider names used with the resilience wrapper. Breaker state is tracked
// per name, shared across concurrent executions.
const (
	ProviderPhotoAssets  = "photo_assets"
	ProviderHuntProgress = "hunt_progress"
)

// MaxPayloadBytes bounds accepted photo uploads (10 MiB).
const MaxPayloadBytes = 10 << 20

// UploadRequest is the input to one saga execution. Constructed per inbound
// call and discarded when the saga completes.
type UploadRequest struct {
	Team          string
	Location      string
	DisplayName   string
	Payload       []byte
	ContentType   string
	Labels        map[string]string
	ClientKey     string // optional client-supplied idempotency key
	CorrelationID string // generated by Run when empty
}

// Result is returned to the caller on DONE.
type Result struct {
	Record         *progress.Record
	Asset          *assetstore.AssetRecord
	IdempotencyKey string
	CorrelationID  string
	CompletedAt    time.Time
}

// Execution is the per-request state machine instance. It lives for one Run
// call and survives only through the telemetry trail it emits.
type Execution struct {
	Phase         Phase
	CorrelationID string
	Key           idempotency.Resolution
	Attempts      map[string]int // provider -> attempts consumed by the last call
	Asset         *assetstore.AssetRecord
	StartedAt     time.Time
}

// AssetStore is the slice of the asset client the orchestrator drives.
type AssetStore interface {
	Upload(ctx context.Context, idempotencyKey string, payload []byte, contentType string, labels map[string]string) (*assetstore.AssetRecord, error)
	Verify(ctx context.Context, rec *assetstore.AssetRecord) (bool, error)
	Destroy(ctx context.Context, rec *assetstore.AssetRecord) error
}

// ProgressStore is the slice of the progress client the orchestrator drives.
type ProgressStore interface {
	UpsertCompletion(ctx context.Context, team, location string, asset *assetstore.AssetRecord, completedAt time.Time) (*progress.Record, error)
}

// Executor wraps provider calls with retry and circuit breaking.
type Executor interface {
	Execute(ctx context.Context, provider string, op func(ctx context.Context) error) (int, error)
}

// Telemetry records phase transitions.
type Telemetry interface {
	Record(ctx context.Context, ev telemetry.Event)
}

// CleanupNotifier hands an orphaned asset to out-of-band cleanup after a
// failed compensation.
type CleanupNotifier interface {
	NotifyOrphan(ctx context.Context, task CleanupTask) error
}

// CleanupTask names an orphaned asset for operational follow-up. It is the
// wire shape consumed by the cleanup worker.
type CleanupTask struct {
	Bucket         string `json:"bucket"`
	AssetKey       string `json:"asset_key"`
	IdempotencyKey string `json:"idempotency_key"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}
