package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/questcraft/go-hunt-photoflow/internal/assetstore"
	"github.com/questcraft/go-hunt-photoflow/internal/idempotency"
	"github.com/questcraft/go-hunt-photoflow/internal/progress"
	"github.com/questcraft/go-hunt-photoflow/internal/resilience"
	"github.com/questcraft/go-hunt-photoflow/internal/telemetry"
)

// errUnconfirmed is returned inside the verify step when the upload has not
// propagated yet; marked transient so the wrapper retries it.
var errUnconfirmed = errors.New("asset not yet retrievable")

// Orchestrator sequences upload -> verify -> upsert and compensates on
// persistence failure. One Run per inbound request; concurrent Runs share
// only the breaker state inside the Executor.
type Orchestrator struct {
	resolver  *idempotency.Resolver
	assets    AssetStore
	progress  ProgressStore
	executor  Executor
	telemetry Telemetry
	cleanup   CleanupNotifier // optional
	nowFunc   func() time.Time
}

// NewOrchestrator wires the saga. cleanup may be nil; orphans are then only
// reported in the error payload and telemetry.
func NewOrchestrator(assets AssetStore, progressStore ProgressStore, executor Executor, tel Telemetry, cleanup CleanupNotifier) *Orchestrator {
	return &Orchestrator{
		resolver:  idempotency.NewResolver(),
		assets:    assets,
		progress:  progressStore,
		executor:  executor,
		telemetry: tel,
		cleanup:   cleanup,
		nowFunc:   time.Now,
	}
}

// Run executes the saga for one upload request and returns either the
// completion result or a terminal *Error. Deduplication of concurrent
// requests with the same key is not done here; it falls out of the
// idempotent semantics of upload and upsert.
func (o *Orchestrator) Run(ctx context.Context, req *UploadRequest) (*Result, error) {
	// Once started, in-flight provider calls run to completion even if the
	// caller disconnects, so no side effect goes unobserved.
	ctx = context.WithoutCancel(ctx)

	exec := &Execution{
		Phase:         PhaseStart,
		CorrelationID: req.CorrelationID,
		Attempts:      map[string]int{},
		StartedAt:     o.nowFunc(),
	}
	if exec.CorrelationID == "" {
		exec.CorrelationID = uuid.NewString()
	}

	// START: validate, resolve the idempotency key. Nothing external yet.
	if err := validateRequest(req); err != nil {
		o.emit(ctx, exec, EventFailed, "", err.Error())
		return nil, o.fail(exec, CodeValidation, err.Error(), err)
	}
	res, err := o.resolver.Resolve(req.ClientKey, req.Payload, req.Team, req.Location)
	if err != nil {
		o.emit(ctx, exec, EventFailed, "", err.Error())
		return nil, o.fail(exec, CodeValidation, "idempotency key rejected", err)
	}
	exec.Key = res
	o.emit(ctx, exec, EventSucceeded, "", string(res.Source))

	// UPLOADING
	labels := buildLabels(req)
	var asset *assetstore.AssetRecord
	attempts, err := o.executor.Execute(ctx, ProviderPhotoAssets, func(ctx context.Context) error {
		a, uerr := o.assets.Upload(ctx, res.Key, req.Payload, req.ContentType, labels)
		if uerr != nil {
			return uerr
		}
		asset = a
		return nil
	})
	exec.Attempts[ProviderPhotoAssets] = attempts
	if err != nil {
		o.emit(ctx, exec, EventFailed, ProviderPhotoAssets, "upload failed")
		return nil, o.providerFailure(exec, "photo upload failed", err)
	}
	exec.Asset = asset
	o.emit(ctx, exec, EventSucceeded, ProviderPhotoAssets, "")

	// VERIFYING: an upload that reported success may not be retrievable yet.
	// A failure here aborts without compensation: the asset is unconfirmed
	// and deleting it could race its propagation.
	attempts, err = o.executor.Execute(ctx, ProviderPhotoAssets, func(ctx context.Context) error {
		ok, verr := o.assets.Verify(ctx, asset)
		if verr != nil {
			return verr
		}
		if !ok {
			return &resilience.TransientError{Err: errUnconfirmed}
		}
		return nil
	})
	exec.Attempts[ProviderPhotoAssets] = attempts
	if err != nil {
		o.emit(ctx, exec, EventFailed, ProviderPhotoAssets, "verify failed")
		return nil, o.providerFailure(exec, "photo could not be confirmed", err)
	}
	o.emit(ctx, exec, EventSucceeded, ProviderPhotoAssets, "")

	// PERSISTING
	completedAt := o.nowFunc().UTC()
	var rec *progress.Record
	attempts, err = o.executor.Execute(ctx, ProviderHuntProgress, func(ctx context.Context) error {
		r, perr := o.progress.UpsertCompletion(ctx, req.Team, req.Location, asset, completedAt)
		if perr != nil {
			return perr
		}
		rec = r
		return nil
	})
	exec.Attempts[ProviderHuntProgress] = attempts
	if err == nil {
		o.emit(ctx, exec, EventSucceeded, ProviderHuntProgress, "")
		return &Result{
			Record:         rec,
			Asset:          asset,
			IdempotencyKey: res.Key,
			CorrelationID:  exec.CorrelationID,
			CompletedAt:    completedAt,
		}, nil
	}
	persistErr := err
	o.emit(ctx, exec, EventFailed, ProviderHuntProgress, "upsert failed")

	// COMPENSATING: remove the just-created asset so no orphan remains.
	attempts, derr := o.executor.Execute(ctx, ProviderPhotoAssets, func(ctx context.Context) error {
		return o.assets.Destroy(ctx, asset)
	})
	exec.Attempts[ProviderPhotoAssets] = attempts
	if derr == nil {
		o.emit(ctx, exec, EventSucceeded, ProviderPhotoAssets, "asset removed")
		return nil, o.fail(exec, CodePersistenceFailed,
			"completion could not be recorded; uploaded photo was removed", persistErr)
	}
	o.emit(ctx, exec, EventFailed, ProviderPhotoAssets, "destroy failed")

	// COMPENSATION_FAILED: surface the orphan for operational follow-up and
	// hand it to out-of-band cleanup when a notifier is wired.
	o.telemetry.Record(ctx, telemetry.Event{
		Phase:          string(PhaseCompensationFailed),
		Outcome:        "error",
		CorrelationID:  exec.CorrelationID,
		IdempotencyKey: exec.Key.Key,
		Provider:       ProviderPhotoAssets,
		Detail:         fmt.Sprintf("orphaned asset %s", asset.ObjectKey),
	})
	if o.cleanup != nil {
		task := CleanupTask{
			Bucket:         asset.Bucket,
			AssetKey:       asset.ObjectKey,
			IdempotencyKey: res.Key,
			CorrelationID:  exec.CorrelationID,
		}
		if nerr := o.cleanup.NotifyOrphan(ctx, task); nerr != nil {
			o.telemetry.Record(ctx, telemetry.Event{
				Phase:          string(PhaseCompensationFailed),
				Outcome:        "error",
				CorrelationID:  exec.CorrelationID,
				IdempotencyKey: exec.Key.Key,
				Detail:         "cleanup notification failed: " + nerr.Error(),
			})
		}
	}
	sagaErr := &Error{
		Code:           CodePersistenceFailedOrphan,
		Message:        "completion could not be recorded and photo cleanup failed; manual cleanup may be required",
		CorrelationID:  exec.CorrelationID,
		OrphanAssetKey: asset.ObjectKey,
		cause:          persistErr,
	}
	exec.Phase = PhaseCompensationFailed
	return nil, sagaErr
}

// emit records one telemetry event for the current phase, then advances the
// state machine via the pure transition function.
func (o *Orchestrator) emit(ctx context.Context, exec *Execution, ev StepEvent, provider, detail string) {
	outcome := "ok"
	if ev == EventFailed {
		outcome = "error"
	}
	o.telemetry.Record(ctx, telemetry.Event{
		Phase:          string(exec.Phase),
		Outcome:        outcome,
		CorrelationID:  exec.CorrelationID,
		IdempotencyKey: exec.Key.Key,
		Provider:       provider,
		Attempt:        exec.Attempts[provider],
		Elapsed:        o.nowFunc().Sub(exec.StartedAt),
		Detail:         detail,
	})
	exec.Phase = Transition(exec.Phase, ev)
}

// fail builds the terminal error for an execution.
func (o *Orchestrator) fail(exec *Execution, code Code, msg string, cause error) *Error {
	return &Error{
		Code:          code,
		Message:       msg,
		CorrelationID: exec.CorrelationID,
		cause:         cause,
	}
}

// providerFailure maps a wrapper error to provider_unavailable, carrying the
// breaker's retry-after hint when it fast-failed.
func (o *Orchestrator) providerFailure(exec *Execution, msg string, cause error) *Error {
	e := o.fail(exec, CodeProviderUnavailable, msg, cause)
	var coe *resilience.CircuitOpenError
	if errors.As(cause, &coe) {
		e.RetryAfter = coe.RetryAfter
	}
	return e
}

func validateRequest(req *UploadRequest) error {
	switch {
	case req.Team == "":
		return errors.New("team is required")
	case req.Location == "":
		return errors.New("location is required")
	case len(req.Payload) == 0:
		return errors.New("photo payload is empty")
	case len(req.Payload) > MaxPayloadBytes:
		return fmt.Errorf("photo payload exceeds %d bytes", MaxPayloadBytes)
	case !assetstore.SupportedContentType(req.ContentType):
		return fmt.Errorf("unsupported content type %q", req.ContentType)
	}
	return nil
}

func buildLabels(req *UploadRequest) map[string]string {
	labels := map[string]string{
		"team":     req.Team,
		"location": req.Location,
	}
	if req.DisplayName != "" {
		labels["display_name"] = req.DisplayName
	}
	for k, v := range req.Labels {
		if _, reserved := labels[k]; !reserved {
			labels[k] = v
		}
	}
	return labels
}
