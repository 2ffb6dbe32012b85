package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/questcraft/go-hunt-photoflow/internal/assetstore"
	internalaws "github.com/questcraft/go-hunt-photoflow/internal/aws"
	"github.com/questcraft/go-hunt-photoflow/internal/progress"
	"github.com/questcraft/go-hunt-photoflow/internal/resilience"
	"github.com/questcraft/go-hunt-photoflow/internal/saga"
	"github.com/questcraft/go-hunt-photoflow/internal/telemetry"
	"github.com/questcraft/go-hunt-photoflow/internal/validation"
)

// HandlerConfig groups dependencies for the hunt completion handler.
type HandlerConfig struct {
	S3Client         internalaws.S3API
	DynamoDBClient   internalaws.DynamoDBAPI
	SQSClient        internalaws.SQSAPI
	CloudWatchClient internalaws.CloudWatchAPI
	PhotoBucket      string
	ProgressTable    string
	CleanupQueueURL  string // optional; orphan cleanup is skipped when empty
	MetricsNamespace string
}

// RegisterHuntRoutes registers routes for the completion API.
func RegisterHuntRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	assets := assetstore.NewStore(cfg.S3Client, cfg.PhotoBucket)
	progressStore := progress.NewStore(cfg.DynamoDBClient, cfg.ProgressTable)
	executor := resilience.NewExecutor(resilience.NewBreaker(resilience.DefaultBreakerSettings()))
	recorder := telemetry.NewRecorder(cfg.CloudWatchClient, cfg.MetricsNamespace)

	var cleanup saga.CleanupNotifier
	if cfg.SQSClient != nil && cfg.CleanupQueueURL != "" {
		cleanup = saga.NewSQSCleanup(internalaws.NewPublisher(cfg.SQSClient, cfg.CleanupQueueURL))
	}

	orch := saga.NewOrchestrator(assets, progressStore, executor, recorder, cleanup)

	r.POST("/hunts/completions", func(c *gin.Context) {
		ctx := c.Request.Context()

		// correlation id is generated once per inbound request and echoed on
		// every error response so operators can find the matching log trail
		correlationID := c.GetHeader("X-Request-Id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		// Bind + validate form fields
		var req validation.CompletionRequest
		if err := validation.BindAndValidate(c, &req, v, correlationID); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		file, header, err := c.Request.FormFile("photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          string(saga.CodeValidation),
				"message":        "photo file part is required",
				"correlation_id": correlationID,
			})
			return
		}
		defer file.Close()

		// read one byte past the cap so oversized uploads are detectable
		payload, err := io.ReadAll(io.LimitReader(file, saga.MaxPayloadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":          string(saga.CodeValidation),
				"message":        "photo file part could not be read",
				"correlation_id": correlationID,
			})
			return
		}

		result, err := orch.Run(ctx, &saga.UploadRequest{
			Team:          req.Team,
			Location:      req.Location,
			DisplayName:   req.DisplayName,
			Payload:       payload,
			ContentType:   header.Header.Get("Content-Type"),
			ClientKey:     c.GetHeader("Idempotency-Key"),
			CorrelationID: correlationID,
		})
		if err != nil {
			writeSagaError(c, err, correlationID)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"team":            result.Record.Team,
			"location":        result.Record.Location,
			"asset_location":  result.Asset.Location,
			"idempotency_key": result.IdempotencyKey,
			"completed_at":    result.CompletedAt.Format(time.RFC3339),
		})
	})

	r.GET("/hunts/progress/:team/:location", func(c *gin.Context) {
		rec, err := progressStore.Get(c.Request.Context(), c.Param("team"), c.Param("location"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		if rec == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"team":           rec.Team,
			"location":       rec.Location,
			"done":           rec.Done,
			"asset_location": rec.AssetLocation,
			"completed_at":   rec.CompletedAt.Format(time.RFC3339),
			"notes":          rec.Notes,
			"hints_revealed": rec.HintsRevealed,
		})
	})
}

// writeSagaError maps the saga error taxonomy onto HTTP responses. Every body
// carries the correlation id.
func writeSagaError(c *gin.Context, err error, correlationID string) {
	var sagaErr *saga.Error
	if !errors.As(err, &sagaErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "correlation_id": correlationID})
		return
	}

	body := gin.H{
		"error":          string(sagaErr.Code),
		"message":        sagaErr.Message,
		"correlation_id": sagaErr.CorrelationID,
	}

	switch sagaErr.Code {
	case saga.CodeValidation:
		c.JSON(http.StatusBadRequest, body)
	case saga.CodeProviderUnavailable:
		if sagaErr.RetryAfter > 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", int(sagaErr.RetryAfter.Seconds())+1))
		}
		c.JSON(http.StatusServiceUnavailable, body)
	case saga.CodePersistenceFailedOrphan:
		body["orphan_asset_key"] = sagaErr.OrphanAssetKey
		c.JSON(http.StatusInternalServerError, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
