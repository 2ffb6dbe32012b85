package assetstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	internalaws "github.com/questcraft/go-hunt-photoflow/internal/aws"
)

// Store encapsulates asset operations against the S3 photo bucket.
type Store struct {
	client internalaws.S3API
	bucket string
}

// NewStore returns a Store bound to a bucket.
func NewStore(client internalaws.S3API, bucket string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
	}
}

// extensions maps accepted photo content types to object-key suffixes.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// SupportedContentType reports whether the photo content type is accepted.
func SupportedContentType(ct string) bool {
	_, ok := extensions[ct]
	return ok
}

// ObjectKey derives the durable object name from the idempotency key, so a
// client retry with the same key lands on the same object.
func ObjectKey(idempotencyKey, contentType string) string {
	return "photos/" + idempotencyKey + extensions[contentType]
}

// Upload writes the payload under the key-derived object name, attaching
// labels as queryable metadata. S3 PutObject is an idempotent overwrite, so
// re-invoking with the same key and payload is safe.
func (s *Store) Upload(ctx context.Context, idempotencyKey string, payload []byte, contentType string, labels map[string]string) (*AssetRecord, error) {
	objectKey := ObjectKey(idempotencyKey, contentType)

	input := &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objectKey,
		Body:        bytes.NewReader(payload),
		ContentType: &contentType,
	}
	if len(labels) > 0 {
		input.Metadata = labels
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put object %s: %w", objectKey, err)
	}

	return &AssetRecord{
		IdempotencyKey: idempotencyKey,
		Bucket:         s.bucket,
		ObjectKey:      objectKey,
		Location:       fmt.Sprintf("s3://%s/%s", s.bucket, objectKey),
		ContentType:    contentType,
	}, nil
}

// Verify confirms the asset is retrievable. A PutObject that reported success
// may not have propagated yet; HeadObject answering NotFound returns
// (false, nil) rather than an error so the caller can decide policy.
func (s *Store) Verify(ctx context.Context, rec *AssetRecord) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &rec.Bucket,
		Key:    &rec.ObjectKey,
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s: %w", rec.ObjectKey, err)
	}
	rec.Verified = true
	return true, nil
}

// Destroy deletes the asset; used only for compensation. "Already deleted"
// counts as success.
func (s *Store) Destroy(ctx context.Context, rec *AssetRecord) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &rec.Bucket,
		Key:    &rec.ObjectKey,
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete object %s: %w", rec.ObjectKey, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	return false
}
