package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/questcraft/go-hunt-photoflow/internal/aws"
	"github.com/questcraft/go-hunt-photoflow/internal/saga"
)

// --- mock implementations ---

type mockS3 struct {
	objects     map[string]bool // "bucket/key" -> exists
	deleteCalls int
	deleteErr   error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: map[string]bool{}}
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.objects[*in.Bucket+"/"+*in.Key] = true
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if !m.objects[*in.Bucket+"/"+*in.Key] {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.deleteCalls++
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	k := *in.Bucket + "/" + *in.Key
	if !m.objects[k] {
		return nil, &s3types.NoSuchKey{}
	}
	delete(m.objects, k)
	return &s3.DeleteObjectOutput{}, nil
}

func cleanupEvent(t *testing.T, task saga.CleanupTask) events.SQSEvent {
	t.Helper()
	body, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	return events.SQSEvent{
		Records: []events.SQSMessage{
			{Body: string(body)},
		},
	}
}

// --- test cases ---

func TestCleanup_RemovesOrphanedAsset(t *testing.T) {
	mock := newMockS3()
	mock.objects["hunt-photos/photos/k1.jpg"] = true

	p := NewProcessor(&aws.AWSClients{S3: mock})
	ev := cleanupEvent(t, saga.CleanupTask{
		Bucket:         "hunt-photos",
		AssetKey:       "photos/k1.jpg",
		IdempotencyKey: "k1",
	})

	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected worker error: %v", err)
	}
	if mock.objects["hunt-photos/photos/k1.jpg"] {
		t.Fatal("orphaned asset not deleted")
	}
}

func TestCleanup_AlreadyDeletedIsSuccess(t *testing.T) {
	mock := newMockS3()
	p := NewProcessor(&aws.AWSClients{S3: mock})

	ev := cleanupEvent(t, saga.CleanupTask{
		Bucket:   "hunt-photos",
		AssetKey: "photos/gone.jpg",
	})
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("redelivered task for deleted asset must succeed: %v", err)
	}
}

func TestCleanup_ProviderErrorTriggersRedrive(t *testing.T) {
	mock := newMockS3()
	mock.deleteErr = errors.New("s3 unavailable")
	p := NewProcessor(&aws.AWSClients{S3: mock})

	ev := cleanupEvent(t, saga.CleanupTask{
		Bucket:   "hunt-photos",
		AssetKey: "photos/k1.jpg",
	})
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error so SQS redrives the task")
	}
}

func TestCleanup_RejectsMalformedTask(t *testing.T) {
	p := NewProcessor(&aws.AWSClients{S3: newMockS3()})

	ev := events.SQSEvent{Records: []events.SQSMessage{{Body: "not json"}}}
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error for malformed body")
	}

	ev = events.SQSEvent{Records: []events.SQSMessage{{Body: "{}"}}}
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error for task without asset reference")
	}
}
