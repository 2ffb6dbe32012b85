package assetstore

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3 is a small in-memory object store for unit tests.
// NOTE: intentionally minimal, not production-grade.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte            // key -> body
	meta    map[string]map[string]string // key -> metadata labels

	putCalls    int
	headCalls   int
	deleteCalls int

	putErr    error // returned by PutObject when set
	headErr   error
	deleteErr error
}

func newMockS3() *mockS3 {
	return &mockS3{
		objects: map[string][]byte{},
		meta:    map[string]map[string]string{},
	}
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*params.Key] = body
	m.meta[*params.Key] = params.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headCalls++
	if m.headErr != nil {
		return nil, m.headErr
	}
	if _, ok := m.objects[*params.Key]; !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	if _, ok := m.objects[*params.Key]; !ok {
		return nil, &s3types.NoSuchKey{}
	}
	delete(m.objects, *params.Key)
	delete(m.meta, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

var errMockNetwork = errors.New("mock network failure")
