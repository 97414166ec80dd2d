package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	bucketError error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.bucketError != nil {
		return nil, f.bucketError
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Backend(t *testing.T) {
	fake := newFakeS3()
	b := NewS3Backend("bucket", "team/clips/", "us-east-1")
	b.client = fake

	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	exerciseBackend(t, b)

	if _, ok := fake.objects["team/clips/.infinity-clipboard/infinityClipboardData.rec"]; !ok {
		t.Errorf("object not stored under prefixed key, have %v", keys(fake.objects))
	}
}

func TestS3BackendInitBucketError(t *testing.T) {
	fake := newFakeS3()
	fake.bucketError = errors.New("access denied")
	b := NewS3Backend("bucket", "", "")
	b.client = fake

	if err := b.Init(context.Background()); err == nil {
		t.Error("Init() should fail when the bucket is not accessible")
	}
}

func TestS3BackendNotConfigured(t *testing.T) {
	b := NewS3Backend("", "", "")
	if err := b.Init(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Init() error = %v, want %v", err, ErrNotConfigured)
	}
	if err := b.Write(context.Background(), "k", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Write() error = %v, want %v", err, ErrNotConfigured)
	}
}

func TestS3BackendLocation(t *testing.T) {
	tests := []struct {
		location   string
		wantBucket string
		wantPrefix string
		wantLoc    string
		wantErr    bool
	}{
		{"s3://bucket/a/b/", "bucket", "a/b", "s3://bucket/a/b", false},
		{"bucket", "bucket", "", "s3://bucket", false},
		{"s3:///prefix", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			b := NewS3Backend("", "", "")
			err := b.SetLocation(tt.location)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetLocation() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if b.GetBucket() != tt.wantBucket || b.GetPrefix() != tt.wantPrefix {
				t.Errorf("bucket/prefix = %q/%q", b.GetBucket(), b.GetPrefix())
			}
			if b.GetLocation() != tt.wantLoc {
				t.Errorf("GetLocation() = %q, want %q", b.GetLocation(), tt.wantLoc)
			}
		})
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestIsS3NotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed no such key", &types.NoSuchKey{}, true},
		{"typed not found", fmt.Errorf("head: %w", &types.NotFound{}), true},
		{"generic api no such key", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"generic api access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isS3NotFound(tt.err); got != tt.want {
				t.Errorf("isS3NotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
