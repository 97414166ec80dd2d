package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/mindmorass/infinity-clipboard/internal/storage"
)

// s3API is the subset of *s3.Client the backend uses
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backend stores one object per key under <prefix>/.infinity-clipboard/
type S3Backend struct {
	bucket   string
	prefix   string
	region   string
	endpoint string
	client   s3API
}

// NewS3Backend creates a new S3 backend
func NewS3Backend(bucket, prefix, region string) *S3Backend {
	return &S3Backend{
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		region: region,
	}
}

// Type returns the backend type
func (b *S3Backend) Type() BackendType {
	return BackendS3
}

// GetLocation returns the S3 location as s3://bucket/prefix
func (b *S3Backend) GetLocation() string {
	if b.bucket == "" {
		return ""
	}
	if b.prefix != "" {
		return fmt.Sprintf("s3://%s/%s", b.bucket, b.prefix)
	}
	return fmt.Sprintf("s3://%s", b.bucket)
}

// SetLocation parses and sets the S3 location
// Accepts format: s3://bucket/prefix or just bucket/prefix
func (b *S3Backend) SetLocation(location string) error {
	if location == "" {
		b.bucket = ""
		b.prefix = ""
		return nil
	}

	location = strings.TrimPrefix(location, "s3://")

	parts := strings.SplitN(location, "/", 2)
	if parts[0] == "" {
		return fmt.Errorf("invalid S3 location: bucket name required")
	}

	b.bucket = parts[0]
	b.prefix = ""
	if len(parts) > 1 {
		b.prefix = strings.Trim(parts[1], "/")
	}

	return nil
}

// SetEndpoint points the client at an S3-compatible service (MinIO, LocalStack)
func (b *S3Backend) SetEndpoint(endpoint string) {
	b.endpoint = endpoint
}

// objectKey returns the full S3 object key for key
func (b *S3Backend) objectKey(key string) string {
	name := DirName + "/" + recordName(key)
	if b.prefix != "" {
		return b.prefix + "/" + name
	}
	return name
}

// Init initializes the S3 client
func (b *S3Backend) Init(ctx context.Context) error {
	if b.bucket == "" {
		return ErrNotConfigured
	}

	if b.client == nil {
		opts := []func(*config.LoadOptions) error{}
		if b.region != "" {
			opts = append(opts, config.WithRegion(b.region))
		}

		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}

		b.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if b.endpoint != "" {
				o.BaseEndpoint = aws.String(b.endpoint)
				o.UsePathStyle = true
			}
		})
	}

	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to access bucket %s: %w", b.bucket, err)
	}

	return nil
}

// Close releases resources (no-op for S3)
func (b *S3Backend) Close() error {
	return nil
}

// Write stores data under key as an encoded record
func (b *S3Backend) Write(ctx context.Context, key string, data []byte) error {
	if b.client == nil {
		return ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	encoded, err := storage.Encode(storage.NewRecord(key, data))
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey(key)),
		Body:        bytes.NewReader(encoded),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("S3 put failed: %w", err)
	}

	return nil
}

// Read retrieves the value stored under key
func (b *S3Backend) Read(ctx context.Context, key string) ([]byte, error) {
	if b.client == nil {
		return nil, ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("S3 get failed: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, storage.MaxPayloadSize+storage.MaxHeaderSize+64))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	value, err := storage.DecodeValue(key, data)
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	return value, nil
}

// Exists returns true if the object for key exists in S3
func (b *S3Backend) Exists(ctx context.Context, key string) bool {
	if b.client == nil || ValidateKey(key) != nil {
		return false
	}

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	return err == nil
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	// S3-compatible stores don't always produce the typed errors
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// GetBucket returns the configured bucket name
func (b *S3Backend) GetBucket() string {
	return b.bucket
}

// GetPrefix returns the configured prefix
func (b *S3Backend) GetPrefix() string {
	return b.prefix
}

// GetRegion returns the configured region
func (b *S3Backend) GetRegion() string {
	return b.region
}
