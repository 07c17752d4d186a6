// Package blob stores attachment payloads in an S3-compatible object store,
// keyed by opaque file IDs.
package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/tripper-app/tripper/internal/config"
)

// Store reads and writes blobs in a single bucket
type Store struct {
	client *s3.Client
	bucket string
}

// NewStore builds an S3 client from config. A non-empty endpoint switches to
// path-style addressing so MinIO works in dev.
func NewStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{client: client, bucket: cfg.S3Bucket}, nil
}

// Put uploads a blob and returns its newly minted file ID
func (s *Store) Put(ctx context.Context, body io.Reader, contentType string) (string, error) {
	fileID := uuid.NewString()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileID),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	return fileID, nil
}

// Get opens a blob for reading. The caller closes the returned reader.
func (s *Store) Get(ctx context.Context, fileID string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", fileID, err)
	}

	return out.Body, nil
}

// Delete removes a blob. Deleting a missing key is not an error in S3.
func (s *Store) Delete(ctx context.Context, fileID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", fileID, err)
	}

	return nil
}
