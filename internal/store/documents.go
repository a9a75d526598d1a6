package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/contractguard/contractguard/pkg/logging"
)

// S3API is the subset of the S3 client used by DocumentStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// DocumentStore keeps uploaded contract documents in S3.
type DocumentStore struct {
	client S3API
	bucket string
	logger *logging.Logger
}

func NewDocumentStore(client S3API, bucket string, logger *logging.Logger) *DocumentStore {
	if client == nil {
		panic("store: s3 client cannot be nil")
	}
	if bucket == "" {
		panic("store: bucket cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DocumentStore{client: client, bucket: bucket, logger: logger}
}

// Bucket returns the configured bucket name.
func (s *DocumentStore) Bucket() string { return s.bucket }

// Key builds the canonical object key for a contract document.
func (s *DocumentStore) Key(userID, contractID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s/%s", userID, contractID, filename)
}

// Upload writes a document and returns its key.
func (s *DocumentStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("store: object key required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("store: s3 put %s: %w", key, err)
	}
	s.logger.Info("uploaded document", "s3_key", key, "bytes", len(data))
	return nil
}

// Download reads a document's raw bytes.
func (s *DocumentStore) Download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("store: object key required")
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("store: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read s3 object %s: %w", key, err)
	}
	return data, nil
}
