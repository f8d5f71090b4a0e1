// Package s3 uploads export objects to an S3 bucket.
package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
	"github.com/custodia-labs/ccdarank/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// putObjectAPI is the subset of *s3.Client used by the store.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store writes objects into one bucket.
type Store struct {
	client putObjectAPI
	bucket string
}

// New builds a client from the default AWS credential chain. Endpoint
// overrides the service URL for S3-compatible stores and switches to
// path-style addressing.
func New(ctx context.Context, cfg domain.BlobConfig) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: no bucket configured", domain.ErrBlobStoreUnavailable)
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(client, cfg.Bucket), nil
}

func newStore(client putObjectAPI, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Put uploads size bytes from r under key. The SDK retries transient
// failures itself.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == "" {
		return fmt.Errorf("%w: empty object key", domain.ErrInvalidInput)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("uploading %s: %w", s.Location(key), err)
	}
	return nil
}

// Location renders key as an s3:// URI.
func (s *Store) Location(key string) string {
	return "s3://" + s.bucket + "/" + key
}
