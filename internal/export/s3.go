package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Tiliavir/trivial-timesheet/internal/config"
)

// Uploader is the part of manager.Uploader used by S3Sink.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads artifacts to a bucket under an optional key prefix.
type S3Sink struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// NewS3Sink wraps an existing uploader.
func NewS3Sink(u Uploader, bucket, prefix string) *S3Sink {
	return &S3Sink{uploader: u, bucket: bucket, prefix: prefix}
}

// NewS3SinkFromConfig builds an uploader from cfg. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain applies.
// A custom endpoint switches to path-style addressing for S3-compatible stores.
func NewS3SinkFromConfig(ctx context.Context, cfg config.S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 export requires s3.bucket to be set")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Sink(manager.NewUploader(client), cfg.Bucket, cfg.Prefix), nil
}

// Key returns the object key an artifact is stored under.
func (s *S3Sink) Key(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return path.Join(s.prefix, filename)
}

func (s *S3Sink) Deliver(ctx context.Context, a Artifact) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(a.Filename)),
		Body:        bytes.NewReader(a.Data),
		ContentType: aws.String(a.ContentType),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, s.Key(a.Filename), err)
	}
	return nil
}
