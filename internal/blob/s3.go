// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package blob

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/oops"
)

// s3API is the part of *s3.Client used by S3Storage.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures an S3Storage.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string // MinIO or other S3-compatible endpoint; empty for AWS
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are served from.
	PublicURL string
}

// S3Storage keeps objects in an S3 bucket.
type S3Storage struct {
	client    s3API
	bucket    string
	publicURL string
}

var _ Storage = (*S3Storage)(nil)

// NewS3Storage builds a client from opts. Static credentials are used when
// both keys are set, otherwise the default AWS chain.
func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	if opts.Bucket == "" {
		return nil, oops.Code("BLOB_INVALID_CONFIG").Errorf("s3 bucket is required")
	}
	if opts.PublicURL == "" {
		return nil, oops.Code("BLOB_INVALID_CONFIG").Errorf("s3 public url is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, oops.Code("BLOB_S3_CONFIG_FAILED").Wrap(err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Storage(client, opts.Bucket, opts.PublicURL), nil
}

func newS3Storage(client s3API, bucket, publicURL string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, publicURL: publicURL}
}

// Put uploads body to the bucket.
func (s *S3Storage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", oops.Code("BLOB_WRITE_FAILED").
			With("bucket", s.bucket).
			With("key", key).
			Wrap(err)
	}
	return joinURL(s.publicURL, key), nil
}

// Delete removes key from the bucket. S3 reports success for missing keys.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return oops.Code("BLOB_DELETE_FAILED").
			With("bucket", s.bucket).
			With("key", key).
			Wrap(err)
	}
	return nil
}
