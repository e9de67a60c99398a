package blobstore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/claimkeeper/internal/common"
)

// s3API is the part of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// seams for tests
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// NewS3Client builds a client for an S3-compatible endpoint (MinIO in
// development) with static credentials and path-style addressing.
func NewS3Client(ctx context.Context, region, user, password, endpoint string) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(user, password, "")),
	)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// S3Store keeps blobs as objects in one bucket, keyed by ref.
type S3Store struct {
	client  s3API
	bucket  string
	baseURL string
	maxSize int64
}

func NewS3Store(client s3API, bucket, baseURL string, maxSize int64) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: baseURL, maxSize: maxSize}
}

// Put buffers the content in memory, so the object is only created once the
// size limit is known to hold.
func (s *S3Store) Put(ctx context.Context, originalName string, r io.Reader, mimeType string) (Blob, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	mime := detectMIME(br, mimeType)

	data, err := io.ReadAll(io.LimitReader(br, s.maxSize+1))
	if err != nil {
		return Blob{}, fmt.Errorf("%w: read %q: %w", common.ErrStorage, originalName, err)
	}
	if int64(len(data)) > s.maxSize {
		return Blob{}, fmt.Errorf("%w: %q is larger than %d bytes", common.ErrPayloadTooLarge, originalName, s.maxSize)
	}

	ref := newRef(originalName)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(ref),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mime),
	})
	if err != nil {
		return Blob{}, fmt.Errorf("%w: put %s: %w", common.ErrStorage, ref, err)
	}

	return Blob{Ref: ref, Size: int64(len(data)), MimeType: mime}, nil
}

// Delete is idempotent; S3 reports success for missing keys.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	if !ValidRef(ref) {
		return fmt.Errorf("%w: invalid ref %q", common.ErrStorage, ref)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", common.ErrStorage, ref, err)
	}
	return nil
}

func (s *S3Store) URL(ref string) string {
	return buildURL(s.baseURL, ref)
}
