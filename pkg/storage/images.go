package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageStore archives uploaded photos. Put returns the object key.
type ImageStore interface {
	Put(ctx context.Context, kind string, jpeg []byte) (string, error)
}

// NoImages is the ImageStore used when no bucket is configured.
type NoImages struct{}

func (NoImages) Put(ctx context.Context, kind string, jpeg []byte) (string, error) { return "", nil }

// S3Config configures the S3-compatible photo archive.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3Images stores photos in an S3-compatible bucket.
type S3Images struct {
	client *minio.Client
	bucket string
	region string
}

func NewS3Images(cfg S3Config) (*S3Images, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3.endpoint and s3.bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &S3Images{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *S3Images) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (s *S3Images) Put(ctx context.Context, kind string, jpeg []byte) (string, error) {
	key := ImageKey(kind, time.Now().UTC())
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(jpeg), int64(len(jpeg)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return key, nil
}

// ImageKey builds "<kind>/<yyyy>/<mm>/<dd>/<uuid>.jpg".
func ImageKey(kind string, at time.Time) string {
	return path.Join(kind, at.Format("2006/01/02"), uuid.NewString()+".jpg")
}
