package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStorage holds uploaded avatar images. Profile records never carry the
// bytes, only the presigned URL handed back after an upload.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage connects and makes sure the avatar bucket exists.
func NewMinIOStorage(cfg *MinIOConfig) (*MinIOStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket}
	if err := s.ensureBucket(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinIOStorage) ensureBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// MakeBucket fails when the bucket already exists; that is fine
		exists, xerr := s.client.BucketExists(ctx, s.bucket)
		if xerr != nil || !exists {
			return fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return nil
}

// UploadFile streams an avatar into the bucket under key.
func (s *MinIOStorage) UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// GetPresignedURL returns a presigned GET URL valid for the given duration.
func (s *MinIOStorage) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, make(url.Values))
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
