package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kosarica/catalog-service/config"
)

// Object user-metadata keys
const (
	s3MetaOrigin       = "Origin"
	s3MetaSourceURL    = "Source-Url"
	s3MetaOriginalName = "Original-Name"
)

// S3Storage implements Storage on an S3-compatible bucket via minio-go
type S3Storage struct {
	client *minio.Client
	bucket string
}

// NewS3Storage connects to the endpoint and creates the bucket if missing
func NewS3Storage(ctx context.Context, cfg config.S3Config) (*S3Storage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires endpoint and bucket")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &S3Storage{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Storage) Put(ctx context.Context, key string, content []byte, metadata *Metadata) error {
	opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	if metadata != nil {
		if metadata.ContentType != "" {
			opts.ContentType = metadata.ContentType
		}
		opts.UserMetadata = map[string]string{}
		for k, v := range metadata.Custom {
			opts.UserMetadata[k] = v
		}
		if metadata.Origin != "" {
			opts.UserMetadata[s3MetaOrigin] = metadata.Origin
		}
		if metadata.SourceURL != "" {
			opts.UserMetadata[s3MetaSourceURL] = metadata.SourceURL
		}
		if metadata.OriginalName != "" {
			opts.UserMetadata[s3MetaOriginalName] = metadata.OriginalName
		}
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), opts)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.classify(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.classify(key, err)
	}
	return data, nil
}

func (s *S3Storage) GetInfo(ctx context.Context, key string) (*FileInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, s.classify(key, err)
	}

	content, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(content)

	return &FileInfo{
		Key:         key,
		Size:        stat.Size,
		Checksum:    hex.EncodeToString(sum[:]),
		ContentType: stat.ContentType,
		ModifiedAt:  stat.LastModified,
		Metadata: &Metadata{
			ContentType:  stat.ContentType,
			Origin:       stat.UserMetadata[s3MetaOrigin],
			SourceURL:    stat.UserMetadata[s3MetaSourceURL],
			OriginalName: stat.UserMetadata[s3MetaOriginalName],
		},
	}, nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, s.classify(key, err)
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.classify(key, err)
	}
	return nil
}

func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, s.classify(prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *S3Storage) classify(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("s3 %s: %w", key, err)
}
