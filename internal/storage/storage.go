package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/linguaprep/linguaprep-backend/internal/config"
)

// Provider abstracts where captured speaking audio ends up.
type Provider interface {
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectKey string) error
	URL(objectKey string) string
}

// New picks a provider from config. A configured MinIO endpoint wins,
// otherwise audio lands on local disk under cfg.UploadDir.
func New(cfg *config.Config) (Provider, error) {
	if cfg.MinioEndpoint != "" {
		return newMinioProvider(cfg)
	}
	return &LocalProvider{dir: cfg.UploadDir}, nil
}

// LocalProvider stores objects as files under a base directory.
type LocalProvider struct {
	dir string
}

func NewLocalProvider(dir string) *LocalProvider {
	return &LocalProvider{dir: dir}
}

func (p *LocalProvider) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.dir, objectKey)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.URL(objectKey), nil
}

func (p *LocalProvider) Remove(ctx context.Context, objectKey string) error {
	return os.Remove(filepath.Join(p.dir, objectKey))
}

func (p *LocalProvider) URL(objectKey string) string {
	return "/uploads/" + objectKey
}

// MinioProvider stores objects in a MinIO (S3-compatible) bucket.
type MinioProvider struct {
	client *minio.Client
	bucket string
}

func newMinioProvider(cfg *config.Config) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioProvider{client: client, bucket: cfg.MinioBucket}, nil
}

func (p *MinioProvider) Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.client.PutObject(ctx, p.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.URL(objectKey), nil
}

func (p *MinioProvider) Remove(ctx context.Context, objectKey string) error {
	return p.client.RemoveObject(ctx, p.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (p *MinioProvider) URL(objectKey string) string {
	return "/" + p.bucket + "/" + objectKey
}

// PutBytes is a convenience wrapper for in-memory payloads such as a
// finished in-browser recording posted as a blob.
func PutBytes(ctx context.Context, p Provider, objectKey string, data []byte, contentType string) (string, error) {
	return p.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType)
}
