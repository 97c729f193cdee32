// internal/storage/minio.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"healcheck-back/internal/config"
	"healcheck-back/pkg/imaging"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const objectPrefix = "images/"

type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(ctx context.Context, cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Create bucket if it doesn't exist
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads the image bytes as images/<uuid><ext>.
func (m *MinIOStore) Put(ctx context.Context, ownerID uint, data []byte, fileName string) (Object, error) {
	name := NewObjectName(fileName)
	objectName := objectPrefix + name

	_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  imaging.MimeType(name),
		UserMetadata: map[string]string{"owner-id": strconv.FormatUint(uint64(ownerID), 10)},
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return Object{Name: name, PublicPath: PublicPath(name), Locator: objectName}, nil
}

func (m *MinIOStore) Read(ctx context.Context, locator string) ([]byte, error) {
	rc, _, err := m.Open(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Open returns an object reader. GetObject is lazy, so Stat surfaces a missing key.
func (m *MinIOStore) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	object, err := m.client.GetObject(ctx, m.bucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object: %w", err)
	}
	info, err := object.Stat()
	if err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("failed to stat object: %w", err)
	}
	return object, info.Size, nil
}

// Delete removes the object. MinIO treats a missing key as success.
func (m *MinIOStore) Delete(ctx context.Context, locator string) error {
	err := m.client.RemoveObject(ctx, m.bucket, locator, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

func (m *MinIOStore) Locate(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return objectPrefix + name, nil
}
