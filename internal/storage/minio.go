package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConnector implements Connector using a MinIO (or any S3-compatible) client.
type MinioConnector struct {
	Secure bool
	Region string
}

// Connect creates a MinIO client for host. No request is made until a bucket is used.
func (c *MinioConnector) Connect(ctx context.Context, accessKey, secretKey, host string) (Connection, error) {
	secure := c.Secure
	switch {
	case strings.HasPrefix(host, "https://"):
		host, secure = strings.TrimPrefix(host, "https://"), true
	case strings.HasPrefix(host, "http://"):
		host, secure = strings.TrimPrefix(host, "http://"), false
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &minioConnection{client: client}, nil
}

type minioConnection struct {
	client *minio.Client
}

func (c *minioConnection) Container(ctx context.Context, name string) (Container, error) {
	exists, err := c.client.BucketExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q: %w", name, ErrContainerNotFound)
	}
	return &minioBucket{client: c.client, bucket: name}, nil
}

type minioBucket struct {
	client *minio.Client
	bucket string
}

func (b *minioBucket) PutObject(ctx context.Context, key string, metadata map[string]string, sourcePath string) error {
	_, err := b.client.FPutObject(ctx, b.bucket, key, sourcePath, minio.PutObjectOptions{
		ContentType:  contentType(sourcePath),
		UserMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}
