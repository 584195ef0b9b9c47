// Package storage defines the object store client used to upload staged files.
// Two drivers are available: MinIO (any S3-compatible provider) and the AWS SDK.
// The driver is picked from the backend's "driver" key at startup.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/radif/uploader/internal/config"
)

// ErrContainerNotFound is returned when the configured bucket does not exist.
var ErrContainerNotFound = errors.New("container not found")

const defaultContentType = "application/octet-stream"

// Connector opens connections to an object store.
type Connector interface {
	// Connect authenticates against the store at host.
	Connect(ctx context.Context, accessKey, secretKey, host string) (Connection, error)
}

// Connection is an authenticated session with an object store.
type Connection interface {
	// Container returns the named bucket, failing if it does not exist.
	Container(ctx context.Context, name string) (Container, error)
}

// Container is a bucket that objects can be written into.
type Container interface {
	// PutObject writes the file at sourcePath as a single object under key,
	// attaching metadata as user metadata.
	PutObject(ctx context.Context, key string, metadata map[string]string, sourcePath string) error
}

// NewConnector returns the connector for the backend's driver.
func NewConnector(b config.Backend) (Connector, error) {
	switch b.Driver {
	case config.DriverMinio, "":
		return &MinioConnector{Secure: b.Secure, Region: b.Region}, nil
	case config.DriverS3:
		return &S3Connector{Secure: b.Secure, Region: b.Region}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", b.Driver)
	}
}

// contentType sniffs the MIME type of the file at path.
func contentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt == nil {
		return defaultContentType
	}
	return mt.String()
}
