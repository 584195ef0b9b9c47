// Package upload moves staged audio files into the configured object store
// and keeps a history of what was uploaded.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/radif/uploader/internal/config"
	"github.com/radif/uploader/internal/metrics"
	"github.com/radif/uploader/internal/naming"
	"github.com/radif/uploader/internal/storage"
)

// Uploader uploads staged files to the resolved backend. It holds no mutable
// state and is safe for concurrent use.
type Uploader struct {
	backend config.Backend
	store   storage.Connector
	namer   *naming.Namer
	log     zerolog.Logger
}

// New creates an Uploader for backend. store may be nil for the local backend.
func New(backend config.Backend, store storage.Connector, logger zerolog.Logger) (*Uploader, error) {
	if backend.Enabled() && store == nil {
		return nil, &config.ConfigurationError{Section: backend.Name, Reason: "remote backend without object store client"}
	}
	return &Uploader{
		backend: backend,
		store:   store,
		namer:   naming.New(nil),
		log:     logger.With().Str("component", "uploader").Str("backend", backend.Name).Logger(),
	}, nil
}

// Enabled reports whether files are sent to a remote object store.
func (u *Uploader) Enabled() bool {
	return u.backend.Enabled()
}

// Backend returns the name of the configured backend.
func (u *Uploader) Backend() string {
	return u.backend.Name
}

// Upload sends the file at sourcePath to the object store under a freshly
// generated resource id and returns metadata augmented with the outcome.
//
// metadata must carry a non-empty "file_prefix" string. With the local backend
// nothing is transferred and the source stays in place; the resource id is
// still generated. With a remote backend the source is removed after a
// successful write; failing to remove it is only logged.
func (u *Uploader) Upload(ctx context.Context, sourcePath string, metadata map[string]any) (*Result, error) {
	prefix, err := filePrefix(metadata)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, sourcePath)
		}
		return nil, fmt.Errorf("stat %q: %w", sourcePath, err)
	}
	if info.IsDir() {
		return nil, invalidRequest("%s is a directory", sourcePath)
	}

	resourceID, err := u.namer.ResourceID(sourcePath, prefix)
	if err != nil {
		return nil, fmt.Errorf("derive resource id: %w", err)
	}

	start := time.Now()
	if u.backend.Enabled() {
		if err := u.put(ctx, resourceID, sourcePath); err != nil {
			metrics.RecordUpload(u.backend.Name, metrics.StatusError, 0, time.Since(start))
			u.log.Error().Err(err).Str("source", sourcePath).Str("resource_id", resourceID).Msg("upload failed")
			return nil, err
		}
		u.removeSource(sourcePath)
	}
	metrics.RecordUpload(u.backend.Name, metrics.StatusSuccess, info.Size(), time.Since(start))

	u.log.Info().
		Str("resource_id", resourceID).
		Int64("filesize", info.Size()).
		Bool("transferred", u.backend.Enabled()).
		Msg("file uploaded")

	return &Result{
		Metadata:       copyMetadata(metadata),
		Filesize:       info.Size(),
		Filename:       filepath.Base(sourcePath),
		ResourceID:     resourceID,
		StorageBackend: u.backend.Name,
	}, nil
}

func (u *Uploader) put(ctx context.Context, key, sourcePath string) error {
	conn, err := u.store.Connect(ctx, u.backend.AccessKey, u.backend.SecretKey, u.backend.Host)
	if err != nil {
		return &UploadError{Op: "connect", Err: err}
	}
	bucket, err := conn.Container(ctx, u.backend.Bucket)
	if err != nil {
		return &UploadError{Op: "container", Err: err}
	}
	meta := map[string]string{KeyFilename: filepath.Base(sourcePath)}
	if err := bucket.PutObject(ctx, key, meta, sourcePath); err != nil {
		return &UploadError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// removeSource deletes the staged copy. The object is already stored, so a
// failure here is not an upload failure.
func (u *Uploader) removeSource(sourcePath string) {
	if err := os.Remove(sourcePath); err != nil {
		metrics.RecordCleanupFailure()
		u.log.Warn().Err(err).Str("source", sourcePath).Msg("could not remove staged file")
	}
}

func filePrefix(metadata map[string]any) (string, error) {
	v, ok := metadata[KeyFilePrefix]
	if !ok {
		return "", invalidRequest("metadata is missing %q", KeyFilePrefix)
	}
	prefix, ok := v.(string)
	if !ok || prefix == "" {
		return "", invalidRequest("%q must be a non-empty string", KeyFilePrefix)
	}
	return prefix, nil
}

func copyMetadata(metadata map[string]any) map[string]any {
	m := make(map[string]any, len(metadata))
	for k, v := range metadata {
		m[k] = v
	}
	return m
}
