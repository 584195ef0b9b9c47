package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// RecordStore persists upload history.
type RecordStore interface {
	Create(ctx context.Context, rec *Record) error
	GetByResourceID(ctx context.Context, resourceID string) (*Record, error)
}

// Request is an upload of a file from the staging directory.
type Request struct {
	SourcePath string         `json:"sourcePath" example:"/srv/uploader/organize/My Song.mp3"`
	Metadata   map[string]any `json:"metadata"`
}

// Status describes the configured backend.
type Status struct {
	Enabled bool   `json:"enabled" example:"true"`
	Backend string `json:"backend" example:"amazon_S3"`
}

// Service uploads staged files and records the outcome.
type Service struct {
	uploader   *Uploader
	records    RecordStore
	stagingDir string
	realDir    string
	log        zerolog.Logger
}

// NewService creates a Service that only accepts files below stagingDir.
func NewService(uploader *Uploader, records RecordStore, stagingDir string, logger zerolog.Logger) (*Service, error) {
	dir, err := filepath.Abs(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve staging dir: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	return &Service{
		uploader:   uploader,
		records:    records,
		stagingDir: dir,
		realDir:    resolved,
		log:        logger.With().Str("component", "upload_service").Logger(),
	}, nil
}

// Upload uploads req.SourcePath and records the result.
//
// The upload has already happened when the record is written, so a failure to
// persist it is logged and the result is still returned.
func (s *Service) Upload(ctx context.Context, req Request, uploadedBy string) (*Result, error) {
	path, err := s.confine(req.SourcePath)
	if err != nil {
		return nil, err
	}

	res, err := s.uploader.Upload(ctx, path, req.Metadata)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ResourceID:     res.ResourceID,
		Filename:       res.Filename,
		Filesize:       res.Filesize,
		StorageBackend: res.StorageBackend,
		Metadata:       res.Metadata,
	}
	if uploadedBy != "" {
		rec.UploadedBy = &uploadedBy
	}
	if err := s.records.Create(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("resource_id", res.ResourceID).Msg("could not record upload")
	}
	return res, nil
}

// Get returns the recorded upload for resourceID.
func (s *Service) Get(ctx context.Context, resourceID string) (*Record, error) {
	return s.records.GetByResourceID(ctx, resourceID)
}

// Status reports the configured backend.
func (s *Service) Status() Status {
	return Status{Enabled: s.uploader.Enabled(), Backend: s.uploader.Backend()}
}

// confine resolves path and rejects anything outside the staging directory,
// including symlinks inside it that point elsewhere.
func (s *Service) confine(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", invalidRequest("sourcePath is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", invalidRequest("bad sourcePath: %v", err)
	}
	if !within(s.stagingDir, abs) {
		return "", invalidRequest("%s is outside the staging directory", path)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, fs.ErrNotExist) {
		// The uploader reports the missing file.
		return abs, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	if !within(s.realDir, resolved) {
		return "", invalidRequest("%s is outside the staging directory", path)
	}
	return abs, nil
}

// within reports whether path lies strictly below dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
