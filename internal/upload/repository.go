package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Record is a persisted upload.
type Record struct {
	ID             string         `json:"id"`
	ResourceID     string         `json:"resourceId"`
	Filename       string         `json:"filename"`
	Filesize       int64          `json:"filesize"`
	StorageBackend string         `json:"storageBackend"`
	Metadata       map[string]any `json:"metadata"`
	UploadedBy     *string        `json:"uploadedBy,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ErrDuplicateRecord is returned when a resource id is recorded twice.
var ErrDuplicateRecord = errors.New("upload already recorded")

// Querier is the subset of *pgxpool.Pool the repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles upload history database operations.
type Repository struct {
	db Querier
}

// NewRepository creates a new Repository on top of a pool or transaction.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Create inserts rec and fills in its generated id and timestamp.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO uploads (resource_id, filename, filesize, storage_backend, metadata, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		rec.ResourceID, rec.Filename, rec.Filesize, rec.StorageBackend, rec.Metadata, rec.UploadedBy,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRecord
		}
		return fmt.Errorf("create upload record: %w", err)
	}
	return nil
}

// GetByResourceID fetches the upload stored under resourceID.
func (r *Repository) GetByResourceID(ctx context.Context, resourceID string) (*Record, error) {
	rec := &Record{}
	err := r.db.QueryRow(ctx,
		`SELECT id, resource_id, filename, filesize, storage_backend, metadata, uploaded_by, created_at
		 FROM uploads WHERE resource_id = $1`,
		resourceID,
	).Scan(&rec.ID, &rec.ResourceID, &rec.Filename, &rec.Filesize, &rec.StorageBackend, &rec.Metadata, &rec.UploadedBy, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload by resource id: %w", err)
	}
	return rec, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
