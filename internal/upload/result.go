package upload

import "encoding/json"

// Keys added to the caller's metadata by an upload.
const (
	KeyFilePrefix     = "file_prefix"
	KeyFilesize       = "filesize"
	KeyFilename       = "filename"
	KeyResourceID     = "resource_id"
	KeyStorageBackend = "storage_backend"
)

// Result is the outcome of a successful upload.
type Result struct {
	// Metadata is a copy of the caller's metadata, passed through untouched.
	Metadata map[string]any

	Filesize       int64
	Filename       string
	ResourceID     string
	StorageBackend string
}

// Map returns the caller's metadata merged with the upload outcome.
func (r *Result) Map() map[string]any {
	m := make(map[string]any, len(r.Metadata)+4)
	for k, v := range r.Metadata {
		m[k] = v
	}
	m[KeyFilesize] = r.Filesize
	m[KeyFilename] = r.Filename
	m[KeyResourceID] = r.ResourceID
	m[KeyStorageBackend] = r.StorageBackend
	return m
}

// MarshalJSON encodes the result as the flat merged map.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
