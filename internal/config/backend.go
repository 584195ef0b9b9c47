package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ini/ini"
)

const (
	// SelectorSection is the INI section naming the current backend.
	SelectorSection = "current_backend"
	// SelectorKey holds the name of the backend section to use.
	SelectorKey = "storage_backend"
	// LocalBackend is the reserved selector value for "no remote upload".
	LocalBackend = "file"
)

// Supported object store drivers.
const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

const defaultRegion = "us-east-1"

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("invalid storage configuration")

// ConfigurationError reports a missing or invalid key in the storage configuration.
type ConfigurationError struct {
	Section string
	Key     string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing"
	}
	if e.Key == "" {
		return fmt.Sprintf("storage config: section [%s]: %s", e.Section, reason)
	}
	return fmt.Sprintf("storage config: key %q in section [%s]: %s", e.Key, e.Section, reason)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// BackendKind distinguishes the local no-op backend from remote object stores.
type BackendKind int

const (
	BackendLocal BackendKind = iota
	BackendRemote
)

func (k BackendKind) String() string {
	switch k {
	case BackendLocal:
		return "local"
	case BackendRemote:
		return "remote"
	default:
		return fmt.Sprintf("BackendKind(%d)", int(k))
	}
}

// Backend is the resolved storage backend. It is immutable once resolved.
type Backend struct {
	Kind BackendKind
	// Name is the selector value, e.g. "file" or "amazon_S3". It is reported
	// back to callers as the storage backend of every upload.
	Name string

	Host      string
	Bucket    string
	AccessKey string
	SecretKey string

	Driver string
	Region string
	Secure bool
}

// Enabled reports whether uploads leave the local disk.
func (b Backend) Enabled() bool {
	return b.Kind == BackendRemote
}

// Local returns the backend used when no remote store is configured.
func Local() Backend {
	return Backend{Kind: BackendLocal, Name: LocalBackend}
}

// LoadBackend parses the INI file at path and resolves the current backend.
// Key names are case-insensitive; section names are not.
func LoadBackend(path string) (Backend, error) {
	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return Backend{}, fmt.Errorf("load storage config %q: %w", path, err)
	}
	return ResolveBackend(f)
}

// ResolveBackend resolves the current backend from parsed INI sections.
//
// The [current_backend] section names the backend section to read. The
// reserved name "file" selects the local backend and ignores everything else.
// Any other name must point at a section carrying host, bucket, api_key and
// api_key_secret.
func ResolveBackend(f *ini.File) (Backend, error) {
	selector, err := f.GetSection(SelectorSection)
	if err != nil {
		return Backend{}, &ConfigurationError{Section: SelectorSection}
	}
	name, err := requireKey(selector, SelectorSection, SelectorKey)
	if err != nil {
		return Backend{}, err
	}
	if name == LocalBackend {
		return Local(), nil
	}

	sec, err := f.GetSection(name)
	if err != nil {
		return Backend{}, &ConfigurationError{Section: name}
	}

	b := Backend{Kind: BackendRemote, Name: name}
	fields := []struct {
		key string
		dst *string
	}{
		{"host", &b.Host},
		{"bucket", &b.Bucket},
		{"api_key", &b.AccessKey},
		{"api_key_secret", &b.SecretKey},
	}
	for _, field := range fields {
		v, err := requireKey(sec, name, field.key)
		if err != nil {
			return Backend{}, err
		}
		*field.dst = v
	}

	b.Driver = strings.ToLower(sec.Key("driver").MustString(DriverMinio))
	if b.Driver != DriverMinio && b.Driver != DriverS3 {
		return Backend{}, &ConfigurationError{Section: name, Key: "driver", Reason: fmt.Sprintf("unsupported driver %q", b.Driver)}
	}
	b.Region = sec.Key("region").MustString(defaultRegion)

	b.Secure = true
	if sec.HasKey("secure") {
		secure, err := sec.Key("secure").Bool()
		if err != nil {
			return Backend{}, &ConfigurationError{Section: name, Key: "secure", Reason: "not a boolean"}
		}
		b.Secure = secure
	}

	return b, nil
}

func requireKey(sec *ini.Section, section, key string) (string, error) {
	if !sec.HasKey(key) {
		return "", &ConfigurationError{Section: section, Key: key}
	}
	v := strings.TrimSpace(sec.Key(key).String())
	if v == "" {
		return "", &ConfigurationError{Section: section, Key: key, Reason: "empty"}
	}
	return v, nil
}
