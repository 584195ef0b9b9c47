// Package naming derives object keys for uploaded files.
//
// A key has the form
//
//	<prefix>/<shard>/<stem>_<token><ext>
//
// where token is a random UUIDv4 and shard is its last two characters. The
// shard directory keeps any single "folder" of a bucket small enough for
// browsing and restore tools to list. Spaces in the stem are replaced with
// hyphens because S3 cannot sign URLs for keys containing them; the original
// filename is kept in the object's metadata instead.
package naming

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const shardLen = 2

// ErrMalformed is returned by Split for keys that were not produced by this package.
var ErrMalformed = errors.New("malformed resource id")

// Namer generates resource ids from a random source.
type Namer struct {
	rand io.Reader
}

// New returns a Namer reading entropy from r. A nil reader uses crypto/rand.
func New(r io.Reader) *Namer {
	return &Namer{rand: r}
}

var defaultNamer = New(nil)

// ResourceID derives a fresh resource id using crypto/rand.
func ResourceID(sourcePath, prefix string) (string, error) {
	return defaultNamer.ResourceID(sourcePath, prefix)
}

// ResourceID derives a fresh resource id for sourcePath under prefix.
// The prefix is used verbatim.
func (n *Namer) ResourceID(sourcePath, prefix string) (string, error) {
	token, err := n.token()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	stem, ext := splitExt(filepath.Base(sourcePath))
	stem = strings.ReplaceAll(stem, " ", "-")

	return fmt.Sprintf("%s/%s/%s_%s%s", prefix, token[len(token)-shardLen:], stem, token, ext), nil
}

// splitExt splits base into stem and extension. Leading dots belong to the
// stem, so ".bashrc" has no extension.
func splitExt(base string) (stem, ext string) {
	ext = filepath.Ext(base)
	if strings.TrimLeft(base, ".") == strings.TrimPrefix(ext, ".") {
		return base, ""
	}
	return strings.TrimSuffix(base, ext), ext
}

func (n *Namer) token() (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if n.rand == nil {
		id, err = uuid.NewRandom()
	} else {
		id, err = uuid.NewRandomFromReader(n.rand)
	}
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Parts is a resource id split into its components.
type Parts struct {
	Prefix string
	Shard  string
	Stem   string
	Token  string
	Ext    string
}

// Split parses a resource id produced by ResourceID.
func Split(resourceID string) (Parts, error) {
	i := strings.LastIndexByte(resourceID, '/')
	if i < 0 {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformed, resourceID)
	}
	dir, file := resourceID[:i], resourceID[i+1:]
	j := strings.LastIndexByte(dir, '/')
	if j < 0 {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformed, resourceID)
	}
	p := Parts{Prefix: dir[:j], Shard: dir[j+1:]}

	// The token is the rightmost "_<uuid>" in the file name.
	const tokenLen = 36
	for k := len(file) - tokenLen - 1; k >= 0; k-- {
		if file[k] != '_' {
			continue
		}
		token := file[k+1 : k+1+tokenLen]
		if _, err := uuid.Parse(token); err != nil {
			continue
		}
		p.Stem, p.Token, p.Ext = file[:k], token, file[k+1+tokenLen:]
		if p.Shard != p.Token[tokenLen-shardLen:] {
			return Parts{}, fmt.Errorf("%w: %q: shard does not match token", ErrMalformed, resourceID)
		}
		return p, nil
	}
	return Parts{}, fmt.Errorf("%w: %q", ErrMalformed, resourceID)
}
