package naming

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resourceIDPattern = regexp.MustCompile(
	`^stations/42/([0-9a-f]{2})/My-Song_([0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12})\.mp3$`,
)

func TestResourceID_Format(t *testing.T) {
	id, err := ResourceID("/srv/organize/My Song.mp3", "stations/42")
	require.NoError(t, err)

	m := resourceIDPattern.FindStringSubmatch(id)
	require.NotNil(t, m, "unexpected resource id %q", id)
	assert.Equal(t, m[2][len(m[2])-2:], m[1])
}

func TestResourceID_DeterministicReader(t *testing.T) {
	n := New(bytes.NewReader(make([]byte, 16)))

	id, err := n.ResourceID("My Song.mp3", "stations/42")
	require.NoError(t, err)
	assert.Equal(t, "stations/42/00/My-Song_00000000-0000-4000-8000-000000000000.mp3", id)
}

func TestResourceID_ReaderError(t *testing.T) {
	n := New(bytes.NewReader(nil))

	_, err := n.ResourceID("a.mp3", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate token")
}

func TestResourceID_Sanitization(t *testing.T) {
	tests := []struct {
		name string
		path string
		stem string
		ext  string
	}{
		{"spaces", "/tmp/My  Best Song.mp3", "My--Best-Song", ".mp3"},
		{"no extension", "/tmp/track one", "track-one", ""},
		{"double extension", "mix.tar.gz", "mix.tar", ".gz"},
		{"dotfile", "/tmp/.hidden", ".hidden", ""},
		{"upper case ext", "Live Set.FLAC", "Live-Set", ".FLAC"},
		{"unicode", "/x/Ünïcode sóng.ogg", "Ünïcode-sóng", ".ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ResourceID(tt.path, "stations/1")
			require.NoError(t, err)
			assert.NotContains(t, id, " ")
			assert.True(t, strings.HasSuffix(id, tt.ext), "id %q should end with %q", id, tt.ext)

			p, err := Split(id)
			require.NoError(t, err)
			assert.Equal(t, "stations/1", p.Prefix)
			assert.Equal(t, tt.stem, p.Stem)
			assert.Equal(t, tt.ext, p.Ext)
			assert.Equal(t, p.Token[len(p.Token)-2:], p.Shard)
		})
	}
}

func TestResourceID_Unique(t *testing.T) {
	const trials = 10000
	seen := make(map[string]struct{}, trials)
	for i := 0; i < trials; i++ {
		id, err := ResourceID("/tmp/same file.mp3", "stations/42")
		require.NoError(t, err)
		_, dup := seen[id]
		require.False(t, dup, "duplicate resource id %q after %d trials", id, i)
		seen[id] = struct{}{}
	}
}

func TestSplit_Malformed(t *testing.T) {
	for _, id := range []string{
		"",
		"no-slashes.mp3",
		"prefix/only.mp3",
		"p/ab/stem_not-a-uuid.mp3",
		"p/zz/stem_00000000-0000-4000-8000-000000000000.mp3",
	} {
		t.Run(id, func(t *testing.T) {
			_, err := Split(id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestSplit_NestedPrefix(t *testing.T) {
	p, err := Split("a/b/c/00/x_y_00000000-0000-4000-8000-000000000000.mp3")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c", p.Prefix)
	assert.Equal(t, "x_y", p.Stem)
	assert.Equal(t, ".mp3", p.Ext)
}
