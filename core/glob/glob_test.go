package glob

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*.txt", "file.txt", true},
		{"*.txt", "file.text", false},
		{"*", "anything", true},
		{"*", "a/b", false}, // '*' never crosses '/'
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", false},
		{"?", "", false},
		{"", "", true},
		{"", "x", false},
		{"a*b*c", "abc", true},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "acb", false},
		{"**", "abc", true},
		{"[abc]", "b", true},
		{"[abc]", "d", false},
		{"[a-z]x", "mx", true},
		{"[a-z]x", "Mx", false},
		{"[!abc]", "d", true},
		{"[!abc]", "a", false},
		{"[-x]", "-", true}, // literal leading hyphen
		{"[-x]", "x", true},
		{"[-x]", "y", false},
		{"[!-x]", "-", false},
		{"[0-9][0-9]", "42", true},
		{"literal", "literal", true},
		{"literal", "litera", false},
	}

	for _, tc := range cases {
		t.Run(tc.pattern+"/"+tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Match(tc.pattern, tc.name))
		})
	}
}

func TestHasMeta(t *testing.T) {
	assert.True(t, HasMeta("*.go"))
	assert.True(t, HasMeta("file?"))
	assert.True(t, HasMeta("[ab]"))
	assert.False(t, HasMeta("plain/path.txt"))
}

func newTestFs(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	for _, name := range []string{
		"/work/alpha.txt",
		"/work/beta.txt",
		"/work/gamma.log",
		"/work/.hidden.txt",
		"/work/sub/inner.txt",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0644))
	}
	return fs
}

func TestExpand(t *testing.T) {
	fs := newTestFs(t)

	// Relative patterns list the working directory.
	got := Expand(fs, "/work", "*.txt")
	assert.Equal(t, []string{"alpha.txt", "beta.txt"}, got)

	// Hidden entries need an explicit leading dot.
	got = Expand(fs, "/work", ".*")
	assert.Equal(t, []string{".hidden.txt"}, got)

	// Directory prefixes are kept on the results.
	got = Expand(fs, "/", "/work/*.log")
	assert.Equal(t, []string{"/work/gamma.log"}, got)

	// No metacharacters: no filesystem access, returned unchanged.
	got = Expand(fs, "/does/not/exist", "plain.txt")
	assert.Equal(t, []string{"plain.txt"}, got)

	// Non-matching patterns expand to themselves.
	got = Expand(fs, "/work", "*.zip")
	assert.Equal(t, []string{"*.zip"}, got)

	// Unreadable directories fall back to the literal pattern.
	got = Expand(fs, "/nope", "*.txt")
	assert.Equal(t, []string{"*.txt"}, got)
}
