package alias

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValidatesNames(t *testing.T) {
	m := NewManager(afero.NewMemMapFs(), "/aliases")

	assert.NoError(t, m.Set("ll", "ls -la"))
	assert.NoError(t, m.Set("_x9", "echo"))
	assert.Error(t, m.Set("9lives", "echo"))
	assert.Error(t, m.Set("bad-name", "echo"))
	assert.Error(t, m.Set("", "echo"))
}

func TestGetRemove(t *testing.T) {
	m := NewManager(afero.NewMemMapFs(), "/aliases")
	require.NoError(t, m.Set("gs", "git status"))

	value, ok := m.Get("gs")
	assert.True(t, ok)
	assert.Equal(t, "git status", value)

	assert.True(t, m.Remove("gs"))
	assert.False(t, m.Remove("gs"))
	_, ok = m.Get("gs")
	assert.False(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManager(fs, "/home/u/.config/rush/aliases")

	require.NoError(t, m.Set("ll", "ls -la"))
	require.NoError(t, m.Set("greet", "echo 'hello there'"))
	require.NoError(t, m.Set("tick", "echo it's"))
	require.NoError(t, m.Save())

	fresh := NewManager(fs, "/home/u/.config/rush/aliases")
	require.NoError(t, fresh.Load())

	assert.Equal(t, m.Names(), fresh.Names())
	for _, name := range m.Names() {
		want, _ := m.Get(name)
		got, _ := fresh.Get(name)
		assert.Equal(t, want, got, name)
	}
}

func TestSaveSortedByName(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManager(fs, "/aliases")
	require.NoError(t, m.Set("zz", "3"))
	require.NoError(t, m.Set("aa", "1"))
	require.NoError(t, m.Set("mm", "2"))
	require.NoError(t, m.Save())

	data, err := afero.ReadFile(fs, "/aliases")
	require.NoError(t, err)
	assert.Equal(t, "aa='1'\nmm='2'\nzz='3'\n", string(data))
}

func TestLoadSkipsCommentsAndBlanks(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "# my aliases\n\nll='ls -la'\n  \n# another\ngs='git status'\nnot a pair\n"
	require.NoError(t, afero.WriteFile(fs, "/aliases", []byte(content), 0644))

	m := NewManager(fs, "/aliases")
	require.NoError(t, m.Load())

	assert.Equal(t, []string{"gs", "ll"}, m.Names())
}

func TestLoadMissingFile(t *testing.T) {
	m := NewManager(afero.NewMemMapFs(), "/no/such/file")
	assert.NoError(t, m.Load())
	assert.Equal(t, 0, m.Len())
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'plain'", Quote("plain"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))
	assert.Equal(t, "''", Quote(""))
}
