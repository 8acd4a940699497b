package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "/home/u")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(Dir("/home/u"), ConfigName)
	content := "prompt: '> '\nhistory_size: 50\nalias_file: /etc/rush/aliases\n"
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))

	cfg, err := Load(fs, "/home/u")
	require.NoError(t, err)
	assert.Equal(t, "> ", cfg.Prompt)
	assert.Equal(t, 50, cfg.HistorySize)
	assert.Equal(t, "/etc/rush/aliases", cfg.AliasFile)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(Dir("/home/u"), ConfigName)
	require.NoError(t, afero.WriteFile(fs, path, []byte("no_such_key: 1\n"), 0644))

	_, err := Load(fs, "/home/u")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(Dir("/home/u"), ConfigName)
	require.NoError(t, afero.WriteFile(fs, path, []byte("history_size: -5\n"), 0644))

	_, err := Load(fs, "/home/u")
	assert.Error(t, err)
}
