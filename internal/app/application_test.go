package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithDefaults(t *testing.T) {
	a, err := New(Options{})
	require.NoError(t, err)

	assert.Equal(t, "data/raw", a.Paths.Raw)
	assert.Equal(t, "data/interim", a.Paths.Interim)
	assert.Equal(t, []int{300, 500}, a.Config.Features.BufferRadiiM)
	assert.NotNil(t, a.Logger)
}

func TestNewAppliesPathOverrides(t *testing.T) {
	a, err := New(Options{Raw: "/tmp/raw", Processed: "/tmp/processed"})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/raw", a.Paths.Raw)
	assert.Equal(t, "/tmp/processed", a.Paths.Processed)
	assert.Equal(t, "data/interim", a.Paths.Interim, "unset roots keep their defaults")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("feeds: []\n"), 0o644))

	_, err := New(Options{ConfigPath: path})
	assert.Error(t, err)
}
