package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		log, err := New(level, "")
		require.NoErrorf(t, err, "level %q", level)
		assert.NotNil(t, log)
	}
}

func TestNewUnknownLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demforge.log")

	log, err := New("info", path)
	require.NoError(t, err)

	log.Info("terrain surface built")
	_ = log.Sync() // stderr may not be syncable, the file still is

	assert.FileExists(t, path)
}
