package fsutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deployseal/deployseal/pkg/fsutil"
)

func TestAtomicWrite_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, fsutil.AtomicWrite(path, []byte("data"), 0644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestAtomicWrite_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	require.NoError(t, fsutil.AtomicWrite(path, []byte("new"), 0644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestAtomicWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fsutil.AtomicWrite(filepath.Join(dir, "out.json"), []byte("x"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".deployseal-tmp-"),
			"temp file left behind: %s", e.Name())
	}
}
