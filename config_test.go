package linhash

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/linhash/internal/storage"
)

func writeConfigFile(t *testing.T, dir string, extra string) string {
	t.Helper()
	path := filepath.Join(dir, "linhash.yaml")
	dataFile := filepath.Join(dir, "data")
	fsmFile := filepath.Join(dir, "fsm")
	content := fmt.Sprintf("storage:\n  data_file: %q\n  fsm_file: %q\n%s", dataFile, fsmFile, extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfigFile(t, dir, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cfg.Storage.InitialSize)
	assert.InDelta(t, 0.8, cfg.Storage.LoadFactorThreshold, 1e-9)
	assert.Equal(t, storage.PageSize, cfg.Storage.PageSize)
}

func TestLoadConfig_RejectsMismatchedPageSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfigFile(t, dir, "  page_size: 512\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig("/nonexistent/path/linhash.yaml")
	require.Error(t, err)
}

func TestOpenFile_CreatesNewMapThenReopens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfigFile(t, dir, "  initial_size: 4\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	m, err := OpenFile(*cfg)
	require.NoError(t, err)
	require.NoError(t, m.Put([]byte("key1"), []byte("value - 1")))
	require.NoError(t, m.Close())

	m2, err := OpenFile(*cfg)
	require.NoError(t, err)
	defer m2.Close()

	v, err := m2.Get([]byte("key1"))
	require.NoError(t, err)
	assert.Equal(t, "value - 1", string(v))
}

func TestOpenFile_SecondOpenIsLockedOut(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfigFile(t, dir, "")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	m, err := OpenFile(*cfg)
	require.NoError(t, err)
	defer m.Close()

	_, err = OpenFile(*cfg)
	require.Error(t, err)
}
