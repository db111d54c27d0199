package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func channelImpls(t *testing.T) map[string]ByteChannel {
	t.Helper()
	dir := t.TempDir()
	fc, err := OpenFileChannel(filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = fc.Close() })
	return map[string]ByteChannel{
		"file": fc,
		"mem":  NewMemChannel(),
	}
}

func TestByteChannel_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	for name, ch := range channelImpls(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.NoError(t, ch.WriteAt(0, []byte("hello world")))
			got := make([]byte, 5)
			require.NoError(t, ch.ReadAt(6, got))
			assert.Equal(t, "world", string(got))
		})
	}
}

func TestByteChannel_ReadPastEndIsZeroFilled(t *testing.T) {
	t.Parallel()

	for name, ch := range channelImpls(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.NoError(t, ch.WriteAt(0, []byte("ab")))
			got := make([]byte, 5)
			require.NoError(t, ch.ReadAt(0, got))
			assert.Equal(t, []byte{'a', 'b', 0, 0, 0}, got)
		})
	}
}

func TestByteChannel_WriteAtExtendsAndZeroFillsGap(t *testing.T) {
	t.Parallel()

	for name, ch := range channelImpls(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.NoError(t, ch.WriteAt(4, []byte("x")))
			size, err := ch.Size()
			require.NoError(t, err)
			assert.Equal(t, int64(5), size)

			got := make([]byte, 5)
			require.NoError(t, ch.ReadAt(0, got))
			assert.Equal(t, []byte{0, 0, 0, 0, 'x'}, got)
		})
	}
}

func TestByteChannel_Truncate(t *testing.T) {
	t.Parallel()

	for name, ch := range channelImpls(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.NoError(t, ch.WriteAt(0, []byte("abcdef")))
			require.NoError(t, ch.Truncate(3))
			size, err := ch.Size()
			require.NoError(t, err)
			assert.Equal(t, int64(3), size)

			require.NoError(t, ch.Truncate(6))
			size, err = ch.Size()
			require.NoError(t, err)
			assert.Equal(t, int64(6), size)

			got := make([]byte, 6)
			require.NoError(t, ch.ReadAt(0, got))
			assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0}, got)
		})
	}
}

func TestFileChannel_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	fc1, err := OpenFileChannel(path)
	require.NoError(t, err)
	require.NoError(t, fc1.WriteAt(0, []byte("persisted")))
	require.NoError(t, fc1.Close())

	fc2, err := OpenFileChannel(path)
	require.NoError(t, err)
	defer fc2.Close()

	got := make([]byte, len("persisted"))
	require.NoError(t, fc2.ReadAt(0, got))
	assert.Equal(t, "persisted", string(got))
}
