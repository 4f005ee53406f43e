package blockdev

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jnwhiteh/blockfs/common"
	"github.com/stretchr/testify/require"
)

func truncateFile(path string, size int64) error {
	return os.Truncate(path, size)
}

func TestCreateZeroesEveryBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")

	dev, err := Create(path)
	require.NoError(t, err)
	defer dev.Close()

	buf := make([]byte, common.BlockSize)
	require.NoError(t, dev.ReadBlock(common.NumBlocks-1, buf))
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := Create(path)
	require.NoError(t, err)
	defer dev.Close()

	want := make([]byte, common.BlockSize)
	for i := range want {
		want[i] = byte(i % 251)
	}
	require.NoError(t, dev.WriteBlock(42, want))

	got := make([]byte, common.BlockSize)
	require.NoError(t, dev.ReadBlock(42, got))
	require.Equal(t, want, got)
}

func TestOutOfRangeBlockFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := Create(path)
	require.NoError(t, err)
	defer dev.Close()

	buf := make([]byte, common.BlockSize)
	require.ErrorIs(t, dev.ReadBlock(-1, buf), common.ErrIOError)
	require.ErrorIs(t, dev.ReadBlock(common.NumBlocks, buf), common.ErrIOError)
	require.ErrorIs(t, dev.WriteBlock(common.NumBlocks, buf), common.ErrIOError)
}

func TestOpenRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	dev, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	// Truncate the file so it no longer matches the formatted geometry.
	require.NoError(t, truncateFile(path, common.BlockSize))

	_, err = Open(path)
	require.Error(t, err)
}
