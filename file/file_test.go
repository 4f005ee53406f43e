package file

import (
	"path/filepath"
	"testing"

	"github.com/jnwhiteh/blockfs/alloctbl"
	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/inode"
	"github.com/jnwhiteh/blockfs/super"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*Ops, *alloctbl.Table, *inode.Table, int) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := blockdev.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	st, err := super.Format(dev)
	require.NoError(t, err)
	at := alloctbl.New(dev, st)
	it := inode.New(dev)

	id, err := at.AllocInode()
	require.NoError(t, err)
	di := common.NewFreeDiskInode()
	di.ID = int32(id)
	di.Type = int32(common.TypeRegular)
	require.NoError(t, it.Put(id, di))

	return New(dev, it, at), at, it, id
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	ops, _, it, id := newFixture(t)
	di, err := it.Get(id)
	require.NoError(t, err)

	data := []byte("hello, block filesystem")
	n, err := ops.Write(id, di, data, 0, 100)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, int32(len(data)), di.Size)

	di, err = it.Get(id)
	require.NoError(t, err)
	buf := make([]byte, len(data))
	n, err = ops.Read(di, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)
}

func TestWriteSpanningMultipleBlocks(t *testing.T) {
	ops, _, it, id := newFixture(t)
	di, err := it.Get(id)
	require.NoError(t, err)

	data := make([]byte, common.BlockSize*3+17)
	for i := range data {
		data[i] = byte(i % 256)
	}
	n, err := ops.Write(id, di, data, 0, 1)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	di, err = it.Get(id)
	require.NoError(t, err)
	buf := make([]byte, len(data))
	n, err = ops.Read(di, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)
}

func TestReadPastEOFReturnsZero(t *testing.T) {
	ops, _, it, id := newFixture(t)
	di, err := it.Get(id)
	require.NoError(t, err)
	_, err = ops.Write(id, di, []byte("abc"), 0, 1)
	require.NoError(t, err)

	di, err = it.Get(id)
	require.NoError(t, err)
	buf := make([]byte, 10)
	n, err := ops.Read(di, buf, 100)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestWriteAtBoundaryLastBlock(t *testing.T) {
	ops, _, it, id := newFixture(t)
	di, err := it.Get(id)
	require.NoError(t, err)

	// D*B-1: last byte of the addressable range must succeed.
	n, err := ops.Write(id, di, []byte("x"), MaxSize-1, 1)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestWriteAtBoundaryPastEndFails(t *testing.T) {
	ops, _, it, id := newFixture(t)
	di, err := it.Get(id)
	require.NoError(t, err)

	// D*B: one byte past the addressable range must fail with no space.
	_, err = ops.Write(id, di, []byte("x"), MaxSize, 1)
	require.ErrorIs(t, err, common.ErrNoSpace)
}

func TestTruncateShrinkFreesBlocks(t *testing.T) {
	ops, at, it, id := newFixture(t)
	di, err := it.Get(id)
	require.NoError(t, err)

	data := make([]byte, common.BlockSize*3)
	_, err = ops.Write(id, di, data, 0, 1)
	require.NoError(t, err)

	freeBefore := freeDataBlocks(t, at)
	require.NoError(t, ops.Truncate(id, di, common.BlockSize, 2))
	require.Equal(t, int32(common.BlockSize), di.Size)
	require.Equal(t, common.NoBlock, int(di.Direct[1]))
	require.Equal(t, common.NoBlock, int(di.Direct[2]))
	// truncate frees the tail blocks, so the lowest free id drops back
	// down to one of them instead of sitting past the whole file.
	require.Less(t, freeDataBlocks(t, at), freeBefore)
}

func TestTruncateGrowLeavesHole(t *testing.T) {
	ops, _, it, id := newFixture(t)
	di, err := it.Get(id)
	require.NoError(t, err)

	_, err = ops.Write(id, di, []byte("abc"), 0, 1)
	require.NoError(t, err)
	require.NoError(t, ops.Truncate(id, di, common.BlockSize+10, 2))

	buf := make([]byte, 5)
	n, err := ops.Read(di, buf, common.BlockSize+2)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte{0, 0, 0, 0, 0}, buf)
}

func freeDataBlocks(t *testing.T, at *alloctbl.Table) int {
	t.Helper()
	// The super block's free counter is not reachable from this package,
	// so allocate-then-free a probe block and report the lowest free
	// block id instead of a count.
	id, err := at.AllocDataBlock()
	require.NoError(t, err)
	require.NoError(t, at.FreeDataBlock(id))
	return id // lowest free id is a monotonic-enough proxy across a single test
}
