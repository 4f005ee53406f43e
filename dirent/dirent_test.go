package dirent

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

func newFixture(t *testing.T) (*Ops, *alloctbl.Table, *inode.Table) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := blockdev.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	st, err := super.Format(dev)
	require.NoError(t, err)

	at := alloctbl.New(dev, st)
	it := inode.New(dev)
	return New(dev, it, at), at, it
}

func rootDirInode(t *testing.T, at *alloctbl.Table, it *inode.Table, ops *Ops) (int, *common.DiskInode) {
	t.Helper()
	id, err := at.AllocInode()
	require.NoError(t, err)
	require.Equal(t, common.RootInode, id)

	di := common.NewFreeDiskInode()
	di.ID = int32(id)
	di.Type = int32(common.TypeDir)
	require.NoError(t, ops.InitDirBlock(di, int32(id), int32(id)))
	require.NoError(t, it.Put(id, di))
	return id, di
}

func TestAddThenLookupRoundTrips(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)

	fileID, err := at.AllocInode()
	require.NoError(t, err)
	require.NoError(t, ops.AddEntry(dirID, dir, "hello.txt", int32(fileID), 100))

	got, err := it.Get(dirID)
	require.NoError(t, err)
	inum, ok, err := ops.Lookup(got, "hello.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(fileID), inum)
}

func TestAddDuplicateNameFails(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)

	fileID, err := at.AllocInode()
	require.NoError(t, err)
	require.NoError(t, ops.AddEntry(dirID, dir, "a", int32(fileID), 100))
	require.ErrorIs(t, ops.AddEntry(dirID, dir, "a", int32(fileID), 100), common.ErrAlreadyExists)
}

func TestRemoveEntryTombstonesAndIsReusable(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)

	firstID, err := at.AllocInode()
	require.NoError(t, err)
	require.NoError(t, ops.AddEntry(dirID, dir, "first", int32(firstID), 1))
	require.NoError(t, ops.RemoveEntry(dirID, dir, "first", 2))

	_, ok, err := ops.Lookup(dir, "first")
	require.NoError(t, err)
	require.False(t, ok)

	sizeBefore := dir.Size
	secondID, err := at.AllocInode()
	require.NoError(t, err)
	require.NoError(t, ops.AddEntry(dirID, dir, "second", int32(secondID), 3))
	require.Equal(t, sizeBefore, dir.Size, "reusing a tombstoned slot must not grow the directory")
}

func TestRemoveUnknownNameFails(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)
	require.ErrorIs(t, ops.RemoveEntry(dirID, dir, "nope", 1), common.ErrNotFound)
}

func TestIsEmptyIgnoresDotEntries(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)

	empty, err := ops.IsEmpty(dir)
	require.NoError(t, err)
	require.True(t, empty)

	childID, err := at.AllocInode()
	require.NoError(t, err)
	require.NoError(t, ops.AddEntry(dirID, dir, "child", int32(childID), 1))

	empty, err = ops.IsEmpty(dir)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestAddEntryGrowsPastFirstBlock(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)

	// The root's first block already holds "." and "..", leaving
	// DirEntsPerBlock-2 free slots before a new block is required.
	free := common.DirEntsPerBlock - 2
	for i := 0; i < free+1; i++ {
		childID, err := at.AllocInode()
		require.NoError(t, err)
		name := "f" + string(rune('a'+i))
		require.NoError(t, ops.AddEntry(dirID, dir, name, int32(childID), int64(i)))
	}
	require.NotEqual(t, common.NoBlock, dir.Direct[1], "directory should have allocated a second block")
}

func TestAddEntryFailsWhenDirectPointersExhausted(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)

	total := common.DirectPointers*common.DirEntsPerBlock - 2 // minus "." and ".."
	var lastErr error
	for i := 0; i < total+1; i++ {
		childID, err := at.AllocInode()
		require.NoError(t, err)
		name := "n" + string(rune('A'+i%26)) + string(rune('a'+(i/26)%26))
		lastErr = ops.AddEntry(dirID, dir, name, int32(childID), int64(i))
		if lastErr != nil {
			break
		}
	}
	require.ErrorIs(t, lastErr, common.ErrDirFull)
}

func TestListEntriesSkipsTombstones(t *testing.T) {
	ops, at, it := newFixture(t)
	dirID, dir := rootDirInode(t, at, it, ops)

	aID, err := at.AllocInode()
	require.NoError(t, err)
	bID, err := at.AllocInode()
	require.NoError(t, err)
	require.NoError(t, ops.AddEntry(dirID, dir, "a", int32(aID), 1))
	require.NoError(t, ops.AddEntry(dirID, dir, "b", int32(bID), 2))
	require.NoError(t, ops.RemoveEntry(dirID, dir, "a", 3))

	entries, err := ops.ListEntries(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3) // ".", "..", "b"

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.NameString()] = true
	}
	require.True(t, names["b"])
	require.False(t, names["a"])
}
