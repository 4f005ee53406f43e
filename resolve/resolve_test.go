package resolve

import (
	"path/filepath"
	"testing"

	"github.com/jnwhiteh/blockfs/alloctbl"
	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/dirent"
	"github.com/jnwhiteh/blockfs/inode"
	"github.com/jnwhiteh/blockfs/super"
	"github.com/stretchr/testify/require"
)

// fixture builds a tiny tree: / -> a/ -> b (regular file), with root's
// ".." pointing at itself the way a freshly formatted image's root does.
type fixture struct {
	it  *inode.Table
	dir *dirent.Ops
	at  *alloctbl.Table
	r   *Resolver

	aID int32
	bID int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := blockdev.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	st, err := super.Format(dev)
	require.NoError(t, err)
	at := alloctbl.New(dev, st)
	it := inode.New(dev)
	dops := dirent.New(dev, it, at)

	rootID, err := at.AllocInode()
	require.NoError(t, err)
	require.Equal(t, common.RootInode, rootID)
	root := common.NewFreeDiskInode()
	root.ID = int32(rootID)
	root.Type = int32(common.TypeDir)
	require.NoError(t, dops.InitDirBlock(root, int32(rootID), int32(rootID)))
	require.NoError(t, it.Put(rootID, root))

	aID, err := at.AllocInode()
	require.NoError(t, err)
	aDir := common.NewFreeDiskInode()
	aDir.ID = int32(aID)
	aDir.Type = int32(common.TypeDir)
	require.NoError(t, dops.InitDirBlock(aDir, int32(aID), int32(rootID)))
	require.NoError(t, it.Put(aID, aDir))

	root, err = it.Get(rootID)
	require.NoError(t, err)
	require.NoError(t, dops.AddEntry(rootID, root, "a", int32(aID), 1))

	bID, err := at.AllocInode()
	require.NoError(t, err)
	bFile := common.NewFreeDiskInode()
	bFile.ID = int32(bID)
	bFile.Type = int32(common.TypeRegular)
	require.NoError(t, it.Put(bID, bFile))

	aDir, err = it.Get(aID)
	require.NoError(t, err)
	require.NoError(t, dops.AddEntry(aID, aDir, "b", int32(bID), 2))

	return &fixture{it: it, dir: dops, at: at, r: New(it, dops), aID: int32(aID), bID: int32(bID)}
}

func TestResolveRoot(t *testing.T) {
	f := newFixture(t)
	id, di, err := f.r.Resolve(common.RootInode, "/")
	require.NoError(t, err)
	require.Equal(t, int32(common.RootInode), id)
	require.True(t, di.IsDirectory())
}

func TestResolveAbsolutePath(t *testing.T) {
	f := newFixture(t)
	id, di, err := f.r.Resolve(common.RootInode, "/a/b")
	require.NoError(t, err)
	require.Equal(t, f.bID, id)
	require.True(t, di.IsRegular())
}

func TestResolveRelativePath(t *testing.T) {
	f := newFixture(t)
	id, _, err := f.r.Resolve(f.aID, "b")
	require.NoError(t, err)
	require.Equal(t, f.bID, id)
}

func TestResolveDotDotFromSubdir(t *testing.T) {
	f := newFixture(t)
	id, di, err := f.r.Resolve(f.aID, "..")
	require.NoError(t, err)
	require.Equal(t, int32(common.RootInode), id)
	require.True(t, di.IsDirectory())
}

func TestResolveDotDotAtRootStaysAtRoot(t *testing.T) {
	f := newFixture(t)
	id, _, err := f.r.Resolve(common.RootInode, "..")
	require.NoError(t, err)
	require.Equal(t, int32(common.RootInode), id)
}

func TestResolveMissingComponentFails(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.r.Resolve(common.RootInode, "/a/nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestResolveThroughNonDirectoryFails(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.r.Resolve(common.RootInode, "/a/b/c")
	require.ErrorIs(t, err, common.ErrNotDirectory)
}

func TestResolveParentForCreate(t *testing.T) {
	f := newFixture(t)
	parentID, parent, name, err := f.r.ResolveParent(common.RootInode, "/a/newfile")
	require.NoError(t, err)
	require.Equal(t, f.aID, parentID)
	require.True(t, parent.IsDirectory())
	require.Equal(t, "newfile", name)
}

func TestResolveEmptyPathFails(t *testing.T) {
	f := newFixture(t)
	_, _, _, err := f.r.ResolveParent(common.RootInode, "")
	require.ErrorIs(t, err, common.ErrInvalidPath)
}
