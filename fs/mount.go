package fs

import (
	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/super"
)

// Format creates a brand new backing image at path and writes an empty
// filesystem into it: a fresh super block and bitmaps with only the
// system region marked allocated, then a single
// root directory inode whose "." and ".." both point at itself. This is
// the analogue of the teacher's NewFileSystem, minus device-info
// autodetection since there is only ever one on-disk layout here.
func Format(path string) (*Engine, error) {
	dev, err := blockdev.Create(path)
	if err != nil {
		return nil, err
	}
	st, err := super.Format(dev)
	if err != nil {
		dev.Close()
		return nil, err
	}

	e := newEngine(dev, st, path)

	rootID, err := e.at.AllocInode()
	if err != nil {
		dev.Close()
		return nil, err
	}
	if rootID != common.RootInode {
		dev.Close()
		return nil, common.ErrIOError
	}

	root := common.NewFreeDiskInode()
	root.ID = int32(rootID)
	root.Type = int32(common.TypeDir)
	root.Atime, root.Mtime, root.Ctime = now(), now(), now()
	if err := e.dirs.InitDirBlock(root, int32(rootID), int32(rootID)); err != nil {
		dev.Close()
		return nil, err
	}
	if err := e.it.Put(rootID, root); err != nil {
		dev.Close()
		return nil, err
	}

	return e, nil
}

// Mount opens an already-formatted image and validates its geometry.
// Since every mount rebuilds its in-memory state straight from what is
// on disk, calling Mount twice against the same path is naturally
// idempotent -- there is no session table to collide with, unlike the
// teacher's do_mount which tracked mounted devices by pointer identity.
func Mount(path string) (*Engine, error) {
	dev, err := blockdev.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := super.Load(dev)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return newEngine(dev, st, path), nil
}
