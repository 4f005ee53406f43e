// Package dirent packs and unpacks directory contents: each directory's
// data blocks hold nothing but a flat array of fixed-width (name, inode
// id) slots. It is the direct-pointer-only descendant of the teacher's
// search_dir, split into the four operations that function used to
// multiplex on a dirop flag (LOOKUP, ENTER, DELETE, IS_EMPTY), operating
// straight against inode.Table/alloctbl.Table/blockdev.Device instead of
// the teacher's block cache.
package dirent

import (
	"fmt"

	"github.com/jnwhiteh/blockfs/alloctbl"
	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/inode"
)

// Ops bundles the three layers a directory mutation touches: the block
// device holding directory contents, the inode table holding the
// directory's own size/direct-pointer record, and the allocator handed
// out a fresh block when a directory outgrows its current ones.
type Ops struct {
	dev   *blockdev.Device
	it    *inode.Table
	alloc *alloctbl.Table
}

func New(dev *blockdev.Device, it *inode.Table, alloc *alloctbl.Table) *Ops {
	return &Ops{dev: dev, it: it, alloc: alloc}
}

// slotsUsed reports how many directory slots are currently addressable
// by dir.Size, matching the teacher's old_slots computation.
func slotsUsed(dir *common.DiskInode) int {
	return int(dir.Size) / common.DirEntrySize
}

// forEachSlot walks every addressable slot of dir in order, stopping
// early if visit returns true. blockIdx is the direct-pointer index and
// slotIdx is the position within that block, both zero-based.
func (o *Ops) forEachSlot(dir *common.DiskInode, visit func(blockIdx, slotIdx int, de *common.DirEntry) (stop bool, err error)) error {
	total := slotsUsed(dir)
	seen := 0
	for blockIdx := 0; blockIdx < common.DirectPointers && seen < total; blockIdx++ {
		blockID := dir.Direct[blockIdx]
		if blockID == common.NoBlock {
			break
		}
		blk := make([]byte, common.BlockSize)
		if err := o.dev.ReadBlock(int(blockID), blk); err != nil {
			return err
		}
		for slotIdx := 0; slotIdx < common.DirEntsPerBlock && seen < total; slotIdx++ {
			seen++
			off := slotIdx * common.DirEntrySize
			de := common.DecodeDirEntry(blk[off : off+common.DirEntrySize])
			stop, err := visit(blockIdx, slotIdx, de)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
	return nil
}

// Lookup returns the inode id bound to name in dir, or ok=false if no
// live entry matches.
func (o *Ops) Lookup(dir *common.DiskInode, name string) (inum int32, ok bool, err error) {
	err = o.forEachSlot(dir, func(_, _ int, de *common.DirEntry) (bool, error) {
		if !de.Tombstone() && de.NameString() == name {
			inum = de.Inum
			ok = true
			return true, nil
		}
		return false, nil
	})
	return inum, ok, err
}

// IsEmpty reports whether dir contains anything besides "." and "..".
func (o *Ops) IsEmpty(dir *common.DiskInode) (bool, error) {
	empty := true
	err := o.forEachSlot(dir, func(_, _ int, de *common.DirEntry) (bool, error) {
		if de.Tombstone() {
			return false, nil
		}
		if name := de.NameString(); name != "." && name != ".." {
			empty = false
			return true, nil
		}
		return false, nil
	})
	return empty, err
}

// ListEntries returns every live entry in dir, in on-disk slot order.
func (o *Ops) ListEntries(dir *common.DiskInode) ([]common.DirEntry, error) {
	var out []common.DirEntry
	err := o.forEachSlot(dir, func(_, _ int, de *common.DirEntry) (bool, error) {
		if !de.Tombstone() {
			out = append(out, *de)
		}
		return false, nil
	})
	return out, err
}

// AddEntry binds name to childID inside dir, reusing the first tombstoned
// slot if one exists and otherwise appending at the slot just past
// dir.Size, allocating a new directory block only when the last one is
// full.
// dirID's on-disk inode record is rewritten with the new size/direct
// array and mtime whenever either changes.
func (o *Ops) AddEntry(dirID int, dir *common.DiskInode, name string, childID int32, now int64) error {
	if _, exists, err := o.Lookup(dir, name); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("dirent: %q already exists: %w", name, common.ErrAlreadyExists)
	}

	de, err := common.NewDirEntry(name, childID)
	if err != nil {
		return err
	}

	// First pass: reuse a tombstoned slot inside an already-allocated
	// block, mirroring the teacher's e_hit-via-free-slot path.
	placed := false
	err = o.forEachSlot(dir, func(blockIdx, slotIdx int, existing *common.DirEntry) (bool, error) {
		if !existing.Tombstone() {
			return false, nil
		}
		if err := o.writeSlot(int(dir.Direct[blockIdx]), slotIdx, de); err != nil {
			return false, err
		}
		placed = true
		return true, nil
	})
	if err != nil {
		return err
	}

	if !placed {
		used := slotsUsed(dir)
		blockIdx := used / common.DirEntsPerBlock
		slotIdx := used % common.DirEntsPerBlock

		if blockIdx >= common.DirectPointers {
			return fmt.Errorf("dirent: directory exhausted its direct pointers: %w", common.ErrDirFull)
		}

		blockID := dir.Direct[blockIdx]
		if blockID == common.NoBlock {
			id, err := o.alloc.AllocDataBlock()
			if err != nil {
				return err
			}
			blockID = int32(id)
			dir.Direct[blockIdx] = blockID
			dir.Blocks++
		}
		if err := o.writeSlot(int(blockID), slotIdx, de); err != nil {
			return err
		}
		dir.Size = int32((used + 1) * common.DirEntrySize)
	}

	dir.Mtime = now
	dir.Atime = now
	return o.it.Put(dirID, dir)
}

// RemoveEntry tombstones name's slot inside dir. It is an error to
// remove a name that is not present.
func (o *Ops) RemoveEntry(dirID int, dir *common.DiskInode, name string, now int64) error {
	found := false
	err := o.forEachSlot(dir, func(blockIdx, slotIdx int, de *common.DirEntry) (bool, error) {
		if de.Tombstone() || de.NameString() != name {
			return false, nil
		}
		tomb := &common.DirEntry{Inum: common.NoBlock}
		if err := o.writeSlot(int(dir.Direct[blockIdx]), slotIdx, tomb); err != nil {
			return false, err
		}
		found = true
		return true, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("dirent: %q: %w", name, common.ErrNotFound)
	}
	dir.Mtime = now
	dir.Atime = now
	return o.it.Put(dirID, dir)
}

// InitDirBlock allocates and writes a fresh directory block for a newly
// created directory, pre-populating "." and "..", and wires it into
// dir's direct-pointer array. Callers must persist dir themselves once
// its inode id is known (mkdir needs the child's own id for "." before
// the record can be written).
func (o *Ops) InitDirBlock(dir *common.DiskInode, selfID, parentID int32) error {
	id, err := o.alloc.AllocDataBlock()
	if err != nil {
		return err
	}
	dir.Direct[0] = int32(id)
	dir.Blocks = 1
	dir.Size = int32(2 * common.DirEntrySize)

	self, err := common.NewDirEntry(".", selfID)
	if err != nil {
		return err
	}
	parent, err := common.NewDirEntry("..", parentID)
	if err != nil {
		return err
	}
	if err := o.writeSlot(id, 0, self); err != nil {
		return err
	}
	return o.writeSlot(id, 1, parent)
}

func (o *Ops) writeSlot(blockID, slotIdx int, de *common.DirEntry) error {
	blk := make([]byte, common.BlockSize)
	if err := o.dev.ReadBlock(blockID, blk); err != nil {
		return err
	}
	off := slotIdx * common.DirEntrySize
	copy(blk[off:off+common.DirEntrySize], de.Encode())
	return o.dev.WriteBlock(blockID, blk)
}
