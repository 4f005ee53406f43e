// Package inode packs and unpacks fixed-width inode records out of the
// inode table region, computing each id's (block, offset) the same way
// the teacher's inode.loadInode/writeInode do, minus the cache-slot
// bookkeeping and background loader goroutine -- every Get/Put here goes
// straight to the block device and is expected to be called with the
// engine's single lock already held.
package inode

import (
	"fmt"

	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
)

type Table struct {
	dev *blockdev.Device
}

func New(dev *blockdev.Device) *Table {
	return &Table{dev: dev}
}

func slot(id int) (block, offset int) {
	block = common.InodeTableStart + id/common.InodesPerBlock
	offset = (id % common.InodesPerBlock) * common.InodeSlotSize
	return
}

// Get reads inode id's record via read-modify-write-free access to its
// containing block.
func (t *Table) Get(id int) (*common.DiskInode, error) {
	if id < 0 || id >= common.TotalInodes {
		return nil, fmt.Errorf("inode: id %d out of range: %w", id, common.ErrInvalidPath)
	}
	blockNum, offset := slot(id)
	blk := make([]byte, common.BlockSize)
	if err := t.dev.ReadBlock(blockNum, blk); err != nil {
		return nil, err
	}
	return common.DecodeDiskInode(blk[offset : offset+common.InodeSlotSize])
}

// Put writes di into inode id's slot with a read-modify-write of the
// containing block, since neighbouring slots in the same block must
// survive the write untouched.
func (t *Table) Put(id int, di *common.DiskInode) error {
	if id < 0 || id >= common.TotalInodes {
		return fmt.Errorf("inode: id %d out of range: %w", id, common.ErrInvalidPath)
	}
	blockNum, offset := slot(id)
	blk := make([]byte, common.BlockSize)
	if err := t.dev.ReadBlock(blockNum, blk); err != nil {
		return err
	}
	copy(blk[offset:offset+common.InodeSlotSize], di.Encode())
	return t.dev.WriteBlock(blockNum, blk)
}
