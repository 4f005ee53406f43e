// Package alloctbl allocates and frees inodes and data blocks, keeping the
// super block's free counters and both bitmaps consistent on every call.
// It is a direct, synchronous descendant of the teacher's alloctbl
// package: same lowest-index-first tie-break, same bitmap it scans, minus
// the request/response goroutine the teacher used to serialize concurrent
// callers -- this engine serializes at the facade instead (see fs.Engine).
package alloctbl

import (
	"fmt"

	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/super"
)

// Table allocates against a mounted super.State, persisting it to dev
// after every mutation.
type Table struct {
	dev *blockdev.Device
	st  *super.State
}

func New(dev *blockdev.Device, st *super.State) *Table {
	return &Table{dev: dev, st: st}
}

// AllocInode returns the lowest free inode id, marking it allocated in the
// bitmap and decrementing the free-inode counter. The root inode is always
// id 0 because it is always the first one allocated on a freshly formatted
// image.
func (t *Table) AllocInode() (int, error) {
	bit, ok := t.st.InodeBitmap.FirstClear()
	if !ok {
		return 0, fmt.Errorf("alloctbl: no free inodes: %w", common.ErrNoSpace)
	}
	t.st.InodeBitmap.Set(bit)
	t.st.SB.FreeInodes--
	if err := t.st.Save(t.dev); err != nil {
		return 0, err
	}
	return bit, nil
}

// FreeInode clears an inode's bit and zeroes its on-disk record. Freeing
// an already-free inode is a no-op, matching the spec's idempotent-free
// rule.
func (t *Table) FreeInode(id int) error {
	if id < 0 || id >= common.TotalInodes {
		return nil
	}
	if !t.st.InodeBitmap.Test(id) {
		return nil
	}
	t.st.InodeBitmap.Clear(id)
	t.st.SB.FreeInodes++
	if err := t.zeroInodeSlot(id); err != nil {
		return err
	}
	return t.st.Save(t.dev)
}

// AllocDataBlock returns the lowest free block in the data region.
func (t *Table) AllocDataBlock() (int, error) {
	bit, ok := t.st.DataBitmap.FirstClear()
	if !ok {
		return 0, fmt.Errorf("alloctbl: no free data blocks: %w", common.ErrNoSpace)
	}
	t.st.DataBitmap.Set(bit)
	t.st.SB.FreeBlocks--
	if err := t.st.Save(t.dev); err != nil {
		return 0, err
	}
	return bit, nil
}

// FreeDataBlock clears a data block's bit and zeroes its payload. It
// refuses ids outside the data region rather than silently corrupting
// system bookkeeping.
func (t *Table) FreeDataBlock(id int) error {
	if id < common.DataAreaStart || id >= common.DataAreaEnd {
		return fmt.Errorf("alloctbl: block %d is outside the data region: %w", id, common.ErrInvalidPath)
	}
	if !t.st.DataBitmap.Test(id) {
		return nil
	}
	t.st.DataBitmap.Clear(id)
	t.st.SB.FreeBlocks++
	zero := make([]byte, common.BlockSize)
	if err := t.dev.WriteBlock(id, zero); err != nil {
		return err
	}
	return t.st.Save(t.dev)
}

func (t *Table) zeroInodeSlot(id int) error {
	blockNum := common.InodeTableStart + id/common.InodesPerBlock
	offset := (id % common.InodesPerBlock) * common.InodeSlotSize

	blk := make([]byte, common.BlockSize)
	if err := t.dev.ReadBlock(blockNum, blk); err != nil {
		return err
	}
	copy(blk[offset:offset+common.InodeSlotSize], common.NewFreeDiskInode().Encode())
	return t.dev.WriteBlock(blockNum, blk)
}
