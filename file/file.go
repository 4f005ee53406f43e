// Package file implements byte-range read/write/truncate over a regular
// file's inode. It plays the role of the teacher's common/read.go and
// common/write.go, but this engine has no zones and no indirect blocks
// at all: every file's data lives in at most DirectPointers blocks
// addressed straight out of the inode, so ReadMap/WriteMap's zone-scale
// arithmetic and indirect-block walk collapse into a single division.
package file

import (
	"fmt"

	"github.com/jnwhiteh/blockfs/alloctbl"
	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/inode"
)

// MaxSize is the largest size a file can reach: one block for each of
// the DirectPointers direct pointers, no indirection.
const MaxSize = common.DirectPointers * common.BlockSize

type Ops struct {
	dev   *blockdev.Device
	it    *inode.Table
	alloc *alloctbl.Table
}

func New(dev *blockdev.Device, it *inode.Table, alloc *alloctbl.Table) *Ops {
	return &Ops{dev: dev, it: it, alloc: alloc}
}

// Read copies up to len(buf) bytes starting at pos into buf, clamped to
// di.Size. Reading at or past EOF returns (0, nil) rather than an error.
// A direct pointer of NoBlock inside the readable range is a hole and
// reads as zeros.
func (o *Ops) Read(di *common.DiskInode, buf []byte, pos int) (int, error) {
	if pos < 0 {
		return 0, fmt.Errorf("file: negative offset: %w", common.ErrInvalidPath)
	}
	if pos >= int(di.Size) {
		return 0, nil
	}
	if avail := int(di.Size) - pos; len(buf) > avail {
		buf = buf[:avail]
	}

	cum := 0
	curPos := pos
	for cum < len(buf) {
		blockIdx := curPos / common.BlockSize
		off := curPos % common.BlockSize
		chunk := len(buf) - cum
		if chunk > common.BlockSize-off {
			chunk = common.BlockSize - off
		}

		blockID := di.Direct[blockIdx]
		if blockID == common.NoBlock {
			for i := 0; i < chunk; i++ {
				buf[cum+i] = 0
			}
		} else {
			blk := make([]byte, common.BlockSize)
			if err := o.dev.ReadBlock(int(blockID), blk); err != nil {
				return cum, err
			}
			copy(buf[cum:cum+chunk], blk[off:off+chunk])
		}
		cum += chunk
		curPos += chunk
	}
	return cum, nil
}

// Write copies data into the file starting at pos, allocating any
// direct blocks it needs along the way. It refuses to grow the file
// past MaxSize. If allocation runs out of space partway through, the
// bytes already written are kept and di is persisted with its new size
// before the error is returned, matching the spec's partial-write rule.
func (o *Ops) Write(fileID int, di *common.DiskInode, data []byte, pos int, now int64) (n int, err error) {
	if pos < 0 {
		return 0, fmt.Errorf("file: negative offset: %w", common.ErrInvalidPath)
	}
	if pos >= MaxSize && len(data) > 0 {
		return 0, fmt.Errorf("file: write position exceeds max file size: %w", common.ErrNoSpace)
	}

	cum := 0
	curPos := pos
	for cum < len(data) {
		if curPos >= MaxSize {
			err = fmt.Errorf("file: max file size reached: %w", common.ErrNoSpace)
			break
		}
		blockIdx := curPos / common.BlockSize
		off := curPos % common.BlockSize
		chunk := len(data) - cum
		if chunk > common.BlockSize-off {
			chunk = common.BlockSize - off
		}

		blockID := di.Direct[blockIdx]
		if blockID == common.NoBlock {
			id, aerr := o.alloc.AllocDataBlock()
			if aerr != nil {
				err = aerr
				break
			}
			blockID = int32(id)
			di.Direct[blockIdx] = blockID
			di.Blocks++
		}

		blk := make([]byte, common.BlockSize)
		if rerr := o.dev.ReadBlock(int(blockID), blk); rerr != nil {
			err = rerr
			break
		}
		copy(blk[off:off+chunk], data[cum:cum+chunk])
		if werr := o.dev.WriteBlock(int(blockID), blk); werr != nil {
			err = werr
			break
		}
		cum += chunk
		curPos += chunk
	}

	if curPos > int(di.Size) {
		di.Size = int32(curPos)
	}
	di.Mtime = now
	di.Atime = now
	if perr := o.it.Put(fileID, di); perr != nil && err == nil {
		err = perr
	}
	return cum, err
}

// Truncate resizes the file to newSize, freeing every direct block that
// falls entirely beyond the new size. Growing a file this way leaves
// the newly exposed range as a hole, read back as zeros; it never
// allocates blocks itself.
func (o *Ops) Truncate(fileID int, di *common.DiskInode, newSize int, now int64) error {
	if newSize < 0 {
		return fmt.Errorf("file: negative size: %w", common.ErrInvalidPath)
	}
	if newSize > MaxSize {
		return fmt.Errorf("file: size exceeds max file size: %w", common.ErrNoSpace)
	}

	keep := (newSize + common.BlockSize - 1) / common.BlockSize
	for i := keep; i < common.DirectPointers; i++ {
		if di.Direct[i] == common.NoBlock {
			continue
		}
		if err := o.alloc.FreeDataBlock(int(di.Direct[i])); err != nil {
			return err
		}
		di.Direct[i] = common.NoBlock
		di.Blocks--
	}

	di.Size = int32(newSize)
	di.Mtime = now
	return o.it.Put(fileID, di)
}
