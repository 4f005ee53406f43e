package super

import (
	"fmt"
	"math/bits"

	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
)

// Bitmap is one persisted bit array: one bit per inode, or one bit per
// data block, LSB-first within each byte as the spec's on-disk layout
// requires. Scanning for a clear bit walks byte-at-a-time the way the
// teacher's alloc_bit walks word-at-a-time -- same "lowest index wins"
// tie-break, coarser granularity because Go's math/bits gives us a cheap
// per-byte TrailingZeros instead of hand-rolled word masks.
type Bitmap struct {
	bytes      []byte
	startBlock int
	numBlocks  int
	domain     int // number of legal bits; bits beyond this are unused padding
}

func loadBitmap(dev *blockdev.Device, startBlock, numBlocks, domain int) (*Bitmap, error) {
	buf := make([]byte, numBlocks*common.BlockSize)
	blk := make([]byte, common.BlockSize)
	for i := 0; i < numBlocks; i++ {
		if err := dev.ReadBlock(startBlock+i, blk); err != nil {
			return nil, fmt.Errorf("super: load bitmap block %d: %w", startBlock+i, err)
		}
		copy(buf[i*common.BlockSize:], blk)
	}
	return &Bitmap{bytes: buf, startBlock: startBlock, numBlocks: numBlocks, domain: domain}, nil
}

func newBitmap(startBlock, numBlocks, domain int) *Bitmap {
	return &Bitmap{bytes: make([]byte, numBlocks*common.BlockSize), startBlock: startBlock, numBlocks: numBlocks, domain: domain}
}

func (bm *Bitmap) save(dev *blockdev.Device) error {
	for i := 0; i < bm.numBlocks; i++ {
		off := i * common.BlockSize
		if err := dev.WriteBlock(bm.startBlock+i, bm.bytes[off:off+common.BlockSize]); err != nil {
			return fmt.Errorf("super: save bitmap block %d: %w", bm.startBlock+i, err)
		}
	}
	return nil
}

// Test reports whether bit i is set. i outside the domain is always
// reported as set, so callers that scan never wander into padding.
func (bm *Bitmap) Test(i int) bool {
	if i < 0 || i >= bm.domain {
		return true
	}
	return bm.bytes[i/8]&(1<<uint(i%8)) != 0
}

// Set marks bit i allocated.
func (bm *Bitmap) Set(i int) {
	bm.bytes[i/8] |= 1 << uint(i%8)
}

// Clear marks bit i free.
func (bm *Bitmap) Clear(i int) {
	bm.bytes[i/8] &^= 1 << uint(i%8)
}

// FirstClear returns the lowest-index clear bit in [0, domain), or ok=false
// if the bitmap is full. This is the deterministic, lowest-index-first
// tie-break the allocator relies on.
func (bm *Bitmap) FirstClear() (int, bool) {
	nbytes := (bm.domain + 7) / 8
	for byteIdx := 0; byteIdx < nbytes; byteIdx++ {
		b := bm.bytes[byteIdx]
		if b == 0xFF {
			continue
		}
		bit := bits.TrailingZeros8(^b)
		idx := byteIdx*8 + bit
		if idx >= bm.domain {
			return 0, false
		}
		return idx, true
	}
	return 0, false
}

// CountFree recomputes the free count from scratch, the way Check()
// cross-validates the super block's cached counters.
func (bm *Bitmap) CountFree() int {
	free := 0
	for i := 0; i < bm.domain; i++ {
		if !bm.Test(i) {
			free++
		}
	}
	return free
}
