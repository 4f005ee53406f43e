// Package super owns the persisted super block and both bitmaps: loading
// them at mount, rewriting the fresh empty image at format, and the
// Save every allocation and free calls afterwards so bitmaps and the
// super block never drift apart. It is the analogue of the
// bit-scanning half of the teacher's alloctbl package, split out into its
// own concern the way the spec's module breakdown asks for.
package super

import (
	"fmt"

	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
)

// State is the in-memory mirror of everything format()/mount() must keep
// byte-identical to disk.
type State struct {
	SB          *common.SuperBlock
	InodeBitmap *Bitmap
	DataBitmap  *Bitmap
}

// Format initializes a freshly zeroed backing device with an empty super
// block and bitmaps, permanently marking the system region (boot, super,
// bitmaps, inode table) allocated in the data bitmap so the allocator can
// never hand out one of those blocks.
func Format(dev *blockdev.Device) (*State, error) {
	st := &State{
		SB:          common.NewSuperBlock(),
		InodeBitmap: newBitmap(common.InodeBitmapStart, common.InodeBitmapBlocks, common.TotalInodes),
		DataBitmap:  newBitmap(common.DataBitmapStart, common.DataBitmapBlocks, common.NumBlocks),
	}
	for i := 0; i < common.SystemBlocks; i++ {
		st.DataBitmap.Set(i)
	}
	if err := st.Save(dev); err != nil {
		return nil, err
	}
	return st, nil
}

// Load reads the super block and both bitmaps from an already-formatted
// device, refusing an image whose geometry does not match the compiled-in
// layout constants.
func Load(dev *blockdev.Device) (*State, error) {
	blk := make([]byte, common.BlockSize)
	if err := dev.ReadBlock(common.SuperBlockStart, blk); err != nil {
		return nil, fmt.Errorf("super: read super block: %w", err)
	}
	sb, err := common.DecodeSuperBlock(blk)
	if err != nil {
		return nil, err
	}
	if err := validate(sb); err != nil {
		return nil, err
	}

	imap, err := loadBitmap(dev, common.InodeBitmapStart, common.InodeBitmapBlocks, common.TotalInodes)
	if err != nil {
		return nil, err
	}
	dmap, err := loadBitmap(dev, common.DataBitmapStart, common.DataBitmapBlocks, common.NumBlocks)
	if err != nil {
		return nil, err
	}

	return &State{SB: sb, InodeBitmap: imap, DataBitmap: dmap}, nil
}

func validate(sb *common.SuperBlock) error {
	switch {
	case sb.TotalBlocks != common.NumBlocks,
		sb.TotalInodes != common.TotalInodes,
		sb.InodeBitmapStart != common.InodeBitmapStart,
		sb.DataBitmapStart != common.DataBitmapStart,
		sb.InodeAreaStart != common.InodeTableStart,
		sb.DataAreaStart != common.DataAreaStart:
		return fmt.Errorf("super: image geometry does not match compiled-in layout: %w", common.ErrIOError)
	}
	return nil
}

// Save persists the bitmaps, then the super block, matching the ordering
// the spec's failure-semantics section fixes for every mutating call.
func (st *State) Save(dev *blockdev.Device) error {
	if err := st.InodeBitmap.save(dev); err != nil {
		return err
	}
	if err := st.DataBitmap.save(dev); err != nil {
		return err
	}
	if err := dev.WriteBlock(common.SuperBlockStart, st.SB.Encode()); err != nil {
		return fmt.Errorf("super: write super block: %w", err)
	}
	return nil
}

// Check recomputes free counts from the bitmaps and compares them against
// the super block's cached counters, returning one finding string per
// mismatch. It never repairs anything.
func (st *State) Check() []string {
	var findings []string
	if got, want := st.InodeBitmap.CountFree(), int(st.SB.FreeInodes); got != want {
		findings = append(findings, fmt.Sprintf("free inode count is %d, super block says %d", got, want))
	}
	dataFree := 0
	for i := common.DataAreaStart; i < common.DataAreaEnd; i++ {
		if !st.DataBitmap.Test(i) {
			dataFree++
		}
	}
	if want := int(st.SB.FreeBlocks); dataFree != want {
		findings = append(findings, fmt.Sprintf("free block count is %d, super block says %d", dataFree, want))
	}
	for i := 0; i < common.SystemBlocks; i++ {
		if !st.DataBitmap.Test(i) {
			findings = append(findings, fmt.Sprintf("system block %d is not marked allocated", i))
		}
	}
	return findings
}
