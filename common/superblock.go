package common

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Super Block: persisted metadata for the whole image. Field order is
// bit-exact and matches the on-disk layout the spec fixes in stone --
// reordering these fields corrupts every image written by a previous
// version of this package.
type SuperBlock struct {
	TotalBlocks      int32
	TotalInodes      int32
	FreeBlocks       int32
	FreeInodes       int32
	InodeBitmapStart int32
	DataBitmapStart  int32
	InodeAreaStart   int32
	DataAreaStart    int32
}

// NewSuperBlock builds the super block a fresh format() writes.
func NewSuperBlock() *SuperBlock {
	return &SuperBlock{
		TotalBlocks:      NumBlocks,
		TotalInodes:      TotalInodes,
		FreeBlocks:       DataAreaEnd - DataAreaStart,
		FreeInodes:       TotalInodes, // root's inode is allocated separately, by the allocator
		InodeBitmapStart: InodeBitmapStart,
		DataBitmapStart:  DataBitmapStart,
		InodeAreaStart:   InodeTableStart,
		DataAreaStart:    DataAreaStart,
	}
}

// Encode packs the super block into a zero-padded block-sized buffer.
func (sb *SuperBlock) Encode() []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, sb); err != nil {
		panic(fmt.Sprintf("common: superblock will not marshal: %s", err))
	}
	out := make([]byte, BlockSize)
	copy(out, buf.Bytes())
	return out
}

// DecodeSuperBlock unpacks a super block from a block-sized buffer
// previously produced by Encode.
func DecodeSuperBlock(block []byte) (*SuperBlock, error) {
	sb := new(SuperBlock)
	r := bytes.NewReader(block)
	if err := binary.Read(r, binary.LittleEndian, sb); err != nil {
		return nil, fmt.Errorf("common: superblock will not unmarshal: %w", err)
	}
	return sb, nil
}
