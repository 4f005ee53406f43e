package common

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DiskInode is the exact byte-for-byte record packed into an inode slot.
// Its own encoded size (84 bytes) is smaller than the 128-byte slot
// stride; Encode/Decode below zero-pad the remainder, matching the
// spec's "the struct's own size may be smaller but the slot stride is
// fixed" rule.
type DiskInode struct {
	ID       int32
	Type     int32
	Size     int32
	Blocks   int32
	Atime    int64
	Mtime    int64
	Ctime    int64
	Direct   [DirectPointers]int32
	Indirect int32
}

// NewFreeDiskInode returns the zero-value record written into a slot when
// an inode is freed or an image is freshly formatted.
func NewFreeDiskInode() *DiskInode {
	di := &DiskInode{ID: -1, Indirect: NoBlock}
	for i := range di.Direct {
		di.Direct[i] = NoBlock
	}
	return di
}

// Encode packs the inode into a zero-padded, slot-sized buffer.
func (di *DiskInode) Encode() []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, di); err != nil {
		panic(fmt.Sprintf("common: inode will not marshal: %s", err))
	}
	if buf.Len() > InodeSlotSize {
		panic("common: disk inode exceeds slot size")
	}
	out := make([]byte, InodeSlotSize)
	copy(out, buf.Bytes())
	return out
}

// DecodeDiskInode unpacks an inode from a slot-sized buffer previously
// produced by Encode.
func DecodeDiskInode(slot []byte) (*DiskInode, error) {
	di := new(DiskInode)
	r := bytes.NewReader(slot)
	if err := binary.Read(r, binary.LittleEndian, di); err != nil {
		return nil, fmt.Errorf("common: inode will not unmarshal: %w", err)
	}
	return di, nil
}

// IsDirectory and IsRegular are the dynamic-dispatch checkpoints every
// caller that needs one kind of inode uses to reject the other.
func (di *DiskInode) IsDirectory() bool { return InodeType(di.Type) == TypeDir }
func (di *DiskInode) IsRegular() bool   { return InodeType(di.Type) == TypeRegular }

// Allocated reports whether this slot currently holds a live inode.
func (di *DiskInode) Allocated() bool { return di.ID >= 0 }
