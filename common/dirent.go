package common

import (
	"bytes"
	"fmt"
)

// DirEntry is one fixed-width directory slot: a NUL-terminated name buffer
// followed by a 4-byte little-endian inode id. Inum == NoBlock (-1)
// marks a tombstone.
type DirEntry struct {
	Name [DirNameSize]byte
	Inum int32
}

// NewDirEntry builds an entry for name/inum, failing if name does not fit
// in the 251 meaningful bytes the NUL terminator leaves available.
func NewDirEntry(name string, inum int32) (*DirEntry, error) {
	if len(name) > DirNameSize-1 {
		return nil, fmt.Errorf("common: name %q longer than %d bytes: %w", name, DirNameSize-1, ErrInvalidPath)
	}
	de := &DirEntry{Inum: inum}
	copy(de.Name[:], name)
	return de, nil
}

// Tombstone reports whether this slot has been deleted or was never used.
func (de *DirEntry) Tombstone() bool {
	return de.Inum == NoBlock || de.Name[0] == 0
}

// NameString trims the entry's name buffer at its first NUL byte.
func (de *DirEntry) NameString() string {
	n := bytes.IndexByte(de.Name[:], 0)
	if n < 0 {
		n = len(de.Name)
	}
	return string(de.Name[:n])
}

// Encode packs the entry into its fixed-width wire form.
func (de *DirEntry) Encode() []byte {
	out := make([]byte, DirEntrySize)
	copy(out, de.Name[:])
	putInt32(out[DirNameSize:], de.Inum)
	return out
}

// DecodeDirEntry unpacks a fixed-width slot previously produced by Encode.
func DecodeDirEntry(slot []byte) *DirEntry {
	de := new(DirEntry)
	copy(de.Name[:], slot[:DirNameSize])
	de.Inum = getInt32(slot[DirNameSize:])
	return de
}

func putInt32(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

func getInt32(b []byte) int32 {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return int32(u)
}
