// Package blockdev opens the single backing file this filesystem persists
// itself inside and exposes it as fixed-size, index-addressed blocks. It
// plays the role the teacher's device package plays for minixfs, but reads
// and writes go straight through io.ReaderAt/io.WriterAt on an *os.File the
// way keks-dumbfs's blkfile package treats its backing store, instead of
// routing through a request/response device actor -- this engine is
// single-threaded and synchronous end to end.
package blockdev

import (
	"fmt"
	"io"
	"os"

	"github.com/jnwhiteh/blockfs/common"
)

// Device is a fixed-size, block-addressed view of a backing file.
type Device struct {
	f    *os.File
	path string
}

// Create truncates (or creates) path to exactly common.NumBlocks blocks and
// zeroes every block, then returns it opened for use. This is the
// destructive half of format().
func Create(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: create %s: %w", path, err)
	}

	size := int64(common.NumBlocks) * int64(common.BlockSize)
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: truncate %s: %w", path, err)
	}

	dev := &Device{f: f, path: path}
	zero := make([]byte, common.BlockSize)
	for i := 0; i < common.NumBlocks; i++ {
		if err := dev.WriteBlock(i, zero); err != nil {
			f.Close()
			return nil, err
		}
	}
	return dev, nil
}

// Open attaches to an already-formatted backing file, refusing anything
// that isn't exactly the size a formatted image should be.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: stat %s: %w", path, err)
	}

	wantSize := int64(common.NumBlocks) * int64(common.BlockSize)
	if info.Size() != wantSize {
		f.Close()
		return nil, fmt.Errorf("blockdev: %s is %d bytes, want %d: %w", path, info.Size(), wantSize, common.ErrIOError)
	}

	return &Device{f: f, path: path}, nil
}

// ReadBlock fills buf (which must be exactly common.BlockSize bytes) with
// the contents of block id.
func (d *Device) ReadBlock(id int, buf []byte) error {
	if d.f == nil {
		return fmt.Errorf("blockdev: device not open: %w", common.ErrIOError)
	}
	if err := checkRange(id); err != nil {
		return err
	}
	if len(buf) != common.BlockSize {
		return fmt.Errorf("blockdev: read buffer is %d bytes, want %d: %w", len(buf), common.BlockSize, common.ErrIOError)
	}

	off := int64(id) * int64(common.BlockSize)
	if _, err := d.f.ReadAt(buf, off); err != nil && err != io.EOF {
		return fmt.Errorf("blockdev: read block %d: %w", id, err)
	}
	return nil
}

// WriteBlock overwrites block id with buf (which must be exactly
// common.BlockSize bytes).
func (d *Device) WriteBlock(id int, buf []byte) error {
	if d.f == nil {
		return fmt.Errorf("blockdev: device not open: %w", common.ErrIOError)
	}
	if err := checkRange(id); err != nil {
		return err
	}
	if len(buf) != common.BlockSize {
		return fmt.Errorf("blockdev: write buffer is %d bytes, want %d: %w", len(buf), common.BlockSize, common.ErrIOError)
	}

	off := int64(id) * int64(common.BlockSize)
	if _, err := d.f.WriteAt(buf, off); err != nil {
		return fmt.Errorf("blockdev: write block %d: %w", id, err)
	}
	return nil
}

// Sync flushes any buffered writes to stable storage, standing in for the
// spec's "flushed synchronously enough that a clean shutdown loses no
// committed metadata".
func (d *Device) Sync() error {
	if d.f == nil {
		return nil
	}
	return d.f.Sync()
}

// Close releases the backing file. A closed Device rejects further reads
// and writes.
func (d *Device) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

func checkRange(id int) error {
	if id < 0 || id >= common.NumBlocks {
		return fmt.Errorf("blockdev: block %d out of range [0,%d): %w", id, common.NumBlocks, common.ErrIOError)
	}
	return nil
}
