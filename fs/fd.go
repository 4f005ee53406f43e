package fs

import (
	"errors"
	"fmt"

	"github.com/jnwhiteh/blockfs/common"
)

// ErrTooManyOpenFiles is returned by Open once the descriptor table is
// full, the equivalent of the teacher's do_open running out of filp
// slots and returning EMFILE.
var ErrTooManyOpenFiles = errors.New("too many open files")

// Open opens path under the given flags, creating it first if Create is
// set and it does not already exist. It returns a descriptor number
// valid until the matching Close.
func (e *Engine) Open(path string, flags OpenFlag) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	parentID, parentDir, name, err := e.paths.ResolveParent(e.cwd, path)
	if err != nil {
		return -1, err
	}

	inum, ok, err := e.dirs.Lookup(parentDir, name)
	if err != nil {
		return -1, err
	}

	var di *common.DiskInode
	if !ok {
		if !flags.has(Create) {
			return -1, fmt.Errorf("fs: %q: %w", path, common.ErrNotFound)
		}
		id, err := e.at.AllocInode()
		if err != nil {
			return -1, err
		}
		di = common.NewFreeDiskInode()
		di.ID = int32(id)
		di.Type = int32(common.TypeRegular)
		di.Atime, di.Mtime, di.Ctime = now(), now(), now()
		if err := e.it.Put(id, di); err != nil {
			e.at.FreeInode(id)
			return -1, err
		}
		if err := e.dirs.AddEntry(int(parentID), parentDir, name, int32(id), now()); err != nil {
			e.at.FreeInode(id)
			return -1, err
		}
		inum = int32(id)
	} else {
		if flags.has(Create) && flags.has(Excl) {
			return -1, fmt.Errorf("fs: %q: %w", path, common.ErrAlreadyExists)
		}
		di, err = e.it.Get(int(inum))
		if err != nil {
			return -1, err
		}
		if di.IsDirectory() {
			return -1, fmt.Errorf("fs: %q: %w", path, common.ErrIsDirectory)
		}
		if flags.has(Truncate) && flags.writable() {
			if err := e.files.Truncate(int(inum), di, 0, now()); err != nil {
				return -1, err
			}
		}
	}

	slot := -1
	for i, fd := range e.fds {
		if fd == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		return -1, fmt.Errorf("fs: %w", ErrTooManyOpenFiles)
	}

	pos := 0
	if flags.has(Append) {
		pos = int(di.Size)
	}
	e.fds[slot] = &fileDescriptor{inum: inum, pos: pos, flags: flags}
	return slot, nil
}

// Close releases a descriptor. Closing an already-closed or
// never-opened descriptor fails with ErrBadFd.
func (e *Engine) Close(fdnum int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.lookupFd(fdnum); err != nil {
		return err
	}
	e.fds[fdnum] = nil
	return nil
}

// Read fills buf from fdnum's current position and advances it by the
// number of bytes actually read.
func (e *Engine) Read(fdnum int, buf []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fd, err := e.lookupFd(fdnum)
	if err != nil {
		return 0, err
	}
	if !fd.flags.readable() {
		return 0, fmt.Errorf("fs: fd %d not open for reading: %w", fdnum, common.ErrBadFlags)
	}
	di, err := e.it.Get(int(fd.inum))
	if err != nil {
		return 0, err
	}
	n, err := e.files.Read(di, buf, fd.pos)
	fd.pos += n
	return n, err
}

// Write writes data over the file starting at fdnum's current position
// (or at EOF, if opened with Append) and advances the position by the
// number of bytes actually written.
func (e *Engine) Write(fdnum int, data []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fd, err := e.lookupFd(fdnum)
	if err != nil {
		return 0, err
	}
	if !fd.flags.writable() {
		return 0, fmt.Errorf("fs: fd %d not open for writing: %w", fdnum, common.ErrBadFlags)
	}
	di, err := e.it.Get(int(fd.inum))
	if err != nil {
		return 0, err
	}
	pos := fd.pos
	if fd.flags.has(Append) {
		pos = int(di.Size)
	}
	n, err := e.files.Write(int(fd.inum), di, data, pos, now())
	fd.pos = pos + n
	return n, err
}

// Seek repositions fdnum: whence 0 is from the start, 1 from the
// current position, 2 from the end of the file.
func (e *Engine) Seek(fdnum, offset, whence int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fd, err := e.lookupFd(fdnum)
	if err != nil {
		return 0, err
	}
	var newPos int
	switch whence {
	case 0:
		newPos = offset
	case 1:
		newPos = fd.pos + offset
	case 2:
		di, err := e.it.Get(int(fd.inum))
		if err != nil {
			return 0, err
		}
		newPos = int(di.Size) + offset
	default:
		return 0, fmt.Errorf("fs: unknown whence %d: %w", whence, common.ErrBadFlags)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("fs: negative seek result: %w", common.ErrInvalidPath)
	}
	fd.pos = newPos
	return newPos, nil
}
