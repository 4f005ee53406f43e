package fs

import (
	"errors"
	"fmt"

	"github.com/jnwhiteh/blockfs/common"
)

// Create makes a new, empty regular file at path, failing if anything
// already occupies that name. It is the create() syscall from the
// spec's namespace operations; Open with the Create flag carries its
// own copy of the same steps for the open-or-create case.
func (e *Engine) Create(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.createNode(path, common.TypeRegular)
	return err
}

// createNode is the shared body of Create and Mkdir: resolve the parent,
// refuse an existing name, allocate a fresh inode of the given type and
// link it in.
func (e *Engine) createNode(path string, kind common.InodeType) (int32, error) {
	parentID, parentDir, name, err := e.paths.ResolveParent(e.cwd, path)
	if err != nil {
		return 0, err
	}
	if _, exists, err := e.dirs.Lookup(parentDir, name); err != nil {
		return 0, err
	} else if exists {
		return 0, fmt.Errorf("fs: %q: %w", path, common.ErrAlreadyExists)
	}

	id, err := e.at.AllocInode()
	if err != nil {
		return 0, err
	}
	di := common.NewFreeDiskInode()
	di.ID = int32(id)
	di.Type = int32(kind)
	di.Atime, di.Mtime, di.Ctime = now(), now(), now()

	if kind == common.TypeDir {
		if err := e.dirs.InitDirBlock(di, int32(id), parentID); err != nil {
			e.at.FreeInode(id)
			return 0, err
		}
	}
	if err := e.it.Put(id, di); err != nil {
		e.at.FreeInode(id)
		return 0, err
	}
	if err := e.dirs.AddEntry(int(parentID), parentDir, name, int32(id), now()); err != nil {
		e.at.FreeInode(id)
		return 0, err
	}
	return int32(id), nil
}

// Mkdir creates a new, empty subdirectory at path.
func (e *Engine) Mkdir(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.createNode(path, common.TypeDir)
	return err
}

// Remove unlinks a regular file. It refuses to touch directories --
// use RemoveDir or Rm for those.
func (e *Engine) Remove(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeFile(path)
}

func (e *Engine) removeFile(path string) error {
	parentID, parentDir, name, childID, childDI, err := e.resolveExisting(path)
	if err != nil {
		return err
	}
	if childDI.IsDirectory() {
		return fmt.Errorf("fs: %q: %w", path, common.ErrIsDirectory)
	}
	if err := e.files.Truncate(int(childID), childDI, 0, now()); err != nil {
		return err
	}
	if err := e.at.FreeInode(int(childID)); err != nil {
		return err
	}
	return e.dirs.RemoveEntry(int(parentID), parentDir, name, now())
}

// RemoveDir removes an empty subdirectory. The root directory can never
// be removed, even by force -- see Rm.
func (e *Engine) RemoveDir(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeDir(path)
}

func (e *Engine) removeDir(path string) error {
	parentID, parentDir, name, childID, childDI, err := e.resolveExisting(path)
	if err != nil {
		return err
	}
	if !childDI.IsDirectory() {
		return fmt.Errorf("fs: %q: %w", path, common.ErrNotDirectory)
	}
	if childID == common.RootInode {
		return fmt.Errorf("fs: cannot remove the root directory: %w", common.ErrInvalidPath)
	}
	empty, err := e.dirs.IsEmpty(childDI)
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("fs: %q: %w", path, common.ErrNotEmpty)
	}
	for _, blockID := range childDI.Direct {
		if blockID == common.NoBlock {
			continue
		}
		if err := e.at.FreeDataBlock(int(blockID)); err != nil {
			return err
		}
	}
	if err := e.at.FreeInode(int(childID)); err != nil {
		return err
	}
	return e.dirs.RemoveEntry(int(parentID), parentDir, name, now())
}

// resolveExisting resolves path down to its parent and final component,
// requiring the final component to already exist.
func (e *Engine) resolveExisting(path string) (parentID int32, parentDir *common.DiskInode, name string, childID int32, childDI *common.DiskInode, err error) {
	parentID, parentDir, name, err = e.paths.ResolveParent(e.cwd, path)
	if err != nil {
		return
	}
	inum, ok, lerr := e.dirs.Lookup(parentDir, name)
	if lerr != nil {
		err = lerr
		return
	}
	if !ok {
		err = fmt.Errorf("fs: %q: %w", path, common.ErrNotFound)
		return
	}
	childDI, err = e.it.Get(int(inum))
	if err != nil {
		return
	}
	childID = inum
	return
}

// Rm implements the shell's "rm -rRfF" surface: recursive tears down a
// non-empty directory tree first, force turns a missing target into
// success instead of an error. Neither flag ever allows the root
// directory itself to be removed.
func (e *Engine) Rm(path string, recursive, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rm(path, recursive, force)
}

func (e *Engine) rm(path string, recursive, force bool) error {
	id, di, err := e.paths.Resolve(e.cwd, path)
	if err != nil {
		if force && errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	if id == common.RootInode {
		return fmt.Errorf("fs: cannot remove the root directory: %w", common.ErrInvalidPath)
	}

	if !di.IsDirectory() {
		return e.removeFile(path)
	}

	if !recursive {
		return fmt.Errorf("fs: %q is a directory: %w", path, common.ErrIsDirectory)
	}

	entries, err := e.dirs.ListEntries(di)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		name := ent.NameString()
		if name == "." || name == ".." {
			continue
		}
		child := joinPath(path, name)
		if err := e.rm(child, recursive, force); err != nil && !force {
			return err
		}
	}
	return e.removeDir(path)
}

// List returns the live entries of the directory at path, in on-disk
// slot order, the equivalent of the shell's ls.
func (e *Engine) List(path string) ([]common.DirEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, di, err := e.paths.Resolve(e.cwd, path)
	if err != nil {
		return nil, err
	}
	if !di.IsDirectory() {
		return nil, fmt.Errorf("fs: %q: %w", path, common.ErrNotDirectory)
	}
	return e.dirs.ListEntries(di)
}

// Chdir changes the working directory used to resolve relative paths.
func (e *Engine) Chdir(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, di, err := e.paths.Resolve(e.cwd, path)
	if err != nil {
		return err
	}
	if !di.IsDirectory() {
		return fmt.Errorf("fs: %q: %w", path, common.ErrNotDirectory)
	}
	e.cwd = id
	e.cwdPath = joinPath(e.cwdPath, path)
	return nil
}

// Cwd returns the textual working directory path last set by Chdir.
func (e *Engine) Cwd() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cwdPath
}

// Stat returns the disk inode backing path, for callers (fsck, ls -l
// style rendering) that need more than a name.
func (e *Engine) Stat(path string) (*common.DiskInode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, di, err := e.paths.Resolve(e.cwd, path)
	return di, err
}
