// Package resolve turns a slash-separated path plus a starting directory
// into inode ids, the way the teacher's fs.eatPath/lastDir/advance walk
// a path component by component. There is exactly one device and no
// mount table here, so the parts of advance() that switch onto a
// mounted-on filesystem are gone; everything else -- clean the path,
// split on "/", walk all but the last component, then resolve the
// final one separately so callers can create-or-replace it -- survives.
package resolve

import (
	"fmt"
	"path"
	"strings"

	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/dirent"
	"github.com/jnwhiteh/blockfs/inode"
)

type Resolver struct {
	it  *inode.Table
	dir *dirent.Ops
}

func New(it *inode.Table, dir *dirent.Ops) *Resolver {
	return &Resolver{it: it, dir: dir}
}

// split cleans path and returns its components plus whether it was
// absolute. "/" itself cleans to a single "/" and yields zero
// components.
func split(p string) (components []string, absolute bool) {
	p = path.Clean(p)
	absolute = strings.HasPrefix(p, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, absolute
	}
	return strings.Split(p, "/"), absolute
}

// startDir picks the root or the caller's working directory as the walk's
// starting point, the same choice the teacher's lastDir makes on
// filepath.IsAbs.
func startDir(cwd int32, absolute bool) int32 {
	if absolute {
		return common.RootInode
	}
	return cwd
}

// advance looks up name inside the directory dirID, failing if dirID is
// not itself a directory or name is not present.
func (r *Resolver) advance(dirID int32, name string) (int32, *common.DiskInode, error) {
	di, err := r.it.Get(int(dirID))
	if err != nil {
		return 0, nil, err
	}
	if !di.IsDirectory() {
		return 0, nil, fmt.Errorf("resolve: %w", common.ErrNotDirectory)
	}
	inum, ok, err := r.dir.Lookup(di, name)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, fmt.Errorf("resolve: %q: %w", name, common.ErrNotFound)
	}
	child, err := r.it.Get(int(inum))
	if err != nil {
		return 0, nil, err
	}
	return inum, child, nil
}

// ResolveParent walks every component of path except the last, returning
// the parent directory's id/record and the final component's name --
// the equivalent of the teacher's lastDir. It does not require the final
// component to exist, so callers implementing create() can use it.
func (r *Resolver) ResolveParent(cwd int32, p string) (parentID int32, parent *common.DiskInode, name string, err error) {
	if p == "" {
		return 0, nil, "", fmt.Errorf("resolve: empty path: %w", common.ErrInvalidPath)
	}
	components, absolute := split(p)
	if len(components) == 0 {
		if absolute {
			return 0, nil, "", fmt.Errorf("resolve: %q has no final component: %w", p, common.ErrInvalidPath)
		}
		return 0, nil, "", fmt.Errorf("resolve: empty path: %w", common.ErrInvalidPath)
	}

	dirID := startDir(cwd, absolute)
	di, err := r.it.Get(int(dirID))
	if err != nil {
		return 0, nil, "", err
	}

	for _, comp := range components[:len(components)-1] {
		dirID, di, err = r.advance(dirID, comp)
		if err != nil {
			return 0, nil, "", err
		}
	}
	if !di.IsDirectory() {
		return 0, nil, "", fmt.Errorf("resolve: %w", common.ErrNotDirectory)
	}
	return dirID, di, components[len(components)-1], nil
}

// Resolve walks the whole path and returns the final inode, the
// equivalent of the teacher's eatPath. "/" resolves to the root
// directory directly since it has no final component to advance to.
func (r *Resolver) Resolve(cwd int32, p string) (id int32, di *common.DiskInode, err error) {
	if path.Clean(p) == "/" {
		root, err := r.it.Get(common.RootInode)
		return common.RootInode, root, err
	}

	parentID, _, name, err := r.ResolveParent(cwd, p)
	if err != nil {
		return 0, nil, err
	}
	return r.advance(parentID, name)
}
