// Package fs is the top-level facade: mount/format an image, then drive
// every namespace and file operation through the returned Engine. It
// plays the role of the teacher's fs.FileSystem plus fs.Process, minus
// the request/response channel loop (fs.server's in/out channels
// dispatched from a background goroutine) and minus multi-device
// mounting -- this engine always owns exactly one backing image and
// serializes callers with a plain mutex instead of an actor loop.
package fs

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jnwhiteh/blockfs/alloctbl"
	"github.com/jnwhiteh/blockfs/blockdev"
	"github.com/jnwhiteh/blockfs/common"
	"github.com/jnwhiteh/blockfs/dirent"
	"github.com/jnwhiteh/blockfs/file"
	"github.com/jnwhiteh/blockfs/inode"
	"github.com/jnwhiteh/blockfs/resolve"
	"github.com/jnwhiteh/blockfs/super"
)

// MaxOpenFiles bounds the descriptor table the way the teacher's
// common.OPEN_MAX bounds Process.files.
const MaxOpenFiles = 20

// OpenFlag mirrors the low bits of a Unix open(2) call, minus anything
// this filesystem has no use for (no O_NONBLOCK, no O_SYNC: every write
// here is already synchronous).
type OpenFlag int

const (
	Read OpenFlag = 1 << iota
	Write
	Create
	Truncate
	Append
	Excl
)

// ReadOnly, WriteOnly and ReadWrite are the three access modes a caller
// actually picks between; Read/Write above are the underlying bits so
// Truncate/Append/Create/Excl can be OR'd on independently.
const (
	ReadOnly  = Read
	WriteOnly = Write
	ReadWrite = Read | Write
)

func (f OpenFlag) has(bit OpenFlag) bool { return f&bit != 0 }

func (f OpenFlag) readable() bool { return f.has(Read) }
func (f OpenFlag) writable() bool { return f.has(Write) }

type fileDescriptor struct {
	inum  int32
	pos   int
	flags OpenFlag
}

// Engine is the single-threaded, synchronous facade every caller drives
// the filesystem through: shell commands, tests, whatever. One mutex
// covers all of it, so any two calls from goroutines still serialize
// correctly, but there is no concurrency inside a single call the way
// the teacher's bcache/inode packages had -- see the alloctbl and inode
// package docs for why that machinery was dropped.
type Engine struct {
	mu sync.Mutex

	dev   *blockdev.Device
	st    *super.State
	it    *inode.Table
	at    *alloctbl.Table
	dirs  *dirent.Ops
	files *file.Ops
	paths *resolve.Resolver

	cwd     int32
	cwdPath string
	fds     [MaxOpenFiles]*fileDescriptor

	sessionID uuid.UUID
	imagePath string
}

func newEngine(dev *blockdev.Device, st *super.State, path string) *Engine {
	it := inode.New(dev)
	at := alloctbl.New(dev, st)
	dirs := dirent.New(dev, it, at)
	return &Engine{
		dev:       dev,
		st:        st,
		it:        it,
		at:        at,
		dirs:      dirs,
		files:     file.New(dev, it, at),
		paths:     resolve.New(it, dirs),
		cwd:       common.RootInode,
		cwdPath:   "/",
		sessionID: uuid.New(),
		imagePath: path,
	}
}

func now() int64 { return time.Now().Unix() }

// SessionID identifies this particular mount for diagnostics. It is
// generated fresh every time Format or Mount runs and is never written
// to the image -- restarting the process always gets a new one.
func (e *Engine) SessionID() string { return e.sessionID.String() }

// ImagePath returns the backing file this engine was opened against.
func (e *Engine) ImagePath() string { return e.imagePath }

// Shutdown flushes and closes the backing device. The Engine must not
// be used afterwards.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.dev.Sync(); err != nil {
		return err
	}
	return e.dev.Close()
}

// Check runs a read-only consistency pass over the super block's cached
// counters against the bitmaps, the same scan super.State.Check does at
// the block-allocation layer, and never repairs anything it finds.
func (e *Engine) Check() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Check()
}

// lookupFd validates a descriptor id against the table, returning
// ErrBadFd for anything out of range or unopened.
func (e *Engine) lookupFd(fdnum int) (*fileDescriptor, error) {
	if fdnum < 0 || fdnum >= MaxOpenFiles || e.fds[fdnum] == nil {
		return nil, fmt.Errorf("fs: fd %d: %w", fdnum, common.ErrBadFd)
	}
	return e.fds[fdnum], nil
}
