// Package common holds the on-disk layout constants, shared structs and the
// sentinel error tags used by every layer of the engine, mirroring the way
// the teacher's own common package underpins bcache/inode/fs.
package common

import "errors"

// Sentinel error tags. Every layer wraps one of these with %w so a caller
// can still errors.Is() through to the tag regardless of which package
// returned it.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotDirectory  = errors.New("not a directory")
	ErrIsDirectory   = errors.New("is a directory")
	ErrNotEmpty      = errors.New("directory not empty")
	ErrNoSpace       = errors.New("no space left on device")
	ErrDirFull       = errors.New("directory has no free slots")
	ErrInvalidPath   = errors.New("invalid path")
	ErrBadFd         = errors.New("bad file descriptor")
	ErrBadFlags      = errors.New("bad open flags")
	ErrIOError       = errors.New("i/o error")
)
