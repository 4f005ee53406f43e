package fs

import (
	"path"
	"strings"
)

// joinPath resolves p against base the same way the shell's relative
// paths resolve against the working directory, purely as text -- there
// are no symlinks and no cross-directory hard links in this filesystem,
// so a textual join always agrees with what the inode graph says.
func joinPath(base, p2 string) string {
	if strings.HasPrefix(p2, "/") {
		return path.Clean(p2)
	}
	if base == "" {
		base = "/"
	}
	return path.Clean(base + "/" + p2)
}
