//go:build unix

package archive

import (
	"os"
	"path/filepath"
	"syscall"
)

// propagateOwner gives path the uid and gid of its parent directory.
// Failures are ignored, unprivileged runs usually cannot chown.
func propagateOwner(path string) {
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	_ = os.Lchown(path, int(st.Uid), int(st.Gid))
}
