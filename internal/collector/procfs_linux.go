//go:build linux

package collector

import (
	"golang.org/x/sys/unix"
)

// isProcFS reports whether path is the root of a mounted proc filesystem
func isProcFS(path string) bool {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false
	}
	return st.Type == unix.PROC_SUPER_MAGIC
}
