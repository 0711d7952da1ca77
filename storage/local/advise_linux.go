//go:build linux

package local

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel that the blob will be read from start to end.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
