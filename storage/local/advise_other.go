//go:build !linux

package local

import "os"

func adviseSequential(f *os.File) {}
