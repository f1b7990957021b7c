//go:build windows

package mem

import "github.com/dacapoday/fixheap"

func mmap(fd uintptr, size int) ([]byte, error) {
	return nil, fixheap.ErrUnsupported
}

func msync(data []byte) error {
	return fixheap.ErrUnsupported
}

func munmap(data []byte) error {
	return nil
}
