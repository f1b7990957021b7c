//go:build unix

package mem

import "golang.org/x/sys/unix"

func mmap(fd uintptr, size int) ([]byte, error) {
	return unix.Mmap(int(fd), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func msync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

func munmap(data []byte) error {
	return unix.Munmap(data)
}
