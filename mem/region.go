// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package mem provides fixed byte regions for backing a heap: plain
// in-process buffers, and file-backed shared mappings for heaps that
// outlive a process or span several.
package mem

import (
	"fmt"
	"os"

	"github.com/dacapoday/fixheap"
)

// Region is a fixed-size byte region. The zero value is a closed
// region; use New or MapFile.
type Region struct {
	data []byte
	file *os.File // non-nil for mapped regions
}

// New returns a zero-filled in-process region of size bytes.
func New(size int) *Region {
	return &Region{data: make([]byte, size)}
}

// MapFile maps the file at path as a shared read-write region of
// exactly size bytes. A missing file is created and extended to
// size; an existing file must already be that size. Mutations are
// visible to every process mapping the same file.
//
// Not supported on windows.
func MapFile(path string, size int64) (*Region, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("mem.MapFile: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mem.MapFile: %w", err)
	}
	if stat.Size() == 0 {
		if err = file.Truncate(size); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("mem.MapFile: %w", err)
		}
	} else if stat.Size() != size {
		_ = file.Close()
		return nil, fmt.Errorf("mem.MapFile: %s is %d bytes, want %d", path, stat.Size(), size)
	}

	data, err := mmap(file.Fd(), int(size))
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("mem.MapFile: %w", err)
	}
	return &Region{data: data, file: file}, nil
}

// Bytes returns the region's bytes, or nil after Close. The slice
// aliases the region; do not hold it across Close.
func (region *Region) Bytes() []byte {
	return region.data
}

// Size returns the region size in bytes, 0 after Close.
func (region *Region) Size() int {
	return len(region.data)
}

// Sync flushes a mapped region back to its file. No-op for
// in-process regions, ErrClosed after Close.
func (region *Region) Sync() error {
	if region.data == nil {
		return fixheap.ErrClosed
	}
	if region.file == nil {
		return nil
	}
	if err := msync(region.data); err != nil {
		return fmt.Errorf("mem.Sync: %w", err)
	}
	return nil
}

// Close releases the region. A mapped region is flushed, unmapped
// and its file closed; an in-process region just drops its buffer.
// Safe to call twice.
func (region *Region) Close() error {
	if region.data != nil && region.file != nil {
		if err := msync(region.data); err != nil {
			return fmt.Errorf("mem.Close: %w", err)
		}
		if err := munmap(region.data); err != nil {
			return fmt.Errorf("mem.Close: %w", err)
		}
	}
	region.data = nil

	if region.file != nil {
		if err := region.file.Close(); err != nil {
			return fmt.Errorf("mem.Close: %w", err)
		}
		region.file = nil
	}
	return nil
}
