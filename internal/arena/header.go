// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package arena

import "encoding/binary"

// Every block starts with a fixed 24-byte header describing the bytes
// that follow it. Headers live inside the region they describe; the
// chain links are region offsets, never addresses.
//
//	 0:4   magic    sentinel, written at creation and split time
//	 4:8   size     usable bytes after the header
//	 8:12  flags    bit0 = free
//	12:16  next     offset of the next header, nilOff at the tail
//	16:20  prev     offset of the previous header, nilOff at the head
//	20:24  reserved zero
//
// HeaderSize is a multiple of every supported granularity, so block
// sizes stay granularity-aligned across splits and merges.
const HeaderSize = 24

// nilOff marks a missing chain link. Offset 0 is the base block, so
// zero cannot serve as the null value.
const nilOff = ^uint32(0)

const flagFree = 1 << 0

type header struct {
	Magic uint32
	Size  uint32
	Flags uint32
	Next  uint32
	Prev  uint32
}

func (h header) free() bool { return h.Flags&flagFree != 0 }

func decodeHeader(data []byte) header {
	return header{
		Magic: binary.LittleEndian.Uint32(data[0:4]),
		Size:  binary.LittleEndian.Uint32(data[4:8]),
		Flags: binary.LittleEndian.Uint32(data[8:12]),
		Next:  binary.LittleEndian.Uint32(data[12:16]),
		Prev:  binary.LittleEndian.Uint32(data[16:20]),
	}
}

func encodeHeader(b []byte, h header) {
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Size)
	binary.LittleEndian.PutUint32(b[8:12], h.Flags)
	binary.LittleEndian.PutUint32(b[12:16], h.Next)
	binary.LittleEndian.PutUint32(b[16:20], h.Prev)
	binary.LittleEndian.PutUint32(b[20:24], 0)
}
