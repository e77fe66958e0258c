// Package slotted lays variable-length records out inside one page: a header,
// then an array of pointers growing forward, and record data growing backward
// from the end of the page.
package slotted

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is num_slots (2 bytes), free_space_offset (2 bytes) and
	// 4 bytes of padding.
	HeaderSize = 8
	// PointerSize is offset (2 bytes) and len (2 bytes).
	PointerSize = 4
)

var byteOrder = binary.NativeEndian

// Pointer locates one record inside the body.
type Pointer struct {
	Offset uint16
	Len    uint16
}

func (p Pointer) end() int { return int(p.Offset) + int(p.Len) }

// Slotted is a view over a page region. Offsets are relative to the body,
// which starts right after the header.
type Slotted struct {
	header []byte
	body   []byte
}

// New wraps bytes. It does not initialize them; see Initialize.
func New(bytes []byte) *Slotted {
	if len(bytes) < HeaderSize {
		panic(fmt.Sprintf("slotted page needs at least %d bytes, got %d", HeaderSize, len(bytes)))
	}
	if len(bytes)-HeaderSize > 0xFFFF {
		panic(fmt.Sprintf("slotted page body of %d bytes does not fit 16-bit offsets", len(bytes)-HeaderSize))
	}
	return &Slotted{
		header: bytes[:HeaderSize],
		body:   bytes[HeaderSize:],
	}
}

// Capacity is the size of the body.
func (s *Slotted) Capacity() int { return len(s.body) }

func (s *Slotted) NumSlots() int { return int(byteOrder.Uint16(s.header[0:2])) }

func (s *Slotted) freeSpaceOffset() int { return int(byteOrder.Uint16(s.header[2:4])) }

func (s *Slotted) setNumSlots(n int) { byteOrder.PutUint16(s.header[0:2], uint16(n)) }

func (s *Slotted) setFreeSpaceOffset(off int) { byteOrder.PutUint16(s.header[2:4], uint16(off)) }

// FreeSpace is the gap between the pointer array and the data region.
func (s *Slotted) FreeSpace() int {
	return s.freeSpaceOffset() - s.pointersSize()
}

func (s *Slotted) pointersSize() int { return PointerSize * s.NumSlots() }

// Initialize empties the page. Prior content is lost.
func (s *Slotted) Initialize() {
	s.setNumSlots(0)
	s.setFreeSpaceOffset(len(s.body))
	for i := 4; i < HeaderSize; i++ {
		s.header[i] = 0
	}
}

func (s *Slotted) pointer(index int) Pointer {
	s.checkIndex(index)
	off := index * PointerSize
	return Pointer{
		Offset: byteOrder.Uint16(s.body[off : off+2]),
		Len:    byteOrder.Uint16(s.body[off+2 : off+4]),
	}
}

func (s *Slotted) setPointer(index int, p Pointer) {
	off := index * PointerSize
	byteOrder.PutUint16(s.body[off:off+2], p.Offset)
	byteOrder.PutUint16(s.body[off+2:off+4], p.Len)
}

func (s *Slotted) checkIndex(index int) {
	if index < 0 || index >= s.NumSlots() {
		panic(fmt.Sprintf("slot %d out of range [0, %d)", index, s.NumSlots()))
	}
}

// Pointer returns the pointer stored in slot index.
func (s *Slotted) Pointer(index int) Pointer { return s.pointer(index) }

// Data returns the bytes of slot index. The slice aliases the page, so
// writing to it writes the record in place.
func (s *Slotted) Data(index int) []byte {
	p := s.pointer(index)
	if p.end() > len(s.body) {
		panic(fmt.Sprintf("slot %d points past the page: %d+%d > %d", index, p.Offset, p.Len, len(s.body)))
	}
	start, end := int(p.Offset), p.end()
	return s.body[start:end:end]
}

// Insert carves length bytes from the data region and opens slot index for
// them, shifting slots [index, NumSlots()) up by one. It returns false and
// leaves the page untouched if the free space cannot hold the record and its
// pointer.
func (s *Slotted) Insert(index int, length int) bool {
	numSlots := s.NumSlots()
	if index < 0 || index > numSlots {
		panic(fmt.Sprintf("insert position %d out of range [0, %d]", index, numSlots))
	}
	if length < 0 || s.FreeSpace() < PointerSize+length {
		return false
	}

	freeSpaceOffset := s.freeSpaceOffset() - length
	s.setFreeSpaceOffset(freeSpaceOffset)
	s.setNumSlots(numSlots + 1)

	start := index * PointerSize
	end := numSlots * PointerSize
	copy(s.body[start+PointerSize:end+PointerSize], s.body[start:end])
	s.setPointer(index, Pointer{Offset: uint16(freeSpaceOffset), Len: uint16(length)})
	return true
}
