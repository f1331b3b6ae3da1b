// Package page implements the 4 KiB slotted page: a fixed header, a
// forward-growing slot directory, and a backward-growing tuple heap.
package page

import (
	"encoding/binary"

	"github.com/chocapikk/arcdb/internal/dberr"
)

const (
	// Size is the fixed page size in bytes.
	Size = 4096
	// HeaderSize is the number of header bytes at the start of a page.
	HeaderSize = 24
	// SlotSize is the width of one slot-directory entry.
	SlotSize = 4

	offsetPageID    = 0
	offsetTupleCnt  = 4
	offsetFreeSpace = 6
	offsetPageType  = 8
	offsetPageLSN   = 9
	// bytes 17..24 reserved
)

// Type tags the page's role. Only Heap pages are produced by this
// engine today; the field exists so future page kinds (e.g. B+ tree
// pages persisted through the buffer pool, per the §9 redesign note)
// don't require a header layout change.
type Type byte

const (
	TypeHeap Type = iota
	TypeIndex
)

// Page is an in-memory view over a fixed Size-byte buffer.
type Page struct {
	Data  [Size]byte
	Dirty bool
}

// New returns a zeroed page stamped with the given id and type.
func New(id uint32, t Type) *Page {
	p := &Page{}
	p.SetPageID(id)
	p.SetPageType(t)
	p.SetFreeSpaceOffset(Size)
	p.Dirty = true
	return p
}

func (p *Page) PageID() uint32 {
	return binary.LittleEndian.Uint32(p.Data[offsetPageID:])
}

func (p *Page) SetPageID(id uint32) {
	binary.LittleEndian.PutUint32(p.Data[offsetPageID:], id)
}

func (p *Page) TupleCount() uint16 {
	return binary.LittleEndian.Uint16(p.Data[offsetTupleCnt:])
}

func (p *Page) setTupleCount(n uint16) {
	binary.LittleEndian.PutUint16(p.Data[offsetTupleCnt:], n)
}

func (p *Page) FreeSpaceOffset() uint16 {
	return binary.LittleEndian.Uint16(p.Data[offsetFreeSpace:])
}

func (p *Page) SetFreeSpaceOffset(off uint16) {
	binary.LittleEndian.PutUint16(p.Data[offsetFreeSpace:], off)
}

func (p *Page) PageType() Type { return Type(p.Data[offsetPageType]) }

func (p *Page) SetPageType(t Type) { p.Data[offsetPageType] = byte(t) }

func (p *Page) LSN() uint64 {
	return binary.LittleEndian.Uint64(p.Data[offsetPageLSN:])
}

// SetLSN writes the page-LSN into the header and marks the page dirty.
func (p *Page) SetLSN(lsn uint64) {
	binary.LittleEndian.PutUint64(p.Data[offsetPageLSN:], lsn)
	p.Dirty = true
}

func slotOffset(slot uint16) int {
	return HeaderSize + int(slot)*SlotSize
}

func (p *Page) slotEntry(slot uint16) (offset, size uint16) {
	o := slotOffset(slot)
	offset = binary.LittleEndian.Uint16(p.Data[o:])
	size = binary.LittleEndian.Uint16(p.Data[o+2:])
	return
}

func (p *Page) setSlotEntry(slot uint16, offset, size uint16) {
	o := slotOffset(slot)
	binary.LittleEndian.PutUint16(p.Data[o:], offset)
	binary.LittleEndian.PutUint16(p.Data[o+2:], size)
}

// freeBytes returns the number of bytes available between the end of
// the slot directory and the start of the tuple heap.
func (p *Page) freeBytes() int {
	used := HeaderSize + int(p.TupleCount())*SlotSize
	return int(p.FreeSpaceOffset()) - used
}

// Insert places payload into the page, appending a new slot. Returns
// the new slot number, or a KindStorage "no space" error if the page
// cannot fit payload_size+SlotSize more bytes.
func (p *Page) Insert(payload []byte) (uint16, error) {
	need := len(payload) + SlotSize
	if p.freeBytes() < need {
		return 0, dberr.New(dberr.KindStorage, "page has no space for insert")
	}
	newOffset := int(p.FreeSpaceOffset()) - len(payload)
	copy(p.Data[newOffset:], payload)
	slot := p.TupleCount()
	p.setSlotEntry(slot, uint16(newOffset), uint16(len(payload)))
	p.setTupleCount(slot + 1)
	p.SetFreeSpaceOffset(uint16(newOffset))
	p.Dirty = true
	return slot, nil
}

// Get returns the payload stored at slot, or ok=false if the slot is
// out of range or is a tombstone (size 0).
func (p *Page) Get(slot uint16) (payload []byte, ok bool) {
	if slot >= p.TupleCount() {
		return nil, false
	}
	offset, size := p.slotEntry(slot)
	if size == 0 {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, p.Data[offset:int(offset)+int(size)])
	return out, true
}

// Update replaces the payload at slot. If the new payload is no larger
// than the old one, it overwrites in place. If larger, it is appended
// to the tail like a fresh insert and the slot is repointed — the old
// footprint is not reclaimed (see the page-compaction design note).
// Returns a KindStorage "no space" error if neither fits.
func (p *Page) Update(slot uint16, payload []byte) error {
	if slot >= p.TupleCount() {
		return dberr.New(dberr.KindStorage, "slot out of range")
	}
	offset, size := p.slotEntry(slot)
	if len(payload) <= int(size) {
		copy(p.Data[offset:], payload)
		p.setSlotEntry(slot, offset, uint16(len(payload)))
		p.Dirty = true
		return nil
	}
	if p.freeBytes() < len(payload) {
		return dberr.New(dberr.KindStorage, "page has no space for update")
	}
	newOffset := int(p.FreeSpaceOffset()) - len(payload)
	copy(p.Data[newOffset:], payload)
	p.setSlotEntry(slot, uint16(newOffset), uint16(len(payload)))
	p.SetFreeSpaceOffset(uint16(newOffset))
	p.Dirty = true
	return nil
}

// Delete tombstones slot (sets its size to 0). Tuple count is not
// decreased and slot numbers are never renumbered.
func (p *Page) Delete(slot uint16) error {
	if slot >= p.TupleCount() {
		return dberr.New(dberr.KindStorage, "slot out of range")
	}
	offset, _ := p.slotEntry(slot)
	p.setSlotEntry(slot, offset, 0)
	p.Dirty = true
	return nil
}

// IsLive reports whether slot holds a non-tombstone tuple.
func (p *Page) IsLive(slot uint16) bool {
	if slot >= p.TupleCount() {
		return false
	}
	_, size := p.slotEntry(slot)
	return size > 0
}
