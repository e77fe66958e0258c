// Package btree holds the leaf level of the B-tree: sorted key/value pairs in
// a slotted page, linked to their sibling leaves.
package btree

import (
	"bytes"
	"fmt"

	"github.com/ytakasugi/toy-rdbms/src/common"
	"github.com/ytakasugi/toy-rdbms/src/slotted"
)

// LeafHeaderSize is prev_page_id followed by next_page_id.
const LeafHeaderSize = 2 * common.PageIdSize

// Leaf interprets a page as a leaf header followed by a slotted body.
type Leaf struct {
	header []byte
	body   *slotted.Slotted
}

func NewLeaf(page []byte) *Leaf {
	if len(page) < LeafHeaderSize {
		panic(fmt.Sprintf("leaf needs at least %d bytes, got %d", LeafHeaderSize, len(page)))
	}
	return &Leaf{
		header: page[:LeafHeaderSize],
		body:   slotted.New(page[LeafHeaderSize:]),
	}
}

// Initialize formats the page as an empty leaf with no siblings.
func (l *Leaf) Initialize() {
	l.SetPrevPageId(common.InvalidPageId)
	l.SetNextPageId(common.InvalidPageId)
	l.body.Initialize()
}

func (l *Leaf) PrevPageId() (common.PageId, bool) {
	return common.PageId(byteOrder.Uint64(l.header[0:8])).Valid()
}

func (l *Leaf) NextPageId() (common.PageId, bool) {
	return common.PageId(byteOrder.Uint64(l.header[8:16])).Valid()
}

func (l *Leaf) SetPrevPageId(id common.PageId) {
	byteOrder.PutUint64(l.header[0:8], uint64(id))
}

func (l *Leaf) SetNextPageId(id common.PageId) {
	byteOrder.PutUint64(l.header[8:16], uint64(id))
}

func (l *Leaf) NumPairs() int { return l.body.NumSlots() }

func (l *Leaf) FreeSpace() int { return l.body.FreeSpace() }

// MaxPairSize is the largest encoded pair an empty leaf can hold.
func (l *Leaf) MaxPairSize() int { return l.body.Capacity() - slotted.PointerSize }

func (l *Leaf) PairAt(slotId int) Pair {
	return PairFromBytes(l.body.Data(slotId))
}

// SearchSlotId returns the slot holding key and true, or the slot at which key
// would be inserted and false.
func (l *Leaf) SearchSlotId(key []byte) (int, bool) {
	return common.BinarySearch(l.NumPairs(), func(slotId int) int {
		return bytes.Compare(l.PairAt(slotId).Key, key)
	})
}

// Insert stores key/value at slotId. The caller picks slotId, normally from
// SearchSlotId, so that keys stay sorted. It returns false if the leaf is
// full.
func (l *Leaf) Insert(slotId int, key []byte, value []byte) bool {
	pair := Pair{Key: key, Value: value}
	if !l.body.Insert(slotId, pair.EncodedSize()) {
		return false
	}
	pair.encodeTo(l.body.Data(slotId))
	return true
}
