package btree

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ytakasugi/toy-rdbms/src/common"
	"github.com/ytakasugi/toy-rdbms/src/disk"
)

// ErrIterClosed is returned by an iterator that was closed or lost its leaf.
var ErrIterClosed = errors.New("iterator is closed")

// PageFetcher hands out pinned pages; *disk.BufferPoolManager implements it.
type PageFetcher interface {
	FetchPage(pageId common.PageId) (*disk.PageHandle, error)
}

// Iter walks pairs in key order across a chain of sibling leaves. It sits
// between two pairs: Next returns the one after it, Prev the one before. It
// pins the current leaf only; Close releases it.
type Iter struct {
	pages  PageFetcher
	handle *disk.PageHandle
	slotId int
}

// Seek positions an iterator on leaf pageId just before the first pair whose
// key is not less than key.
func Seek(pages PageFetcher, pageId common.PageId, key []byte) (*Iter, error) {
	handle, err := pages.FetchPage(pageId)
	if err != nil {
		return nil, err
	}
	var slotId int
	err = handle.View(func(page []byte) error {
		slotId, _ = NewLeaf(page).SearchSlotId(key)
		return nil
	})
	if err != nil {
		handle.Release()
		return nil, err
	}
	return &Iter{pages: pages, handle: handle, slotId: slotId}, nil
}

// First positions an iterator before the first pair of leaf pageId.
func First(pages PageFetcher, pageId common.PageId) (*Iter, error) {
	handle, err := pages.FetchPage(pageId)
	if err != nil {
		return nil, err
	}
	return &Iter{pages: pages, handle: handle}, nil
}

// Position is the leaf and slot the next call to Next would read. It panics
// on a closed iterator.
func (it *Iter) Position() common.RID {
	if it.handle == nil {
		panic("position of closed iterator")
	}
	return common.RID{PageId: it.handle.PageId(), SlotNum: it.slotId}
}

// Next returns the next pair, following next_page_id links when the current
// leaf runs out. The returned slices are copies.
func (it *Iter) Next() (Pair, bool, error) {
	if it.handle == nil {
		return Pair{}, false, ErrIterClosed
	}
	for {
		var pair Pair
		var found bool
		var nextPageId common.PageId
		var hasNext bool
		err := it.handle.View(func(page []byte) error {
			leaf := NewLeaf(page)
			if it.slotId < leaf.NumPairs() {
				pair = clonePair(leaf.PairAt(it.slotId))
				found = true
				return nil
			}
			nextPageId, hasNext = leaf.NextPageId()
			return nil
		})
		if err != nil {
			return Pair{}, false, err
		}
		if found {
			it.slotId++
			return pair, true, nil
		}
		if !hasNext {
			return Pair{}, false, nil
		}
		if err := it.moveTo(nextPageId, false); err != nil {
			return Pair{}, false, err
		}
	}
}

// Prev returns the previous pair, following prev_page_id links when the
// start of the current leaf is reached.
func (it *Iter) Prev() (Pair, bool, error) {
	if it.handle == nil {
		return Pair{}, false, ErrIterClosed
	}
	for {
		var pair Pair
		var prevPageId common.PageId
		var hasPrev bool
		if it.slotId > 0 {
			err := it.handle.View(func(page []byte) error {
				pair = clonePair(NewLeaf(page).PairAt(it.slotId - 1))
				return nil
			})
			if err != nil {
				return Pair{}, false, err
			}
			it.slotId--
			return pair, true, nil
		}
		err := it.handle.View(func(page []byte) error {
			prevPageId, hasPrev = NewLeaf(page).PrevPageId()
			return nil
		})
		if err != nil {
			return Pair{}, false, err
		}
		if !hasPrev {
			return Pair{}, false, nil
		}
		if err := it.moveTo(prevPageId, true); err != nil {
			return Pair{}, false, err
		}
	}
}

// moveTo swaps the pinned leaf for pageId, placing the iterator at its start
// or, with atEnd, after its last pair.
func (it *Iter) moveTo(pageId common.PageId, atEnd bool) error {
	from := it.handle.PageId()
	it.handle.Release()
	handle, err := it.pages.FetchPage(pageId)
	if err != nil {
		log.WithError(err).Warnf("Cannot follow sibling link %d -> %d.", from, pageId)
		it.handle = nil
		return err
	}
	it.handle = handle
	it.slotId = 0
	if atEnd {
		return handle.View(func(page []byte) error {
			it.slotId = NewLeaf(page).NumPairs()
			return nil
		})
	}
	return nil
}

// Close releases the pinned leaf.
func (it *Iter) Close() {
	if it.handle != nil {
		it.handle.Release()
		it.handle = nil
	}
}

func clonePair(p Pair) Pair {
	return Pair{
		Key:   append([]byte{}, p.Key...),
		Value: append([]byte{}, p.Value...),
	}
}
