package disk

import (
	"sync"
	"sync/atomic"

	"github.com/ncw/directio"

	"github.com/ytakasugi/toy-rdbms/src/common"
)

// Buffer is the in-memory copy of one page. The pool owns it; callers reach it
// through a PageHandle, and every live handle is a pin.
//
// Access to the bytes goes through checked borrows: any number of shared
// borrows, or a single mutable one. Overlapping a mutable borrow with any
// other borrow panics.
type Buffer struct {
	pageId common.PageId
	page   []byte
	pins   atomic.Int32

	mu      sync.Mutex
	isDirty bool
	readers int
	writer  bool
}

func newBuffer() *Buffer {
	return &Buffer{
		pageId: common.InvalidPageId,
		page:   directio.AlignedBlock(pageSize),
	}
}

func (b *Buffer) PageId() common.PageId { return b.pageId }

func (b *Buffer) IsDirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isDirty
}

func (b *Buffer) setDirty(dirty bool) {
	b.mu.Lock()
	b.isDirty = dirty
	b.mu.Unlock()
}

// PinCount is the number of live handles to this buffer.
func (b *Buffer) PinCount() int { return int(b.pins.Load()) }

func (b *Buffer) isPinned() bool { return b.pins.Load() > 0 }

// PageRef is a borrow of a buffer's bytes. Release it when done.
type PageRef struct {
	buffer   *Buffer
	data     []byte
	mutable  bool
	released bool
}

func (r *PageRef) Bytes() []byte {
	if r.released {
		panic("use of released page borrow")
	}
	return r.data
}

func (r *PageRef) Release() {
	if r.released {
		return
	}
	r.released = true
	b := r.buffer
	b.mu.Lock()
	if r.mutable {
		b.writer = false
	} else {
		b.readers--
	}
	b.mu.Unlock()
}

// Borrow takes a shared borrow of the page bytes.
func (b *Buffer) Borrow() *PageRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writer {
		panic("page " + b.pageId.String() + " already mutably borrowed")
	}
	b.readers++
	return &PageRef{buffer: b, data: b.page}
}

// BorrowMut takes the mutable borrow of the page bytes and marks the buffer
// dirty.
func (b *Buffer) BorrowMut() *PageRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkExclusive()
	b.writer = true
	b.isDirty = true
	return &PageRef{buffer: b, data: b.page, mutable: true}
}

// borrowRaw takes the mutable borrow without touching the dirty flag; the
// pool uses it to load pages from disk.
func (b *Buffer) borrowRaw() *PageRef {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkExclusive()
	b.writer = true
	return &PageRef{buffer: b, data: b.page, mutable: true}
}

func (b *Buffer) checkExclusive() {
	if b.writer {
		panic("page " + b.pageId.String() + " already mutably borrowed")
	}
	if b.readers > 0 {
		panic("page " + b.pageId.String() + " already borrowed")
	}
}

// View runs fn with a shared borrow of the page bytes.
func (b *Buffer) View(fn func(page []byte) error) error {
	ref := b.Borrow()
	defer ref.Release()
	return fn(ref.Bytes())
}

// Update runs fn with the mutable borrow of the page bytes. The buffer is
// marked dirty.
func (b *Buffer) Update(fn func(page []byte) error) error {
	ref := b.BorrowMut()
	defer ref.Release()
	return fn(ref.Bytes())
}

// PageHandle pins a buffer in the pool until it is released.
type PageHandle struct {
	buffer   *Buffer
	released bool
}

func newPageHandle(b *Buffer) *PageHandle {
	b.pins.Add(1)
	return &PageHandle{buffer: b}
}

func (h *PageHandle) Buffer() *Buffer {
	if h.released {
		panic("use of released page handle")
	}
	return h.buffer
}

func (h *PageHandle) PageId() common.PageId { return h.Buffer().PageId() }

// Clone returns a second handle on the same buffer, adding a pin.
func (h *PageHandle) Clone() *PageHandle {
	return newPageHandle(h.Buffer())
}

// Release drops the pin. Releasing twice is a no-op.
func (h *PageHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.buffer.pins.Add(-1)
}

func (h *PageHandle) View(fn func(page []byte) error) error {
	return h.Buffer().View(fn)
}

func (h *PageHandle) Update(fn func(page []byte) error) error {
	return h.Buffer().Update(fn)
}
