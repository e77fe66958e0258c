package common

import (
	"fmt"
	"math"
)

const (
	// PageSize is the size of every page on disk and in the buffer pool.
	PageSize = 4096

	// PageIdSize is the encoded size of a PageId inside a page.
	PageIdSize = 8
)

// PageId addresses a page in the heap file. The all-ones value means "no page".
type PageId uint64

const InvalidPageId = PageId(math.MaxUint64)

// Valid returns the id and true, or false for the sentinel.
func (id PageId) Valid() (PageId, bool) {
	if id == InvalidPageId {
		return 0, false
	}
	return id, true
}

func (id PageId) IsValid() bool { return id != InvalidPageId }

func (id PageId) String() string {
	if id == InvalidPageId {
		return "<invalid>"
	}
	return fmt.Sprintf("%d", uint64(id))
}
