package table

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ytakasugi/toy-rdbms/src/common"
	"github.com/ytakasugi/toy-rdbms/src/slotted"
)

var byteOrder = binary.NativeEndian

// heapHeader is the directory page of a table heap: a slotted page whose
// records are the ids of the heap's data pages, in creation order.
type heapHeader struct {
	page *slotted.Slotted
}

func createHeapHeader(data []byte) *heapHeader {
	return &heapHeader{page: slotted.New(data)}
}

func (hdr *heapHeader) init() {
	hdr.page.Initialize()
}

func (hdr *heapHeader) numPages() int {
	return hdr.page.NumSlots()
}

func (hdr *heapHeader) get(i int) (common.PageId, error) {
	data := hdr.page.Data(i)
	if len(data) != common.PageIdSize {
		return common.InvalidPageId, errors.Errorf("corrupt heap header: entry %d is %d bytes", i, len(data))
	}
	return common.PageId(byteOrder.Uint64(data)), nil
}

func (hdr *heapHeader) hasRoom() bool {
	return hdr.page.FreeSpace() >= slotted.PointerSize+common.PageIdSize
}

func (hdr *heapHeader) pushPage(pageId common.PageId) bool {
	n := hdr.numPages()
	if !hdr.page.Insert(n, common.PageIdSize) {
		return false
	}
	byteOrder.PutUint64(hdr.page.Data(n), uint64(pageId))
	return true
}
