package disk

import (
	"github.com/pkg/errors"

	"github.com/ytakasugi/toy-rdbms/src/common"
)

// memDisk keeps pages in memory and counts I/O.
type memDisk struct {
	pages      map[common.PageId][]byte
	nextPageId common.PageId
	reads      map[common.PageId]int
	writes     map[common.PageId]int
	readErr    error
}

func newMemDisk() *memDisk {
	return &memDisk{
		pages:  make(map[common.PageId][]byte),
		reads:  make(map[common.PageId]int),
		writes: make(map[common.PageId]int),
	}
}

func (d *memDisk) ReadPageData(pageId common.PageId, data []byte) error {
	if d.readErr != nil {
		return d.readErr
	}
	page, ok := d.pages[pageId]
	if !ok {
		return errors.Wrapf(ErrShortRead, "page %d", pageId)
	}
	d.reads[pageId]++
	copy(data, page)
	return nil
}

func (d *memDisk) WritePageData(pageId common.PageId, data []byte) error {
	page := make([]byte, len(data))
	copy(page, data)
	d.pages[pageId] = page
	d.writes[pageId]++
	return nil
}

func (d *memDisk) AllocatePage() common.PageId {
	pageId := d.nextPageId
	d.nextPageId++
	return pageId
}

// seed stores n pages whose first byte is the page id.
func (d *memDisk) seed(n int) {
	for i := 0; i < n; i++ {
		page := make([]byte, pageSize)
		page[0] = byte(i)
		d.pages[common.PageId(i)] = page
	}
	d.nextPageId = common.PageId(n)
}

func (d *memDisk) totalWrites() int {
	total := 0
	for _, n := range d.writes {
		total += n
	}
	return total
}
