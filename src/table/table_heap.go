// Package table keeps unordered records in slotted pages reached through the
// buffer pool.
package table

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ytakasugi/toy-rdbms/src/common"
	"github.com/ytakasugi/toy-rdbms/src/disk"
	"github.com/ytakasugi/toy-rdbms/src/slotted"
)

var (
	// ErrRecordTooLarge is returned for a record that cannot fit an empty page.
	ErrRecordTooLarge = errors.New("record does not fit in a page")
	// ErrHeapFull is returned when the header page has no room for another
	// data page id.
	ErrHeapFull = errors.New("table heap header page is full")
)

const maxRecordSize = common.PageSize - slotted.HeaderSize - slotted.PointerSize

type pageInfo struct {
	pageId    common.PageId
	freeSpace int
}

// TableHeap stores records in data pages listed by its header page.
type TableHeap struct {
	bufferPoolManager *disk.BufferPoolManager
	headerPageId      common.PageId
	pages             []pageInfo
}

// NewTableHeap creates an empty heap with a fresh header page.
func NewTableHeap(bufferPoolManager *disk.BufferPoolManager) (*TableHeap, error) {
	page, err := bufferPoolManager.CreatePage()
	if err != nil {
		return nil, err
	}
	defer page.Release()
	err = page.Update(func(data []byte) error {
		createHeapHeader(data).init()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &TableHeap{
		bufferPoolManager: bufferPoolManager,
		headerPageId:      page.PageId(),
	}, nil
}

// OpenTableHeap reattaches to the heap whose header page is headerPageId.
func OpenTableHeap(bufferPoolManager *disk.BufferPoolManager, headerPageId common.PageId) (*TableHeap, error) {
	th := &TableHeap{
		bufferPoolManager: bufferPoolManager,
		headerPageId:      headerPageId,
	}
	header, err := bufferPoolManager.FetchPage(headerPageId)
	if err != nil {
		return nil, err
	}
	pageIds := make([]common.PageId, 0)
	err = header.View(func(data []byte) error {
		hdr := createHeapHeader(data)
		for i := 0; i < hdr.numPages(); i++ {
			pageId, err := hdr.get(i)
			if err != nil {
				return err
			}
			pageIds = append(pageIds, pageId)
		}
		return nil
	})
	header.Release()
	if err != nil {
		return nil, err
	}

	for _, pageId := range pageIds {
		page, err := bufferPoolManager.FetchPage(pageId)
		if err != nil {
			return nil, err
		}
		var freeSpace int
		err = page.View(func(data []byte) error {
			freeSpace = slotted.New(data).FreeSpace()
			return nil
		})
		page.Release()
		if err != nil {
			return nil, err
		}
		th.pages = append(th.pages, pageInfo{pageId: pageId, freeSpace: freeSpace})
	}
	return th, nil
}

func (th *TableHeap) HeaderPageId() common.PageId { return th.headerPageId }

func (th *TableHeap) PageIds() []common.PageId {
	ids := make([]common.PageId, 0, len(th.pages))
	for _, info := range th.pages {
		ids = append(ids, info.pageId)
	}
	return ids
}

// Insert stores record in the first page with room for it, creating a page
// when none has.
func (th *TableHeap) Insert(record []byte) (common.RID, error) {
	if len(record) > maxRecordSize {
		return common.RID{}, errors.Wrapf(ErrRecordTooLarge, "%d bytes", len(record))
	}
	for i := range th.pages {
		info := &th.pages[i]
		if info.freeSpace < slotted.PointerSize+len(record) {
			continue
		}
		rid, ok, err := th.insertIntoPage(record, info)
		if err != nil {
			return common.RID{}, err
		}
		if ok {
			return rid, nil
		}
		log.Warnf("Insert a record of length %d into page %d failed.", len(record), info.pageId)
	}

	info, err := th.appendPage()
	if err != nil {
		return common.RID{}, err
	}
	rid, _, err := th.insertIntoPage(record, info)
	return rid, err
}

// appendPage creates an empty data page and records it in the header page.
func (th *TableHeap) appendPage() (*pageInfo, error) {
	header, err := th.bufferPoolManager.FetchPage(th.headerPageId)
	if err != nil {
		return nil, err
	}
	defer header.Release()

	hasRoom := false
	err = header.View(func(data []byte) error {
		hasRoom = createHeapHeader(data).hasRoom()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !hasRoom {
		log.Warnf("Header page %d of table heap is full.", th.headerPageId)
		return nil, ErrHeapFull
	}

	page, err := th.bufferPoolManager.CreatePage()
	if err != nil {
		return nil, err
	}
	pageId := page.PageId()
	err = page.Update(func(data []byte) error {
		slotted.New(data).Initialize()
		return nil
	})
	page.Release()
	if err != nil {
		return nil, err
	}

	err = header.Update(func(data []byte) error {
		if !createHeapHeader(data).pushPage(pageId) {
			return ErrHeapFull
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	th.pages = append(th.pages, pageInfo{pageId: pageId, freeSpace: common.PageSize - slotted.HeaderSize})
	return &th.pages[len(th.pages)-1], nil
}

func (th *TableHeap) insertIntoPage(record []byte, info *pageInfo) (common.RID, bool, error) {
	page, err := th.bufferPoolManager.FetchPage(info.pageId)
	if err != nil {
		return common.RID{}, false, err
	}
	defer page.Release()

	rid := common.RID{PageId: info.pageId}
	ok := false
	err = page.Update(func(data []byte) error {
		sp := slotted.New(data)
		rid.SlotNum = sp.NumSlots()
		if ok = sp.Insert(rid.SlotNum, len(record)); ok {
			copy(sp.Data(rid.SlotNum), record)
		}
		info.freeSpace = sp.FreeSpace()
		return nil
	})
	return rid, ok, err
}

// Get returns a copy of the record at rid.
func (th *TableHeap) Get(rid common.RID) ([]byte, bool, error) {
	if !th.owns(rid.PageId) {
		return nil, false, nil
	}
	page, err := th.bufferPoolManager.FetchPage(rid.PageId)
	if err != nil {
		return nil, false, err
	}
	defer page.Release()

	var record []byte
	err = page.View(func(data []byte) error {
		sp := slotted.New(data)
		if rid.SlotNum < 0 || rid.SlotNum >= sp.NumSlots() {
			return nil
		}
		record = append([]byte{}, sp.Data(rid.SlotNum)...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return record, record != nil, nil
}

func (th *TableHeap) owns(pageId common.PageId) bool {
	for _, info := range th.pages {
		if info.pageId == pageId {
			return true
		}
	}
	return false
}
