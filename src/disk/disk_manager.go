package disk

import (
	"io"
	"os"

	"github.com/ncw/directio"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ytakasugi/toy-rdbms/src/common"
)

const (
	pageSize = common.PageSize
)

// ErrShortRead is returned when the heap file ends before the requested page.
var ErrShortRead = errors.New("read less than a page")

// Disk is the page-addressed storage the buffer pool reads from and writes to.
type Disk interface {
	ReadPageData(pageId common.PageId, data []byte) error
	WritePageData(pageId common.PageId, data []byte) error
	AllocatePage() common.PageId
}

// DiskManager stores every page of the database in a single heap file, page
// i living at byte offset i*PageSize.
type DiskManager struct {
	heapFile   *os.File
	nextPageId common.PageId
}

// NewDiskManager wraps an opened heap file. Page ids continue from the current
// file length.
func NewDiskManager(heapFile *os.File) (*DiskManager, error) {
	stat, err := heapFile.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat heap file")
	}
	dm := &DiskManager{
		heapFile:   heapFile,
		nextPageId: common.PageId(stat.Size() / pageSize),
	}
	log.Debugf("Opened heap file %s, next page id %d.", heapFile.Name(), dm.nextPageId)
	return dm, nil
}

// Open opens or creates the heap file at fileName. With directIO the file is
// opened with O_DIRECT, which requires a filesystem that supports it.
func Open(fileName string, directIO bool) (*DiskManager, error) {
	var fi *os.File
	var err error
	if directIO {
		fi, err = directio.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	} else {
		fi, err = os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open heap file %s", fileName)
	}
	dm, err := NewDiskManager(fi)
	if err != nil {
		fi.Close()
		return nil, err
	}
	return dm, nil
}

func (dm *DiskManager) Close() error {
	return dm.heapFile.Close()
}

func (dm *DiskManager) Sync() error {
	return dm.heapFile.Sync()
}

// AllocatePage hands out the next page id. Nothing is written until the page
// is first flushed.
func (dm *DiskManager) AllocatePage() common.PageId {
	pageId := dm.nextPageId
	dm.nextPageId++
	return pageId
}

// ReadPageData fills data with the content of page pageId.
func (dm *DiskManager) ReadPageData(pageId common.PageId, data []byte) error {
	if len(data) != pageSize {
		return errors.Errorf("page buffer is %d bytes, want %d", len(data), pageSize)
	}
	if _, err := dm.heapFile.Seek(dm.offset(pageId), io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to page %d", pageId)
	}
	if _, err := io.ReadFull(dm.heapFile, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Wrapf(ErrShortRead, "page %d", pageId)
		}
		return errors.Wrapf(err, "read page %d", pageId)
	}
	return nil
}

// WritePageData writes data as the content of page pageId.
func (dm *DiskManager) WritePageData(pageId common.PageId, data []byte) error {
	if len(data) != pageSize {
		return errors.Errorf("page buffer is %d bytes, want %d", len(data), pageSize)
	}
	if _, err := dm.heapFile.Seek(dm.offset(pageId), io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to page %d", pageId)
	}
	if _, err := dm.heapFile.Write(data); err != nil {
		return errors.Wrapf(err, "write page %d", pageId)
	}
	return nil
}

func (dm *DiskManager) offset(pageId common.PageId) int64 {
	return int64(pageId) * pageSize
}
