package disk

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ytakasugi/toy-rdbms/src/common"
)

// BufferPoolManager caches pages of a Disk in a fixed number of frames and
// reclaims frames with a clock sweep. A page stays in its frame for as long as
// a PageHandle on it is alive.
type BufferPoolManager struct {
	disk      Disk
	pool      *BufferPool
	pageTable map[common.PageId]BufferId
	metrics   *Metrics
	mu        sync.Mutex
}

// NewBufferPoolManager builds a pool of size frames over disk. metrics may be
// nil, in which case unregistered counters are used.
func NewBufferPoolManager(size int, disk Disk, metrics *Metrics) *BufferPoolManager {
	if metrics == nil {
		metrics = NewMetrics("")
	}
	return &BufferPoolManager{
		disk:      disk,
		pool:      NewBufferPool(size),
		pageTable: make(map[common.PageId]BufferId),
		metrics:   metrics,
	}
}

func (bpm *BufferPoolManager) Size() int { return bpm.pool.Size() }

// FetchPage returns a pinned handle on page pageId, reading it from disk if it
// is not cached. It fails with common.ErrBufferPoolExhausted when every frame
// is pinned; disk errors are returned as is.
func (bpm *BufferPoolManager) FetchPage(pageId common.PageId) (*PageHandle, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if bufferId, ok := bpm.pageTable[pageId]; ok {
		frame := bpm.pool.frame(bufferId)
		frame.touch()
		bpm.metrics.Hits.Inc()
		return newPageHandle(frame.buffer), nil
	}
	bpm.metrics.Misses.Inc()

	bufferId, err := bpm.reclaimFrame()
	if err != nil {
		return nil, err
	}
	frame := bpm.pool.frame(bufferId)
	buffer := frame.buffer

	ref := buffer.borrowRaw()
	err = bpm.disk.ReadPageData(pageId, ref.Bytes())
	ref.Release()
	if err != nil {
		log.WithError(err).Warnf("Cannot read page %d from disk.", pageId)
		return nil, err
	}

	bpm.install(bufferId, pageId, false)
	return newPageHandle(buffer), nil
}

// CreatePage allocates a new page on disk and returns a pinned handle on it.
// The page starts zeroed and dirty; nothing is read from disk.
func (bpm *BufferPoolManager) CreatePage() (*PageHandle, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	bufferId, err := bpm.reclaimFrame()
	if err != nil {
		return nil, err
	}
	buffer := bpm.pool.frame(bufferId).buffer

	ref := buffer.borrowRaw()
	data := ref.Bytes()
	for i := range data {
		data[i] = 0
	}
	ref.Release()

	pageId := bpm.disk.AllocatePage()
	bpm.install(bufferId, pageId, true)
	return newPageHandle(buffer), nil
}

// FlushPage writes page pageId to disk if it is cached and dirty.
func (bpm *BufferPoolManager) FlushPage(pageId common.PageId) error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	bufferId, ok := bpm.pageTable[pageId]
	if !ok {
		log.Debugf("Page %d is not in buffer. Nothing to flush.", pageId)
		return nil
	}
	return bpm.writeBack(bpm.pool.frame(bufferId).buffer)
}

// FlushAllPages writes every dirty cached page to disk.
func (bpm *BufferPoolManager) FlushAllPages() error {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	for _, bufferId := range bpm.pageTable {
		if err := bpm.writeBack(bpm.pool.frame(bufferId).buffer); err != nil {
			return err
		}
	}
	return nil
}

// reclaimFrame picks a victim with the clock sweep and empties it, writing
// the old page back first if it is dirty.
func (bpm *BufferPoolManager) reclaimFrame() (BufferId, error) {
	bufferId, found := bpm.pool.evict()
	if !found {
		bpm.metrics.Exhausted.Inc()
		log.Warnf("Buffer pool is full, all %d frames are pinned.", bpm.pool.Size())
		return 0, common.ErrBufferPoolExhausted
	}
	buffer := bpm.pool.frame(bufferId).buffer
	oldPageId := buffer.PageId()
	if !oldPageId.IsValid() {
		return bufferId, nil
	}
	if err := bpm.writeBack(buffer); err != nil {
		return 0, err
	}
	delete(bpm.pageTable, oldPageId)
	buffer.pageId = common.InvalidPageId
	bpm.metrics.Evictions.Inc()
	log.Debugf("Evicted page %d from frame %d.", oldPageId, bufferId)
	return bufferId, nil
}

func (bpm *BufferPoolManager) install(bufferId BufferId, pageId common.PageId, dirty bool) {
	frame := bpm.pool.frame(bufferId)
	frame.buffer.pageId = pageId
	frame.buffer.setDirty(dirty)
	frame.usageCount = 1
	bpm.pageTable[pageId] = bufferId
}

func (bpm *BufferPoolManager) writeBack(buffer *Buffer) error {
	if !buffer.IsDirty() {
		return nil
	}
	ref := buffer.Borrow()
	err := bpm.disk.WritePageData(buffer.PageId(), ref.Bytes())
	ref.Release()
	if err != nil {
		log.WithError(err).Errorf("Cannot write page %d back.", buffer.PageId())
		return err
	}
	buffer.setDirty(false)
	bpm.metrics.WriteBacks.Inc()
	return nil
}
