package disk

import "fmt"

// maxUsageCount caps the chances a frame can bank, so a hot page is
// reclaimable within maxUsageCount+1 sweeps once it is unpinned.
const maxUsageCount = 5

// BufferId addresses a frame in the pool.
type BufferId int

// Frame is one slot of the pool. usageCount is the number of clock sweeps the
// frame survives before it can be reclaimed.
type Frame struct {
	usageCount uint64
	buffer     *Buffer
}

// BufferPool is a fixed array of frames with a clock hand.
type BufferPool struct {
	frames       []Frame
	nextVictimId BufferId
}

func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		panic(fmt.Sprintf("invalid buffer pool size %d", size))
	}
	frames := make([]Frame, size)
	for i := range frames {
		frames[i].buffer = newBuffer()
	}
	return &BufferPool{frames: frames}
}

func (p *BufferPool) Size() int { return len(p.frames) }

// touch records an access to the frame.
func (f *Frame) touch() {
	if f.usageCount < maxUsageCount {
		f.usageCount++
	}
}

func (p *BufferPool) frame(id BufferId) *Frame { return &p.frames[id] }

// evict runs the clock sweep from the current hand position and returns an
// unpinned frame whose chances are used up. Unpinned frames lose one chance
// per visit. It gives up after seeing Size() pinned frames in a row.
func (p *BufferPool) evict() (BufferId, bool) {
	poolSize := p.Size()
	consecutivePinned := 0
	for {
		victimId := p.nextVictimId
		frame := p.frame(victimId)
		pinned := frame.buffer.isPinned()
		if frame.usageCount == 0 && !pinned {
			return victimId, true
		}
		if !pinned {
			frame.usageCount--
			consecutivePinned = 0
		} else {
			consecutivePinned++
			if consecutivePinned >= poolSize {
				return 0, false
			}
		}
		p.nextVictimId = p.incrementId(victimId)
	}
}

func (p *BufferPool) incrementId(id BufferId) BufferId {
	return BufferId((int(id) + 1) % p.Size())
}
