package table

import (
	"bytes"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/ytakasugi/toy-rdbms/src/common"
	"github.com/ytakasugi/toy-rdbms/src/disk"
	"github.com/ytakasugi/toy-rdbms/src/slotted"
)

func openTestPool(t *testing.T, fileName string) (*disk.BufferPoolManager, *disk.DiskManager) {
	dm, err := disk.Open(fileName, false)
	require.Nil(t, err)
	t.Cleanup(func() { dm.Close() })
	return disk.NewBufferPoolManager(2, dm, nil), dm
}

func newTestHeap(t *testing.T) (*TableHeap, *disk.BufferPoolManager) {
	bpm, _ := openTestPool(t, filepath.Join(t.TempDir(), "heap"))
	th, err := NewTableHeap(bpm)
	require.Nil(t, err)
	return th, bpm
}

func TestTableHeap_InsertGet(t *testing.T) {
	th, _ := newTestHeap(t)

	records := make([][]byte, 0)
	rids := make([]common.RID, 0)
	for i := 0; i < 100; i++ {
		record := make([]byte, 10+rand.Intn(200))
		rand.Read(record)
		rid, err := th.Insert(record)
		require.Nil(t, err)
		require.NotEqual(t, th.HeaderPageId(), rid.PageId)
		records = append(records, record)
		rids = append(rids, rid)
	}
	require.Greater(t, len(th.PageIds()), 1)

	for i, rid := range rids {
		record, found, err := th.Get(rid)
		require.Nil(t, err)
		require.True(t, found)
		require.Equal(t, records[i], record)
	}

	_, found, err := th.Get(common.RID{PageId: rids[0].PageId, SlotNum: 1000})
	require.Nil(t, err)
	require.False(t, found)
	_, found, err = th.Get(common.RID{PageId: th.HeaderPageId(), SlotNum: 0})
	require.Nil(t, err)
	require.False(t, found)
	_, found, err = th.Get(common.RID{PageId: common.PageId(999), SlotNum: 0})
	require.Nil(t, err)
	require.False(t, found)
}

func TestTableHeap_FillsEarlierPages(t *testing.T) {
	th, _ := newTestHeap(t)

	big := bytes.Repeat([]byte{1}, 3000)
	first, err := th.Insert(big)
	require.Nil(t, err)
	second, err := th.Insert(big)
	require.Nil(t, err)
	require.NotEqual(t, first.PageId, second.PageId)

	small, err := th.Insert([]byte("small"))
	require.Nil(t, err)
	require.Equal(t, first.PageId, small.PageId)
	require.Equal(t, 1, small.SlotNum)
}

func TestTableHeap_RecordTooLarge(t *testing.T) {
	th, _ := newTestHeap(t)

	_, err := th.Insert(make([]byte, maxRecordSize+1))
	require.True(t, errors.Is(err, ErrRecordTooLarge))
	require.Equal(t, 0, len(th.PageIds()))

	rid, err := th.Insert(make([]byte, maxRecordSize))
	require.Nil(t, err)
	require.Equal(t, 0, rid.SlotNum)
}

func TestTableHeap_Reopen(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "heap")
	bpm, dm := openTestPool(t, fileName)
	th, err := NewTableHeap(bpm)
	require.Nil(t, err)

	rids := make([]common.RID, 0)
	for i := 0; i < 20; i++ {
		rid, err := th.Insert(bytes.Repeat([]byte{byte(i)}, 500))
		require.Nil(t, err)
		rids = append(rids, rid)
	}
	require.Nil(t, bpm.FlushAllPages())
	require.Nil(t, dm.Close())

	// Only the header page id survives the restart.
	headerPageId := th.HeaderPageId()
	newBpm, _ := openTestPool(t, fileName)
	reopened, err := OpenTableHeap(newBpm, headerPageId)
	require.Nil(t, err)
	require.Equal(t, th.PageIds(), reopened.PageIds())
	require.Equal(t, th.pages, reopened.pages)
	for i, rid := range rids {
		record, found, err := reopened.Get(rid)
		require.Nil(t, err)
		require.True(t, found)
		require.Equal(t, bytes.Repeat([]byte{byte(i)}, 500), record)
	}

	rid, err := reopened.Insert([]byte("after restart"))
	require.Nil(t, err)
	record, found, err := reopened.Get(rid)
	require.Nil(t, err)
	require.True(t, found)
	require.Equal(t, []byte("after restart"), record)
}

func TestTableHeap_HeaderFull(t *testing.T) {
	th, _ := newTestHeap(t)

	capacity := (common.PageSize - slotted.HeaderSize) / (slotted.PointerSize + common.PageIdSize)
	for i := 0; i < capacity; i++ {
		_, err := th.Insert(make([]byte, maxRecordSize))
		require.Nil(t, err)
	}
	require.Equal(t, capacity, len(th.PageIds()))

	_, err := th.Insert(make([]byte, maxRecordSize))
	require.True(t, errors.Is(err, ErrHeapFull))
	require.Equal(t, capacity, len(th.PageIds()))
}

func TestTableHeap_CorruptHeader(t *testing.T) {
	th, bpm := newTestHeap(t)
	_, err := th.Insert([]byte("record"))
	require.Nil(t, err)

	header, err := bpm.FetchPage(th.HeaderPageId())
	require.Nil(t, err)
	require.Nil(t, header.Update(func(data []byte) error {
		sp := slotted.New(data)
		require.True(t, sp.Insert(sp.NumSlots(), 5))
		return nil
	}))
	header.Release()

	_, err = OpenTableHeap(bpm, th.HeaderPageId())
	require.NotNil(t, err)
}
