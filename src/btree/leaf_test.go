package btree

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/ncw/directio"
	"github.com/stretchr/testify/require"

	"github.com/ytakasugi/toy-rdbms/src/common"
	"github.com/ytakasugi/toy-rdbms/src/slotted"
)

const (
	pageSize = common.PageSize
)

func newLeaf() (*Leaf, []byte) {
	data := directio.AlignedBlock(pageSize)
	leaf := NewLeaf(data)
	leaf.Initialize()
	return leaf, data
}

// insertSorted places key at the slot SearchSlotId picks.
func insertSorted(t *testing.T, leaf *Leaf, key, value []byte) bool {
	slotId, found := leaf.SearchSlotId(key)
	require.False(t, found, "duplicate key %q", key)
	return leaf.Insert(slotId, key, value)
}

func TestLeaf_Initialize(t *testing.T) {
	leaf, data := newLeaf()

	_, ok := leaf.PrevPageId()
	require.False(t, ok)
	_, ok = leaf.NextPageId()
	require.False(t, ok)
	require.Equal(t, 0, leaf.NumPairs())
	require.Equal(t, pageSize-LeafHeaderSize-slotted.HeaderSize, leaf.FreeSpace())
	require.Equal(t, bytes.Repeat([]byte{0xFF}, LeafHeaderSize), data[:LeafHeaderSize])
}

func TestLeaf_SiblingIds(t *testing.T) {
	leaf, data := newLeaf()

	for _, raw := range []uint64{0, 1, 77, math.MaxUint64 - 1} {
		leaf.SetPrevPageId(common.PageId(raw))
		leaf.SetNextPageId(common.PageId(raw + 1))

		prev, ok := leaf.PrevPageId()
		require.True(t, ok)
		require.Equal(t, common.PageId(raw), prev)
		require.Equal(t, raw, byteOrder.Uint64(data[0:8]))
	}
	// raw+1 wrapped to the sentinel above.
	_, ok := leaf.NextPageId()
	require.False(t, ok)

	byteOrder.PutUint64(data[0:8], math.MaxUint64)
	_, ok = leaf.PrevPageId()
	require.False(t, ok)
}

func TestLeaf_SearchSlotId(t *testing.T) {
	leaf, _ := newLeaf()
	keys := []int{1, 2, 3, 5, 8, 13, 21}
	for _, k := range keys {
		require.True(t, insertSorted(t, leaf, []byte{byte(k)}, []byte(fmt.Sprintf("v%d", k))))
	}

	slotId, found := leaf.SearchSlotId([]byte{8})
	require.True(t, found)
	require.Equal(t, 4, slotId)
	require.Equal(t, []byte("v8"), leaf.PairAt(slotId).Value)

	slotId, found = leaf.SearchSlotId([]byte{6})
	require.False(t, found)
	require.Equal(t, 4, slotId)

	slotId, found = leaf.SearchSlotId([]byte{22})
	require.False(t, found)
	require.Equal(t, 7, slotId)

	slotId, found = leaf.SearchSlotId([]byte{})
	require.False(t, found)
	require.Equal(t, 0, slotId)
}

func TestLeaf_RandomInsertOrder(t *testing.T) {
	leaf, _ := newLeaf()
	rng := rand.New(rand.NewSource(7))

	for _, i := range rng.Perm(100) {
		key := []byte(fmt.Sprintf("key-%04d", i*2))
		require.True(t, insertSorted(t, leaf, key, []byte(fmt.Sprintf("value-%d", i))))
	}
	require.Equal(t, 100, leaf.NumPairs())

	for i := 0; i < leaf.NumPairs()-1; i++ {
		require.Equal(t, -1, bytes.Compare(leaf.PairAt(i).Key, leaf.PairAt(i+1).Key))
	}
	for i := 0; i < 100; i++ {
		slotId, found := leaf.SearchSlotId([]byte(fmt.Sprintf("key-%04d", i*2)))
		require.True(t, found)
		require.Equal(t, i, slotId)
		require.Equal(t, []byte(fmt.Sprintf("value-%d", i)), leaf.PairAt(slotId).Value)

		slotId, found = leaf.SearchSlotId([]byte(fmt.Sprintf("key-%04d", i*2+1)))
		require.False(t, found)
		require.Equal(t, i+1, slotId)
	}
}

func TestLeaf_Full(t *testing.T) {
	leaf, _ := newLeaf()
	value := bytes.Repeat([]byte{'x'}, 500)

	n := 0
	for insertSorted(t, leaf, []byte(fmt.Sprintf("%03d", n)), value) {
		n++
	}
	pairSize := Pair{Key: []byte("000"), Value: value}.EncodedSize() + slotted.PointerSize
	require.Equal(t, (leaf.MaxPairSize()+slotted.PointerSize)/pairSize, n)
	require.Less(t, leaf.FreeSpace(), pairSize)
	require.Equal(t, n, leaf.NumPairs())

	big, _ := newLeaf()
	tooBig := make([]byte, big.MaxPairSize()-2*lenPrefixSize+1)
	require.False(t, big.Insert(0, nil, tooBig))
	require.True(t, big.Insert(0, nil, tooBig[1:]))
	require.Equal(t, 0, big.FreeSpace())
}

func TestLeaf_OutOfRange(t *testing.T) {
	leaf, _ := newLeaf()
	require.Panics(t, func() { leaf.PairAt(0) })
	require.Panics(t, func() { NewLeaf(make([]byte, LeafHeaderSize-1)) })
}
