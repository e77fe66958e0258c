package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPair_Bytes(t *testing.T) {
	pair := Pair{Key: []byte("key"), Value: []byte("a longer value")}
	data := pair.ToBytes()
	require.Equal(t, pair.EncodedSize(), len(data))
	require.Equal(t, uint64(3), byteOrder.Uint64(data[0:8]))
	require.Equal(t, []byte("key"), data[8:11])
	require.Equal(t, uint64(14), byteOrder.Uint64(data[11:19]))

	decoded := PairFromBytes(data)
	require.Equal(t, pair.Key, decoded.Key)
	require.Equal(t, pair.Value, decoded.Value)
}

func TestPair_Empty(t *testing.T) {
	decoded := PairFromBytes(Pair{}.ToBytes())
	require.Equal(t, 0, len(decoded.Key))
	require.Equal(t, 0, len(decoded.Value))
}

func TestPair_Malformed(t *testing.T) {
	data := Pair{Key: []byte("k"), Value: []byte("v")}.ToBytes()

	require.Panics(t, func() { PairFromBytes(data[:5]) })
	require.Panics(t, func() { PairFromBytes(data[:len(data)-1]) })
	require.Panics(t, func() { PairFromBytes(append(data, 0)) })

	bad := append([]byte{}, data...)
	byteOrder.PutUint64(bad, 1000)
	require.Panics(t, func() { PairFromBytes(bad) })
}
